// Package ingest orchestrates the email intake flow: fetch an enquiry email
// from the inbox, extract structured data with the model, resolve the
// customer, run the enquiry ingestion pipeline, and acknowledge the sender.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/extract"
	"github.com/isp-standards/enquiry-intake/internal/mail"
	"github.com/isp-standards/enquiry-intake/internal/model"
	"github.com/isp-standards/enquiry-intake/internal/store"
)

// contactOwner tags customers auto-created from inbound email.
const contactOwner = "ISP Email"

// Ingestor runs the intake flow for one email at a time.
type Ingestor struct {
	fetcher    mail.Fetcher
	extractor  extract.Extractor
	store      store.Store
	dedup      *enquiry.Deduplicator
	assembler  *enquiry.Assembler
	ack        mail.Acknowledger
	enquiryURL string
}

// New creates an Ingestor. ack may be nil to skip acknowledgments.
func New(fetcher mail.Fetcher, extractor extract.Extractor, st store.Store, ack mail.Acknowledger, enquiryURL string) *Ingestor {
	return &Ingestor{
		fetcher:    fetcher,
		extractor:  extractor,
		store:      st,
		dedup:      enquiry.NewDeduplicator(st),
		assembler:  enquiry.NewAssembler(st),
		ack:        ack,
		enquiryURL: enquiryURL,
	}
}

// RunOnce processes at most one inbound email. An empty inbox is not an
// error. A duplicate email is skipped without creating anything.
func (in *Ingestor) RunOnce(ctx context.Context) error {
	email, err := in.fetcher.FetchLatest(ctx)
	if err != nil {
		return eris.Wrap(err, "ingest: fetch email")
	}
	if email == nil {
		return nil
	}

	data, err := in.extractor.Extract(ctx, email.Content, email.Date)
	if err != nil {
		return eris.Wrap(err, "ingest: extract email")
	}

	customerID, err := in.getOrCreateCustomer(ctx, data.CustomerDetails, email.Sender)
	if err != nil {
		return err
	}

	req := extract.ToEmailRequest(data, customerID, email.Content)
	hash := enquiry.Fingerprint(req)

	originalID, found, err := in.dedup.IsDuplicate(ctx, hash)
	if err != nil {
		return eris.Wrap(err, "ingest: dedup lookup")
	}
	if found {
		zap.L().Info("ingest: duplicate email skipped",
			zap.String("sender", email.Sender),
			zap.String("original_enquiry_id", originalID),
		)
		return nil
	}

	enquiryID := enquiry.GenerateEnquiryID(email.Date)
	if err := in.setParsingStatus(ctx, enquiryID, model.ParsingProcessing, "Enquiry queued for parsing", nil, ""); err != nil {
		return err
	}

	e, err := in.assembler.AssembleEmail(ctx, req, enquiryID, email.Date)
	if err != nil {
		if statusErr := in.setParsingStatus(ctx, enquiryID, model.ParsingFailed, "", nil, err.Error()); statusErr != nil {
			zap.L().Warn("ingest: failed to record parsing failure", zap.Error(statusErr))
		}
		return eris.Wrapf(err, "ingest: assemble enquiry %s", enquiryID)
	}

	if err := in.dedup.Record(ctx, hash, e.EnquiryID); err != nil {
		zap.L().Warn("ingest: failed to record fingerprint", zap.Error(err))
	}

	parsed, err := json.Marshal(data)
	if err != nil {
		parsed = nil
	}
	if err := in.setParsingStatus(ctx, e.EnquiryID, model.ParsingCompleted, "Enquiry parsed successfully", parsed, ""); err != nil {
		zap.L().Warn("ingest: failed to record parsing completion", zap.Error(err))
	}

	in.logChange(ctx, e.EnquiryID)
	in.acknowledge(ctx, email, data, e)

	zap.L().Info("ingest: email ingested",
		zap.String("enquiry_id", e.EnquiryID),
		zap.String("enquiry_name", e.EnquiryName),
		zap.String("customer_id", customerID),
		zap.Int("line_items", len(e.Products)),
	)
	return nil
}

// getOrCreateCustomer resolves the sender to a customer record by email.
// The extracted address wins; the envelope sender is the fallback.
func (in *Ingestor) getOrCreateCustomer(ctx context.Context, details extract.CustomerDetails, sender string) (string, error) {
	address := details.Email
	if address == "" {
		address = sender
	}
	if address == "" {
		return "", eris.New("ingest: no customer email on message")
	}

	existing, err := in.store.GetCustomerByEmail(ctx, address)
	if err != nil {
		return "", eris.Wrapf(err, "ingest: lookup customer %s", address)
	}
	if existing != nil {
		return existing.CustomerID, nil
	}

	name := details.CustomerName
	if name == "" {
		name = "Unknown"
	}
	customer := &model.Customer{
		CustomerID:   uuid.NewString(),
		Name:         name,
		Email:        address,
		Phone:        details.Phone,
		Flag:         model.FlagKnown,
		ContactOwner: contactOwner,
	}
	if details.CompanyName != nil {
		customer.Organization = *details.CompanyName
	}
	if details.Address != nil {
		customer.Address = *details.Address
	}

	if err := in.store.CreateCustomer(ctx, customer); err != nil {
		return "", eris.Wrapf(err, "ingest: create customer %s", address)
	}
	zap.L().Info("ingest: created customer from email",
		zap.String("customer_id", customer.CustomerID),
		zap.String("email", address),
	)
	return customer.CustomerID, nil
}

func (in *Ingestor) setParsingStatus(ctx context.Context, enquiryID string, state model.ParsingState, message string, parsed []byte, errDetails string) error {
	err := in.store.SetParsingStatus(ctx, &model.ParsingStatus{
		ParsingStatusID: uuid.NewString(),
		EnquiryID:       enquiryID,
		Status:          state,
		Message:         message,
		ParsedData:      parsed,
		ErrorDetails:    errDetails,
		Timestamp:       time.Now().UTC(),
	})
	if err != nil {
		return eris.Wrapf(err, "ingest: set parsing status for %s", enquiryID)
	}
	return nil
}

func (in *Ingestor) logChange(ctx context.Context, enquiryID string) {
	err := in.store.InsertChangeLog(ctx, &model.ChangeLog{
		TableName: "enquiries",
		RecordID:  enquiryID,
		Action:    "create",
		UserID:    "system",
		Timestamp: time.Now().UTC(),
		Details:   "created from inbound email",
	})
	if err != nil {
		zap.L().Warn("ingest: failed to write change log", zap.Error(err))
	}
}

// acknowledge emails the sender. Failures are logged, never fatal: the
// enquiry is already persisted.
func (in *Ingestor) acknowledge(ctx context.Context, email *mail.InboundEmail, data *extract.ExtractedData, e *model.Enquiry) {
	if in.ack == nil {
		return
	}

	details := mail.AckDetails{
		To:           email.Sender,
		CC:           email.CC,
		EnquiryID:    e.EnquiryID,
		EnquiryDate:  data.EnquiryDetails.EnquiryDate,
		EnquiryTime:  data.EnquiryDetails.EnquiryTime,
		CustomerName: data.CustomerDetails.CustomerName,
		EditURL:      fmt.Sprintf("%s/enquiries/%s", in.enquiryURL, e.EnquiryID),
	}
	if data.CustomerDetails.CompanyName != nil {
		details.CompanyName = *data.CustomerDetails.CompanyName
	}

	if err := in.ack.SendAcknowledgment(ctx, details); err != nil {
		zap.L().Warn("ingest: acknowledgment failed",
			zap.String("enquiry_id", e.EnquiryID),
			zap.Error(err),
		)
	}
}
