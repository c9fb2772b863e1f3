package enquiry

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/isp-standards/enquiry-intake/internal/model"
)

// Expected formats for portal-path date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Submission is a structured portal-path enquiry: explicit per-field line
// items with strict validation of date, time and enum fields.
type Submission struct {
	CustomerID  string                 `json:"customer_id"`
	EnquiryDate string                 `json:"enquiry_date"`
	EnquiryTime string                 `json:"enquiry_time"`
	Status      string                 `json:"status,omitempty"`
	Channel     string                 `json:"enquiry_channel,omitempty"`
	IsActive    *bool                  `json:"is_enquiry_active,omitempty"`
	Products    []model.EnquiryProduct `json:"products"`
}

// Assembler builds Enquiry aggregates from portal submissions or extracted
// emails. Each assembly resolves every line item's product and persists the
// enquiry header, all line items and any newly created products as one
// transaction: all rows written or none.
type Assembler struct {
	store Store
}

// NewAssembler creates an enquiry assembler.
func NewAssembler(store Store) *Assembler {
	return &Assembler{store: store}
}

// Assemble handles the portal path. A malformed date/time or unknown enum
// value fails with ValidationError, a missing customer with NotFoundError;
// both abort before any writes.
func (a *Assembler) Assemble(ctx context.Context, sub Submission) (*model.Enquiry, error) {
	when, err := combineDateTime(sub.EnquiryDate, sub.EnquiryTime)
	if err != nil {
		return nil, err
	}

	status := model.EnquiryStatus(sub.Status)
	if sub.Status == "" {
		status = model.EnquiryOpen
	} else if !status.Valid() {
		return nil, NewValidationError("invalid status %q: expected open, processed or closed", sub.Status)
	}

	channel := model.EnquiryChannel(sub.Channel)
	if sub.Channel == "" {
		channel = model.ChannelPortal
	} else if !channel.Valid() {
		return nil, NewValidationError("invalid enquiry_channel %q: expected Email or Portal", sub.Channel)
	}

	for _, item := range sub.Products {
		if item.Standards != "" && !model.Standards(item.Standards).Valid() {
			return nil, NewValidationError("invalid standards %q: expected USA or UK", item.Standards)
		}
	}

	active := true
	if sub.IsActive != nil {
		active = *sub.IsActive
	}

	e := &model.Enquiry{
		EnquiryID:       GenerateEnquiryID(time.Now().UTC()),
		CustomerID:      sub.CustomerID,
		EnquiryDatetime: when,
		Status:          status,
		IsEnquiryActive: active,
		EnquiryChannel:  channel,
	}

	return a.assemble(ctx, e, sub.Products, nil)
}

// AssembleEmail handles the email-extraction path under the provided
// provisional enquiry id. Validation is looser than the portal path: a
// missing quantity defaults to 0.0 and an invalid standards value is coerced
// to the default rather than rejected. The reference time stamps the
// enquiry.
func (a *Assembler) AssembleEmail(ctx context.Context, req model.EmailRequest, enquiryID string, ref time.Time) (*model.Enquiry, error) {
	items := make([]model.EnquiryProduct, 0, len(req.Products))
	names := make([]string, 0, len(req.Products))
	for _, p := range req.Products {
		quantity := 0.0
		if p.Quantity != nil {
			quantity = *p.Quantity
		}
		flag := p.Flag
		if flag == "" {
			flag = model.FlagKnown
		}
		items = append(items, model.EnquiryProduct{
			Quantity:        quantity,
			ChemicalName:    p.ChemicalName,
			Price:           p.Price,
			CASNumber:       p.CASNumber,
			CatNumber:       p.CatNumber,
			MolecularWeight: p.MolecularWeight,
			Variant:         p.Variant,
			Standards:       string(CoerceStandards(p.Standards)),
			Flag:            flag,
			AttachmentRef:   p.AttachmentRef,
		})
		names = append(names, p.ProductName)
	}

	e := &model.Enquiry{
		EnquiryID:       enquiryID,
		CustomerID:      req.CustomerID,
		EnquiryDatetime: ref,
		Status:          model.EnquiryOpen,
		IsEnquiryActive: true,
		EnquiryChannel:  model.ChannelEmail,
	}

	return a.assemble(ctx, e, items, names)
}

// assemble is the shared tail of both entry points: verify the customer,
// then resolve products, claim a sequence name and persist inside one
// transaction. names carries the per-item claimed product names from the
// email path; the portal path passes nil. A resolution failure on any line
// item aborts the whole enquiry.
func (a *Assembler) assemble(ctx context.Context, e *model.Enquiry, items []model.EnquiryProduct, names []string) (*model.Enquiry, error) {
	customer, err := a.store.GetCustomer(ctx, e.CustomerID)
	if err != nil {
		return nil, eris.Wrapf(err, "assemble: get customer %s", e.CustomerID)
	}
	if customer == nil {
		return nil, &NotFoundError{Kind: "customer", ID: e.CustomerID}
	}

	err = a.store.InTx(ctx, func(txs Store) error {
		name, err := txs.NextEnquiryName(ctx)
		if err != nil {
			return eris.Wrap(err, "assemble: next enquiry name")
		}
		e.EnquiryName = name

		resolver := NewResolver(txs)
		for i := range items {
			name := ""
			if i < len(names) {
				name = names[i]
			}
			product, _, err := resolver.Resolve(ctx, Candidate{
				ProductID:       items[i].ProductID,
				ProductName:     name,
				ChemicalName:    items[i].ChemicalName,
				CASNumber:       items[i].CASNumber,
				CatNumber:       items[i].CatNumber,
				MolecularWeight: items[i].MolecularWeight,
			})
			if err != nil {
				return err
			}
			items[i].ProductID = product.ProductID
			items[i].EnquiryID = e.EnquiryID
		}
		e.Products = items

		return txs.InsertEnquiry(ctx, e)
	})
	if err != nil {
		if IsValidation(err) || IsNotFound(err) {
			return nil, err
		}
		return nil, &PersistenceError{Err: err}
	}

	zap.L().Info("assemble: enquiry created",
		zap.String("enquiry_id", e.EnquiryID),
		zap.String("enquiry_name", e.EnquiryName),
		zap.String("customer_id", e.CustomerID),
		zap.String("channel", string(e.EnquiryChannel)),
		zap.Int("line_items", len(e.Products)),
	)

	return e, nil
}

// combineDateTime parses the portal-path date and time fields and combines
// them into one timestamp.
func combineDateTime(date, timeOfDay string) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, NewValidationError("invalid enquiry_date %q: expected format YYYY-MM-DD", date)
	}
	t, err := time.Parse(TimeLayout, timeOfDay)
	if err != nil {
		return time.Time{}, NewValidationError("invalid enquiry_time %q: expected format HH:MM", timeOfDay)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// GenerateEnquiryID produces a fresh enquiry identity in the historical
// ispMM/YY/NNNN format, with a random 4-digit suffix.
func GenerateEnquiryID(now time.Time) string {
	u := uuid.New()
	n := binary.BigEndian.Uint32(u[0:4]) % 10000
	return fmt.Sprintf("isp%02d/%02d/%04d", int(now.Month()), now.Year()%100, n)
}
