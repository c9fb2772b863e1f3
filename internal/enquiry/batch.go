package enquiry

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isp-standards/enquiry-intake/internal/model"
)

// Item statuses in a batch response.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// acceptedMessage is returned for every successfully ingested email.
const acceptedMessage = "Enquiry queued for parsing"

// ItemResult is the outcome for one email in a batch.
type ItemResult struct {
	EnquiryID string `json:"enquiry_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

// BatchResult is the response for one bulk call: exactly one ItemResult per
// input email, in input order.
type BatchResult struct {
	BatchID   string       `json:"batch_id"`
	Enquiries []ItemResult `json:"enquiries"`
}

// BatchProcessor ingests a list of inbound emails independently: each email
// is fingerprinted, deduplicated and assembled in turn. One item's failure
// never aborts the batch. Processing is synchronous and strictly sequential,
// so later items observe products created by earlier ones.
type BatchProcessor struct {
	dedup     *Deduplicator
	assembler *Assembler
}

// NewBatchProcessor creates a bulk batch processor.
func NewBatchProcessor(dedup *Deduplicator, assembler *Assembler) *BatchProcessor {
	return &BatchProcessor{dedup: dedup, assembler: assembler}
}

// ProcessBatch runs every email through the ingestion pipeline and collects
// per-item results. Duplicates are rejected naming the original enquiry id
// and skip assembly entirely; any other failure is reported as rejected with
// the error text and processing continues with the next email.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, emails []model.EmailRequest) (*BatchResult, error) {
	batch := &BatchResult{
		BatchID:   generateBatchID(),
		Enquiries: make([]ItemResult, 0, len(emails)),
	}

	for i, email := range emails {
		result := p.processOne(ctx, email)
		batch.Enquiries = append(batch.Enquiries, result)
		if result.Status == StatusRejected {
			zap.L().Warn("batch: item rejected",
				zap.String("batch_id", batch.BatchID),
				zap.Int("index", i),
				zap.String("enquiry_id", result.EnquiryID),
				zap.String("reason", result.Message),
			)
		}
	}

	zap.L().Info("batch: processed",
		zap.String("batch_id", batch.BatchID),
		zap.Int("total", len(emails)),
		zap.Int("accepted", countByStatus(batch.Enquiries, StatusAccepted)),
		zap.Int("rejected", countByStatus(batch.Enquiries, StatusRejected)),
	)

	return batch, nil
}

// processOne ingests a single email and never returns an error: every
// failure becomes a rejected result.
func (p *BatchProcessor) processOne(ctx context.Context, email model.EmailRequest) ItemResult {
	enquiryID := GenerateEnquiryID(time.Now().UTC())
	hash := Fingerprint(email)

	originalID, found, err := p.dedup.IsDuplicate(ctx, hash)
	if err != nil {
		return ItemResult{EnquiryID: enquiryID, Status: StatusRejected, Message: err.Error()}
	}
	if found {
		return ItemResult{
			EnquiryID: enquiryID,
			Status:    StatusRejected,
			Message:   (&DuplicateError{EnquiryID: originalID}).Error(),
		}
	}

	if _, err := p.assembler.AssembleEmail(ctx, email, enquiryID, time.Now().UTC()); err != nil {
		return ItemResult{EnquiryID: enquiryID, Status: StatusRejected, Message: err.Error()}
	}
	if err := p.dedup.Record(ctx, hash, enquiryID); err != nil {
		return ItemResult{EnquiryID: enquiryID, Status: StatusRejected, Message: err.Error()}
	}

	return ItemResult{EnquiryID: enquiryID, Status: StatusAccepted, Message: acceptedMessage}
}

func countByStatus(results []ItemResult, status string) int {
	n := 0
	for _, r := range results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// generateBatchID produces a fresh batch identifier.
func generateBatchID() string {
	u := uuid.New()
	return "batch-" + hex.EncodeToString(u[:])[:8]
}
