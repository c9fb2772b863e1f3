package enquiry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/isp-standards/enquiry-intake/internal/model"
)

// Fingerprint computes the duplicate-suppression hash for an inbound email:
// a SHA-256 digest over the free-text content followed by the ordered
// product names. Sender, attachments and quantities are deliberately
// excluded, so a re-sent email with identical body and product list hashes
// identically. This is coarse-grained dedup, not an integrity check.
func Fingerprint(email model.EmailRequest) string {
	h := sha256.New()
	h.Write([]byte(email.EmailContent))
	for _, p := range email.Products {
		h.Write([]byte(p.ProductName))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Deduplicator checks and records email fingerprints against the hash store.
// Fingerprints are retained indefinitely.
type Deduplicator struct {
	store Store
}

// NewDeduplicator creates a fingerprint deduplicator.
func NewDeduplicator(store Store) *Deduplicator {
	return &Deduplicator{store: store}
}

// IsDuplicate looks up hash in the store. On a match it returns the enquiry
// id the original email produced and found=true.
func (d *Deduplicator) IsDuplicate(ctx context.Context, hash string) (string, bool, error) {
	existing, err := d.store.GetFingerprint(ctx, hash)
	if err != nil {
		return "", false, eris.Wrap(err, "dedup: lookup fingerprint")
	}
	if existing == nil {
		return "", false, nil
	}
	return existing.EnquiryID, true, nil
}

// Record persists the fingerprint of an accepted email so subsequent
// identical submissions are rejected. If Record fails after the enquiry was
// persisted, a later identical email will be processed again; the caller
// surfaces the error and moves on.
func (d *Deduplicator) Record(ctx context.Context, hash, enquiryID string) error {
	if err := d.store.RecordFingerprint(ctx, hash, enquiryID); err != nil {
		return eris.Wrapf(err, "dedup: record fingerprint for %s", enquiryID)
	}
	zap.L().Debug("dedup: fingerprint recorded",
		zap.String("enquiry_id", enquiryID),
	)
	return nil
}
