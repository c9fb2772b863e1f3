// Package enquiry implements the enquiry ingestion pipeline: content-hash
// deduplication of inbound emails, product identity resolution against the
// catalog, atomic enquiry assembly, and bulk batch processing.
package enquiry

import (
	"context"

	"github.com/isp-standards/enquiry-intake/internal/model"
)

// Store is the narrow persistence surface the pipeline consumes. It is
// implemented by store.PostgresStore; InTx runs fn against a store bound to
// a single transaction, so every write inside one assembly commits or rolls
// back as a unit.
type Store interface {
	GetCustomer(ctx context.Context, customerID string) (*model.Customer, error)

	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	FindProductByIdentifiers(ctx context.Context, chemicalName, casNumber, catNumber string) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error

	NextEnquiryName(ctx context.Context) (string, error)
	InsertEnquiry(ctx context.Context, e *model.Enquiry) error

	GetFingerprint(ctx context.Context, hash string) (*model.EnquiryHash, error)
	RecordFingerprint(ctx context.Context, hash, enquiryID string) error

	InTx(ctx context.Context, fn func(Store) error) error
}
