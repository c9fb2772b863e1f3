// Package store persists the intake data model in PostgreSQL.
package store

import (
	"context"

	"github.com/isp-standards/enquiry-intake/internal/enquiry"
	"github.com/isp-standards/enquiry-intake/internal/model"
)

// CustomerFilter specifies criteria for listing customers.
type CustomerFilter struct {
	Limit  int
	Offset int
}

// ProductFilter specifies criteria for listing products.
type ProductFilter struct {
	ApprovalStatus string
	Limit          int
	Offset         int
}

// EnquiryFilter specifies criteria for listing enquiries.
type EnquiryFilter struct {
	Status string
	Limit  int
	Offset int
}

// Store defines the persistence interface for the intake backend. It is a
// superset of enquiry.Store, which covers just the operations the ingestion
// pipeline consumes.
type Store interface {
	// Customers
	CreateCustomer(ctx context.Context, c *model.Customer) error
	GetCustomer(ctx context.Context, customerID string) (*model.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]model.Customer, error)
	UpdateCustomer(ctx context.Context, customerID string, patch model.CustomerPatch) (*model.Customer, error)

	// Products
	CreateProduct(ctx context.Context, p *model.Product) error
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	FindProductByIdentifiers(ctx context.Context, chemicalName, casNumber, catNumber string) (*model.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	UpdateProduct(ctx context.Context, p *model.Product) error

	// Enquiries
	NextEnquiryName(ctx context.Context) (string, error)
	InsertEnquiry(ctx context.Context, e *model.Enquiry) error
	GetEnquiry(ctx context.Context, enquiryID string) (*model.Enquiry, error)
	ListEnquiries(ctx context.Context, filter EnquiryFilter) ([]model.Enquiry, error)
	UpdateEnquiry(ctx context.Context, enquiryID string, patch model.EnquiryPatch) (*model.Enquiry, error)

	// Fingerprints
	GetFingerprint(ctx context.Context, hash string) (*model.EnquiryHash, error)
	RecordFingerprint(ctx context.Context, hash, enquiryID string) error

	// Parsing status
	GetParsingStatus(ctx context.Context, enquiryID string) (*model.ParsingStatus, error)
	SetParsingStatus(ctx context.Context, ps *model.ParsingStatus) error

	// Change log
	InsertChangeLog(ctx context.Context, entry *model.ChangeLog) error
	ListChangeLogs(ctx context.Context, limit, offset int) ([]model.ChangeLog, error)

	// Pipeline transaction scope
	InTx(ctx context.Context, fn func(enquiry.Store) error) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
