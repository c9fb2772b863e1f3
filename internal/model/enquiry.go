// Package model defines the persisted record types for the enquiry intake
// system: customers, the product catalog, enquiries with their line items,
// ingestion fingerprints, and parsing status.
package model

import "time"

// EnquiryStatus is the lifecycle state of an enquiry.
type EnquiryStatus string

// Enquiry lifecycle states.
const (
	EnquiryOpen      EnquiryStatus = "open"
	EnquiryProcessed EnquiryStatus = "processed"
	EnquiryClosed    EnquiryStatus = "closed"
)

// Valid reports whether s is a known enquiry status.
func (s EnquiryStatus) Valid() bool {
	switch s {
	case EnquiryOpen, EnquiryProcessed, EnquiryClosed:
		return true
	}
	return false
}

// EnquiryChannel identifies how an enquiry entered the system.
type EnquiryChannel string

// Enquiry channels.
const (
	ChannelEmail  EnquiryChannel = "Email"
	ChannelPortal EnquiryChannel = "Portal"
)

// Valid reports whether c is a known enquiry channel.
func (c EnquiryChannel) Valid() bool {
	return c == ChannelEmail || c == ChannelPortal
}

// ApprovalStatus is the catalog review state of a product.
type ApprovalStatus string

// Product approval states. Auto-created products start as pending.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Standards is the pharmacopoeia standard requested for a line item.
type Standards string

// Supported standards. Anything else is coerced to StandardsUSA on the
// email-extraction path and rejected on the portal path.
const (
	StandardsUSA Standards = "USA"
	StandardsUK  Standards = "UK"
)

// Valid reports whether s is a supported standard.
func (s Standards) Valid() bool {
	return s == StandardsUSA || s == StandardsUK
}

// Flag values mark a record as a known ("y") or unknown ("n") entity.
const (
	FlagKnown   = "y"
	FlagUnknown = "n"
)

// Customer is a person or organization that submits enquiries. Email, when
// present, is unique across customers.
type Customer struct {
	CustomerID   string `json:"customer_id" db:"customer_id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	Phone        string `json:"phone,omitempty" db:"phone"`
	Mobile       string `json:"mobile,omitempty" db:"mobile"`
	Landline     string `json:"landline,omitempty" db:"landline"`
	Address      string `json:"address,omitempty" db:"address"`
	Organization string `json:"organization,omitempty" db:"organization"`
	Department   string `json:"department,omitempty" db:"department"`
	Title        string `json:"title,omitempty" db:"title"`
	Tag          string `json:"tag,omitempty" db:"tag"`
	Flag         string `json:"flag,omitempty" db:"flag"`
	ContactOwner string `json:"contact_owner,omitempty" db:"contact_owner"`
}

// CustomerPatch is a partial-field customer update. Nil fields are left
// untouched.
type CustomerPatch struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Mobile       *string `json:"mobile,omitempty"`
	Landline     *string `json:"landline,omitempty"`
	Address      *string `json:"address,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Department   *string `json:"department,omitempty"`
	Title        *string `json:"title,omitempty"`
	Tag          *string `json:"tag,omitempty"`
	Flag         *string `json:"flag,omitempty"`
	ContactOwner *string `json:"contact_owner,omitempty"`
}

// Product is a catalog entry. CatNumber is always non-null and unique;
// CASNumber is unique when present.
type Product struct {
	ProductID           string         `json:"product_id" db:"product_id"`
	ProductName         string         `json:"product_name" db:"product_name"`
	CASNumber           string         `json:"cas_number,omitempty" db:"cas_number"`
	CatNumber           string         `json:"cat_number" db:"cat_number"`
	ChemicalName        string         `json:"chemical_name,omitempty" db:"chemical_name"`
	MolecularFormula    string         `json:"molecular_formula,omitempty" db:"molecular_formula"`
	MolecularWeight     *float64       `json:"molecular_weight,omitempty" db:"molecular_weight"`
	SMILES              string         `json:"smiles,omitempty" db:"smiles"`
	Source              string         `json:"source,omitempty" db:"source"`
	Description         string         `json:"description,omitempty" db:"description"`
	Tag                 string         `json:"tag,omitempty" db:"tag"`
	ApprovalStatus      ApprovalStatus `json:"approval_status" db:"approval_status"`
	InventoryStatus     string         `json:"inventory_status,omitempty" db:"inventory_status"`
	Image               string         `json:"image,omitempty" db:"image"`
	HSNCode             string         `json:"hsn_code,omitempty" db:"hsn_code"`
	ShippingTemperature string         `json:"shipping_temperature,omitempty" db:"shipping_temperature"`
	Ambient             string         `json:"ambient,omitempty" db:"ambient"`
	TechnicalData       string         `json:"technical_data,omitempty" db:"technical_data"`
	CountryOfOrigin     string         `json:"country_of_origin,omitempty" db:"country_of_origin"`
}

// Enquiry is the aggregate root for one customer request. It is created
// atomically with all of its line items.
type Enquiry struct {
	EnquiryID       string           `json:"enquiry_id" db:"enquiry_id"`
	EnquiryName     string           `json:"enquiry_name" db:"enquiry_name"`
	CustomerID      string           `json:"customer_id" db:"customer_id"`
	EnquiryDatetime time.Time        `json:"enquiry_datetime" db:"enquiry_datetime"`
	Status          EnquiryStatus    `json:"status" db:"status"`
	IsEnquiryActive bool             `json:"is_enquiry_active" db:"is_enquiry_active"`
	EnquiryChannel  EnquiryChannel   `json:"enquiry_channel" db:"enquiry_channel"`
	Products        []EnquiryProduct `json:"products"`
}

// EnquiryPatch is a partial-field enquiry update.
type EnquiryPatch struct {
	Status          *EnquiryStatus `json:"status,omitempty"`
	IsEnquiryActive *bool          `json:"is_enquiry_active,omitempty"`
}

// EnquiryProduct is one line item within an enquiry. It references a catalog
// product but carries its own copy of the product attributes: the line item
// records what the customer said at enquiry time, which may differ from the
// canonical catalog record.
type EnquiryProduct struct {
	EnquiryProductID int64    `json:"enquiry_product_id,omitempty" db:"enquiry_product_id"`
	EnquiryID        string   `json:"enquiry_id,omitempty" db:"enquiry_id"`
	ProductID        string   `json:"product_id" db:"product_id"`
	Quantity         float64  `json:"quantity" db:"quantity"`
	ChemicalName     string   `json:"chemical_name,omitempty" db:"chemical_name"`
	Price            *float64 `json:"price,omitempty" db:"price"`
	CASNumber        string   `json:"cas_number,omitempty" db:"cas_number"`
	CatNumber        string   `json:"cat_number,omitempty" db:"cat_number"`
	MolecularWeight  *float64 `json:"molecular_weight,omitempty" db:"molecular_weight"`
	Variant          string   `json:"variant,omitempty" db:"variant"`
	Standards        string   `json:"standards,omitempty" db:"standards"`
	Flag             string   `json:"flag,omitempty" db:"flag"`
	AttachmentRef    string   `json:"attachment_ref,omitempty" db:"attachment_ref"`
}

// EnquiryHash is a content fingerprint of a previously ingested email,
// mapped to the enquiry it produced. Used solely for duplicate suppression;
// written once and never updated.
type EnquiryHash struct {
	EnquiryHashID int64     `json:"enquiry_hash_id" db:"enquiry_hash_id"`
	Hash          string    `json:"hash" db:"hash"`
	EnquiryID     string    `json:"enquiry_id" db:"enquiry_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ParsingState is the progress of email-to-enquiry extraction.
type ParsingState string

// Parsing states.
const (
	ParsingPending    ParsingState = "pending"
	ParsingProcessing ParsingState = "processing"
	ParsingCompleted  ParsingState = "completed"
	ParsingFailed     ParsingState = "failed"
)

// ParsingStatus tracks the extraction progress for one enquiry.
type ParsingStatus struct {
	ParsingStatusID string       `json:"parsing_status_id" db:"parsing_status_id"`
	EnquiryID       string       `json:"enquiry_id" db:"enquiry_id"`
	Status          ParsingState `json:"status" db:"status"`
	Message         string       `json:"message,omitempty" db:"message"`
	ParsedData      []byte       `json:"parsed_data,omitempty" db:"parsed_data"`
	ErrorDetails    string       `json:"error_details,omitempty" db:"error_details"`
	Timestamp       time.Time    `json:"timestamp" db:"timestamp"`
}

// ChangeLog is an insert-only audit row recording a mutation to a tracked
// table.
type ChangeLog struct {
	LogID     int64     `json:"log_id" db:"log_id"`
	TableName string    `json:"table_name" db:"table_name"`
	RecordID  string    `json:"record_id" db:"record_id"`
	Action    string    `json:"action" db:"action"`
	UserID    string    `json:"user_id" db:"user_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Details   string    `json:"details,omitempty" db:"details"`
}
