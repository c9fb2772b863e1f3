package model

// ProductRequest is one product claim inside an inbound email, as extracted
// or as submitted to the bulk endpoint. Pointer fields distinguish "not
// mentioned" from zero values so the resolver can merge without nulling out
// existing catalog data.
type ProductRequest struct {
	ProductName     string   `json:"product_name"`
	Quantity        *float64 `json:"quantity,omitempty"`
	ChemicalName    string   `json:"chemical_name,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	CASNumber       string   `json:"cas_number,omitempty"`
	CatNumber       string   `json:"cat_number,omitempty"`
	MolecularWeight *float64 `json:"molecular_weight,omitempty"`
	Variant         string   `json:"variant,omitempty"`
	Standards       string   `json:"standards,omitempty"`
	Flag            string   `json:"flag,omitempty"`
	AttachmentRef   string   `json:"attachment_ref,omitempty"`
}

// Attachment is a file reference carried alongside an email request.
type Attachment struct {
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

// EmailRequest is one inbound email submitted for enquiry ingestion, either
// directly or as part of a bulk batch.
type EmailRequest struct {
	CustomerID   string           `json:"customer_id"`
	EmailContent string           `json:"email_content"`
	Products     []ProductRequest `json:"products"`
	Attachments  []Attachment     `json:"attachments,omitempty"`
}
