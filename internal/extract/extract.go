// Package extract turns free-text enquiry emails into structured customer
// and product data using Claude.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/isp-standards/enquiry-intake/pkg/anthropic"
)

// maxEmailLength caps the email text sent to the model. Longer bodies are
// truncated with a marker.
const maxEmailLength = 10000

const systemText = "You extract structured enquiry data from inbound sales emails for a chemical products supplier. Return only valid JSON matching the requested schema. Use null for fields not found."

const extractionPrompt = `Extract the customer details and enquiry details from the following email and format the response as a JSON object with the following structure:
{
  "customer_details": {
    "customer_name": "",
    "email": "",
    "phone": "",
    "company_name": null,
    "address": null
  },
  "enquiry_details": {
    "enquiry_date": "%s",
    "enquiry_time": "%s",
    "products": [
      {
        "product_name": null,
        "quantity": 0.0,
        "chemical_name": null,
        "cas_number": null,
        "cat_number": null,
        "molecular_weight": null,
        "variant": null,
        "standards": null,
        "flag": "y",
        "attachment_ref": null
      }
    ]
  }
}
IMPORTANT: Return ONLY valid JSON. Ensure all null values are written as null (not n). Do not include any markdown, code blocks, or explanatory text - just the raw JSON object.
Ensure all products listed in the email are included, even if some fields are missing (use null for missing fields). Set "flag" to "y" if the product is identified, "n" if unknown. Use the email date for "enquiry_date" and "enquiry_time". Include any additional requirements (e.g., packaging, standards) in "variant" or "standards" if applicable.
Email content:
%s`

// CustomerDetails is the extracted sender identity.
type CustomerDetails struct {
	CustomerName string  `json:"customer_name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	CompanyName  *string `json:"company_name"`
	Address      *string `json:"address"`
}

// ExtractedProduct is one product claim pulled from the email body.
type ExtractedProduct struct {
	ProductName     *string  `json:"product_name"`
	Quantity        *float64 `json:"quantity"`
	ChemicalName    *string  `json:"chemical_name"`
	CASNumber       *string  `json:"cas_number"`
	CatNumber       *string  `json:"cat_number"`
	MolecularWeight *float64 `json:"molecular_weight"`
	Variant         *string  `json:"variant"`
	Standards       *string  `json:"standards"`
	Flag            *string  `json:"flag"`
	AttachmentRef   *string  `json:"attachment_ref"`
}

// EnquiryDetails is the extracted enquiry content.
type EnquiryDetails struct {
	EnquiryDate string             `json:"enquiry_date"`
	EnquiryTime string             `json:"enquiry_time"`
	Products    []ExtractedProduct `json:"products"`
}

// ExtractedData is the full model output for one email.
type ExtractedData struct {
	CustomerDetails CustomerDetails `json:"customer_details"`
	EnquiryDetails  EnquiryDetails  `json:"enquiry_details"`
}

// Extractor pulls structured enquiry data out of a raw email body. The
// reference time seeds the extracted enquiry date and time.
type Extractor interface {
	Extract(ctx context.Context, emailText string, ref time.Time) (*ExtractedData, error)
}

// ClaudeExtractor implements Extractor against the Anthropic Messages API.
// CreateMessage calls are rate limited; the system prompt is identical on
// every call and carries a cache breakpoint.
type ClaudeExtractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
	system    []anthropic.SystemBlock
}

// NewClaudeExtractor creates an extractor. requestsPerSec <= 0 disables rate
// limiting.
func NewClaudeExtractor(client anthropic.Client, model string, maxTokens int64, requestsPerSec float64) *ClaudeExtractor {
	limit := rate.Inf
	if requestsPerSec > 0 {
		limit = rate.Limit(requestsPerSec)
	}
	return &ClaudeExtractor{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(limit, 1),
		system:    anthropic.BuildCachedSystemBlocks(systemText),
	}
}

// Extract sends the email body to the model and parses the JSON response.
func (e *ClaudeExtractor) Extract(ctx context.Context, emailText string, ref time.Time) (*ExtractedData, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "extract: rate limit wait")
	}

	if len(emailText) > maxEmailLength {
		zap.L().Warn("extract: truncating long email",
			zap.Int("length", len(emailText)),
			zap.Int("max", maxEmailLength),
		)
		emailText = emailText[:maxEmailLength] + "... [truncated]"
	}

	prompt := fmt.Sprintf(extractionPrompt,
		ref.Format("2006-01-02"),
		ref.Format("15:04"),
		emailText,
	)

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    e.system,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: create message")
	}
	resp.Usage.LogCost(e.model, "extract")

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	data, err := ParseExtraction(text)
	if err != nil {
		return nil, err
	}

	zap.L().Info("extract: parsed enquiry email",
		zap.String("customer_email", data.CustomerDetails.Email),
		zap.Int("products", len(data.EnquiryDetails.Products)),
	)
	return data, nil
}
