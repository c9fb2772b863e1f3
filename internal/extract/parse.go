package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/isp-standards/enquiry-intake/internal/model"
)

// Truncated keyword literals the model occasionally emits, e.g. `"standards": n`
// instead of `"standards": null`. The trailing group keeps real values like
// `: name` untouched.
var jsonRepairs = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`:(\s*)n($|[^a-zA-Z_])`), `:${1}null${2}`},
	{regexp.MustCompile(`:(\s*)tru($|[^a-zA-Z_])`), `:${1}true${2}`},
	{regexp.MustCompile(`:(\s*)fal($|[^a-zA-Z_])`), `:${1}false${2}`},
}

// ParseExtraction parses a model response into ExtractedData. The response
// may wrap the JSON in markdown fences or prose; truncated null/true/false
// literals are repaired before parsing. A response cut off mid-object is
// retried up to its last complete closing brace.
func ParseExtraction(text string) (*ExtractedData, error) {
	cleaned := repairJSON(cleanJSON(text))
	if cleaned == "" {
		return nil, eris.New("extract: no JSON object in response")
	}

	var data ExtractedData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		last := strings.LastIndex(cleaned, "}")
		if last <= 0 {
			return nil, eris.Wrap(err, "extract: parse response")
		}
		if retryErr := json.Unmarshal([]byte(cleaned[:last+1]), &data); retryErr != nil {
			return nil, eris.Wrap(err, "extract: parse response")
		}
	}
	return &data, nil
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// repairJSON fixes truncated keyword literals.
func repairJSON(text string) string {
	for _, r := range jsonRepairs {
		text = r.re.ReplaceAllString(text, r.replacement)
	}
	return text
}

// ToEmailRequest converts extracted data into the ingestion request shape
// for the given resolved customer.
func ToEmailRequest(data *ExtractedData, customerID, emailContent string) model.EmailRequest {
	products := make([]model.ProductRequest, 0, len(data.EnquiryDetails.Products))
	for _, p := range data.EnquiryDetails.Products {
		products = append(products, model.ProductRequest{
			ProductName:     deref(p.ProductName),
			Quantity:        p.Quantity,
			ChemicalName:    deref(p.ChemicalName),
			Price:           nil,
			CASNumber:       deref(p.CASNumber),
			CatNumber:       deref(p.CatNumber),
			MolecularWeight: p.MolecularWeight,
			Variant:         deref(p.Variant),
			Standards:       deref(p.Standards),
			Flag:            deref(p.Flag),
			AttachmentRef:   deref(p.AttachmentRef),
		})
	}
	return model.EmailRequest{
		CustomerID:   customerID,
		EmailContent: emailContent,
		Products:     products,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
