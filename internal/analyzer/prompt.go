package analyzer

import (
	"fmt"
	"strings"

	"github.com/receiptgw/receipt-gateway/internal/model"
)

// basePrompt describes the exact JSON schema the model must produce. The
// allowed category list is appended per call since it can change between
// analyses.
const basePrompt = `You are a financial assistant that extracts structured data from receipt images.
You MUST respond with strict JSON using the following schema:

{
  "is_receipt": boolean,
  "total_amount": number | null,
  "currency": string | null,
  "transaction_date": "YYYY-MM-DD" | null,
  "category": string | null,
  "description": string | null,
  "type": "expense" | "income" | null,
  "issuer_name": string | null,
  "issuer_street": string | null,
  "issuer_city": string | null,
  "issuer_postal_code": string | null,
  "issuer_country": string | null
}

Use null for missing information. Do not add explanations.`

// BuildPrompt is a pure function of the category list: the schema header,
// one "name | type" line per category, and a directive that the category
// value must match one of the listed names verbatim.
func BuildPrompt(categories []*model.Category) string {
	lines := []string{
		basePrompt,
		"",
		"Allowed categories (name | type):",
	}
	for _, cat := range categories {
		lines = append(lines, fmt.Sprintf("- %s | %s", cat.Name, cat.Type))
	}
	lines = append(lines, "You MUST set the 'category' field to exactly one of the names above.")
	return strings.Join(lines, "\n")
}
