package analyzer

import (
	"strings"
	"testing"

	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	categories := []*model.Category{
		{Name: "Groceries", Type: model.CategoryTypeExpense},
		{Name: "Salary", Type: model.CategoryTypeIncome},
	}

	prompt := BuildPrompt(categories)

	assert.Contains(t, prompt, `"is_receipt": boolean`)
	assert.Contains(t, prompt, "- Groceries | expense")
	assert.Contains(t, prompt, "- Salary | income")
	assert.Contains(t, prompt, "exactly one of the names above")

	// schema header comes before the category list
	assert.Less(t, strings.Index(prompt, "is_receipt"), strings.Index(prompt, "Groceries"))
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	categories := []*model.Category{{Name: "Travel", Type: model.CategoryTypeExpense}}
	assert.Equal(t, BuildPrompt(categories), BuildPrompt(categories))
}
