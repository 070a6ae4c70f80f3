package core

import (
	"sort"
	"strings"
	"time"
)

// FieldErrors maps a form field to a human readable message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// TransactionForm is the raw input of the transaction editor.
type TransactionForm struct {
	Amount      string `json:"amount" form:"amount"`
	Date        string `json:"date" form:"date"`
	Description string `json:"description" form:"description"`
	CategoryID  string `json:"category" form:"category"`
	Type        string `json:"type" form:"type"`
}

// BudgetForm is the raw input of the budget editor.
type BudgetForm struct {
	CategoryID string `json:"category" form:"category"`
	Amount     string `json:"amount" form:"amount"`
	Month      string `json:"month" form:"month"`
}

// Transaction validates the form and resolves the category against the catalog.
// The returned error is a FieldErrors when validation fails.
func (f TransactionForm) Transaction(catalog []Category) (Transaction, error) {
	errs := FieldErrors{}

	amount, err := ParseAmount(f.Amount)
	if err != nil || amount <= 0 {
		errs["amount"] = "Amount must be greater than 0"
	}
	date := strings.TrimSpace(f.Date)
	if date == "" {
		errs["date"] = "Date is required"
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		errs["date"] = "Date must be in YYYY-MM-DD format"
	}
	desc := strings.TrimSpace(f.Description)
	if desc == "" {
		errs["description"] = "Description is required"
	}
	var category Category
	if strings.TrimSpace(f.CategoryID) == "" {
		errs["category"] = "Category is required"
	} else if c, ok := FindCategory(catalog, f.CategoryID); ok {
		category = c
	} else {
		errs["category"] = "Unknown category"
	}
	typ := TransactionType(strings.TrimSpace(f.Type))
	if typ == "" {
		typ = Expense
	}
	if !typ.IsValid() {
		errs["type"] = "Type must be income or expense"
	}

	if err := errs.orNil(); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Amount:      amount,
		Date:        date,
		Description: desc,
		Category:    category,
		Type:        typ,
	}, nil
}

// Budget validates the form and resolves the category against the catalog.
func (f BudgetForm) Budget(catalog []Category) (Budget, error) {
	errs := FieldErrors{}

	var category Category
	if strings.TrimSpace(f.CategoryID) == "" {
		errs["category"] = "Category is required"
	} else if c, ok := FindCategory(BudgetCategories(catalog), f.CategoryID); ok {
		category = c
	} else {
		errs["category"] = "Unknown category"
	}
	var amount float64
	if strings.TrimSpace(f.Amount) == "" {
		errs["amount"] = "Amount is required"
	} else if v, err := ParseAmount(f.Amount); err != nil {
		errs["amount"] = "Amount must be a non-negative number"
	} else {
		amount = v
	}
	month := strings.TrimSpace(f.Month)
	if month == "" {
		errs["month"] = "Month is required"
	} else if !IsMonthKey(month) {
		errs["month"] = "Month must be in YYYY-MM format"
	}

	if err := errs.orNil(); err != nil {
		return Budget{}, err
	}
	return Budget{Category: category, Amount: amount, Month: month}, nil
}
