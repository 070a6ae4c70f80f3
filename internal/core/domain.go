package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// IncomeCategoryName is the catalog entry reserved for income; budgets are never set on it.
const IncomeCategoryName = "Income"

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

type (
	TransactionType string

	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Transaction struct {
		ID          string          `json:"id,omitempty"`
		Amount      float64         `json:"amount"`
		Date        string          `json:"date"` // YYYY-MM-DD
		Description string          `json:"description"`
		Category    Category        `json:"category"`
		Type        TransactionType `json:"type"`
	}

	Budget struct {
		ID       string   `json:"id,omitempty"`
		Category Category `json:"category"`
		Amount   float64  `json:"amount"`
		Month    string   `json:"month"` // YYYY-MM
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidMonth     = errors.New("invalid month, expected YYYY-MM")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidType      = errors.New("invalid transaction type")
)

// IsValid reports whether t is income or expense.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// IsZero returns true when neither id nor name is set.
func (c Category) IsZero() bool {
	return strings.TrimSpace(c.ID) == "" && strings.TrimSpace(c.Name) == ""
}

// IsExpense reports whether the transaction counts toward spending.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}

// Month returns the YYYY-MM key of the transaction date.
func (t Transaction) Month() string {
	return MonthKey(t.Date)
}

func (t Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if _, err := time.Parse(dateLayout, t.Date); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if t.Category.IsZero() {
		return ErrEmptyCategory
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	if _, err := time.Parse(monthLayout, b.Month); err != nil {
		return ErrInvalidMonth
	}
	if b.Category.IsZero() {
		return ErrEmptyCategory
	}
	return nil
}

// SameSlot reports whether both budgets target the same category name and month.
func (b Budget) SameSlot(other Budget) bool {
	return b.Category.Name == other.Category.Name && b.Month == other.Month
}

// BudgetCategories returns the catalog without the income category.
func BudgetCategories(catalog []Category) []Category {
	out := make([]Category, 0, len(catalog))
	for _, c := range catalog {
		if c.Name == IncomeCategoryName {
			continue
		}
		out = append(out, c)
	}
	return out
}

// FindCategory looks a category up by id.
func FindCategory(catalog []Category, id string) (Category, bool) {
	for _, c := range catalog {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
