package core

import "testing"

var (
	food      = Category{ID: "1", Name: "Food & Dining"}
	transport = Category{ID: "2", Name: "Transportation"}
	salary    = Category{ID: "9", Name: IncomeCategoryName}
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Amount: 12.5, Date: "2024-01-15", Description: "Lunch", Category: food, Type: Expense}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mod  func(*Transaction)
		want error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = -1 }, ErrInvalidAmount},
		{"bad date", func(tx *Transaction) { tx.Date = "15/01/2024" }, ErrInvalidDate},
		{"blank description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"no category", func(tx *Transaction) { tx.Category = Category{} }, ErrEmptyCategory},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mod(&tx)
			if err := tx.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	if err := (Budget{Category: food, Amount: 0, Month: "2024-01"}).Validate(); err != nil {
		t.Fatalf("zero budget should be valid, got %v", err)
	}
	bads := []Budget{
		{Category: food, Amount: -1, Month: "2024-01"},
		{Category: food, Amount: 10, Month: "2024-13"},
		{Category: food, Amount: 10, Month: "2024-01-01"},
		{Amount: 10, Month: "2024-01"},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetSameSlot(t *testing.T) {
	a := Budget{ID: "a", Category: food, Month: "2024-01", Amount: 100}
	b := Budget{ID: "b", Category: Category{ID: "other", Name: food.Name}, Month: "2024-01", Amount: 5}
	if !a.SameSlot(b) {
		t.Fatalf("expected same slot when names match")
	}
	b.Month = "2024-02"
	if a.SameSlot(b) {
		t.Fatalf("different months must not share a slot")
	}
}

func TestBudgetCategories(t *testing.T) {
	got := BudgetCategories([]Category{food, salary, transport})
	if len(got) != 2 || got[0] != food || got[1] != transport {
		t.Fatalf("unexpected categories: %+v", got)
	}
	if _, ok := FindCategory(got, salary.ID); ok {
		t.Fatalf("income category must be excluded")
	}
}
