package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"finboard/internal/core"
)

func TestParseTransactionFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    core.TransactionFilter
		wantErr string
	}{
		{
			name:  "empty query",
			query: url.Values{},
			want:  core.TransactionFilter{},
		},
		{
			name:  "all values",
			query: url.Values{"search": {"  coffee "}, "type": {"expense"}, "sort": {"amount"}},
			want:  core.TransactionFilter{Search: "coffee", Type: core.Expense, SortBy: core.SortByAmount},
		},
		{
			name:  "all means no type filter",
			query: url.Values{"type": {"all"}},
			want:  core.TransactionFilter{},
		},
		{
			name:    "unknown type",
			query:   url.Values{"type": {"transfer"}},
			wantErr: "type",
		},
		{
			name:    "unknown sort",
			query:   url.Values{"sort": {"category"}},
			wantErr: "sort",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTransactionFilter(tt.query)
			if tt.wantErr != "" {
				var fe core.FieldErrors
				if !errors.As(err, &fe) {
					t.Fatalf("expected FieldErrors, got %v", err)
				}
				if _, ok := fe[tt.wantErr]; !ok {
					t.Errorf("expected error on %q, got %v", tt.wantErr, fe)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("filter = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMonthParam(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    string
		wantErr bool
	}{
		{"absent", url.Values{}, "", false},
		{"valid", url.Values{"month": {"2024-02"}}, "2024-02", false},
		{"bad format", url.Values{"month": {"02-2024"}}, "", true},
		{"bad month", url.Values{"month": {"2024-13"}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParam(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("month = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"amount": 42.5, "description": "Lunch", "category": {"id": "1", "name": "Food & Dining"}, "type": "expense"}`
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !parser.IsJSON() {
		t.Error("expected IsJSON() to be true")
	}

	form := parser.TransactionForm()
	if form.Amount != "42.5" {
		t.Errorf("Amount = %q, want 42.5", form.Amount)
	}
	if form.CategoryID != "1" {
		t.Errorf("CategoryID = %q, want 1", form.CategoryID)
	}
	if form.Date != "" {
		t.Errorf("Date = %q, want empty", form.Date)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "category=2&amount=150&month=2024-03"
	req := httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parser.IsJSON() {
		t.Error("expected IsJSON() to be false for form data")
	}

	want := core.BudgetForm{CategoryID: "2", Amount: "150", Month: "2024-03"}
	if got := parser.BudgetForm(); got != want {
		t.Errorf("BudgetForm() = %+v, want %+v", got, want)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/budgets", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("amount"); val != "" {
		t.Errorf("Get('amount') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount": `))
		if err := NewRequestBodyParser(req).Parse(); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", maxBodyBytes+10)))
		if err := NewRequestBodyParser(req).Parse(); !errors.Is(err, errBodyTooLarge) {
			t.Errorf("error = %v, want errBodyTooLarge", err)
		}
	})
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
