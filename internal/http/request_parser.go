package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finboard/internal/core"
)

// maxBodyBytes bounds form and JSON bodies.
const maxBodyBytes = 1 << 16

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a JSON object or a url-encoded form from the body.
// Scalars in JSON (numbers, bools) are returned as strings so the same form
// validation applies to both encodings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once and keeps it for later lookups.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body as JSON when it looks like an object, as a form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		p.jsonData = map[string]any{}
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = err
		}
		return p.err
	}
	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns the sanitised value of key, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if v, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(v)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON reports whether the body was decoded as JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case map[string]any:
		// {"category": {"id": "3", "name": "..."}} is accepted as well
		if id, ok := val["id"]; ok {
			return stringValue(id)
		}
		return ""
	default:
		return ""
	}
}

// TransactionForm collects the transaction editor fields from the parsed body.
func (p *RequestBodyParser) TransactionForm() core.TransactionForm {
	return core.TransactionForm{
		Amount:      p.Get("amount"),
		Date:        p.Get("date"),
		Description: p.Get("description"),
		CategoryID:  p.Get("category"),
		Type:        p.Get("type"),
	}
}

// BudgetForm collects the budget editor fields from the parsed body.
func (p *RequestBodyParser) BudgetForm() core.BudgetForm {
	return core.BudgetForm{
		CategoryID: p.Get("category"),
		Amount:     p.Get("amount"),
		Month:      p.Get("month"),
	}
}

// ParseTransactionFilter reads search, type and sort from the query string.
// An unknown type or sort key is reported as a field error.
func ParseTransactionFilter(query url.Values) (core.TransactionFilter, error) {
	f := core.TransactionFilter{
		Search: sanitizeInput(query.Get("search")),
		Type:   core.TransactionType(strings.TrimSpace(query.Get("type"))),
		SortBy: strings.TrimSpace(query.Get("sort")),
	}
	errs := core.FieldErrors{}
	if f.Type == "all" {
		f.Type = ""
	}
	if f.Type != "" && !f.Type.IsValid() {
		errs["type"] = "Type must be income, expense or all"
	}
	switch f.SortBy {
	case "", core.SortByDate, core.SortByAmount:
	default:
		errs["sort"] = "Sort must be date or amount"
	}
	if len(errs) > 0 {
		return core.TransactionFilter{}, errs
	}
	return f, nil
}

// ParseMonthParam returns the month query parameter. Empty is allowed and
// means the selected month.
func ParseMonthParam(query url.Values) (string, error) {
	month := strings.TrimSpace(query.Get("month"))
	if month != "" && !core.IsMonthKey(month) {
		return "", core.FieldErrors{"month": "Month must be in YYYY-MM format"}
	}
	return month, nil
}

// sanitizeInput trims whitespace and drops control characters except tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
