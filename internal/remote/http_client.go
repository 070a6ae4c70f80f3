package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finboard/internal/core"
	"finboard/internal/log"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// HTTPClient implements Backend against the finance REST service.
type HTTPClient struct {
	base *url.URL
	hc   *http.Client
	log  *log.Logger
}

type HTTPOption func(*HTTPClient)

// WithTimeout bounds every request. Zero keeps the default of no timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.hc.Timeout = d }
}

func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.hc = hc
		}
	}
}

func WithClientLogger(l *log.Logger) HTTPOption {
	return func(c *HTTPClient) {
		if l != nil {
			c.log = l.WithComponent(log.ComponentRemote)
		}
	}
}

func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}
	c := &HTTPClient{base: u, hc: &http.Client{}, log: log.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type (
	transactionList struct {
		TransactionData []core.Transaction `json:"transactionData"`
	}
	transactionDetail struct {
		TransactionDetail core.Transaction `json:"transactionDetail"`
	}
	// encoding/json matches keys case-insensitively, so BudgetData decodes too.
	budgetList struct {
		BudgetData []core.Budget `json:"budgetData"`
	}
	budgetDetail struct {
		BudgetDetail core.Budget `json:"budgetDetail"`
	}
	categoryList struct {
		CategoryData []core.Category `json:"categoryData"`
	}
	errorBody struct {
		Msg   string `json:"msg"`
		Error string `json:"error"`
	}
)

func (c *HTTPClient) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var out transactionList
	if err := c.do(ctx, http.MethodGet, "/transactions", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.TransactionData), nil
}

func (c *HTTPClient) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = ""
	var out transactionDetail
	if err := c.do(ctx, http.MethodPost, "/transactions", t, &out); err != nil {
		return core.Transaction{}, err
	}
	return out.TransactionDetail, nil
}

func (c *HTTPClient) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/transactions/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var out budgetList
	if err := c.do(ctx, http.MethodGet, "/budgets", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.BudgetData), nil
}

func (c *HTTPClient) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = ""
	var out budgetDetail
	if err := c.do(ctx, http.MethodPost, "/budgets", b, &out); err != nil {
		return core.Budget{}, err
	}
	return out.BudgetDetail, nil
}

func (c *HTTPClient) DeleteBudget(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/budgets/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out categoryList
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out.CategoryData), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "backend request failed",
			log.FieldMethod, method, log.FieldPath, path, log.FieldError, err.Error())
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "backend request",
		log.FieldMethod, method, log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode, log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Method: method, Path: path, Code: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			se.Msg = eb.Msg
			if se.Msg == "" {
				se.Msg = eb.Error
			}
		}
		return se
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
