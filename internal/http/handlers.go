package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"finboard/internal/core"
	"finboard/internal/log"
)

const (
	entityTransaction = "transaction"
	entityBudget      = "budget"

	// refreshTimeout bounds a manual reload triggered over the API.
	refreshTimeout = 15 * time.Second
)

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// handleReady reports ready once the first load attempt has finished.
func (s *Server) handleReady(c *gin.Context) {
	if !s.svc.Ready() {
		c.String(http.StatusServiceUnavailable, "loading")
		return
	}
	c.String(http.StatusOK, "ready")
}

func (s *Server) handleState(c *gin.Context) {
	NewResponse().Body(s.svc.State()).Write(c)
}

func (s *Server) handleDashboard(c *gin.Context) {
	month, err := ParseMonthParam(c.Request.URL.Query())
	if err != nil {
		respondError(c, "dashboard", err)
		return
	}
	NewResponse().Body(s.svc.Dashboard(month)).Write(c)
}

func (s *Server) handleRefresh(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), refreshTimeout)
	defer cancel()
	if err := s.svc.Load(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "manual refresh failed", log.FieldError, err.Error())
		NewResponse().Status(http.StatusBadGateway).Body(s.svc.State()).Write(c)
		return
	}
	NewResponse().Body(s.svc.State()).Write(c)
}

func (s *Server) handleSetMonth(c *gin.Context) {
	p := NewRequestBodyParser(c.Request)
	if err := p.Parse(); err != nil {
		BadRequest("invalid request body").Write(c)
		return
	}
	month := p.Get("month")
	if month == "" {
		respondError(c, "set month", core.FieldErrors{"month": "Month is required"})
		return
	}
	if err := s.svc.SetMonth(month); err != nil {
		respondError(c, "set month", err)
		return
	}
	NewResponse().Body(gin.H{"month": s.svc.Month()}).Write(c)
}

func (s *Server) handleListTransactions(c *gin.Context) {
	f, err := ParseTransactionFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, "list transactions", err)
		return
	}
	NewResponse().Body(s.svc.Transactions(f)).Write(c)
}

// parseTransaction decodes and validates the transaction form. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) parseTransaction(c *gin.Context, op string) (core.Transaction, bool) {
	p := NewRequestBodyParser(c.Request)
	if err := p.Parse(); err != nil {
		BadRequest("invalid request body").Write(c)
		return core.Transaction{}, false
	}
	catalog, err := s.svc.Categories(c.Request.Context())
	if err != nil {
		respondError(c, op, upstream(err))
		return core.Transaction{}, false
	}
	t, err := p.TransactionForm().Transaction(catalog)
	if err != nil {
		respondError(c, op, err)
		return core.Transaction{}, false
	}
	return t, true
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	t, ok := s.parseTransaction(c, "create transaction")
	if !ok {
		return
	}
	created, err := s.svc.AddTransaction(c.Request.Context(), t)
	if err != nil {
		respondError(c, "create transaction", err)
		return
	}
	NewResponse().Status(http.StatusCreated).Changed(entityTransaction).Body(created).Write(c)
}

func (s *Server) handleUpdateTransaction(c *gin.Context) {
	t, ok := s.parseTransaction(c, "update transaction")
	if !ok {
		return
	}
	t.ID = strings.TrimSpace(c.Param("id"))
	if err := s.svc.UpdateTransaction(c.Request.Context(), t); err != nil {
		respondError(c, "update transaction", err)
		return
	}
	NewResponse().Changed(entityTransaction).Body(t).Write(c)
}

func (s *Server) handleDeleteTransaction(c *gin.Context) {
	if err := s.svc.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "delete transaction", err)
		return
	}
	NewResponse().Changed(entityTransaction).Write(c)
}

func (s *Server) handleListBudgets(c *gin.Context) {
	NewResponse().Body(s.svc.State().Budgets).Write(c)
}

func (s *Server) handleBudgetComparison(c *gin.Context) {
	month, err := ParseMonthParam(c.Request.URL.Query())
	if err != nil {
		respondError(c, "budget comparison", err)
		return
	}
	NewResponse().Body(s.svc.BudgetComparison(month)).Write(c)
}

func (s *Server) parseBudget(c *gin.Context, op string) (core.Budget, bool) {
	p := NewRequestBodyParser(c.Request)
	if err := p.Parse(); err != nil {
		BadRequest("invalid request body").Write(c)
		return core.Budget{}, false
	}
	catalog, err := s.svc.Categories(c.Request.Context())
	if err != nil {
		respondError(c, op, upstream(err))
		return core.Budget{}, false
	}
	b, err := p.BudgetForm().Budget(catalog)
	if err != nil {
		respondError(c, op, err)
		return core.Budget{}, false
	}
	return b, true
}

func (s *Server) handleCreateBudget(c *gin.Context) {
	b, ok := s.parseBudget(c, "create budget")
	if !ok {
		return
	}
	created, err := s.svc.AddBudget(c.Request.Context(), b)
	if err != nil {
		respondError(c, "create budget", err)
		return
	}
	NewResponse().Status(http.StatusCreated).Changed(entityBudget).Body(created).Write(c)
}

func (s *Server) handleUpdateBudget(c *gin.Context) {
	b, ok := s.parseBudget(c, "update budget")
	if !ok {
		return
	}
	b.ID = strings.TrimSpace(c.Param("id"))
	if err := s.svc.UpdateBudget(c.Request.Context(), b); err != nil {
		respondError(c, "update budget", err)
		return
	}
	NewResponse().Changed(entityBudget).Body(b).Write(c)
}

func (s *Server) handleDeleteBudget(c *gin.Context) {
	if err := s.svc.DeleteBudget(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "delete budget", err)
		return
	}
	NewResponse().Changed(entityBudget).Write(c)
}

// handleCategories lists the catalog; ?budget=true drops the income category.
func (s *Server) handleCategories(c *gin.Context) {
	list := s.svc.Categories
	if c.Query("budget") == "true" {
		list = s.svc.BudgetCategories
	}
	cats, err := list(c.Request.Context())
	if err != nil {
		respondError(c, "list categories", upstream(err))
		return
	}
	NewResponse().Body(cats).Write(c)
}

func (s *Server) handleCategorySummary(c *gin.Context) {
	NewResponse().Body(s.svc.CategorySummary()).Write(c)
}

func (s *Server) handleMonthlyExpenses(c *gin.Context) {
	NewResponse().Body(s.svc.MonthlyExpenses()).Write(c)
}

func (s *Server) handleInsights(c *gin.Context) {
	NewResponse().Body(s.svc.Insights()).Write(c)
}
