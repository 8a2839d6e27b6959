package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/schema"
)

type createBudgetRequest struct {
	Category     string  `json:"category" validate:"required,notblank,max=100"`
	Month        string  `json:"month" validate:"required,yearmonth"`
	MonthlyLimit Number  `json:"monthlyLimit" validate:"required,nonnegative"`
	Spent        *Number `json:"spent" validate:"omitempty,nonnegative"`
	Rollover     *Number `json:"rollover" validate:"omitempty,decimal"`
}

func (r createBudgetRequest) input() schema.Input {
	in := schema.Input{
		"category":     sanitizeInput(r.Category),
		"month":        r.Month,
		"monthlyLimit": string(r.MonthlyLimit),
	}
	setNumber(in, "spent", r.Spent)
	setNumber(in, "rollover", r.Rollover)
	return in
}

type updateBudgetRequest struct {
	Category     *string `json:"category" validate:"omitempty,notblank,max=100"`
	Month        *string `json:"month" validate:"omitempty,yearmonth"`
	MonthlyLimit *Number `json:"monthlyLimit" validate:"omitempty,nonnegative"`
	Spent        *Number `json:"spent" validate:"omitempty,nonnegative"`
	Rollover     *Number `json:"rollover" validate:"omitempty,decimal"`
}

func (r updateBudgetRequest) input() schema.Input {
	in := schema.Input{}
	setString(in, "category", r.Category)
	setString(in, "month", r.Month)
	setNumber(in, "monthlyLimit", r.MonthlyLimit)
	setNumber(in, "spent", r.Spent)
	setNumber(in, "rollover", r.Rollover)
	return in
}

type updateSpentRequest struct {
	Category string `json:"category" validate:"required,notblank"`
	Month    string `json:"month" validate:"required,yearmonth"`
	Amount   Number `json:"amount" validate:"required,nonnegative"`
}

type recomputeRequest struct {
	Month string `json:"month" validate:"omitempty,yearmonth"`
}

func (h *handlers) listBudgets(c *gin.Context) {
	ctx := c.Request.Context()
	if c.Query("month") == "" {
		Success(c, h.svc.Repos.Budgets.GetAll(ctx))
		return
	}
	month, ok := h.monthQuery(c, "month")
	if !ok {
		return
	}
	Success(c, h.svc.Repos.Budgets.GetByMonth(ctx, month))
}

func (h *handlers) getBudget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b := h.svc.Repos.Budgets.GetByID(c.Request.Context(), id)
	if b == nil {
		NotFound(c, "budget not found")
		return
	}
	Success(c, b)
}

func (h *handlers) createBudget(c *gin.Context) {
	var req createBudgetRequest
	if !bindJSON(c, &req) {
		return
	}
	b := h.svc.Repos.Budgets.Create(c.Request.Context(), req.input())
	if b == nil {
		Unprocessable(c, "budget could not be created")
		return
	}
	SuccessWithStatus(c, http.StatusCreated, "budget created", b)
}

func (h *handlers) updateBudget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateBudgetRequest
	if !bindJSON(c, &req) {
		return
	}
	b := h.svc.Repos.Budgets.Update(c.Request.Context(), id, req.input())
	if b == nil {
		Unprocessable(c, "budget could not be updated")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "budget updated", b)
}

// updateBudgetSpent overwrites the spent amount of the budget matching a
// category and month.
func (h *handlers) updateBudgetSpent(c *gin.Context) {
	var req updateSpentRequest
	if !bindJSON(c, &req) {
		return
	}
	amount, err := core.ParseDecimal(string(req.Amount))
	if err != nil {
		BadRequest(c, "validation failed", "amount must be a number")
		return
	}
	b := h.svc.Repos.Budgets.UpdateSpent(c.Request.Context(), sanitizeInput(req.Category), core.Month(req.Month), amount)
	if b == nil {
		Unprocessable(c, "budget spent could not be updated")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "budget spent updated", b)
}

// recomputeBudgets recalculates spent amounts from transactions, for one
// month when given and for every budgeted month otherwise.
func (h *handlers) recomputeBudgets(c *gin.Context) {
	var req recomputeRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.Month == "" {
		req.Month = c.Query("month")
		if req.Month != "" {
			if _, err := core.ParseMonth(req.Month); err != nil {
				BadRequest(c, "invalid month", "month must be in YYYY-MM format")
				return
			}
		}
	}

	ctx := c.Request.Context()
	var (
		updated int
		err     error
	)
	if req.Month != "" {
		updated, err = h.svc.Sync.Recompute(ctx, core.Month(req.Month))
	} else {
		updated, err = h.svc.Sync.RecomputeAll(ctx)
	}
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Recompute failed", log.FieldOperation, log.OpRecompute, log.FieldError, err)
		Error(c, http.StatusBadGateway, "recompute failed")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "budgets recomputed", gin.H{"updated": updated, "month": req.Month})
}

func (h *handlers) deleteBudget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.svc.Repos.Budgets.Delete(c.Request.Context(), id) {
		Unprocessable(c, "budget could not be deleted")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "budget deleted", gin.H{"id": id})
}
