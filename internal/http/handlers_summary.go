package http

import (
	"github.com/gin-gonic/gin"
)

func (h *handlers) budgetSummary(c *gin.Context) {
	month, ok := h.monthQuery(c, "month")
	if !ok {
		return
	}
	Success(c, h.svc.Summary.BudgetSummary(c.Request.Context(), month))
}

func (h *handlers) goalSummary(c *gin.Context) {
	Success(c, h.svc.Summary.GoalSummary(c.Request.Context()))
}

func (h *handlers) categorySummary(c *gin.Context) {
	month, ok := h.monthQuery(c, "month")
	if !ok {
		return
	}
	Success(c, h.svc.Summary.CategoryBreakdown(c.Request.Context(), month))
}

func (h *handlers) trend(c *gin.Context) {
	months, ok := monthsQuery(c, "months", h.currentMonth())
	if !ok {
		return
	}
	Success(c, h.svc.Summary.Trend(c.Request.Context(), months))
}

func (h *handlers) dashboard(c *gin.Context) {
	month, ok := h.monthQuery(c, "month")
	if !ok {
		return
	}
	months, ok := monthsQuery(c, "months", month)
	if !ok {
		return
	}
	Success(c, h.svc.Summary.Dashboard(c.Request.Context(), month, months))
}
