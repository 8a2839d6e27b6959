package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fintrack/internal/core"
	"fintrack/internal/schema"
)

type createGoalRequest struct {
	Name          string  `json:"name" validate:"required,notblank,max=100"`
	TargetAmount  Number  `json:"targetAmount" validate:"required,amount"`
	CurrentAmount *Number `json:"currentAmount" validate:"omitempty,nonnegative"`
	Deadline      string  `json:"deadline" validate:"omitempty,isodate"`
	Priority      int     `json:"priority" validate:"gte=0"`
}

func (r createGoalRequest) input() schema.Input {
	in := schema.Input{
		"name":         sanitizeInput(r.Name),
		"targetAmount": string(r.TargetAmount),
		"priority":     r.Priority,
	}
	setNumber(in, "currentAmount", r.CurrentAmount)
	if r.Deadline != "" {
		in["deadline"] = r.Deadline
	}
	return in
}

type updateGoalRequest struct {
	Name          *string `json:"name" validate:"omitempty,notblank,max=100"`
	TargetAmount  *Number `json:"targetAmount" validate:"omitempty,amount"`
	CurrentAmount *Number `json:"currentAmount" validate:"omitempty,nonnegative"`
	Deadline      *string `json:"deadline" validate:"omitempty,isodate"`
	Priority      *int    `json:"priority" validate:"omitempty,gte=0"`
}

func (r updateGoalRequest) input() schema.Input {
	in := schema.Input{}
	setString(in, "name", r.Name)
	setNumber(in, "targetAmount", r.TargetAmount)
	setNumber(in, "currentAmount", r.CurrentAmount)
	setString(in, "deadline", r.Deadline)
	if r.Priority != nil {
		in["priority"] = *r.Priority
	}
	return in
}

type contributionRequest struct {
	Amount Number `json:"amount" validate:"required,amount"`
}

func (h *handlers) listGoals(c *gin.Context) {
	Success(c, h.svc.Repos.Goals.GetAll(c.Request.Context()))
}

func (h *handlers) getGoal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	g := h.svc.Repos.Goals.GetByID(c.Request.Context(), id)
	if g == nil {
		NotFound(c, "savings goal not found")
		return
	}
	Success(c, g)
}

func (h *handlers) createGoal(c *gin.Context) {
	var req createGoalRequest
	if !bindJSON(c, &req) {
		return
	}
	g := h.svc.Repos.Goals.Create(c.Request.Context(), req.input())
	if g == nil {
		Unprocessable(c, "savings goal could not be created")
		return
	}
	SuccessWithStatus(c, http.StatusCreated, "savings goal created", g)
}

func (h *handlers) updateGoal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateGoalRequest
	if !bindJSON(c, &req) {
		return
	}
	g := h.svc.Repos.Goals.Update(c.Request.Context(), id, req.input())
	if g == nil {
		Unprocessable(c, "savings goal could not be updated")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "savings goal updated", g)
}

// addContribution adds the amount to the goal's current amount.
func (h *handlers) addContribution(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req contributionRequest
	if !bindJSON(c, &req) {
		return
	}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		BadRequest(c, "validation failed", "amount must be a positive amount")
		return
	}
	g := h.svc.Repos.Goals.AddContribution(c.Request.Context(), id, amount)
	if g == nil {
		Unprocessable(c, "contribution could not be recorded")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "contribution recorded", g)
}

func (h *handlers) deleteGoal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.svc.Repos.Goals.Delete(c.Request.Context(), id) {
		Unprocessable(c, "savings goal could not be deleted")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "savings goal deleted", gin.H{"id": id})
}
