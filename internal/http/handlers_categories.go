package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fintrack/internal/core"
	"fintrack/internal/schema"
)

type createCategoryRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Icon     string `json:"icon" validate:"max=50"`
	IsCustom *bool  `json:"isCustom"`
}

func (r createCategoryRequest) input() schema.Input {
	in := schema.Input{
		"name":  sanitizeInput(r.Name),
		"color": r.Color,
		"icon":  sanitizeInput(r.Icon),
	}
	if r.IsCustom != nil {
		in["isCustom"] = *r.IsCustom
	}
	return in
}

type updateCategoryRequest struct {
	Name  *string `json:"name" validate:"omitempty,notblank,max=100"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
	Icon  *string `json:"icon" validate:"omitempty,max=50"`
}

func (r updateCategoryRequest) input() schema.Input {
	in := schema.Input{}
	setString(in, "name", r.Name)
	setString(in, "color", r.Color)
	setString(in, "icon", r.Icon)
	return in
}

func (h *handlers) listCategories(c *gin.Context) {
	ctx := c.Request.Context()
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		cat := h.svc.Repos.Categories.GetByName(ctx, name)
		if cat == nil {
			Success(c, []core.Category{})
			return
		}
		Success(c, []core.Category{*cat})
		return
	}
	if raw := c.Query("type"); raw != "" {
		t := core.TransactionType(raw)
		if !t.Valid() {
			BadRequest(c, "invalid type", "type must be income or expense")
			return
		}
		Success(c, h.svc.Repos.Categories.ListForType(ctx, t))
		return
	}
	Success(c, h.svc.Repos.Categories.GetAll(ctx))
}

func (h *handlers) getCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cat := h.svc.Repos.Categories.GetByID(c.Request.Context(), id)
	if cat == nil {
		NotFound(c, "category not found")
		return
	}
	Success(c, cat)
}

func (h *handlers) createCategory(c *gin.Context) {
	var req createCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	cat := h.svc.Repos.Categories.Create(c.Request.Context(), req.input())
	if cat == nil {
		Unprocessable(c, "category could not be created")
		return
	}
	SuccessWithStatus(c, http.StatusCreated, "category created", cat)
}

func (h *handlers) updateCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	cat := h.svc.Repos.Categories.Update(c.Request.Context(), id, req.input())
	if cat == nil {
		Unprocessable(c, "category could not be updated")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "category updated", cat)
}

func (h *handlers) deleteCategory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.svc.Repos.Categories.Delete(c.Request.Context(), id) {
		Unprocessable(c, "category could not be deleted")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "category deleted", gin.H{"id": id})
}
