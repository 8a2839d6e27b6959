package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"fintrack/internal/core"
	"fintrack/internal/schema"
)

// trendMonths is the window of the dashboard trend when none is requested.
const trendMonths = 6

type handlers struct {
	svc Services
	now func() time.Time
}

// parseID reads the :id path parameter, replying 400 when it is not a
// positive integer.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, "invalid id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the request body into req.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, "invalid JSON body", err.Error())
		return false
	}
	if errs := validateStruct(req); len(errs) > 0 {
		BadRequest(c, "validation failed", errs...)
		return false
	}
	return true
}

func (h *handlers) currentMonth() core.Month {
	return core.MonthOf(h.now())
}

// monthQuery reads a YYYY-MM query parameter, falling back to the current
// month when it is absent.
func (h *handlers) monthQuery(c *gin.Context, key string) (core.Month, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return h.currentMonth(), true
	}
	m, err := core.ParseMonth(raw)
	if err != nil {
		BadRequest(c, "invalid month", key+" must be in YYYY-MM format")
		return "", false
	}
	return m, true
}

// monthsQuery reads a comma separated month list. Order and duplicates are
// kept. An absent parameter yields the trend window ending at end.
func monthsQuery(c *gin.Context, key string, end core.Month) ([]core.Month, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return core.LastMonths(end, trendMonths), true
	}
	parts := strings.Split(raw, ",")
	out := make([]core.Month, 0, len(parts))
	for _, p := range parts {
		m, err := core.ParseMonth(p)
		if err != nil {
			BadRequest(c, "invalid months", key+" must be a comma separated list of YYYY-MM months")
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func setString(in schema.Input, key string, v *string) {
	if v != nil {
		in[key] = sanitizeInput(*v)
	}
}

func setNumber(in schema.Input, key string, v *Number) {
	if v != nil && *v != "" {
		in[key] = string(*v)
	}
}
