package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/schema"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createTransactionRequest struct {
	Amount      Number `json:"amount" validate:"required,amount"`
	Category    string `json:"category" validate:"max=100"`
	Date        string `json:"date" validate:"required,isodate"`
	Description string `json:"description" validate:"max=200"`
	Notes       string `json:"notes" validate:"max=1000"`
	Type        string `json:"type" validate:"required,txtype"`
}

func (r createTransactionRequest) input() schema.Input {
	in := schema.Input{
		"amount":   string(r.Amount),
		"category": sanitizeInput(r.Category),
		"date":     r.Date,
		"notes":    sanitizeInput(r.Notes),
		"type":     r.Type,
	}
	// An absent description keeps the default record name.
	if d := sanitizeInput(r.Description); d != "" {
		in["description"] = d
	}
	return in
}

type updateTransactionRequest struct {
	Amount      *Number `json:"amount" validate:"omitempty,amount"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	Date        *string `json:"date" validate:"omitempty,isodate"`
	Description *string `json:"description" validate:"omitempty,max=200"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
	Type        *string `json:"type" validate:"omitempty,txtype"`
}

func (r updateTransactionRequest) input() schema.Input {
	in := schema.Input{}
	setNumber(in, "amount", r.Amount)
	setString(in, "category", r.Category)
	setString(in, "date", r.Date)
	setString(in, "description", r.Description)
	setString(in, "notes", r.Notes)
	setString(in, "type", r.Type)
	return in
}

func (h *handlers) listTransactions(c *gin.Context) {
	ctx := c.Request.Context()
	category := strings.TrimSpace(c.Query("category"))
	if c.Query("month") == "" {
		if category != "" {
			Success(c, h.svc.Repos.Transactions.GetByCategory(ctx, category))
			return
		}
		Success(c, h.svc.Repos.Transactions.GetAll(ctx))
		return
	}

	month, ok := h.monthQuery(c, "month")
	if !ok {
		return
	}
	txs := h.svc.Repos.Transactions.GetByMonth(ctx, month)
	if category != "" {
		filtered := make([]core.Transaction, 0, len(txs))
		for _, t := range txs {
			if t.Category == category {
				filtered = append(filtered, t)
			}
		}
		txs = filtered
	}
	Success(c, txs)
}

func (h *handlers) getTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t := h.svc.Repos.Transactions.GetByID(c.Request.Context(), id)
	if t == nil {
		NotFound(c, "transaction not found")
		return
	}
	Success(c, t)
}

func (h *handlers) createTransaction(c *gin.Context) {
	var req createTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	t := h.svc.Repos.Transactions.Create(c.Request.Context(), req.input())
	if t == nil {
		Unprocessable(c, "transaction could not be created")
		return
	}
	SuccessWithStatus(c, http.StatusCreated, "transaction created", t)
}

func (h *handlers) updateTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	t := h.svc.Repos.Transactions.Update(c.Request.Context(), id, req.input())
	if t == nil {
		Unprocessable(c, "transaction could not be updated")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "transaction updated", t)
}

func (h *handlers) deleteTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if !h.svc.Repos.Transactions.Delete(c.Request.Context(), id) {
		Unprocessable(c, "transaction could not be deleted")
		return
	}
	SuccessWithStatus(c, http.StatusOK, "transaction deleted", gin.H{"id": id})
}

// exportTransactions streams the month's transactions as an XLSX workbook.
func (h *handlers) exportTransactions(c *gin.Context) {
	month, ok := h.monthQuery(c, "month")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	f, err := h.svc.Exporter.TransactionsWorkbook(ctx, month)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Export failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		Error(c, http.StatusBadGateway, "export failed")
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Export serialisation failed", log.FieldOperation, log.OpExport, log.FieldError, err)
		InternalError(c, "export failed")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=transactions_%s.xlsx", month))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
