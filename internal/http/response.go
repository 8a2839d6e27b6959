package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/notify"
)

func init() {
	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Response is the envelope of every JSON reply.
type Response struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message,omitempty"`
	Data          any                   `json:"data,omitempty"`
	Errors        []string              `json:"errors,omitempty"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

func notificationsOf(c *gin.Context) []notify.Notification {
	if col, ok := notify.CollectorFrom(c.Request.Context()); ok {
		return col.Items()
	}
	return nil
}

// Success writes a 200 envelope carrying data.
func Success(c *gin.Context, data any) {
	SuccessWithStatus(c, http.StatusOK, "", data)
}

// SuccessWithStatus writes a successful envelope with a custom status and message.
func SuccessWithStatus(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success:       true,
		Message:       message,
		Data:          data,
		Notifications: notificationsOf(c),
	})
}

// Error writes a failed envelope.
func Error(c *gin.Context, status int, message string, errs ...string) {
	c.AbortWithStatusJSON(status, Response{
		Success:       false,
		Message:       message,
		Errors:        errs,
		Notifications: notificationsOf(c),
	})
}

func BadRequest(c *gin.Context, message string, errs ...string) {
	Error(c, http.StatusBadRequest, message, errs...)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Unprocessable reports a mutation the record store refused. The
// notifications explain why.
func Unprocessable(c *gin.Context, message string) {
	Error(c, http.StatusUnprocessableEntity, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
