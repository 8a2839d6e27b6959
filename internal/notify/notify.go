// Package notify carries user-facing notifications raised while serving a
// request: store failures, rejected batch records and similar messages.
package notify

import (
	"context"
	"sync"

	"fintrack/internal/log"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single message meant for the end user.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Entity  string `json:"entity,omitempty"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Error builds an error-level notification.
func Error(entity, message string) Notification {
	return Notification{Level: LevelError, Message: message, Entity: entity}
}

// Warning builds a warning-level notification.
func Warning(entity, message string) Notification {
	return Notification{Level: LevelWarning, Message: message, Entity: entity}
}

// Collector accumulates the notifications of one request.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func (c *Collector) Notify(_ context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Items returns a copy of the collected notifications.
func (c *Collector) Items() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.items...)
}

type collectorKey struct{}

// WithCollector attaches c to ctx so Dispatcher can route to it.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

// CollectorFrom returns the collector attached to ctx, if any.
func CollectorFrom(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	return c, ok
}

// Dispatcher writes every notification to the log and forwards it to the
// request collector found in the context.
type Dispatcher struct {
	logger *log.Logger
}

func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{logger: logger.WithComponent(log.ComponentNotify)}
}

func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	args := []any{"level", string(n.Level), log.FieldEntity, n.Entity}
	switch n.Level {
	case LevelError:
		d.logger.ErrorContext(ctx, n.Message, args...)
	case LevelWarning:
		d.logger.WarnContext(ctx, n.Message, args...)
	default:
		d.logger.InfoContext(ctx, n.Message, args...)
	}
	if c, ok := CollectorFrom(ctx); ok {
		c.Notify(ctx, n)
	}
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})
