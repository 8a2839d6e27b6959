// Package repository exposes the budget, category, transaction and savings
// goal collections on top of a records.Adapter. Every method returns a
// sentinel instead of an error: an empty slice for lists, nil for single
// records and false for deletes. Failures have already been logged and
// reported as notifications by the time a sentinel is returned.
package repository

import (
	"context"

	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/records"
	"fintrack/internal/schema"
)

// Set groups the four repositories sharing one adapter.
type Set struct {
	Budgets      *Budgets
	Categories   *Categories
	Transactions *Transactions
	Goals        *Goals
}

func NewSet(a *records.Adapter, logger *log.Logger) *Set {
	return &Set{
		Budgets:      NewBudgets(a, logger),
		Categories:   NewCategories(a, logger),
		Transactions: NewTransactions(a, logger),
		Goals:        NewGoals(a, logger),
	}
}

type base struct {
	adapter *records.Adapter
	mapping *schema.Mapping
	logger  *log.Logger
}

func newBase(a *records.Adapter, m *schema.Mapping, logger *log.Logger) base {
	return base{
		adapter: a,
		mapping: m,
		logger:  logger.WithComponent(log.ComponentRepository).With(log.FieldEntity, m.Entity),
	}
}

func (b base) fetch(ctx context.Context, q records.Query) ([]records.Record, bool) {
	if len(q.Fields) == 0 {
		q.Fields = b.mapping.StoreFields()
	}
	return b.adapter.FetchAll(ctx, b.mapping.Entity, q)
}

func (b base) get(ctx context.Context, id int64) records.Record {
	return b.adapter.FetchByID(ctx, b.mapping.Entity, id, b.mapping.StoreFields())
}

func (b base) encode(ctx context.Context, in schema.Input, create bool) (records.Record, bool) {
	rec, err := b.mapping.Encode(in, create)
	if err != nil {
		b.logger.WarnContext(ctx, "Rejected record input", log.FieldError, err)
		b.adapter.Notify(ctx, notify.Error(b.mapping.Entity, err.Error()))
		return nil, false
	}
	return rec, true
}

func (b base) create(ctx context.Context, in schema.Input) records.Record {
	rec, ok := b.encode(ctx, in, true)
	if !ok {
		return nil
	}
	return b.adapter.CreateOne(ctx, b.mapping.Entity, rec)
}

func (b base) update(ctx context.Context, id int64, in schema.Input) records.Record {
	rec, ok := b.encode(ctx, in, false)
	if !ok {
		return nil
	}
	rec[records.IDField] = id
	return b.adapter.UpdateOne(ctx, b.mapping.Entity, rec)
}

func (b base) delete(ctx context.Context, id int64) bool {
	return b.adapter.Delete(ctx, b.mapping.Entity, id)
}

func decodeAll[T any](recs []records.Record, decode func(records.Record) T) []T {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		out = append(out, decode(r))
	}
	return out
}

func decodeOne[T any](rec records.Record, decode func(records.Record) T) *T {
	if rec == nil {
		return nil
	}
	v := decode(rec)
	return &v
}
