package repository

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/records"
	"fintrack/internal/schema"
)

var newestFirst = []records.Order{{Field: "date_c", Desc: true}}

type Transactions struct {
	base
}

func NewTransactions(a *records.Adapter, logger *log.Logger) *Transactions {
	return &Transactions{base: newBase(a, schema.Transaction, logger)}
}

// GetAll returns every transaction, newest first.
func (r *Transactions) GetAll(ctx context.Context) []core.Transaction {
	recs, _ := r.fetch(ctx, records.Query{OrderBy: newestFirst})
	return decodeAll(recs, schema.DecodeTransaction)
}

func (r *Transactions) GetByID(ctx context.Context, id int64) *core.Transaction {
	return decodeOne(r.get(ctx, id), schema.DecodeTransaction)
}

// GetByMonth returns the transactions whose date starts with month, newest
// first.
func (r *Transactions) GetByMonth(ctx context.Context, month core.Month) []core.Transaction {
	out, _ := r.ForMonth(ctx, month)
	return out
}

// ForMonth is GetByMonth that also reports whether the store answered.
func (r *Transactions) ForMonth(ctx context.Context, month core.Month) ([]core.Transaction, bool) {
	recs, ok := r.fetch(ctx, records.Query{
		Where:   []records.Filter{records.Where("date_c", records.StartsWith, month.String())},
		OrderBy: newestFirst,
	})
	return decodeAll(recs, schema.DecodeTransaction), ok
}

func (r *Transactions) GetByCategory(ctx context.Context, category string) []core.Transaction {
	recs, _ := r.fetch(ctx, records.Query{
		Where: []records.Filter{records.Where("category_c", records.EqualTo, category)},
	})
	return decodeAll(recs, schema.DecodeTransaction)
}

func (r *Transactions) Create(ctx context.Context, in schema.Input) *core.Transaction {
	return decodeOne(r.create(ctx, in), schema.DecodeTransaction)
}

func (r *Transactions) Update(ctx context.Context, id int64, in schema.Input) *core.Transaction {
	return decodeOne(r.update(ctx, id, in), schema.DecodeTransaction)
}

func (r *Transactions) Delete(ctx context.Context, id int64) bool {
	return r.delete(ctx, id)
}
