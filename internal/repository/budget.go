package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/records"
	"fintrack/internal/schema"
)

type Budgets struct {
	base
}

func NewBudgets(a *records.Adapter, logger *log.Logger) *Budgets {
	return &Budgets{base: newBase(a, schema.Budget, logger)}
}

func (r *Budgets) GetAll(ctx context.Context) []core.Budget {
	out, _ := r.List(ctx)
	return out
}

// List is GetAll that also reports whether the store answered.
func (r *Budgets) List(ctx context.Context) ([]core.Budget, bool) {
	recs, ok := r.fetch(ctx, records.Query{})
	return decodeAll(recs, schema.DecodeBudget), ok
}

func (r *Budgets) GetByID(ctx context.Context, id int64) *core.Budget {
	return decodeOne(r.get(ctx, id), schema.DecodeBudget)
}

func (r *Budgets) GetByMonth(ctx context.Context, month core.Month) []core.Budget {
	out, _ := r.ForMonth(ctx, month)
	return out
}

// ForMonth is GetByMonth that also reports whether the store answered.
func (r *Budgets) ForMonth(ctx context.Context, month core.Month) ([]core.Budget, bool) {
	recs, ok := r.fetch(ctx, records.Query{
		Where: []records.Filter{records.Where("month_c", records.EqualTo, month.String())},
	})
	return decodeAll(recs, schema.DecodeBudget), ok
}

// GetByCategoryAndMonth returns the first budget for the pair. Duplicates
// are not prevented by the store; only the first one is ever returned.
func (r *Budgets) GetByCategoryAndMonth(ctx context.Context, category string, month core.Month) *core.Budget {
	rec := r.findPair(ctx, category, month, nil)
	return decodeOne(rec, schema.DecodeBudget)
}

func (r *Budgets) findPair(ctx context.Context, category string, month core.Month, fields []string) records.Record {
	recs, ok := r.fetch(ctx, records.Query{
		Fields: fields,
		Where: []records.Filter{
			records.Where("category_c", records.EqualTo, category),
			records.Where("month_c", records.EqualTo, month.String()),
		},
		Limit: 2,
	})
	if !ok || len(recs) == 0 {
		return nil
	}
	if len(recs) > 1 {
		r.logger.WarnContext(ctx, "Duplicate budgets for category and month, using the first",
			log.FieldCategory, category, log.FieldMonth, month.String(), log.FieldRecordID, recs[0].ID())
	}
	return recs[0]
}

func (r *Budgets) Create(ctx context.Context, in schema.Input) *core.Budget {
	return decodeOne(r.create(ctx, in), schema.DecodeBudget)
}

func (r *Budgets) Update(ctx context.Context, id int64, in schema.Input) *core.Budget {
	return decodeOne(r.update(ctx, id, in), schema.DecodeBudget)
}

// UpdateSpent overwrites the spent amount of the budget for the pair. It
// returns nil when no such budget exists.
func (r *Budgets) UpdateSpent(ctx context.Context, category string, month core.Month, amount decimal.Decimal) *core.Budget {
	found := r.findPair(ctx, category, month, []string{records.IDField})
	if found == nil {
		return nil
	}
	return decodeOne(r.update(ctx, found.ID(), schema.Input{"spent": amount}), schema.DecodeBudget)
}

func (r *Budgets) Delete(ctx context.Context, id int64) bool {
	return r.delete(ctx, id)
}
