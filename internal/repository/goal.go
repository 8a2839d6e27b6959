package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/records"
	"fintrack/internal/schema"
)

const msgGoalNotFound = "Savings goal not found"

type Goals struct {
	base
}

func NewGoals(a *records.Adapter, logger *log.Logger) *Goals {
	return &Goals{base: newBase(a, schema.SavingsGoal, logger)}
}

// GetAll returns every goal ordered by priority.
func (r *Goals) GetAll(ctx context.Context) []core.SavingsGoal {
	out, _ := r.List(ctx)
	return out
}

// List is GetAll that also reports whether the store answered.
func (r *Goals) List(ctx context.Context) ([]core.SavingsGoal, bool) {
	recs, ok := r.fetch(ctx, records.Query{OrderBy: []records.Order{{Field: "priority_c"}}})
	return decodeAll(recs, schema.DecodeSavingsGoal), ok
}

func (r *Goals) GetByID(ctx context.Context, id int64) *core.SavingsGoal {
	return decodeOne(r.get(ctx, id), schema.DecodeSavingsGoal)
}

func (r *Goals) Create(ctx context.Context, in schema.Input) *core.SavingsGoal {
	return decodeOne(r.create(ctx, in), schema.DecodeSavingsGoal)
}

func (r *Goals) Update(ctx context.Context, id int64, in schema.Input) *core.SavingsGoal {
	return decodeOne(r.update(ctx, id, in), schema.DecodeSavingsGoal)
}

// AddContribution adds amount to the goal's current amount. Stores with an
// atomic increment apply it in one step; others fall back to reading the
// goal and writing the sum, where concurrent contributions may be lost.
func (r *Goals) AddContribution(ctx context.Context, id int64, amount decimal.Decimal) *core.SavingsGoal {
	goal := r.GetByID(ctx, id)
	if goal == nil {
		r.adapter.Notify(ctx, notify.Error(r.mapping.Entity, msgGoalNotFound))
		return nil
	}
	rec, atomic := r.adapter.Increment(ctx, r.mapping.Entity, id, "current_amount_c", amount)
	if atomic {
		return decodeOne(rec, schema.DecodeSavingsGoal)
	}
	next := goal.CurrentAmount.Add(amount)
	return r.Update(ctx, id, schema.Input{"currentAmount": next})
}

func (r *Goals) Delete(ctx context.Context, id int64) bool {
	return r.delete(ctx, id)
}
