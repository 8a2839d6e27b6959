package repository

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/records"
	"fintrack/internal/schema"
)

const msgCategoryNotDeletable = "Category not found or cannot be deleted"

type Categories struct {
	base
}

func NewCategories(a *records.Adapter, logger *log.Logger) *Categories {
	return &Categories{base: newBase(a, schema.Category, logger)}
}

func (r *Categories) GetAll(ctx context.Context) []core.Category {
	recs, _ := r.fetch(ctx, records.Query{})
	return decodeAll(recs, schema.DecodeCategory)
}

func (r *Categories) GetByID(ctx context.Context, id int64) *core.Category {
	return decodeOne(r.get(ctx, id), schema.DecodeCategory)
}

// GetByName returns the first category with the given name.
func (r *Categories) GetByName(ctx context.Context, name string) *core.Category {
	recs, ok := r.fetch(ctx, records.Query{
		Where: []records.Filter{records.Where("name_c", records.EqualTo, name)},
		Limit: 1,
	})
	if !ok || len(recs) == 0 {
		return nil
	}
	return decodeOne(recs[0], schema.DecodeCategory)
}

// ListForType returns the categories offered for a transaction type: only
// Income for income, everything else for expenses.
func (r *Categories) ListForType(ctx context.Context, t core.TransactionType) []core.Category {
	all := r.GetAll(ctx)
	out := make([]core.Category, 0, len(all))
	for _, c := range all {
		if (c.Name == core.IncomeCategory) == (t == core.Income) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Categories) Create(ctx context.Context, in schema.Input) *core.Category {
	return decodeOne(r.create(ctx, in), schema.DecodeCategory)
}

func (r *Categories) Update(ctx context.Context, id int64, in schema.Input) *core.Category {
	return decodeOne(r.update(ctx, id, in), schema.DecodeCategory)
}

// Delete removes a custom category. Built-in categories are refused.
func (r *Categories) Delete(ctx context.Context, id int64) bool {
	c := r.GetByID(ctx, id)
	if c == nil || !c.IsCustom {
		r.adapter.Notify(ctx, notify.Error(r.mapping.Entity, msgCategoryNotDeletable))
		return false
	}
	return r.delete(ctx, id)
}

// SeedDefaults creates the built-in categories when the collection is empty
// and returns how many were created.
func (r *Categories) SeedDefaults(ctx context.Context) int {
	existing, ok := r.fetch(ctx, records.Query{Fields: []string{records.IDField}, Limit: 1})
	if !ok || len(existing) > 0 {
		return 0
	}
	defaults := core.DefaultCategories()
	batch := make([]records.Record, 0, len(defaults))
	for _, c := range defaults {
		rec, ok := r.encode(ctx, schema.EncodeCategory(c), true)
		if !ok {
			return 0
		}
		batch = append(batch, rec)
	}
	created := r.adapter.Create(ctx, r.mapping.Entity, batch...)
	r.logger.InfoContext(ctx, "Seeded default categories", log.FieldOperation, log.OpSeed, log.FieldCount, len(created))
	return len(created)
}
