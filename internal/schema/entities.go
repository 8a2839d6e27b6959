package schema

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/records"
)

// Store entity type names.
const (
	EntityBudget      = "budget_c"
	EntityTransaction = "transaction_c"
	EntityCategory    = "category_c"
	EntitySavingsGoal = "savings_goal_c"
)

var Budget = &Mapping{
	Entity: EntityBudget,
	Fields: []Field{
		newField("category", "category_c", KindString),
		newField("month", "month_c", KindMonth),
		newField("monthlyLimit", "monthly_limit_c", KindDecimal),
		newField("spent", "spent_c", KindDecimal),
		newField("rollover", "rollover_c", KindDecimal),
	},
	Defaults: map[string]any{
		"spent":    decimal.Zero,
		"rollover": decimal.Zero,
	},
	Name: func(v map[string]any, _ bool) (string, bool) {
		category, okC := v["category"]
		month, okM := v["month"]
		if !okC || !okM {
			return "", false
		}
		return fmt.Sprintf("%s - %s", records.ValueString(category), records.ValueString(month)), true
	},
}

var Transaction = &Mapping{
	Entity: EntityTransaction,
	Fields: []Field{
		newField("amount", "amount_c", KindDecimal),
		newField("category", "category_c", KindString),
		newField("date", "date_c", KindDate),
		newField("description", "description_c", KindString),
		newField("notes", "notes_c", KindString),
		newField("type", "type_c", KindString),
	},
	Defaults: map[string]any{
		"notes": "",
	},
	Name: func(v map[string]any, create bool) (string, bool) {
		if d := records.ValueString(v["description"]); d != "" {
			return d, true
		}
		return "Transaction", create
	},
}

var Category = &Mapping{
	Entity: EntityCategory,
	Fields: []Field{
		newField("name", "name_c", KindString),
		newField("color", "color_c", KindString),
		newField("icon", "icon_c", KindString),
		newField("isCustom", "is_custom_c", KindBool),
	},
	Defaults: map[string]any{
		"isCustom": true,
	},
	Name: nameFromField("name"),
}

var SavingsGoal = &Mapping{
	Entity: EntitySavingsGoal,
	Fields: []Field{
		newField("name", "name_c", KindString),
		newField("targetAmount", "target_amount_c", KindDecimal),
		newField("currentAmount", "current_amount_c", KindDecimal),
		newField("deadline", "deadline_c", KindDate),
		newField("priority", "priority_c", KindInt),
	},
	Defaults: map[string]any{
		"currentAmount": decimal.Zero,
	},
	Name: nameFromField("name"),
}

// All lists the mapping of every entity type.
func All() []*Mapping {
	return []*Mapping{Budget, Transaction, Category, SavingsGoal}
}

func nameFromField(domain string) NameFunc {
	return func(v map[string]any, _ bool) (string, bool) {
		raw, ok := v[domain]
		if !ok {
			return "", false
		}
		return records.ValueString(raw), true
	}
}

func DecodeBudget(rec records.Record) core.Budget {
	r := Budget.Read(rec)
	return core.Budget{
		ID:           r.ID(),
		Name:         r.Name(),
		Category:     r.String("category"),
		Month:        core.Month(r.String("month")),
		MonthlyLimit: r.Decimal("monthlyLimit"),
		Spent:        r.Decimal("spent"),
		Rollover:     r.Decimal("rollover"),
	}
}

func DecodeTransaction(rec records.Record) core.Transaction {
	r := Transaction.Read(rec)
	return core.Transaction{
		ID:          r.ID(),
		Name:        r.Name(),
		Amount:      r.Decimal("amount"),
		Category:    r.String("category"),
		Date:        r.Date("date"),
		Description: r.String("description"),
		Notes:       r.String("notes"),
		Type:        core.TransactionType(r.String("type")),
	}
}

func DecodeCategory(rec records.Record) core.Category {
	r := Category.Read(rec)
	name := r.String("name")
	if name == "" {
		name = r.Name()
	}
	return core.Category{
		ID:       r.ID(),
		Name:     name,
		Color:    r.String("color"),
		Icon:     r.String("icon"),
		IsCustom: r.Bool("isCustom"),
	}
}

func DecodeSavingsGoal(rec records.Record) core.SavingsGoal {
	r := SavingsGoal.Read(rec)
	name := r.String("name")
	if name == "" {
		name = r.Name()
	}
	return core.SavingsGoal{
		ID:            r.ID(),
		Name:          name,
		TargetAmount:  r.Decimal("targetAmount"),
		CurrentAmount: r.Decimal("currentAmount"),
		Deadline:      r.Date("deadline"),
		Priority:      r.Int("priority"),
	}
}

// EncodeCategory converts a domain category, used when seeding.
func EncodeCategory(c core.Category) Input {
	return Input{
		"name":     c.Name,
		"color":    c.Color,
		"icon":     c.Icon,
		"isCustom": c.IsCustom,
	}
}
