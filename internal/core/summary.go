package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// BudgetSummary totals the budgets of one month.
type BudgetSummary struct {
	Month       Month           `json:"month"`
	TotalBudget decimal.Decimal `json:"totalBudget"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	Remaining   decimal.Decimal `json:"remaining"`
	Percentage  decimal.Decimal `json:"percentage"`
	Categories  int             `json:"categories"`
}

// GoalSummary totals every savings goal.
type GoalSummary struct {
	TotalTarget     decimal.Decimal `json:"totalTarget"`
	TotalCurrent    decimal.Decimal `json:"totalCurrent"`
	TotalRemaining  decimal.Decimal `json:"totalRemaining"`
	OverallProgress decimal.Decimal `json:"overallProgress"`
	ActiveGoals     int             `json:"activeGoals"`
	CompletedGoals  int             `json:"completedGoals"`
	TotalGoals      int             `json:"totalGoals"`
}

// TrendPoint is the income/expense balance of a single month.
type TrendPoint struct {
	Month    Month           `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// percentOf returns part/whole*100, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// EmptyBudgetSummary is the shape reported when budgets cannot be fetched.
func EmptyBudgetSummary(month Month) BudgetSummary {
	return BudgetSummary{
		Month:       month,
		TotalBudget: decimal.Zero,
		TotalSpent:  decimal.Zero,
		Remaining:   decimal.Zero,
		Percentage:  decimal.Zero,
	}
}

// SummarizeBudgets totals limit and spent across the given budgets. The
// caller is expected to pass the budgets of month only.
func SummarizeBudgets(month Month, budgets []Budget) BudgetSummary {
	s := EmptyBudgetSummary(month)
	for _, b := range budgets {
		s.TotalBudget = s.TotalBudget.Add(b.MonthlyLimit)
		s.TotalSpent = s.TotalSpent.Add(b.Spent)
	}
	s.Remaining = s.TotalBudget.Sub(s.TotalSpent)
	s.Percentage = percentOf(s.TotalSpent, s.TotalBudget)
	s.Categories = len(budgets)
	return s
}

// EmptyGoalSummary is the shape reported when goals cannot be fetched.
func EmptyGoalSummary() GoalSummary {
	return GoalSummary{
		TotalTarget:     decimal.Zero,
		TotalCurrent:    decimal.Zero,
		TotalRemaining:  decimal.Zero,
		OverallProgress: decimal.Zero,
	}
}

// SummarizeGoals totals target and current amounts and splits goals into
// active and completed.
func SummarizeGoals(goals []SavingsGoal) GoalSummary {
	s := EmptyGoalSummary()
	for _, g := range goals {
		s.TotalTarget = s.TotalTarget.Add(g.TargetAmount)
		s.TotalCurrent = s.TotalCurrent.Add(g.CurrentAmount)
		if g.Completed() {
			s.CompletedGoals++
		} else {
			s.ActiveGoals++
		}
	}
	s.TotalRemaining = s.TotalTarget.Sub(s.TotalCurrent)
	s.OverallProgress = percentOf(s.TotalCurrent, s.TotalTarget)
	s.TotalGoals = len(goals)
	return s
}

// CategoryBreakdown sums the expenses of month per category, in the order
// categories are first seen.
func CategoryBreakdown(month Month, txs []Transaction) []CategoryAmount {
	out := []CategoryAmount{}
	index := make(map[string]int)
	for _, t := range txs {
		if t.Type != Expense || t.Date.Period() != month {
			continue
		}
		name := t.Category
		if name == "" {
			name = Uncategorized
		}
		if i, ok := index[name]; ok {
			out[i].Amount = out[i].Amount.Add(t.Amount)
			continue
		}
		index[name] = len(out)
		out = append(out, CategoryAmount{Category: name, Amount: t.Amount})
	}
	return out
}

// IncomeExpenseTrend reports one point per requested month, preserving the
// order and duplicates of months. Months without transactions yield zeros.
func IncomeExpenseTrend(months []Month, txs []Transaction) []TrendPoint {
	type totals struct{ income, expenses decimal.Decimal }
	byMonth := make(map[Month]*totals)
	for _, t := range txs {
		p := t.Date.Period()
		agg, ok := byMonth[p]
		if !ok {
			agg = &totals{income: decimal.Zero, expenses: decimal.Zero}
			byMonth[p] = agg
		}
		switch t.Type {
		case Income:
			agg.income = agg.income.Add(t.Amount)
		case Expense:
			agg.expenses = agg.expenses.Add(t.Amount)
		}
	}

	out := make([]TrendPoint, 0, len(months))
	for _, m := range months {
		p := ZeroTrendPoint(m)
		if agg, ok := byMonth[m]; ok {
			p.Income = agg.income
			p.Expenses = agg.expenses
			p.Net = agg.income.Sub(agg.expenses)
		}
		out = append(out, p)
	}
	return out
}

// ZeroTrendPoint is the point reported for a month that could not be fetched.
func ZeroTrendPoint(m Month) TrendPoint {
	return TrendPoint{Month: m, Income: decimal.Zero, Expenses: decimal.Zero, Net: decimal.Zero}
}
