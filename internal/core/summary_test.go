package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarizeBudgets(t *testing.T) {
	budgets := []Budget{
		{Category: "Food", Month: "2024-03", MonthlyLimit: dec("500"), Spent: dec("450")},
		{Category: "Transport", Month: "2024-03", MonthlyLimit: dec("300"), Spent: dec("100")},
	}
	s := SummarizeBudgets("2024-03", budgets)
	if !s.TotalBudget.Equal(dec("800")) || !s.TotalSpent.Equal(dec("550")) {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if !s.Remaining.Equal(dec("250")) {
		t.Fatalf("expected remaining 250, got %s", s.Remaining)
	}
	if !s.Percentage.Equal(dec("68.75")) {
		t.Fatalf("expected percentage 68.75, got %s", s.Percentage)
	}
	if s.Categories != 2 {
		t.Fatalf("expected 2 categories, got %d", s.Categories)
	}
}

func TestSummarizeBudgetsZeroLimit(t *testing.T) {
	s := SummarizeBudgets("2024-03", []Budget{{MonthlyLimit: decimal.Zero, Spent: dec("40")}})
	if !s.Percentage.IsZero() {
		t.Fatalf("expected zero percentage with zero budget, got %s", s.Percentage)
	}
	if !s.Remaining.Equal(dec("-40")) {
		t.Fatalf("remaining should go negative, got %s", s.Remaining)
	}
	empty := SummarizeBudgets("2024-03", nil)
	if !empty.Percentage.IsZero() || empty.Categories != 0 {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}

func TestSummarizeGoals(t *testing.T) {
	goals := []SavingsGoal{
		{Name: "Car", TargetAmount: dec("1000"), CurrentAmount: dec("250")},
		{Name: "Trip", TargetAmount: dec("500"), CurrentAmount: dec("500")},
		{Name: "Fund", TargetAmount: dec("500"), CurrentAmount: dec("750")},
	}
	s := SummarizeGoals(goals)
	if s.ActiveGoals != 1 || s.CompletedGoals != 2 || s.TotalGoals != 3 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.ActiveGoals+s.CompletedGoals != s.TotalGoals {
		t.Fatalf("counts must partition total")
	}
	if !s.TotalTarget.Equal(dec("2000")) || !s.TotalCurrent.Equal(dec("1500")) || !s.TotalRemaining.Equal(dec("500")) {
		t.Fatalf("unexpected totals %+v", s)
	}
	if !s.OverallProgress.Equal(dec("75")) {
		t.Fatalf("expected progress 75, got %s", s.OverallProgress)
	}

	empty := SummarizeGoals(nil)
	if !empty.OverallProgress.IsZero() || empty.TotalGoals != 0 {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []Transaction{
		{Category: "Food", Amount: dec("20"), Type: Expense, Date: NewDate(2024, 3, 1)},
		{Category: "Food", Amount: dec("5"), Type: Expense, Date: NewDate(2024, 3, 15)},
		{Category: "Food", Amount: dec("100"), Type: Income, Date: NewDate(2024, 3, 1)},
	}
	got := CategoryBreakdown("2024-03", txs)
	if len(got) != 1 || got[0].Category != "Food" || !got[0].Amount.Equal(dec("25")) {
		t.Fatalf("unexpected breakdown %+v", got)
	}
}

func TestCategoryBreakdownOrderAndUncategorized(t *testing.T) {
	txs := []Transaction{
		{Category: "Transport", Amount: dec("3"), Type: Expense, Date: NewDate(2024, 3, 2)},
		{Category: "", Amount: dec("7"), Type: Expense, Date: NewDate(2024, 3, 3)},
		{Category: "Food", Amount: dec("4"), Type: Expense, Date: NewDate(2024, 3, 4)},
		{Category: "Transport", Amount: dec("1"), Type: Expense, Date: NewDate(2024, 3, 5)},
		{Category: "Food", Amount: dec("99"), Type: Expense, Date: NewDate(2024, 4, 1)},
	}
	got := CategoryBreakdown("2024-03", txs)
	want := []CategoryAmount{
		{Category: "Transport", Amount: dec("4")},
		{Category: Uncategorized, Amount: dec("7")},
		{Category: "Food", Amount: dec("4")},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d groups, got %+v", len(want), got)
	}
	for i := range want {
		if got[i].Category != want[i].Category || !got[i].Amount.Equal(want[i].Amount) {
			t.Fatalf("index %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if got := CategoryBreakdown("2024-05", txs); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil breakdown, got %#v", got)
	}
}

func TestIncomeExpenseTrend(t *testing.T) {
	txs := []Transaction{
		{Amount: dec("1000"), Type: Income, Date: NewDate(2024, 1, 5)},
		{Amount: dec("300"), Type: Expense, Date: NewDate(2024, 1, 6)},
		{Amount: dec("50.5"), Type: Expense, Date: NewDate(2024, 1, 20)},
	}
	got := IncomeExpenseTrend([]Month{"2024-01", "2024-02", "2024-01"}, txs)
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	jan := got[0]
	if jan.Month != "2024-01" || !jan.Income.Equal(dec("1000")) || !jan.Expenses.Equal(dec("350.5")) || !jan.Net.Equal(dec("649.5")) {
		t.Fatalf("unexpected january %+v", jan)
	}
	feb := got[1]
	if feb.Month != "2024-02" || !feb.Income.IsZero() || !feb.Expenses.IsZero() || !feb.Net.IsZero() {
		t.Fatalf("expected zero february, got %+v", feb)
	}
	if got[2].Month != "2024-01" || !got[2].Net.Equal(jan.Net) {
		t.Fatalf("duplicate month should repeat the same totals, got %+v", got[2])
	}
}
