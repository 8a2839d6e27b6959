package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	// IncomeCategory is the one category shown for income transactions and
	// hidden from expense category lists.
	IncomeCategory = "Income"

	// Uncategorized buckets expense transactions that carry no category.
	Uncategorized = "Uncategorized"

	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

type (
	TransactionType string

	// Date is a calendar day without time of day, serialised as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// Month is a calendar month key in YYYY-MM form.
	Month string

	Transaction struct {
		ID          int64           `json:"id"`
		Name        string          `json:"name"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Notes       string          `json:"notes"`
		Type        TransactionType `json:"type"`
	}

	Budget struct {
		ID           int64           `json:"id"`
		Name         string          `json:"name"`
		Category     string          `json:"category"`
		Month        Month           `json:"month"`
		MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
		Spent        decimal.Decimal `json:"spent"`
		Rollover     decimal.Decimal `json:"rollover"`
	}

	Category struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Color    string `json:"color"`
		Icon     string `json:"icon"`
		IsCustom bool   `json:"isCustom"`
	}

	SavingsGoal struct {
		ID            int64           `json:"id"`
		Name          string          `json:"name"`
		TargetAmount  decimal.Decimal `json:"targetAmount"`
		CurrentAmount decimal.Decimal `json:"currentAmount"`
		Deadline      Date            `json:"deadline"`
		Priority      int             `json:"priority"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD and any longer ISO timestamp starting with it.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Period returns the month the date falls in.
func (d Date) Period() Month {
	if d.IsZero() {
		return ""
	}
	return Month(d.Format(monthLayout))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseMonth validates a YYYY-MM month key.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(monthLayout, s); err != nil || len(s) != len(monthLayout) {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

// LastMonths returns the n months ending with (and including) end, oldest first.
func LastMonths(end Month, n int) []Month {
	t, err := time.Parse(monthLayout, string(end))
	if err != nil || n <= 0 {
		return nil
	}
	out := make([]Month, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = MonthOf(t.AddDate(0, -i, 0))
	}
	return out
}

func (m Month) String() string {
	return string(m)
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// Completed reports whether the goal has reached its target.
func (g SavingsGoal) Completed() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Remaining is the signed difference between limit and spent.
func (b Budget) Remaining() decimal.Decimal {
	return b.MonthlyLimit.Sub(b.Spent)
}

// DefaultCategories are the built-in categories seeded into an empty store.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Food & Dining", Color: "#ef4444", Icon: "Utensils"},
		{Name: "Transportation", Color: "#3b82f6", Icon: "Car"},
		{Name: "Shopping", Color: "#a855f7", Icon: "ShoppingBag"},
		{Name: "Entertainment", Color: "#ec4899", Icon: "Film"},
		{Name: "Bills & Utilities", Color: "#f59e0b", Icon: "Receipt"},
		{Name: "Healthcare", Color: "#10b981", Icon: "Heart"},
		{Name: "Housing", Color: "#14b8a6", Icon: "Home"},
		{Name: IncomeCategory, Color: "#22c55e", Icon: "TrendingUp"},
		{Name: "Other", Color: "#64748b", Icon: "MoreHorizontal"},
	}
}
