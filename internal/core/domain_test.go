package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-01", "2024-03-01", true},
		{"2024-03-15T10:20:00Z", "2024-03-15", true},
		{" 2024-12-31 ", "2024-12-31", true},
		{"2024-13-01", "", false},
		{"03/01/2024", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 3, 5)
	b, err := json.Marshal(d)
	if err != nil || string(b) != `"2024-03-05"` {
		t.Fatalf("marshal: got %s (err=%v)", b, err)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil || !back.Equal(d.Time) {
		t.Fatalf("unmarshal: got %v (err=%v)", back, err)
	}
	if b, _ := json.Marshal(Date{}); string(b) != `""` {
		t.Fatalf("zero date should marshal empty, got %s", b)
	}
}

func TestParseMonth(t *testing.T) {
	for _, ok := range []string{"2024-01", "1999-12"} {
		if _, err := ParseMonth(ok); err != nil {
			t.Fatalf("%q expected ok, got %v", ok, err)
		}
	}
	for _, bad := range []string{"2024-1", "2024-13", "2024/01", "2024-01-01", ""} {
		if _, err := ParseMonth(bad); err != ErrInvalidMonth {
			t.Fatalf("%q expected ErrInvalidMonth, got %v", bad, err)
		}
	}
}

func TestLastMonths(t *testing.T) {
	got := LastMonths("2024-02", 4)
	want := []Month{"2023-11", "2023-12", "2024-01", "2024-02"}
	if len(got) != len(want) {
		t.Fatalf("expected %d months, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if LastMonths("bad", 3) != nil {
		t.Fatalf("expected nil for invalid month")
	}
}

func TestGoalCompletedAtTarget(t *testing.T) {
	g := SavingsGoal{TargetAmount: decimal.NewFromInt(100), CurrentAmount: decimal.NewFromInt(100)}
	if !g.Completed() {
		t.Fatalf("goal at target should be completed")
	}
	g.CurrentAmount = decimal.RequireFromString("99.99")
	if g.Completed() {
		t.Fatalf("goal below target should be active")
	}
}

func TestTransactionTypeValid(t *testing.T) {
	if !Income.Valid() || !Expense.Valid() {
		t.Fatalf("known types should be valid")
	}
	if TransactionType("transfer").Valid() {
		t.Fatalf("unknown type should be invalid")
	}
}
