package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sample() []Record {
	return []Record{
		{"Id": int64(1), "date_c": "2024-03-10", "category_c": "Food", "priority_c": float64(2)},
		{"Id": int64(2), "date_c": "2024-02-28", "category_c": "Transport", "priority_c": json.Number("10")},
		{"Id": int64(3), "date_c": "2024-03-01", "category_c": "Food", "priority_c": int64(1)},
		{"Id": int64(4), "date_c": "2024-03-20T08:00:00Z", "category_c": "Bills"},
	}
}

func ids(recs []Record) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}

func TestApplyStartsWithAndOrder(t *testing.T) {
	q := Query{
		Where:   []Filter{Where("date_c", StartsWith, "2024-03")},
		OrderBy: []Order{{Field: "date_c", Desc: true}},
	}
	assert.Equal(t, []int64{4, 1, 3}, ids(Apply(sample(), q)))
}

func TestApplyFiltersAreAndedValuesOred(t *testing.T) {
	q := Query{Where: []Filter{
		Where("category_c", EqualTo, "Food", "Bills"),
		Where("date_c", StartsWith, "2024-03-1", "2024-03-2"),
	}}
	assert.Equal(t, []int64{1, 4}, ids(Apply(sample(), q)))
}

func TestApplyNumericOrderAcrossRepresentations(t *testing.T) {
	q := Query{OrderBy: []Order{{Field: "priority_c"}}}
	// Missing values sort first, then 1, 2, 10 numerically.
	assert.Equal(t, []int64{4, 3, 1, 2}, ids(Apply(sample(), q)))
}

func TestApplyPagingAndProjection(t *testing.T) {
	q := Query{
		Fields:  []string{"category_c"},
		OrderBy: []Order{{Field: "Id"}},
		Limit:   2,
		Offset:  1,
	}
	got := Apply(sample(), q)
	assert.Equal(t, []int64{2, 3}, ids(got))
	assert.Equal(t, Record{"Id": int64(2), "category_c": "Transport"}, got[0])

	assert.Empty(t, Apply(sample(), Query{Offset: 10}))
}

func TestIDOf(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{int64(5), 5, true},
		{float64(7), 7, true},
		{float64(7.5), 7, false},
		{json.Number("9"), 9, true},
		{"11", 11, true},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := IDOf(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got)
		}
	}
}
