package records

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ValueString renders a stored value the way filters compare it.
func ValueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Matches reports whether the record satisfies the filter.
func (f Filter) Matches(r Record) bool {
	got := ValueString(r[f.Field])
	for _, want := range f.Values {
		switch f.Operator {
		case StartsWith:
			if strings.HasPrefix(got, want) {
				return true
			}
		default:
			if got == want {
				return true
			}
		}
	}
	return false
}

// Matches reports whether the record satisfies every filter of the query.
func (q Query) Matches(r Record) bool {
	for _, f := range q.Where {
		if !f.Matches(r) {
			return false
		}
	}
	return true
}

// Apply evaluates q over recs in memory: filter, order, page, then project.
// The input slice is not modified.
func Apply(recs []Record, q Query) []Record {
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	Sort(out, q.OrderBy)
	out = Page(out, q.Limit, q.Offset)
	for i, r := range out {
		out[i] = Project(r, q.Fields)
	}
	return out
}

// Sort orders records stably by the given keys. Numeric values compare
// numerically, anything else as strings; missing values sort first.
func Sort(recs []Record, orders []Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, o := range orders {
			c := compareValues(recs[i][o.Field], recs[j][o.Field])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	da, okA := numeric(a)
	db, okB := numeric(b)
	if okA && okB {
		return da.Cmp(db)
	}
	return strings.Compare(ValueString(a), ValueString(b))
}

func numeric(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), true
	case int64:
		return decimal.NewFromInt(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		return d, err == nil
	case decimal.Decimal:
		return x, true
	default:
		return decimal.Zero, false
	}
}

// Page applies offset and limit. A non-positive limit keeps everything.
func Page(recs []Record, limit, offset int) []Record {
	if offset > 0 {
		if offset >= len(recs) {
			return recs[:0]
		}
		recs = recs[offset:]
	}
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}

// Project copies the selected fields of r. The Id is always kept.
func Project(r Record, fields []string) Record {
	if len(fields) == 0 {
		return r.Clone()
	}
	out := Record{IDField: r[IDField]}
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}
