// Package records defines the record store port shared by every backend and
// the Adapter that repositories use to talk to it.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// IDField and NameField are present on every record regardless of entity.
	IDField   = "Id"
	NameField = "Name"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnsupported = errors.New("operation not supported by store")
)

type Operator string

const (
	EqualTo    Operator = "EqualTo"
	StartsWith Operator = "StartsWith"
)

type (
	// Record is a flat field map as held by a store. Numeric fields may be
	// float64, int64 or json.Number depending on the backend.
	Record map[string]any

	// Filter matches records whose Field satisfies Operator against any of
	// Values. Filters in a Query are combined with AND.
	Filter struct {
		Field    string
		Operator Operator
		Values   []string
	}

	Order struct {
		Field string
		Desc  bool
	}

	// Query selects, filters, orders and pages records. A zero Limit means
	// no limit. Empty Fields returns every field.
	Query struct {
		Fields  []string
		Where   []Filter
		OrderBy []Order
		Limit   int
		Offset  int
	}

	// Result reports the outcome of one record in a batch mutation.
	Result struct {
		Success bool
		Message string
		Record  Record
	}
)

// Ports for record store backends.
type (
	Store interface {
		Fetch(ctx context.Context, entity string, q Query) ([]Record, error)
		// Get returns ErrNotFound when no record has the id.
		Get(ctx context.Context, entity string, id int64, fields []string) (Record, error)
		Create(ctx context.Context, entity string, recs []Record) ([]Result, error)
		// Update merges each record into the stored one identified by its Id.
		Update(ctx context.Context, entity string, recs []Record) ([]Result, error)
		Delete(ctx context.Context, entity string, ids []int64) ([]Result, error)
	}

	// Incrementer is implemented by stores that can add to a numeric field
	// atomically.
	Incrementer interface {
		Increment(ctx context.Context, entity string, id int64, field string, delta decimal.Decimal) (Record, error)
	}
)

type ChangeOp string

const (
	ChangeCreate    ChangeOp = "create"
	ChangeUpdate    ChangeOp = "update"
	ChangeDelete    ChangeOp = "delete"
	ChangeIncrement ChangeOp = "increment"
)

// Change describes a successful mutation.
type Change struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Op        ChangeOp  `json:"op"`
	Fields    Record    `json:"fields,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ChangePublisher interface {
	PublishChange(ctx context.Context, c Change) error
}

// Where builds a filter.
func Where(field string, op Operator, values ...string) Filter {
	return Filter{Field: field, Operator: op, Values: values}
}

// ID returns the record identifier, or 0 when absent or not numeric.
func (r Record) ID() int64 {
	id, _ := IDOf(r[IDField])
	return id
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IDOf converts the numeric representations used by the backends into an id.
func IDOf(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float64:
		return int64(x), x == float64(int64(x))
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
