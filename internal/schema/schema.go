// Package schema maps domain field names to the suffixed field names used
// by record stores. Repositories encode client input with a Mapping before
// writing and decode stored records through a Reader.
package schema

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/records"
)

type Kind int

const (
	KindString Kind = iota
	KindDecimal
	KindInt
	KindBool
	KindDate
	KindMonth
)

var ErrInvalidValue = errors.New("invalid value")

// FieldError reports a value that could not be converted to its field kind.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return "invalid value for " + e.Field }
func (e *FieldError) Unwrap() error { return e.Err }

// Input is a field map as received from a client. Keys may be domain names
// (monthlyLimit) or store names (monthly_limit_c).
type Input map[string]any

type Field struct {
	Domain string
	Store  string
	Kind   Kind
	// Aliases are extra store keys accepted on read.
	Aliases []string
}

// NameFunc derives the record display name from resolved domain values.
// It returns false when the name must be left untouched.
type NameFunc func(values map[string]any, create bool) (string, bool)

type Mapping struct {
	Entity   string
	Fields   []Field
	Name     NameFunc
	Defaults map[string]any // domain key -> value applied on create
}

// Field returns the field with the given domain name.
func (m *Mapping) Field(domain string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Domain == domain {
			return f, true
		}
	}
	return Field{}, false
}

// StoreKey returns the store field name for a domain field, or the input
// unchanged when it is not mapped.
func (m *Mapping) StoreKey(domain string) string {
	if f, ok := m.Field(domain); ok {
		return f.Store
	}
	return domain
}

// StoreFields lists every store field including Id and Name.
func (m *Mapping) StoreFields() []string {
	out := []string{records.IDField, records.NameField}
	for _, f := range m.Fields {
		out = append(out, f.Store)
	}
	return out
}

// lookup resolves a field in client input. The domain key wins when both
// keys are present; nil counts as absent.
func (f Field) lookup(in Input) (any, bool) {
	if v, ok := in[f.Domain]; ok && v != nil {
		return v, true
	}
	if v, ok := in[f.Store]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// Normalize returns the input keyed by domain names only. Unknown keys are
// dropped.
func (m *Mapping) Normalize(in Input) map[string]any {
	out := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		if v, ok := f.lookup(in); ok {
			out[f.Domain] = v
		}
	}
	return out
}

// Encode converts client input into a store record. On create, missing
// fields with a default get it. The display Name is derived through the
// mapping's NameFunc.
func (m *Mapping) Encode(in Input, create bool) (records.Record, error) {
	values := m.Normalize(in)
	if create {
		for k, v := range m.Defaults {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}

	rec := make(records.Record, len(values)+1)
	for _, f := range m.Fields {
		v, ok := values[f.Domain]
		if !ok {
			continue
		}
		conv, err := convert(f.Kind, v)
		if err != nil {
			return nil, &FieldError{Field: f.Domain, Err: err}
		}
		rec[f.Store] = conv
	}
	if m.Name != nil {
		if name, ok := m.Name(values, create); ok {
			rec[records.NameField] = name
		}
	}
	return rec, nil
}

func convert(kind Kind, v any) (any, error) {
	switch kind {
	case KindDecimal:
		d, err := core.CoerceDecimal(v)
		if err != nil {
			return nil, ErrInvalidValue
		}
		return json.Number(d.String()), nil
	case KindInt:
		n, ok := coerceInt(v)
		if !ok {
			return nil, ErrInvalidValue
		}
		return n, nil
	case KindBool:
		b, ok := coerceBool(v)
		if !ok {
			return nil, ErrInvalidValue
		}
		return b, nil
	case KindDate:
		switch x := v.(type) {
		case core.Date:
			return x.String(), nil
		case time.Time:
			return x.Format("2006-01-02"), nil
		}
		return records.ValueString(v), nil
	default:
		return records.ValueString(v), nil
	}
}

func coerceInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case float64:
		return int64(x), x == math.Trunc(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			return int64(f), ferr == nil && f == math.Trunc(f)
		}
		return n, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func coerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	case float64:
		return x != 0, true
	case int64:
		return x != 0, true
	case int:
		return x != 0, true
	case json.Number:
		return x.String() != "0", true
	default:
		return false, false
	}
}

// Reader gives typed access to a stored record by domain field name,
// falling back to alias keys when the store key is absent.
type Reader struct {
	m   *Mapping
	rec records.Record
}

func (m *Mapping) Read(rec records.Record) Reader {
	return Reader{m: m, rec: rec}
}

func (r Reader) ID() int64 { return r.rec.ID() }

func (r Reader) Name() string { return records.ValueString(r.rec[records.NameField]) }

// Value returns the raw stored value of a domain field.
func (r Reader) Value(domain string) (any, bool) {
	f, ok := r.m.Field(domain)
	if !ok {
		v, ok := r.rec[domain]
		return v, ok && v != nil
	}
	if v, ok := r.rec[f.Store]; ok && v != nil {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := r.rec[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r Reader) String(domain string) string {
	v, _ := r.Value(domain)
	return records.ValueString(v)
}

// Decimal returns zero for missing or malformed values.
func (r Reader) Decimal(domain string) decimal.Decimal {
	v, ok := r.Value(domain)
	if !ok {
		return decimal.Zero
	}
	d, err := core.CoerceDecimal(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (r Reader) Int(domain string) int {
	v, _ := r.Value(domain)
	n, _ := coerceInt(v)
	return int(n)
}

func (r Reader) Bool(domain string) bool {
	v, _ := r.Value(domain)
	b, _ := coerceBool(v)
	return b
}

// Date returns the zero date for missing or malformed values.
func (r Reader) Date(domain string) core.Date {
	d, err := core.ParseDate(r.String(domain))
	if err != nil {
		return core.Date{}
	}
	return d
}

// newField builds a field whose aliases are the domain name and the store
// name without its suffix.
func newField(domain, store string, kind Kind) Field {
	f := Field{Domain: domain, Store: store, Kind: kind}
	seen := map[string]bool{store: true}
	for _, a := range []string{domain, strings.TrimSuffix(store, "_c")} {
		if !seen[a] {
			seen[a] = true
			f.Aliases = append(f.Aliases, a)
		}
	}
	return f
}
