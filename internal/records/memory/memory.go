// Package memory is an in-process record store. It backs local development
// and tests.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/records"
)

type table struct {
	nextID int64
	rows   []records.Record
}

type Store struct {
	mu     sync.Mutex
	tables map[string]*table
}

func New() *Store {
	return &Store{tables: make(map[string]*table)}
}

// NewFromFile seeds a store from a JSON document mapping entity names to
// record lists. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed map[string][]records.Record
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	entities := make([]string, 0, len(seed))
	for e := range seed {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	for _, e := range entities {
		if _, err := s.Create(context.Background(), e, seed[e]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) table(entity string) *table {
	t, ok := s.tables[entity]
	if !ok {
		t = &table{nextID: 1}
		s.tables[entity] = t
	}
	return t
}

func (t *table) index(id int64) int {
	for i, r := range t.rows {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func (s *Store) Fetch(ctx context.Context, entity string, q records.Query) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	t := s.table(entity)
	rows := make([]records.Record, len(t.rows))
	for i, r := range t.rows {
		rows[i] = r.Clone()
	}
	s.mu.Unlock()
	return records.Apply(rows, q), nil
}

func (s *Store) Get(ctx context.Context, entity string, id int64, fields []string) (records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(entity)
	i := t.index(id)
	if i < 0 {
		return nil, records.ErrNotFound
	}
	return records.Project(t.rows[i], fields), nil
}

func (s *Store) Create(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(entity)
	out := make([]records.Result, 0, len(recs))
	for _, in := range recs {
		if len(in) == 0 {
			out = append(out, records.Result{Message: "empty record"})
			continue
		}
		r := in.Clone()
		// Seeded records keep their id unless it is taken.
		id := r.ID()
		if id <= 0 || t.index(id) >= 0 {
			id = t.nextID
		}
		if id >= t.nextID {
			t.nextID = id + 1
		}
		r[records.IDField] = id
		t.rows = append(t.rows, r)
		out = append(out, records.Result{Success: true, Record: r.Clone()})
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(entity)
	out := make([]records.Result, 0, len(recs))
	for _, in := range recs {
		id := in.ID()
		i := t.index(id)
		if i < 0 {
			out = append(out, records.Result{Message: fmt.Sprintf("%s record %d not found", entity, id)})
			continue
		}
		for k, v := range in {
			if k == records.IDField {
				continue
			}
			t.rows[i][k] = v
		}
		out = append(out, records.Result{Success: true, Record: t.rows[i].Clone()})
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, entity string, ids []int64) ([]records.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(entity)
	out := make([]records.Result, 0, len(ids))
	for _, id := range ids {
		i := t.index(id)
		if i < 0 {
			out = append(out, records.Result{Message: fmt.Sprintf("%s record %d not found", entity, id)})
			continue
		}
		t.rows = append(t.rows[:i], t.rows[i+1:]...)
		out = append(out, records.Result{Success: true, Record: records.Record{records.IDField: id}})
	}
	return out, nil
}

// Increment adds delta to a numeric field under the store lock.
func (s *Store) Increment(ctx context.Context, entity string, id int64, field string, delta decimal.Decimal) (records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(entity)
	i := t.index(id)
	if i < 0 {
		return nil, records.ErrNotFound
	}
	current := decimal.Zero
	if v, ok := t.rows[i][field]; ok && v != nil {
		d, err := core.CoerceDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("increment %s.%s: %w", entity, field, err)
		}
		current = d
	}
	t.rows[i][field] = json.Number(current.Add(delta).String())
	return t.rows[i].Clone(), nil
}
