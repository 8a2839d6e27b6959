// Package recordstest provides record store doubles for tests.
package recordstest

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/records"
)

// ErrStoreDown is returned by FailingStore.
var ErrStoreDown = errors.New("store unavailable")

// FailingStore fails every call.
type FailingStore struct {
	Err error
}

func (f FailingStore) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrStoreDown
}

func (f FailingStore) Fetch(context.Context, string, records.Query) ([]records.Record, error) {
	return nil, f.err()
}

func (f FailingStore) Get(context.Context, string, int64, []string) (records.Record, error) {
	return nil, f.err()
}

func (f FailingStore) Create(context.Context, string, []records.Record) ([]records.Result, error) {
	return nil, f.err()
}

func (f FailingStore) Update(context.Context, string, []records.Record) ([]records.Result, error) {
	return nil, f.err()
}

func (f FailingStore) Delete(context.Context, string, []int64) ([]records.Result, error) {
	return nil, f.err()
}

func (f FailingStore) Increment(context.Context, string, int64, string, decimal.Decimal) (records.Record, error) {
	return nil, f.err()
}

// Stub wraps a store and lets a test override single operations. Calls
// are recorded per operation name.
type Stub struct {
	records.Store

	FetchFunc  func(ctx context.Context, entity string, q records.Query) ([]records.Record, error)
	CreateFunc func(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error)
	UpdateFunc func(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error)
	DeleteFunc func(ctx context.Context, entity string, ids []int64) ([]records.Result, error)

	mu      sync.Mutex
	queries []records.Query
	updates [][]records.Record
}

func (s *Stub) Fetch(ctx context.Context, entity string, q records.Query) ([]records.Record, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	if s.FetchFunc != nil {
		return s.FetchFunc(ctx, entity, q)
	}
	return s.Store.Fetch(ctx, entity, q)
}

func (s *Stub) Create(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	if s.CreateFunc != nil {
		return s.CreateFunc(ctx, entity, recs)
	}
	return s.Store.Create(ctx, entity, recs)
}

func (s *Stub) Update(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	s.mu.Lock()
	s.updates = append(s.updates, recs)
	s.mu.Unlock()
	if s.UpdateFunc != nil {
		return s.UpdateFunc(ctx, entity, recs)
	}
	return s.Store.Update(ctx, entity, recs)
}

func (s *Stub) Delete(ctx context.Context, entity string, ids []int64) ([]records.Result, error) {
	if s.DeleteFunc != nil {
		return s.DeleteFunc(ctx, entity, ids)
	}
	return s.Store.Delete(ctx, entity, ids)
}

// Queries returns the queries passed to Fetch so far.
func (s *Stub) Queries() []records.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]records.Query(nil), s.queries...)
}

// Updates returns the batches passed to Update so far.
func (s *Stub) Updates() [][]records.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]records.Record(nil), s.updates...)
}

// Publisher records published changes.
type Publisher struct {
	mu      sync.Mutex
	Err     error
	changes []records.Change
}

func (p *Publisher) PublishChange(_ context.Context, c records.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.Err
}

func (p *Publisher) Changes() []records.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]records.Change(nil), p.changes...)
}
