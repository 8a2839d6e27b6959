package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/log"
	"fintrack/internal/notify"
)

// Adapter wraps a Store for repositories. It never returns errors: failures
// are logged, reported to the notifier and turned into nil/false results.
type Adapter struct {
	store     Store
	logger    *log.Logger
	notifier  notify.Notifier
	publisher ChangePublisher
	now       func() time.Time
}

type AdapterOption func(*Adapter)

// WithNotifier routes failure messages to n.
func WithNotifier(n notify.Notifier) AdapterOption {
	return func(a *Adapter) { a.notifier = n }
}

// WithPublisher emits a Change for every successful mutation.
func WithPublisher(p ChangePublisher) AdapterOption {
	return func(a *Adapter) { a.publisher = p }
}

func NewAdapter(store Store, logger *log.Logger, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		store:    store,
		logger:   logger.WithComponent(log.ComponentRecords),
		notifier: notify.Discard,
		now:      time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Store exposes the underlying store for capability checks.
func (a *Adapter) Store() Store { return a.store }

// FetchAll returns the records matching q, and false if the store failed.
func (a *Adapter) FetchAll(ctx context.Context, entity string, q Query) ([]Record, bool) {
	recs, err := a.store.Fetch(ctx, entity, q)
	if err != nil {
		a.fail(ctx, log.OpFetch, entity, 0, err)
		return nil, false
	}
	if recs == nil {
		recs = []Record{}
	}
	return recs, true
}

// FetchByID returns the record or nil. A missing record is not reported as
// a user-facing error.
func (a *Adapter) FetchByID(ctx context.Context, entity string, id int64, fields []string) Record {
	rec, err := a.store.Get(ctx, entity, id, fields)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.logger.DebugContext(ctx, "Record not found", log.FieldEntity, entity, log.FieldRecordID, id)
			return nil
		}
		a.fail(ctx, log.OpGet, entity, id, err)
		return nil
	}
	return rec
}

// Create stores recs and returns the successfully created subset.
func (a *Adapter) Create(ctx context.Context, entity string, recs ...Record) []Record {
	results, err := a.store.Create(ctx, entity, recs)
	if err != nil {
		a.fail(ctx, log.OpCreate, entity, 0, err)
		return nil
	}
	ok := a.partition(ctx, log.OpCreate, entity, results)
	for _, r := range ok {
		a.publish(ctx, entity, r.ID(), ChangeCreate, r)
	}
	return ok
}

// CreateOne creates a single record and returns it, or nil.
func (a *Adapter) CreateOne(ctx context.Context, entity string, rec Record) Record {
	return first(a.Create(ctx, entity, rec))
}

// Update merges recs into stored records and returns the updated subset.
func (a *Adapter) Update(ctx context.Context, entity string, recs ...Record) []Record {
	results, err := a.store.Update(ctx, entity, recs)
	if err != nil {
		a.fail(ctx, log.OpUpdate, entity, 0, err)
		return nil
	}
	ok := a.partition(ctx, log.OpUpdate, entity, results)
	for _, r := range ok {
		a.publish(ctx, entity, r.ID(), ChangeUpdate, r)
	}
	return ok
}

// UpdateOne updates a single record and returns it, or nil.
func (a *Adapter) UpdateOne(ctx context.Context, entity string, rec Record) Record {
	return first(a.Update(ctx, entity, rec))
}

// Delete removes the records and reports whether at least one was deleted.
func (a *Adapter) Delete(ctx context.Context, entity string, ids ...int64) bool {
	results, err := a.store.Delete(ctx, entity, ids)
	if err != nil {
		a.fail(ctx, log.OpDelete, entity, 0, err)
		return false
	}
	var deleted bool
	for i, res := range results {
		if !res.Success {
			a.reject(ctx, log.OpDelete, entity, res)
			continue
		}
		deleted = true
		id := res.Record.ID()
		if id == 0 && i < len(ids) {
			id = ids[i]
		}
		a.publish(ctx, entity, id, ChangeDelete, nil)
	}
	return deleted
}

// Increment adds delta to field atomically. It returns the updated record,
// nil on failure, and false as second value when the store has no atomic
// increment so the caller can fall back to read-modify-write.
func (a *Adapter) Increment(ctx context.Context, entity string, id int64, field string, delta decimal.Decimal) (Record, bool) {
	inc, ok := a.store.(Incrementer)
	if !ok {
		return nil, false
	}
	rec, err := inc.Increment(ctx, entity, id, field, delta)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return nil, false
		}
		if errors.Is(err, ErrNotFound) {
			a.logger.DebugContext(ctx, "Record not found", log.FieldEntity, entity, log.FieldRecordID, id)
			return nil, true
		}
		a.fail(ctx, log.OpIncrement, entity, id, err)
		return nil, true
	}
	a.publish(ctx, entity, id, ChangeIncrement, rec)
	return rec, true
}

// Notify forwards a message raised by a repository.
func (a *Adapter) Notify(ctx context.Context, n notify.Notification) {
	a.notifier.Notify(ctx, n)
}

func (a *Adapter) partition(ctx context.Context, op, entity string, results []Result) []Record {
	ok := make([]Record, 0, len(results))
	var failed int
	for _, res := range results {
		if res.Success {
			ok = append(ok, res.Record)
			continue
		}
		failed++
		a.reject(ctx, op, entity, res)
	}
	if failed > 0 {
		a.logger.ErrorContext(ctx, "Batch partially failed",
			log.FieldOperation, op, log.FieldEntity, entity, log.FieldFailed, failed, log.FieldCount, len(results))
	}
	return ok
}

func (a *Adapter) reject(ctx context.Context, op, entity string, res Result) {
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("failed to %s %s record", op, entity)
	}
	a.notifier.Notify(ctx, notify.Error(entity, msg))
}

func (a *Adapter) fail(ctx context.Context, op, entity string, id int64, err error) {
	fields := log.NewFields().WithOperation(op).WithRecord(entity, id).WithError(err)
	a.logger.ErrorContext(ctx, "Record store operation failed", fields.ToSlice()...)
	a.notifier.Notify(ctx, notify.Error(entity, err.Error()))
}

func (a *Adapter) publish(ctx context.Context, entity string, id int64, op ChangeOp, fields Record) {
	if a.publisher == nil {
		return
	}
	c := Change{Entity: entity, ID: id, Op: op, Fields: fields, Timestamp: a.now().UTC()}
	if err := a.publisher.PublishChange(ctx, c); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish record change",
			log.FieldEntity, entity, log.FieldRecordID, id, log.FieldError, err)
	}
}

func first(recs []Record) Record {
	if len(recs) == 0 {
		return nil
	}
	return recs[0]
}
