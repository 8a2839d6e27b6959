package records_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/records"
	"fintrack/internal/records/memory"
	"fintrack/internal/records/recordstest"
)

func newAdapter(store records.Store, opts ...records.AdapterOption) (*records.Adapter, *notify.Collector) {
	c := &notify.Collector{}
	opts = append([]records.AdapterOption{records.WithNotifier(c)}, opts...)
	return records.NewAdapter(store, log.Discard(), opts...), c
}

func TestAdapterFailingStoreReturnsSentinels(t *testing.T) {
	a, c := newAdapter(recordstest.FailingStore{})
	ctx := context.Background()

	recs, ok := a.FetchAll(ctx, "budget_c", records.Query{})
	assert.False(t, ok)
	assert.Nil(t, recs)
	assert.Nil(t, a.FetchByID(ctx, "budget_c", 1, nil))
	assert.Nil(t, a.CreateOne(ctx, "budget_c", records.Record{"Name": "x"}))
	assert.Nil(t, a.UpdateOne(ctx, "budget_c", records.Record{"Id": int64(1)}))
	assert.False(t, a.Delete(ctx, "budget_c", 1))

	rec, supported := a.Increment(ctx, "budget_c", 1, "spent_c", decimal.NewFromInt(1))
	assert.True(t, supported)
	assert.Nil(t, rec)

	items := c.Items()
	require.Len(t, items, 6)
	for _, n := range items {
		assert.Equal(t, notify.LevelError, n.Level)
		assert.Equal(t, recordstest.ErrStoreDown.Error(), n.Message)
	}
}

func TestAdapterPartitionsBatchResults(t *testing.T) {
	stub := &recordstest.Stub{
		Store: memory.New(),
		CreateFunc: func(_ context.Context, _ string, recs []records.Record) ([]records.Result, error) {
			return []records.Result{
				{Success: true, Record: records.Record{"Id": int64(1), "Name": "a"}},
				{Success: false, Message: "name_c is required"},
				{Success: true, Record: records.Record{"Id": int64(2), "Name": "c"}},
				{Success: false},
			}, nil
		},
	}
	a, c := newAdapter(stub)

	got := a.Create(context.Background(), "category_c", records.Record{}, records.Record{}, records.Record{}, records.Record{})
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID())
	assert.Equal(t, int64(2), got[1].ID())

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "name_c is required", items[0].Message)
	assert.Equal(t, "failed to create category_c record", items[1].Message)
}

func TestAdapterCreateOneReturnsFirstSuccess(t *testing.T) {
	stub := &recordstest.Stub{
		Store: memory.New(),
		CreateFunc: func(context.Context, string, []records.Record) ([]records.Result, error) {
			return []records.Result{{Success: false, Message: "rejected"}}, nil
		},
	}
	a, c := newAdapter(stub)
	assert.Nil(t, a.CreateOne(context.Background(), "category_c", records.Record{"Name": "x"}))
	assert.Len(t, c.Items(), 1)
}

func TestAdapterFetchByIDMissingIsQuiet(t *testing.T) {
	a, c := newAdapter(memory.New())
	assert.Nil(t, a.FetchByID(context.Background(), "budget_c", 42, nil))
	assert.Empty(t, c.Items())
}

func TestAdapterDeleteReportsAnySuccess(t *testing.T) {
	store := memory.New()
	a, c := newAdapter(store)
	ctx := context.Background()

	created := a.CreateOne(ctx, "budget_c", records.Record{"Name": "Food - 2024-03"})
	require.NotNil(t, created)

	assert.True(t, a.Delete(ctx, "budget_c", created.ID(), 999))
	assert.Len(t, c.Items(), 1, "missing id surfaces one notification")
	assert.False(t, a.Delete(ctx, "budget_c", created.ID()))
}

func TestAdapterPublishesChanges(t *testing.T) {
	pub := &recordstest.Publisher{}
	a, _ := newAdapter(memory.New(), records.WithPublisher(pub))
	ctx := context.Background()

	rec := a.CreateOne(ctx, "transaction_c", records.Record{"date_c": "2024-03-01"})
	require.NotNil(t, rec)
	require.NotNil(t, a.UpdateOne(ctx, "transaction_c", records.Record{"Id": rec.ID(), "notes_c": "n"}))
	require.True(t, a.Delete(ctx, "transaction_c", rec.ID()))

	changes := pub.Changes()
	require.Len(t, changes, 3)
	assert.Equal(t, records.ChangeCreate, changes[0].Op)
	assert.Equal(t, "2024-03-01", changes[0].Fields["date_c"])
	assert.Equal(t, records.ChangeUpdate, changes[1].Op)
	assert.Equal(t, records.ChangeDelete, changes[2].Op)
	assert.Equal(t, rec.ID(), changes[2].ID)
}

func TestAdapterPublishErrorDoesNotFailCall(t *testing.T) {
	pub := &recordstest.Publisher{Err: assert.AnError}
	a, c := newAdapter(memory.New(), records.WithPublisher(pub))
	rec := a.CreateOne(context.Background(), "category_c", records.Record{"name_c": "Pets"})
	assert.NotNil(t, rec)
	assert.Empty(t, c.Items())
}

func TestAdapterIncrementUnsupported(t *testing.T) {
	a, _ := newAdapter(&recordstest.Stub{Store: memory.New()})
	rec, supported := a.Increment(context.Background(), "savings_goal_c", 1, "current_amount_c", decimal.NewFromInt(5))
	assert.False(t, supported)
	assert.Nil(t, rec)
}
