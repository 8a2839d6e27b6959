package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/records"
	"fintrack/internal/repository"
	"fintrack/internal/schema"
)

var ErrStoreUnavailable = errors.New("record store unavailable")

// SpentSync keeps each budget's spent amount equal to the expenses
// recorded for its category and month.
type SpentSync struct {
	budgets      *repository.Budgets
	transactions *repository.Transactions
	logger       *log.Logger
	interval     time.Duration

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSpentSync(repos *repository.Set, logger *log.Logger, interval time.Duration) *SpentSync {
	return &SpentSync{
		budgets:      repos.Budgets,
		transactions: repos.Transactions,
		logger:       logger.WithComponent(log.ComponentSpentSync),
		interval:     interval,
	}
}

// Recompute overwrites the spent amount of every budget of month and
// returns how many budgets changed.
func (s *SpentSync) Recompute(ctx context.Context, month core.Month) (int, error) {
	budgets, ok := s.budgets.ForMonth(ctx, month)
	if !ok {
		return 0, fmt.Errorf("fetch budgets for %s: %w", month, ErrStoreUnavailable)
	}
	if len(budgets) == 0 {
		return 0, nil
	}
	txs, ok := s.transactions.ForMonth(ctx, month)
	if !ok {
		return 0, fmt.Errorf("fetch transactions for %s: %w", month, ErrStoreUnavailable)
	}

	totals := make(map[string]decimal.Decimal)
	for _, c := range core.CategoryBreakdown(month, txs) {
		totals[c.Category] = c.Amount
	}

	var updated int
	var errs []error
	for _, b := range budgets {
		want, ok := totals[b.Category]
		if !ok {
			want = decimal.Zero
		}
		if b.Spent.Equal(want) {
			continue
		}
		if s.budgets.UpdateSpent(ctx, b.Category, month, want) == nil {
			errs = append(errs, fmt.Errorf("update spent for %s %s", b.Category, month))
			continue
		}
		updated++
	}
	s.logger.InfoContext(ctx, "Recomputed budget spent",
		log.FieldMonth, month.String(), log.FieldCount, updated, log.FieldFailed, len(errs))
	return updated, errors.Join(errs...)
}

// RecomputeAll runs Recompute for every month that has budgets.
func (s *SpentSync) RecomputeAll(ctx context.Context) (int, error) {
	budgets, ok := s.budgets.List(ctx)
	if !ok {
		return 0, fmt.Errorf("fetch budgets: %w", ErrStoreUnavailable)
	}
	seen := make(map[core.Month]bool)
	var months []core.Month
	for _, b := range budgets {
		if b.Month != "" && !seen[b.Month] {
			seen[b.Month] = true
			months = append(months, b.Month)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	var total int
	var errs []error
	for _, m := range months {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.Recompute(ctx, m)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// HandleChange reacts to a record change event. A created transaction
// with a known date recomputes that month. Updates may have moved the
// transaction out of its previous month, so they recompute everything, as
// do deletions and dateless changes. Budget creation recomputes the new
// budget's month.
func (s *SpentSync) HandleChange(ctx context.Context, c records.Change) error {
	switch c.Entity {
	case schema.EntityTransaction:
		if c.Op == records.ChangeCreate {
			if d := schema.DecodeTransaction(c.Fields).Date; !d.IsZero() {
				_, err := s.Recompute(ctx, d.Period())
				return err
			}
		}
		_, err := s.RecomputeAll(ctx)
		return err
	case schema.EntityBudget:
		if c.Op != records.ChangeCreate {
			return nil
		}
		if b := schema.DecodeBudget(c.Fields); b.Month != "" {
			_, err := s.Recompute(ctx, b.Month)
			return err
		}
	}
	return nil
}

// Start runs RecomputeAll on every interval until Stop is called or ctx
// ends.
func (s *SpentSync) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("spent sync interval must be positive")
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("spent sync is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	s.logger.InfoContext(ctx, "Spent sync started", "interval", s.interval)
	return nil
}

// Stop gracefully stops the loop and waits for completion. A Stop that
// timed out may be retried.
func (s *SpentSync) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh = nil
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Spent sync stopped gracefully")
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Spent sync stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

// IsRunning returns whether the loop is active
func (s *SpentSync) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SpentSync) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SpentSync) tick(ctx context.Context) {
	if _, err := s.RecomputeAll(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Periodic recompute failed", log.FieldOperation, log.OpRecompute, log.FieldError, err)
	}
}
