package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/repository"
)

// DefaultTrendConcurrency bounds the per-month fetches of a trend.
const DefaultTrendConcurrency = 4

// SummaryService fetches records through the repositories and aggregates
// them. A failed fetch never surfaces: the aggregate falls back to its
// all-zero shape.
type SummaryService struct {
	repos       *repository.Set
	logger      *log.Logger
	concurrency int
}

// Dashboard combines every aggregate for one month.
type Dashboard struct {
	Month      core.Month            `json:"month"`
	Budgets    core.BudgetSummary    `json:"budgets"`
	Goals      core.GoalSummary      `json:"goals"`
	Categories []core.CategoryAmount `json:"categories"`
	Trend      []core.TrendPoint     `json:"trend"`
}

func NewSummaryService(repos *repository.Set, logger *log.Logger) *SummaryService {
	return &SummaryService{
		repos:       repos,
		logger:      logger.WithComponent(log.ComponentSummary),
		concurrency: DefaultTrendConcurrency,
	}
}

func (s *SummaryService) BudgetSummary(ctx context.Context, month core.Month) core.BudgetSummary {
	budgets, ok := s.repos.Budgets.ForMonth(ctx, month)
	if !ok {
		s.logger.WarnContext(ctx, "Budget summary degraded to zeros", log.FieldMonth, month.String())
		return core.EmptyBudgetSummary(month)
	}
	return core.SummarizeBudgets(month, budgets)
}

func (s *SummaryService) GoalSummary(ctx context.Context) core.GoalSummary {
	goals, ok := s.repos.Goals.List(ctx)
	if !ok {
		s.logger.WarnContext(ctx, "Goal summary degraded to zeros")
		return core.EmptyGoalSummary()
	}
	return core.SummarizeGoals(goals)
}

func (s *SummaryService) CategoryBreakdown(ctx context.Context, month core.Month) []core.CategoryAmount {
	txs, ok := s.repos.Transactions.ForMonth(ctx, month)
	if !ok {
		s.logger.WarnContext(ctx, "Category breakdown degraded to empty", log.FieldMonth, month.String())
		return []core.CategoryAmount{}
	}
	return core.CategoryBreakdown(month, txs)
}

// Trend returns one point per requested month in the given order. Each
// distinct month is fetched once; a month whose fetch fails reports zeros.
func (s *SummaryService) Trend(ctx context.Context, months []core.Month) []core.TrendPoint {
	distinct := make([]core.Month, 0, len(months))
	seen := make(map[core.Month]bool, len(months))
	for _, m := range months {
		if !seen[m] {
			seen[m] = true
			distinct = append(distinct, m)
		}
	}

	points := make([]core.TrendPoint, len(distinct))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, m := range distinct {
		g.Go(func() error {
			txs, ok := s.repos.Transactions.ForMonth(ctx, m)
			if !ok {
				points[i] = core.ZeroTrendPoint(m)
				return nil
			}
			points[i] = core.IncomeExpenseTrend([]core.Month{m}, txs)[0]
			return nil
		})
	}
	_ = g.Wait()

	byMonth := make(map[core.Month]core.TrendPoint, len(points))
	for _, p := range points {
		byMonth[p.Month] = p
	}
	out := make([]core.TrendPoint, 0, len(months))
	for _, m := range months {
		out = append(out, byMonth[m])
	}
	return out
}

// Dashboard computes the four aggregates concurrently.
func (s *SummaryService) Dashboard(ctx context.Context, month core.Month, months []core.Month) Dashboard {
	d := Dashboard{Month: month}
	var g errgroup.Group
	g.Go(func() error { d.Budgets = s.BudgetSummary(ctx, month); return nil })
	g.Go(func() error { d.Goals = s.GoalSummary(ctx); return nil })
	g.Go(func() error { d.Categories = s.CategoryBreakdown(ctx, month); return nil })
	g.Go(func() error { d.Trend = s.Trend(ctx, months); return nil })
	_ = g.Wait()
	return d
}
