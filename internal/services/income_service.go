package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beautystats/internal/core"
	"beautystats/internal/log"
	"beautystats/internal/storage"
)

// IncomeService records monthly incomes and serves the averages they feed.
type IncomeService struct {
	repo   *storage.SQLiteRepository
	logger *log.StructuredLogger
	now    func() time.Time
}

func NewIncomeService(repo *storage.SQLiteRepository, logger *log.Logger) *IncomeService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &IncomeService{
		repo:   repo,
		logger: log.NewStructuredLogger(logger.WithComponent(log.ComponentIncome)),
		now:    time.Now,
	}
}

// Submit records the income of the month before now for the salon of
// managerID and returns the refreshed France, Department and Region
// averages. A second submission for the same month fails with
// core.ErrDuplicateSubmission.
func (s *IncomeService) Submit(ctx context.Context, managerID int64, amount core.Money) (core.IncomeRecord, []core.AreaStatistic, error) {
	if err := amount.Validate(); err != nil {
		return core.IncomeRecord{}, nil, err
	}

	salon, err := s.repo.SalonByManager(ctx, managerID)
	if err != nil {
		return core.IncomeRecord{}, nil, err
	}

	now := s.now()
	p := core.PreviousPeriod(now)
	rec, stats, err := s.repo.SubmitIncome(ctx, salon.ID, amount, p, now)
	if err != nil && !errors.Is(err, core.ErrDuplicateSubmission) {
		s.logger.LogError(ctx, "Income submission failed", err, log.ComponentIncome, log.OpSubmit,
			log.NewFields().WithIncome(salon.ID, amount.Cents, p.Month, p.Year))
	}
	if err != nil {
		return core.IncomeRecord{}, nil, fmt.Errorf("submit income for %s: %w", p, err)
	}

	s.logger.LogIncomeSubmitted(ctx, rec.SalonID, rec.Amount.Cents, p.Month, p.Year)
	for _, st := range stats {
		s.logger.LogStatisticRecomputed(ctx, st.Kind.String(), st.ScopeID, st.Average().String(), st.SalonCount, p.Month, p.Year)
	}
	return rec, stats, nil
}

// CheckPending reports whether the manager's salon can still submit the
// income of the month before now. It fails with core.ErrSalonNotFound or
// core.ErrDuplicateSubmission; Submit still enforces both.
func (s *IncomeService) CheckPending(ctx context.Context, managerID int64) (core.Period, error) {
	p := core.PreviousPeriod(s.now())
	salon, err := s.repo.SalonByManager(ctx, managerID)
	if err != nil {
		return p, err
	}
	_, found, err := s.repo.IncomeFor(ctx, salon.ID, p)
	if err != nil {
		return p, fmt.Errorf("check income for %s: %w", p, err)
	}
	if found {
		return p, fmt.Errorf("income for %s: %w", p, core.ErrDuplicateSubmission)
	}
	return p, nil
}

// CurrentPeriod is the month incomes are submitted for: the one before now.
func (s *IncomeService) CurrentPeriod() core.Period {
	return core.PreviousPeriod(s.now())
}

// History lists every income of the manager's salon, newest first.
func (s *IncomeService) History(ctx context.Context, managerID int64) (core.Salon, []core.IncomeRecord, error) {
	salon, err := s.repo.SalonByManager(ctx, managerID)
	if err != nil {
		return core.Salon{}, nil, err
	}
	records, err := s.repo.IncomeHistory(ctx, salon.ID)
	if err != nil {
		return core.Salon{}, nil, err
	}
	return salon, records, nil
}

// Statistics compares the manager's salon with its areas for p. A nil p
// means the month before now.
func (s *IncomeService) Statistics(ctx context.Context, managerID int64, p *core.Period) (core.StatisticsOverview, error) {
	period := core.PreviousPeriod(s.now())
	if p != nil {
		if err := p.Validate(); err != nil {
			return core.StatisticsOverview{}, err
		}
		period = *p
	}

	salon, err := s.repo.SalonByManager(ctx, managerID)
	if err != nil {
		return core.StatisticsOverview{}, err
	}

	overview := core.StatisticsOverview{Period: period}
	rec, ok, err := s.repo.IncomeFor(ctx, salon.ID, period)
	if err != nil {
		return core.StatisticsOverview{}, err
	}
	if ok {
		overview.Salon = &rec
	}

	overview.Areas, err = s.repo.StatisticsForSalon(ctx, salon, period)
	if err != nil {
		return core.StatisticsOverview{}, err
	}
	return overview, nil
}
