package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"beautystats/internal/core"
)

func TestIncomeService_Submit(t *testing.T) {
	repo := newTestRepo(t)
	accounts := newAccountService(t, repo, &fakeSender{})
	paris := register(t, accounts, "paris@example.com", "75020")
	boulogne := register(t, accounts, "boulogne@example.com", "92100")
	lyon := register(t, accounts, "lyon@example.com", "69003")

	svc := NewIncomeService(repo, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	submit := func(id int64, cents int64) []core.AreaStatistic {
		t.Helper()
		rec, stats, err := svc.Submit(ctx, id, core.Money{Cents: cents})
		if err != nil {
			t.Fatalf("Submit(%d): %v", id, err)
		}
		if rec.Period != (core.Period{Month: 2, Year: 2025}) {
			t.Errorf("period = %v, want 02/2025", rec.Period)
		}
		return stats
	}

	submit(paris, 1_000_00)
	submit(boulogne, 3_000_00)
	stats := submit(lyon, 5_000_00)

	want := map[core.AreaKind]struct {
		avg   int64
		count int
	}{
		core.AreaFrance:     {3_000_00, 3},
		core.AreaDepartment: {5_000_00, 1},
		core.AreaRegion:     {5_000_00, 1},
	}
	if len(stats) != 3 {
		t.Fatalf("got %d statistics, want 3", len(stats))
	}
	for _, st := range stats {
		w := want[st.Kind]
		if !st.Average().Equal(core.Money{Cents: w.avg}.Decimal()) || st.SalonCount != w.count {
			t.Errorf("%s = %s over %d, want %d cents over %d", st.Kind, st.Average(), st.SalonCount, w.avg, w.count)
		}
	}

	if _, _, err := svc.Submit(ctx, paris, core.Money{Cents: 1}); !errors.Is(err, core.ErrDuplicateSubmission) {
		t.Errorf("second submission err = %v, want ErrDuplicateSubmission", err)
	}
	if _, _, err := svc.Submit(ctx, paris, core.Money{Cents: -5}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative amount err = %v, want ErrInvalidAmount", err)
	}
	if _, _, err := svc.Submit(ctx, 9999, core.Money{Cents: 100}); !errors.Is(err, core.ErrSalonNotFound) {
		t.Errorf("unknown manager err = %v, want ErrSalonNotFound", err)
	}

	overview, err := svc.Statistics(ctx, boulogne, nil)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if overview.Salon == nil || overview.Salon.Amount.Cents != 3_000_00 {
		t.Errorf("salon income = %+v", overview.Salon)
	}
	for _, st := range overview.Areas {
		if st.Kind == core.AreaRegion && (st.ScopeName != "Ile-de-France" || !st.Average().Equal(core.Money{Cents: 2_000_00}.Decimal())) {
			t.Errorf("region statistic = %+v", st)
		}
	}

	empty, err := svc.Statistics(ctx, boulogne, &core.Period{Month: 1, Year: 2025})
	if err != nil {
		t.Fatal(err)
	}
	if empty.Salon != nil || len(empty.Areas) != 0 {
		t.Errorf("expected empty overview for 01/2025, got %+v", empty)
	}
	if _, err := svc.Statistics(ctx, boulogne, &core.Period{Month: 13, Year: 2025}); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}

	_, history, err := svc.History(ctx, lyon)
	if err != nil || len(history) != 1 {
		t.Errorf("History = %v, %v", history, err)
	}
}

func TestIncomeService_CheckPending(t *testing.T) {
	repo := newTestRepo(t)
	accounts := newAccountService(t, repo, &fakeSender{})
	paris := register(t, accounts, "paris@example.com", "75020")

	svc := NewIncomeService(repo, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	want := core.Period{Month: 12, Year: 2024}

	p, err := svc.CheckPending(ctx, paris)
	if err != nil || p != want {
		t.Fatalf("CheckPending before submission = %v, %v", p, err)
	}

	if _, _, err := svc.Submit(ctx, paris, core.Money{Cents: 150000}); err != nil {
		t.Fatal(err)
	}
	p, err = svc.CheckPending(ctx, paris)
	if !errors.Is(err, core.ErrDuplicateSubmission) || p != want {
		t.Errorf("CheckPending after submission = %v, %v; want %v, ErrDuplicateSubmission", p, err, want)
	}

	if _, err := svc.CheckPending(ctx, 9999); !errors.Is(err, core.ErrSalonNotFound) {
		t.Errorf("unknown manager err = %v, want ErrSalonNotFound", err)
	}
}
