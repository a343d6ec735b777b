package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"beautystats/internal/core"
)

// upsertAreaStatistic rebuilds the total and count of every income of the
// period that falls in the scope, then inserts or overwrites the statistic
// row. The mean is derived from both without rounding.
const upsertAreaStatistic = `
INSERT INTO area_statistics (area, scope_id, department_id, region_id, month, year, total_cents, salon_count, updated_at)
SELECT ?, ?, ?, ?, ?, ?, agg.total_cents, agg.n, ?
FROM (
    SELECT SUM(i.amount_cents) AS total_cents, COUNT(*) AS n
    FROM incomes i
    JOIN salons s ON s.id = i.salon_id
    JOIN departments d ON d.id = s.department_id
    WHERE i.month = ? AND i.year = ?
      AND (? = 'France'
           OR (? = 'Department' AND s.department_id = ?)
           OR (? = 'Region' AND d.region_id = ?))
) agg
WHERE agg.n > 0
ON CONFLICT (area, scope_id, month, year) DO UPDATE SET
    total_cents = excluded.total_cents,
    salon_count = excluded.salon_count,
    department_id = excluded.department_id,
    region_id = excluded.region_id,
    updated_at = excluded.updated_at
RETURNING id, total_cents, salon_count`

type areaScope struct {
	id           int64
	name         string
	departmentID sql.NullInt64
	regionID     sql.NullInt64
}

func resolveScope(ctx context.Context, tx *sql.Tx, salonID int64, kind core.AreaKind) (areaScope, error) {
	if kind == core.AreaFrance {
		return areaScope{name: "France"}, nil
	}

	const q = `
SELECT d.id, d.name, rg.id, rg.name
FROM salons s
JOIN departments d ON d.id = s.department_id
JOIN regions rg ON rg.id = d.region_id
WHERE s.id = ?`

	var (
		deptID, regionID     int64
		deptName, regionName string
	)
	err := tx.QueryRowContext(ctx, q, salonID).Scan(&deptID, &deptName, &regionID, &regionName)
	if errors.Is(err, sql.ErrNoRows) {
		return areaScope{}, fmt.Errorf("salon %d: %w", salonID, core.ErrSalonNotFound)
	}
	if err != nil {
		return areaScope{}, fmt.Errorf("resolve scope of salon %d: %w", salonID, err)
	}

	switch kind {
	case core.AreaDepartment:
		return areaScope{id: deptID, name: deptName, departmentID: sql.NullInt64{Int64: deptID, Valid: true}}, nil
	case core.AreaRegion:
		return areaScope{id: regionID, name: regionName, regionID: sql.NullInt64{Int64: regionID, Valid: true}}, nil
	default:
		return areaScope{}, fmt.Errorf("area %q: %w", kind, core.ErrInvalidAreaKind)
	}
}

func (r *SQLiteRepository) recomputeArea(ctx context.Context, tx *sql.Tx, income core.IncomeRecord, kind core.AreaKind) (core.AreaStatistic, error) {
	if !kind.IsValid() {
		return core.AreaStatistic{}, fmt.Errorf("area %q: %w", kind, core.ErrInvalidAreaKind)
	}
	scope, err := resolveScope(ctx, tx, income.SalonID, kind)
	if err != nil {
		return core.AreaStatistic{}, err
	}

	st := core.AreaStatistic{
		Kind:      kind,
		ScopeID:   scope.id,
		ScopeName: scope.name,
		Period:    income.Period,
		UpdatedAt: r.now().UTC().Truncate(time.Second),
	}
	k := string(kind)
	err = tx.QueryRowContext(ctx, upsertAreaStatistic,
		k, scope.id, scope.departmentID, scope.regionID, income.Period.Month, income.Period.Year, formatTimestamp(st.UpdatedAt),
		income.Period.Month, income.Period.Year,
		k, k, scope.id, k, scope.id,
	).Scan(&st.ID, &st.Total.Cents, &st.SalonCount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AreaStatistic{}, fmt.Errorf("recompute %s average for %s: no income in scope: %w", kind, income.Period, core.ErrStatisticNotFound)
	}
	if err != nil {
		return core.AreaStatistic{}, fmt.Errorf("recompute %s average for %s: %w", kind, income.Period, err)
	}
	return st, nil
}

// RecomputeArea rebuilds the average of one area from the current data for
// the period of income. Running it again without new incomes yields the
// same value.
func (r *SQLiteRepository) RecomputeArea(ctx context.Context, income core.IncomeRecord, kind core.AreaKind) (core.AreaStatistic, error) {
	var st core.AreaStatistic
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		st, err = r.recomputeArea(ctx, tx, income, kind)
		return err
	})
	return st, err
}

const selectAreaStatistic = `
SELECT a.id, a.area, a.scope_id,
       COALESCE(d.name, rg.name, 'France'),
       a.month, a.year, a.total_cents, a.salon_count, a.updated_at
FROM area_statistics a
LEFT JOIN departments d ON d.id = a.department_id
LEFT JOIN regions rg ON rg.id = a.region_id`

func scanAreaStatistic(scan func(dest ...any) error) (core.AreaStatistic, error) {
	var (
		st        core.AreaStatistic
		kind      string
		updatedAt string
	)
	if err := scan(&st.ID, &kind, &st.ScopeID, &st.ScopeName, &st.Period.Month, &st.Period.Year,
		&st.Total.Cents, &st.SalonCount, &updatedAt); err != nil {
		return core.AreaStatistic{}, err
	}
	st.Kind = core.AreaKind(kind)
	st.UpdatedAt = parseTimestamp(updatedAt)
	return st, nil
}

// AreaStatistic returns the stored average of one area. scopeID is ignored
// for core.AreaFrance.
func (r *SQLiteRepository) AreaStatistic(ctx context.Context, kind core.AreaKind, scopeID int64, p core.Period) (core.AreaStatistic, error) {
	if !kind.IsValid() {
		return core.AreaStatistic{}, fmt.Errorf("area %q: %w", kind, core.ErrInvalidAreaKind)
	}
	if kind == core.AreaFrance {
		scopeID = 0
	}
	row := r.db.QueryRowContext(ctx,
		selectAreaStatistic+` WHERE a.area = ? AND a.scope_id = ? AND a.month = ? AND a.year = ?`,
		string(kind), scopeID, p.Month, p.Year)
	st, err := scanAreaStatistic(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.AreaStatistic{}, fmt.Errorf("%s %d %s: %w", kind, scopeID, p, core.ErrStatisticNotFound)
	}
	if err != nil {
		return core.AreaStatistic{}, fmt.Errorf("get %s statistic: %w", kind, err)
	}
	return st, nil
}

// StatisticsForSalon returns the France, Department and Region averages a
// salon belongs to for a period. Areas without data are left out.
func (r *SQLiteRepository) StatisticsForSalon(ctx context.Context, s core.Salon, p core.Period) ([]core.AreaStatistic, error) {
	scopes := []struct {
		kind core.AreaKind
		id   int64
	}{
		{core.AreaFrance, 0},
		{core.AreaDepartment, s.DepartmentID},
		{core.AreaRegion, s.Department.RegionID},
	}

	out := make([]core.AreaStatistic, 0, len(scopes))
	for _, sc := range scopes {
		st, err := r.AreaStatistic(ctx, sc.kind, sc.id, p)
		if errors.Is(err, core.ErrStatisticNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
