package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"beautystats/internal/core"
)

// SubmitIncome records the income of a salon for a period and recomputes
// the France, Department and Region averages for that period.
//
// Everything happens in a single write transaction: the unique index on
// (salon_id, month, year) rejects a second submission, and each average is
// rebuilt from the full data inside the same transaction, so concurrent
// submissions on the same area cannot overwrite each other's result.
func (r *SQLiteRepository) SubmitIncome(ctx context.Context, salonID int64, amount core.Money, p core.Period, createdAt time.Time) (core.IncomeRecord, []core.AreaStatistic, error) {
	if err := amount.Validate(); err != nil {
		return core.IncomeRecord{}, nil, err
	}
	if err := p.Validate(); err != nil {
		return core.IncomeRecord{}, nil, err
	}

	rec := core.IncomeRecord{
		SalonID:   salonID,
		Amount:    amount,
		Period:    p,
		CreatedAt: createdAt.UTC().Truncate(time.Second),
	}
	var stats []core.AreaStatistic

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT name FROM salons WHERE id = ?`, salonID).Scan(&rec.SalonName); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("salon %d: %w", salonID, core.ErrSalonNotFound)
			}
			return fmt.Errorf("get salon %d: %w", salonID, err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO incomes (salon_id, amount_cents, month, year, created_at) VALUES (?, ?, ?, ?, ?)`,
			salonID, amount.Cents, p.Month, p.Year, formatTimestamp(rec.CreatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("salon %d period %s: %w", salonID, p, core.ErrDuplicateSubmission)
			}
			return fmt.Errorf("insert income: %w", err)
		}
		if rec.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("read income id: %w", err)
		}

		for _, kind := range core.AreaKinds() {
			st, err := r.recomputeArea(ctx, tx, rec, kind)
			if err != nil {
				return err
			}
			stats = append(stats, st)
		}
		return nil
	})
	if err != nil {
		return core.IncomeRecord{}, nil, err
	}

	slog.InfoContext(ctx, "Income saved to SQLite",
		"id", rec.ID,
		"salon_id", salonID,
		"amount_cents", amount.Cents,
		"month", p.Month,
		"year", p.Year)

	return rec, stats, nil
}

// IncomeHistory lists the incomes of a salon, newest period first.
func (r *SQLiteRepository) IncomeHistory(ctx context.Context, salonID int64) ([]core.IncomeRecord, error) {
	const q = `
SELECT i.id, i.salon_id, s.name, i.amount_cents, i.month, i.year, i.created_at
FROM incomes i
JOIN salons s ON s.id = i.salon_id
WHERE i.salon_id = ?
ORDER BY i.year DESC, i.month DESC`

	rows, err := r.db.QueryContext(ctx, q, salonID)
	if err != nil {
		return nil, fmt.Errorf("list incomes for salon %d: %w", salonID, err)
	}
	defer rows.Close()

	out := make([]core.IncomeRecord, 0)
	for rows.Next() {
		rec, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomes: %w", err)
	}
	return out, nil
}

// IncomeFor returns the income a salon recorded for a period.
func (r *SQLiteRepository) IncomeFor(ctx context.Context, salonID int64, p core.Period) (core.IncomeRecord, bool, error) {
	const q = `
SELECT i.id, i.salon_id, s.name, i.amount_cents, i.month, i.year, i.created_at
FROM incomes i
JOIN salons s ON s.id = i.salon_id
WHERE i.salon_id = ? AND i.month = ? AND i.year = ?`

	rows, err := r.db.QueryContext(ctx, q, salonID, p.Month, p.Year)
	if err != nil {
		return core.IncomeRecord{}, false, fmt.Errorf("get income for salon %d: %w", salonID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return core.IncomeRecord{}, false, rows.Err()
	}
	rec, err := scanIncome(rows)
	if err != nil {
		return core.IncomeRecord{}, false, err
	}
	return rec, true, nil
}

func scanIncome(rows *sql.Rows) (core.IncomeRecord, error) {
	var (
		rec       core.IncomeRecord
		createdAt string
	)
	if err := rows.Scan(&rec.ID, &rec.SalonID, &rec.SalonName, &rec.Amount.Cents, &rec.Period.Month, &rec.Period.Year, &createdAt); err != nil {
		return core.IncomeRecord{}, fmt.Errorf("scan income: %w", err)
	}
	rec.CreatedAt = parseTimestamp(createdAt)
	return rec, nil
}
