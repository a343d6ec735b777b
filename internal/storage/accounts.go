package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"beautystats/internal/core"
)

// DepartmentByCode looks up a department and its region.
func (r *SQLiteRepository) DepartmentByCode(ctx context.Context, code string) (core.Department, error) {
	const q = `
SELECT d.id, d.name, d.code, d.region_id, rg.name
FROM departments d
JOIN regions rg ON rg.id = d.region_id
WHERE d.code = ?`

	var d core.Department
	err := r.db.QueryRowContext(ctx, q, code).Scan(&d.ID, &d.Name, &d.Code, &d.RegionID, &d.RegionName)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Department{}, fmt.Errorf("department %q: %w", code, core.ErrDepartmentNotFound)
	}
	if err != nil {
		return core.Department{}, fmt.Errorf("get department %q: %w", code, err)
	}
	return d, nil
}

// CreateAccount stores a manager and the salon they own in one transaction.
// The returned values carry the generated ids.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, m core.Manager, s core.Salon) (core.Manager, core.Salon, error) {
	if len(m.Roles) == 0 {
		m.Roles = []string{core.RoleUser}
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.now()
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, password_hash, roles, first_name, last_name, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			m.Email, m.PasswordHash, strings.Join(m.Roles, ","), m.FirstName, m.LastName, formatTimestamp(m.CreatedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("create user %q: %w", m.Email, core.ErrEmailTaken)
			}
			return fmt.Errorf("create user: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("read user id: %w", err)
		}

		s.ManagerID = m.ID
		res, err = tx.ExecContext(ctx,
			`INSERT INTO salons (name, street, zip_code, city, opening_date, employee_count, manager_id, department_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Name, s.Street, s.ZipCode, s.City, s.OpeningDate.String(), s.EmployeeCount, s.ManagerID, s.DepartmentID)
		if err != nil {
			return fmt.Errorf("create salon: %w", err)
		}
		if s.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("read salon id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Manager{}, core.Salon{}, err
	}

	slog.InfoContext(ctx, "Account saved to SQLite",
		"user_id", m.ID,
		"salon_id", s.ID,
		"department_id", s.DepartmentID)

	return m, s, nil
}

const selectManager = `SELECT id, email, password_hash, roles, first_name, last_name, created_at FROM users`

func scanManager(row *sql.Row) (core.Manager, error) {
	var (
		m         core.Manager
		roles     string
		createdAt string
	)
	if err := row.Scan(&m.ID, &m.Email, &m.PasswordHash, &roles, &m.FirstName, &m.LastName, &createdAt); err != nil {
		return core.Manager{}, err
	}
	if roles != "" {
		m.Roles = strings.Split(roles, ",")
	}
	m.CreatedAt = parseTimestamp(createdAt)
	return m, nil
}

// ManagerByEmail finds a manager by email, case-insensitively.
func (r *SQLiteRepository) ManagerByEmail(ctx context.Context, email string) (core.Manager, error) {
	m, err := scanManager(r.db.QueryRowContext(ctx, selectManager+` WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Manager{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.Manager{}, fmt.Errorf("get user by email: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ManagerByID(ctx context.Context, id int64) (core.Manager, error) {
	m, err := scanManager(r.db.QueryRowContext(ctx, selectManager+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Manager{}, fmt.Errorf("user %d: %w", id, core.ErrUserNotFound)
	}
	if err != nil {
		return core.Manager{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return m, nil
}

// SalonByManager returns the salon owned by a manager together with its
// department and region.
func (r *SQLiteRepository) SalonByManager(ctx context.Context, managerID int64) (core.Salon, error) {
	const q = `
SELECT s.id, s.name, s.street, s.zip_code, s.city, s.opening_date, s.employee_count,
       s.manager_id, s.department_id, d.id, d.name, d.code, d.region_id, rg.name
FROM salons s
JOIN departments d ON d.id = s.department_id
JOIN regions rg ON rg.id = d.region_id
WHERE s.manager_id = ?`

	var (
		s           core.Salon
		openingDate string
	)
	err := r.db.QueryRowContext(ctx, q, managerID).Scan(
		&s.ID, &s.Name, &s.Street, &s.ZipCode, &s.City, &openingDate, &s.EmployeeCount,
		&s.ManagerID, &s.DepartmentID, &s.Department.ID, &s.Department.Name, &s.Department.Code,
		&s.Department.RegionID, &s.Department.RegionName)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Salon{}, fmt.Errorf("salon for user %d: %w", managerID, core.ErrSalonNotFound)
	}
	if err != nil {
		return core.Salon{}, fmt.Errorf("get salon for user %d: %w", managerID, err)
	}
	if s.OpeningDate, err = core.ParseDate(openingDate); err != nil {
		return core.Salon{}, fmt.Errorf("parse opening date %q: %w", openingDate, err)
	}
	return s, nil
}

// UpdateProfile overwrites the editable fields of a manager and their salon.
func (r *SQLiteRepository) UpdateProfile(ctx context.Context, m core.Manager, s core.Salon) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET first_name = ?, last_name = ? WHERE id = ?`,
			m.FirstName, m.LastName, m.ID); err != nil {
			return fmt.Errorf("update user %d: %w", m.ID, err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE salons SET name = ?, street = ?, zip_code = ?, city = ?, opening_date = ?, employee_count = ?, department_id = ? WHERE id = ? AND manager_id = ?`,
			s.Name, s.Street, s.ZipCode, s.City, s.OpeningDate.String(), s.EmployeeCount, s.DepartmentID, s.ID, m.ID)
		if err != nil {
			return fmt.Errorf("update salon %d: %w", s.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("salon %d for user %d: %w", s.ID, m.ID, core.ErrSalonNotFound)
		}
		return nil
	})
}

// ListSalonContacts returns every salon with its manager and whether an
// income exists for the given period.
func (r *SQLiteRepository) ListSalonContacts(ctx context.Context, p core.Period) ([]core.SalonContact, error) {
	const q = `
SELECT s.id, s.name, u.email, u.first_name, u.last_name,
       EXISTS (SELECT 1 FROM incomes i WHERE i.salon_id = s.id AND i.month = ? AND i.year = ?)
FROM salons s
JOIN users u ON u.id = s.manager_id
ORDER BY s.id`

	rows, err := r.db.QueryContext(ctx, q, p.Month, p.Year)
	if err != nil {
		return nil, fmt.Errorf("list salons: %w", err)
	}
	defer rows.Close()

	var out []core.SalonContact
	for rows.Next() {
		var c core.SalonContact
		if err := rows.Scan(&c.SalonID, &c.SalonName, &c.ManagerEmail, &c.ManagerFirstName, &c.ManagerLastName, &c.Submitted); err != nil {
			return nil, fmt.Errorf("scan salon: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate salons: %w", err)
	}
	return out, nil
}
