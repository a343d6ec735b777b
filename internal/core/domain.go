package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// DateLayout is the wire and storage format of calendar dates.
	DateLayout = "2006-01-02"
	// TimestampLayout is the wire and storage format of creation times.
	TimestampLayout = "2006-01-02 15:04:05"
)

// RoleUser is granted to every registered manager.
const RoleUser = "ROLE_USER"

type (
	Date struct {
		time.Time
	}

	Region struct {
		ID   int64
		Name string
	}

	Department struct {
		ID         int64
		Name       string
		Code       string
		RegionID   int64
		RegionName string
	}

	// Manager is the account owning exactly one salon.
	Manager struct {
		ID           int64
		Email        string
		PasswordHash string
		Roles        []string
		FirstName    string
		LastName     string
		CreatedAt    time.Time
	}

	Salon struct {
		ID            int64
		Name          string
		Street        string
		ZipCode       string
		City          string
		OpeningDate   Date
		EmployeeCount int
		ManagerID     int64
		DepartmentID  int64
		Department    Department
	}

	IncomeRecord struct {
		ID        int64
		SalonID   int64
		SalonName string
		Amount    Money
		Period    Period
		CreatedAt time.Time
	}

	// SalonContact is a salon joined with its manager, as needed to send a reminder.
	SalonContact struct {
		SalonID          int64
		SalonName        string
		ManagerEmail     string
		ManagerFirstName string
		ManagerLastName  string
		Submitted        bool
	}
)

// Field limits of the salon record.
const (
	MaxSalonNameLen = 50
	MaxStreetLen    = 100
	MaxCityLen      = 100
	MaxNameLen      = 100
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// FullName is "First Last", or whichever part is set.
func (m Manager) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Validate checks the salon fields that do not need a database lookup.
// All problems are returned together.
func (s Salon) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(s.Name) == "" {
		v.Add("salon.name is missing or empty")
	}
	if strings.TrimSpace(s.Street) == "" {
		v.Add("salon.street is missing or empty")
	}
	if strings.TrimSpace(s.City) == "" {
		v.Add("salon.city is missing or empty")
	}
	if s.OpeningDate.IsZero() {
		v.Add("salon.openingDate is missing or empty")
	}
	v.Merge(s.ValidateLimits())
	return v.Err()
}

// ValidateLimits checks field lengths and counts only, for callers that
// report missing fields themselves.
func (s Salon) ValidateLimits() error {
	v := &ValidationError{}
	if len([]rune(s.Name)) > MaxSalonNameLen {
		v.Add("salon.name must be at most %d characters", MaxSalonNameLen)
	}
	if len([]rune(s.Street)) > MaxStreetLen {
		v.Add("salon.street must be at most %d characters", MaxStreetLen)
	}
	if len([]rune(s.City)) > MaxCityLen {
		v.Add("salon.city must be at most %d characters", MaxCityLen)
	}
	if s.EmployeeCount < 0 {
		v.Add("salon.numberEmployeeFulltime must not be negative")
	}
	return v.Err()
}
