package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AreaKind is the geographic scope an average is computed over.
type AreaKind string

const (
	AreaFrance     AreaKind = "France"
	AreaDepartment AreaKind = "Department"
	AreaRegion     AreaKind = "Region"
)

// AreaKinds lists every kind in recompute order.
func AreaKinds() []AreaKind {
	return []AreaKind{AreaFrance, AreaDepartment, AreaRegion}
}

func (k AreaKind) IsValid() bool {
	switch k {
	case AreaFrance, AreaDepartment, AreaRegion:
		return true
	default:
		return false
	}
}

func (k AreaKind) String() string {
	return string(k)
}

// AreaStatistic is the mean income of one area for one period, kept as the
// total and the number of incomes it covers.
type AreaStatistic struct {
	ID   int64
	Kind AreaKind
	// ScopeID is the department id for AreaDepartment, the region id for
	// AreaRegion and zero for AreaFrance.
	ScopeID    int64
	ScopeName  string
	Period     Period
	Total      Money
	SalonCount int
	UpdatedAt  time.Time
}

// Average returns the exact mean in euros, e.g. 10.005 for 10.00 and 10.01.
func (s AreaStatistic) Average() decimal.Decimal {
	if s.SalonCount <= 0 {
		return decimal.Zero
	}
	return s.Total.Decimal().Div(decimal.NewFromInt(int64(s.SalonCount)))
}

// StatisticsOverview groups the averages a salon is compared against.
type StatisticsOverview struct {
	Period Period
	Salon  *IncomeRecord
	Areas  []AreaStatistic
}
