package http

import (
	"errors"
	"net/http"

	"beautystats/internal/core"
	"beautystats/internal/log"
)

type incomeJSON struct {
	ID        int64   `json:"id"`
	Amount    float64 `json:"amount"`
	Month     int     `json:"month"`
	Year      int     `json:"year"`
	CreatedAt string  `json:"created_at"`
	Salon     string  `json:"salon"`
}

type historyEntryJSON struct {
	ID     int64   `json:"id"`
	Month  int     `json:"month"`
	Year   int     `json:"year"`
	Income float64 `json:"income"`
}

type areaStatisticJSON struct {
	Area          string  `json:"area"`
	ScopeID       int64   `json:"scopeId,omitempty"`
	Name          string  `json:"name"`
	AverageIncome float64 `json:"averageIncome"`
	SalonCount    int     `json:"salonCount"`
	UpdatedAt     string  `json:"updatedAt"`
}

type periodJSON struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func errorIsSalonNotFound(err error) bool {
	return errors.Is(err, core.ErrSalonNotFound)
}

func (s *Server) writeDuplicateIncome(w http.ResponseWriter, r *http.Request, period core.Period) {
	log.FromContext(r.Context()).DebugContext(r.Context(), "Duplicate income submission",
		log.FieldOperation, log.OpSubmit,
		log.FieldErrorType, log.ErrorTypeConflict)
	ErrorResponse(http.StatusConflict, "Income already submitted for "+period.String()).Write(w)
}

func (s *Server) handleNewIncome(w http.ResponseWriter, r *http.Request) {
	id, ok := managerID(w, r)
	if !ok {
		return
	}

	// salon and duplicate checks answer before the body is looked at
	period, err := s.incomes.CheckPending(r.Context(), id)
	if errors.Is(err, core.ErrDuplicateSubmission) {
		s.writeDuplicateIncome(w, r, period)
		return
	}
	if err != nil {
		writeServiceError(w, r, err, log.OpSubmit)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgInvalidIncome).Write(w)
		return
	}
	amount, err := ParseIncomeAmount(p)
	if err != nil {
		BadRequestError(msgInvalidIncome).Write(w)
		return
	}

	rec, _, err := s.incomes.Submit(r.Context(), id, amount)
	if errors.Is(err, core.ErrDuplicateSubmission) {
		s.writeDuplicateIncome(w, r, period)
		return
	}
	if err != nil {
		writeServiceError(w, r, err, log.OpSubmit)
		return
	}

	s.appMetrics.incomes.Add(1)
	NewJSONResponse().
		Status(http.StatusCreated).
		Message("Income successfully recorded for "+rec.Period.String()).
		Field("income", incomeJSON{
			ID:        rec.ID,
			Amount:    rec.Amount.Euros(),
			Month:     rec.Period.Month,
			Year:      rec.Period.Year,
			CreatedAt: rec.CreatedAt.Format(core.TimestampLayout),
			Salon:     rec.SalonName,
		}).
		Write(w)
}

func (s *Server) handleHistoric(w http.ResponseWriter, r *http.Request) {
	id, ok := managerID(w, r)
	if !ok {
		return
	}

	salon, records, err := s.incomes.History(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, log.OpList)
		return
	}

	history := make([]historyEntryJSON, 0, len(records))
	for _, rec := range records {
		history = append(history, historyEntryJSON{
			ID:     rec.ID,
			Month:  rec.Period.Month,
			Year:   rec.Period.Year,
			Income: rec.Amount.Euros(),
		})
	}

	NewJSONResponse().
		Field("salon", map[string]any{"id": salon.ID, "name": salon.Name}).
		Field("history", history).
		Write(w)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	id, ok := managerID(w, r)
	if !ok {
		return
	}

	period, err := parsePeriodQuery(r)
	if err != nil {
		BadRequestError(msgInvalidPeriod).Write(w)
		return
	}

	overview, err := s.incomes.Statistics(r.Context(), id, period)
	if err != nil {
		writeServiceError(w, r, err, log.OpRead)
		return
	}

	areas := make([]areaStatisticJSON, 0, len(overview.Areas))
	for _, st := range overview.Areas {
		areas = append(areas, areaStatisticJSON{
			Area:          st.Kind.String(),
			ScopeID:       st.ScopeID,
			Name:          st.ScopeName,
			AverageIncome: st.Average().InexactFloat64(),
			SalonCount:    st.SalonCount,
			UpdatedAt:     st.UpdatedAt.Format(core.TimestampLayout),
		})
	}

	var salonIncome any
	if overview.Salon != nil {
		salonIncome = overview.Salon.Amount.Euros()
	}

	NewJSONResponse().
		Field("period", periodJSON{Month: overview.Period.Month, Year: overview.Period.Year}).
		Field("income", salonIncome).
		Field("areas", areas).
		Write(w)
}
