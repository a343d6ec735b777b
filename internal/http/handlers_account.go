package http

import (
	"net/http"
	"time"

	"beautystats/internal/auth"
	"beautystats/internal/core"
	"beautystats/internal/log"
)

type departmentJSON struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

type salonJSON struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Street        string         `json:"street"`
	ZipCode       string         `json:"zipCode"`
	City          string         `json:"city"`
	OpeningDate   string         `json:"openingDate"`
	EmployeeCount int            `json:"numberEmployeeFulltime"`
	Department    departmentJSON `json:"department"`
}

type profileJSON struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	ManagerFirstName string    `json:"managerFirstName"`
	ManagerLastName  string    `json:"managerLastName"`
	Salon            salonJSON `json:"salon"`
}

func newProfileJSON(m core.Manager, s core.Salon) profileJSON {
	return profileJSON{
		ID:               m.ID,
		Email:            m.Email,
		ManagerFirstName: m.FirstName,
		ManagerLastName:  m.LastName,
		Salon: salonJSON{
			ID:            s.ID,
			Name:          s.Name,
			Street:        s.Street,
			ZipCode:       s.ZipCode,
			City:          s.City,
			OpeningDate:   s.OpeningDate.String(),
			EmployeeCount: s.EmployeeCount,
			Department: departmentJSON{
				Code:   s.Department.Code,
				Name:   s.Department.Name,
				Region: s.Department.RegionName,
			},
		},
	}
}

// parseBody parses the request body, answering 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Rejected request body",
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeValidation)
		BadRequestError(msgInvalidJSON).Write(w)
		return nil, false
	}
	return p, true
}

// managerID returns the authenticated manager. The auth middleware guards
// every route that calls it.
func managerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.ManagerID(r.Context())
	if !ok {
		unauthorizedResponse("JWT Token not found").Write(w)
	}
	return id, ok
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	_, _, err := s.accounts.Register(r.Context(), ParseRegisterInput(p))
	if err != nil {
		writeServiceError(w, r, err, log.OpRegister)
		return
	}

	s.appMetrics.registrations.Add(1)
	MessageResponse(http.StatusCreated, "User and salon registered successfully").Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}

	token, expiresAt, err := s.accounts.Login(r.Context(), p.Get("email"), passwordValue(p.Value("password")))
	if err != nil {
		writeServiceError(w, r, err, log.OpLogin)
		return
	}

	s.appMetrics.logins.Add(1)
	NewJSONResponse().
		Field("token", token).
		Field("expires_at", expiresAt.UTC().Format(time.RFC3339)).
		Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := managerID(w, r)
	if !ok {
		return
	}

	m, salon, err := s.accounts.Profile(r.Context(), id)
	if err != nil {
		if errorIsSalonNotFound(err) {
			MessageResponse(http.StatusNotFound, msgNoSalon+".").Write(w)
			return
		}
		writeServiceError(w, r, err, log.OpRead)
		return
	}

	NewJSONResponse().Payload(newProfileJSON(m, salon)).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := managerID(w, r)
	if !ok {
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	if p.IsEmpty() {
		BadRequestError(msgInvalidJSON).Write(w)
		return
	}

	changed, err := s.accounts.UpdateProfile(r.Context(), id, ParseProfileUpdate(p))
	if err != nil {
		writeServiceError(w, r, err, log.OpUpdate)
		return
	}

	if !changed {
		MessageResponse(http.StatusOK, "No changes detected").Write(w)
		return
	}
	MessageResponse(http.StatusOK, "Profile updated successfully").Write(w)
}
