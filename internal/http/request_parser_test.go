package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"beautystats/internal/core"
	"beautystats/internal/services"
)

func parserFor(t *testing.T, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse(%q): %v", body, err)
	}
	return p
}

func TestRequestBodyParser_Parse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"object", `{"email":"a@b.c"}`, nil},
		{"empty", ``, errEmptyBody},
		{"whitespace", "  \n", errEmptyBody},
		{"array", `[1,2]`, errNotAnObject},
		{"form", `email=a`, errNotAnObject},
		{"too large", `{"x":"` + strings.Repeat("a", maxBodyBytes) + `"}`, errBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			err := p.Parse()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Parse error = %v, want %v", err, tt.wantErr)
			}
			// a second call returns the cached result
			if again := p.Parse(); !errors.Is(again, err) {
				t.Errorf("second Parse = %v, want %v", again, err)
			}
		})
	}

	p := NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":`)))
	if err := p.Parse(); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestParseRegisterInput(t *testing.T) {
	p := parserFor(t, `{
		"email": " marie@example.com ",
		"password": " Secret#123 ",
		"firstName": "Marie",
		"lastName": "Dubois\u0007",
		"salon": {"name": "Belle", "street": "1 Rue", "zipCode": 6000, "city": "Nice",
		          "openingDate": "2020-01-01", "numberEmployeeFulltime": "4"}
	}`)

	in := ParseRegisterInput(p)
	if in.Email != "marie@example.com" {
		t.Errorf("Email = %q", in.Email)
	}
	if in.Password != " Secret#123 " {
		t.Errorf("Password must be kept verbatim, got %q", in.Password)
	}
	if in.LastName != "Dubois" {
		t.Errorf("LastName = %q, control characters should be removed", in.LastName)
	}
	if in.Salon.ZipCode != "06000" {
		t.Errorf("ZipCode = %q, want 06000", in.Salon.ZipCode)
	}
	if in.Salon.EmployeeCount == nil || *in.Salon.EmployeeCount != 4 {
		t.Errorf("EmployeeCount = %v", in.Salon.EmployeeCount)
	}

	missing := ParseRegisterInput(parserFor(t, `{"salon": {"numberEmployeeFulltime": "many"}}`))
	if missing.Salon.EmployeeCount != nil {
		t.Error("non-numeric employee count should count as missing")
	}
}

func TestParseProfileUpdate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantInvalid []string
		check       func(t *testing.T, u services.ProfileUpdate)
	}{
		{
			name:        "allowed fields",
			body:        `{"managerFirstName":"Anne","salon":{"zipCode":"69003","numberEmployeeFulltime":2}}`,
			wantInvalid: nil,
			check: func(t *testing.T, u services.ProfileUpdate) {
				if u.ManagerFirstName == nil || *u.ManagerFirstName != "Anne" {
					t.Errorf("ManagerFirstName = %v", u.ManagerFirstName)
				}
				if u.Salon.ZipCode == nil || *u.Salon.ZipCode != "69003" {
					t.Errorf("ZipCode = %v", u.Salon.ZipCode)
				}
				if u.Salon.EmployeeCount == nil || *u.Salon.EmployeeCount != 2 {
					t.Errorf("EmployeeCount = %v", u.Salon.EmployeeCount)
				}
				if u.ManagerLastName != nil || u.Salon.City != nil {
					t.Error("absent fields should stay nil")
				}
			},
		},
		{
			name:        "unknown root and nested fields",
			body:        `{"password":"x","email":"y","salon":{"manager":1,"city":"Lyon","id":3}}`,
			wantInvalid: []string{"email", "password", "salon.id", "salon.manager"},
		},
		{
			name:        "salon not an object",
			body:        `{"salon":"Belle"}`,
			wantInvalid: []string{"salon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := ParseProfileUpdate(parserFor(t, tt.body))
			if !slices.Equal(u.InvalidFields, tt.wantInvalid) {
				t.Errorf("InvalidFields = %q, want %q", u.InvalidFields, tt.wantInvalid)
			}
			if tt.check != nil {
				tt.check(t, u)
			}
		})
	}
}

func TestParseIncomeAmount(t *testing.T) {
	tests := []struct {
		body      string
		wantCents int64
		wantErr   bool
	}{
		{`{"income": 1234.56}`, 123456, false},
		{`{"income": "980"}`, 98000, false},
		{`{"income": 0}`, 0, false},
		{`{"income": -1}`, 0, true},
		{`{"income": "twelve"}`, 0, true},
		{`{"income": null}`, 0, true},
		{`{"amount": 10}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			m, err := ParseIncomeAmount(parserFor(t, tt.body))
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidAmount) {
					t.Errorf("err = %v, want ErrInvalidAmount", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseIncomeAmount: %v", err)
			}
			if m.Cents != tt.wantCents {
				t.Errorf("cents = %d, want %d", m.Cents, tt.wantCents)
			}
		})
	}
}

func TestParsePeriodQuery(t *testing.T) {
	tests := []struct {
		query   string
		want    *core.Period
		wantErr bool
	}{
		{"", nil, false},
		{"month=3&year=2025", &core.Period{Month: 3, Year: 2025}, false},
		{"month=3", nil, true},
		{"month=0&year=2025", nil, true},
		{"month=x&year=2025", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := parsePeriodQuery(httptest.NewRequest(http.MethodGet, "/api/statistics?"+tt.query, nil))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
