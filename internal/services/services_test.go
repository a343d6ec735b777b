package services

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"beautystats/internal/auth"
	"beautystats/internal/cache"
	"beautystats/internal/core"
	"beautystats/internal/mail"
	"beautystats/internal/storage"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []mail.Message
	failFor map[string]bool
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("smtp: connection refused")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.To)
	}
	slices.Sort(out)
	return out
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newAccountService(t *testing.T, repo *storage.SQLiteRepository, sender mail.Sender) *AccountService {
	t.Helper()
	composer, err := mail.NewComposer("noreply@jmcarre.com")
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	resolver := NewDepartmentResolver(repo, cache.NewLRUCache[core.Department](16, time.Hour))
	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	return NewAccountService(repo, resolver, tokens, composer, sender)
}

func intPtr(n int) *int { return &n }
func strPtr(s string) *string { return &s }

func validInput(email, zip string) RegisterInput {
	return RegisterInput{
		Email:     email,
		Password:  "Secret#123",
		FirstName: "Marie",
		LastName:  "Dubois",
		Salon: SalonInput{
			Name:          "Belle Époque",
			Street:        "12 Rue des Lilas",
			ZipCode:       zip,
			City:          "Paris",
			OpeningDate:   "2019-04-01",
			EmployeeCount: intPtr(3),
		},
	}
}

// register creates an account and returns the manager id.
func register(t *testing.T, svc *AccountService, email, zip string) int64 {
	t.Helper()
	m, _, err := svc.Register(context.Background(), validInput(email, zip))
	if err != nil {
		t.Fatalf("Register(%q): %v", email, err)
	}
	return m.ID
}

func problemsOf(t *testing.T, err error) []string {
	t.Helper()
	var v *core.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected *core.ValidationError, got %v", err)
	}
	return v.Problems
}

type countingStore struct {
	DepartmentStore
	calls int
}

func (c *countingStore) DepartmentByCode(ctx context.Context, code string) (core.Department, error) {
	c.calls++
	return c.DepartmentStore.DepartmentByCode(ctx, code)
}

func TestDepartmentResolver_Resolve(t *testing.T) {
	repo := newTestRepo(t)
	store := &countingStore{DepartmentStore: repo}
	r := NewDepartmentResolver(store, cache.NewLRUCache[core.Department](16, time.Hour))
	ctx := context.Background()

	tests := []struct {
		zip      string
		wantCode string
		wantErr  error
	}{
		{"75020", "75", nil},
		{"20090", "2A", nil},
		{"97110", "971", nil},
		{"99000", "", core.ErrDepartmentNotFound},
		{"7502", "", core.ErrInvalidPostalCode},
		{"ABCDE", "", core.ErrInvalidPostalCode},
	}

	for _, tt := range tests {
		t.Run(tt.zip, func(t *testing.T) {
			d, err := r.Resolve(ctx, tt.zip)
			if tt.wantErr != nil {
				var pce *PostalCodeError
				if !errors.As(err, &pce) || !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want PostalCodeError wrapping %v", tt.zip, err, tt.wantErr)
				}
				if want := "No department found for the postcode " + tt.zip; pce.Error() != want {
					t.Errorf("message = %q, want %q", pce.Error(), want)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.zip, err)
			}
			if d.Code != tt.wantCode {
				t.Errorf("Resolve(%q) code = %q, want %q", tt.zip, d.Code, tt.wantCode)
			}
		})
	}

	before := store.calls
	if _, err := r.Resolve(ctx, "75001"); err != nil {
		t.Fatal(err)
	}
	if store.calls != before {
		t.Errorf("expected cached lookup for department 75, store called %d times", store.calls-before)
	}
}

func TestAccountService_Register(t *testing.T) {
	repo := newTestRepo(t)
	sender := &fakeSender{}
	svc := newAccountService(t, repo, sender)
	ctx := context.Background()

	m, s, err := svc.Register(ctx, validInput("marie@example.com", "75020"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if m.ID == 0 || s.ID == 0 {
		t.Fatalf("expected ids, got manager %d salon %d", m.ID, s.ID)
	}
	if s.Department.Code != "75" {
		t.Errorf("department = %q, want 75", s.Department.Code)
	}
	if m.PasswordHash == "Secret#123" {
		t.Error("password stored in clear")
	}

	got, err := repo.ManagerByEmail(ctx, "marie@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := auth.ComparePassword(got.PasswordHash, "Secret#123"); !ok {
		t.Error("stored hash does not match password")
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(sender.sent))
	}
	if w := sender.sent[0]; w.To != "marie@example.com" || w.Subject != mail.WelcomeSubject || w.From != "noreply@jmcarre.com" {
		t.Errorf("unexpected welcome mail %+v", w)
	}

	_, _, err = svc.Register(ctx, validInput("marie@example.com", "69001"))
	if p := problemsOf(t, err); !slices.Contains(p, "Email already registered") {
		t.Errorf("problems = %v, want Email already registered", p)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAccountService(t, repo, &fakeSender{})
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*RegisterInput)
		want   []string
	}{
		{
			name:   "missing fields in order",
			modify: func(in *RegisterInput) { *in = RegisterInput{} },
			want: []string{
				"email is missing or empty",
				"password is missing or empty",
				"firstName is missing or empty",
				"lastName is missing or empty",
				"salon.name is missing or empty",
				"salon.street is missing or empty",
				"salon.zipCode is missing or empty",
				"salon.city is missing or empty",
				"salon.openingDate is missing or empty",
				"salon.numberEmployeeFulltime is missing or empty",
			},
		},
		{
			name:   "zero employees accepted",
			modify: func(in *RegisterInput) { in.Salon.EmployeeCount = intPtr(0); in.Email = "zero@example.com" },
			want:   nil,
		},
		{
			name:   "unknown department",
			modify: func(in *RegisterInput) { in.Salon.ZipCode = "99000" },
			want:   []string{"No department found for the postcode 99000"},
		},
		{
			name:   "weak password collects every rule",
			modify: func(in *RegisterInput) { in.Password = "abc" },
			want: []string{
				"Password must be at least 8 characters.",
				"Password must contain at least one uppercase letter.",
				"Password must contain at least one digit.",
				"Password must contain at least one special character.",
			},
		},
		{
			name:   "bad date and email",
			modify: func(in *RegisterInput) { in.Salon.OpeningDate = "01/04/2019"; in.Email = "not-an-email" },
			want:   []string{msgInvalidEmail, msgInvalidDate},
		},
		{
			name:   "negative employees",
			modify: func(in *RegisterInput) { in.Salon.EmployeeCount = intPtr(-1) },
			want:   []string{"salon.numberEmployeeFulltime must not be negative"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput("valid@example.com", "75020")
			tt.modify(&in)
			_, _, err := svc.Register(ctx, in)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Register: %v", err)
				}
				return
			}
			if got := problemsOf(t, err); !slices.Equal(got, tt.want) {
				t.Errorf("problems =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestAccountService_Register_MailFailureKeepsAccount(t *testing.T) {
	repo := newTestRepo(t)
	sender := &fakeSender{failFor: map[string]bool{"marie@example.com": true}}
	svc := newAccountService(t, repo, sender)

	if _, _, err := svc.Register(context.Background(), validInput("marie@example.com", "75020")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := repo.ManagerByEmail(context.Background(), "marie@example.com"); err != nil {
		t.Errorf("account missing after mail failure: %v", err)
	}
}

func TestAccountService_Login(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAccountService(t, repo, &fakeSender{})
	ctx := context.Background()
	id := register(t, svc, "marie@example.com", "75020")

	token, exp, err := svc.Login(ctx, "marie@example.com", "Secret#123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Errorf("expiry %v is not in the future", exp)
	}
	got, err := svc.tokens.Verify(token)
	if err != nil || got != id {
		t.Errorf("Verify = %d, %v; want %d", got, err, id)
	}

	for _, tc := range []struct{ email, password string }{
		{"marie@example.com", "wrong"},
		{"nobody@example.com", "Secret#123"},
	} {
		if _, _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, core.ErrInvalidCredentials) {
			t.Errorf("Login(%q, %q) = %v, want ErrInvalidCredentials", tc.email, tc.password, err)
		}
	}
}

func TestAccountService_UpdateProfile(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAccountService(t, repo, &fakeSender{})
	ctx := context.Background()
	id := register(t, svc, "marie@example.com", "75020")

	t.Run("no changes", func(t *testing.T) {
		changed, err := svc.UpdateProfile(ctx, id, ProfileUpdate{
			ManagerFirstName: strPtr("Marie"),
			Salon:            SalonUpdate{City: strPtr("")},
		})
		if err != nil || changed {
			t.Errorf("UpdateProfile = %v, %v; want false, nil", changed, err)
		}
	})

	t.Run("invalid fields", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, id, ProfileUpdate{InvalidFields: []string{"email", "salon.id"}})
		want := []string{"Invalid fields detected: email, salon.id"}
		if got := problemsOf(t, err); !slices.Equal(got, want) {
			t.Errorf("problems = %q, want %q", got, want)
		}
	})

	t.Run("unknown postcode", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, id, ProfileUpdate{Salon: SalonUpdate{ZipCode: strPtr("99000")}})
		want := []string{"No department found for the postcode 99000"}
		if got := problemsOf(t, err); !slices.Equal(got, want) {
			t.Errorf("problems = %q, want %q", got, want)
		}
	})

	t.Run("moves department", func(t *testing.T) {
		changed, err := svc.UpdateProfile(ctx, id, ProfileUpdate{
			ManagerLastName: strPtr("Martin"),
			Salon: SalonUpdate{
				ZipCode:       strPtr("69003"),
				City:          strPtr("Lyon"),
				OpeningDate:   strPtr("2018-09-15"),
				EmployeeCount: intPtr(5),
			},
		})
		if err != nil || !changed {
			t.Fatalf("UpdateProfile = %v, %v; want true, nil", changed, err)
		}

		m, s, err := svc.Profile(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if m.LastName != "Martin" || m.FirstName != "Marie" {
			t.Errorf("manager = %+v", m)
		}
		if s.ZipCode != "69003" || s.City != "Lyon" || s.Department.Code != "69" || s.EmployeeCount != 5 {
			t.Errorf("salon = %+v", s)
		}
		if s.OpeningDate.String() != "2018-09-15" {
			t.Errorf("opening date = %s", s.OpeningDate)
		}
	})

	t.Run("unknown manager", func(t *testing.T) {
		if _, err := svc.UpdateProfile(ctx, 9999, ProfileUpdate{}); !errors.Is(err, core.ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})
}
