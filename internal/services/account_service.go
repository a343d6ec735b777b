package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"strings"
	"time"

	"beautystats/internal/auth"
	"beautystats/internal/core"
	"beautystats/internal/log"
	"beautystats/internal/mail"
	"beautystats/internal/storage"
)

const (
	msgEmailTaken      = "Email already registered"
	msgInvalidDate     = "salon.openingDate must be a date in YYYY-MM-DD format"
	msgInvalidEmail    = "email is not a valid email address"
	msgNameTooLongFmt  = "%s must be at most %d characters"
	msgMissingFieldFmt = "%s is missing or empty"
)

// RegisterInput is a registration request. Empty strings and a nil
// EmployeeCount count as missing.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Salon     SalonInput
}

type SalonInput struct {
	Name          string
	Street        string
	ZipCode       string
	City          string
	OpeningDate   string
	EmployeeCount *int
}

// ProfileUpdate lists the fields a manager asked to change. Nil or empty
// values are left untouched. InvalidFields holds the names of fields that
// may not be changed and makes the whole update fail.
type ProfileUpdate struct {
	ManagerFirstName *string
	ManagerLastName  *string
	Salon            SalonUpdate
	InvalidFields    []string
}

type SalonUpdate struct {
	Name          *string
	Street        *string
	ZipCode       *string
	City          *string
	OpeningDate   *string
	EmployeeCount *int
}

// AccountService registers managers and maintains their profile.
type AccountService struct {
	repo     *storage.SQLiteRepository
	resolver *DepartmentResolver
	tokens   *auth.TokenManager
	composer *mail.Composer
	sender   mail.Sender
}

func NewAccountService(repo *storage.SQLiteRepository, resolver *DepartmentResolver, tokens *auth.TokenManager, composer *mail.Composer, sender mail.Sender) *AccountService {
	return &AccountService{
		repo:     repo,
		resolver: resolver,
		tokens:   tokens,
		composer: composer,
		sender:   sender,
	}
}

// Register creates a manager and their salon, then sends a welcome mail.
// Every input problem is reported in one *core.ValidationError.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (core.Manager, core.Salon, error) {
	v := &core.ValidationError{}

	required := []struct {
		field string
		value string
	}{
		{"email", in.Email},
		{"password", in.Password},
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"salon.name", in.Salon.Name},
		{"salon.street", in.Salon.Street},
		{"salon.zipCode", in.Salon.ZipCode},
		{"salon.city", in.Salon.City},
		{"salon.openingDate", in.Salon.OpeningDate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			v.Add(msgMissingFieldFmt, r.field)
		}
	}
	if in.Salon.EmployeeCount == nil {
		v.Add(msgMissingFieldFmt, "salon.numberEmployeeFulltime")
	}

	email := strings.TrimSpace(in.Email)
	if email != "" {
		if _, err := netmail.ParseAddress(email); err != nil {
			v.Add(msgInvalidEmail)
		} else if _, err := s.repo.ManagerByEmail(ctx, email); err == nil {
			v.Add(msgEmailTaken)
		} else if !errors.Is(err, core.ErrUserNotFound) {
			return core.Manager{}, core.Salon{}, fmt.Errorf("check email: %w", err)
		}
	}

	salon := core.Salon{
		Name:   strings.TrimSpace(in.Salon.Name),
		Street: strings.TrimSpace(in.Salon.Street),
		City:   strings.TrimSpace(in.Salon.City),
	}
	if in.Salon.EmployeeCount != nil {
		salon.EmployeeCount = *in.Salon.EmployeeCount
	}

	if zip := strings.TrimSpace(in.Salon.ZipCode); zip != "" {
		dept, err := s.resolver.Resolve(ctx, zip)
		if err != nil {
			var pce *PostalCodeError
			if !errors.As(err, &pce) {
				return core.Manager{}, core.Salon{}, err
			}
			v.Add("%s", pce.Error())
		}
		salon.ZipCode = zip
		salon.DepartmentID = dept.ID
		salon.Department = dept
	}

	if in.Salon.OpeningDate != "" {
		d, err := core.ParseDate(in.Salon.OpeningDate)
		if err != nil {
			v.Add(msgInvalidDate)
		}
		salon.OpeningDate = d
	}

	if in.Password != "" {
		for _, p := range core.CheckPassword(in.Password) {
			v.Add("%s", p)
		}
	}

	checkNameLength(v, "firstName", in.FirstName)
	checkNameLength(v, "lastName", in.LastName)
	v.Merge(salon.ValidateLimits())

	if err := v.Err(); err != nil {
		return core.Manager{}, core.Salon{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.Manager{}, core.Salon{}, err
	}

	manager := core.Manager{
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{core.RoleUser},
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	}
	manager, salon, err = s.repo.CreateAccount(ctx, manager, salon)
	if errors.Is(err, core.ErrEmailTaken) {
		// lost a race with a concurrent registration
		v.Add(msgEmailTaken)
		return core.Manager{}, core.Salon{}, fmt.Errorf("%w: %w", v, err)
	}
	if err != nil {
		return core.Manager{}, core.Salon{}, fmt.Errorf("register: %w", err)
	}

	slog.InfoContext(ctx, "Manager registered",
		log.FieldUserID, manager.ID,
		log.FieldSalonID, salon.ID,
		log.FieldDepartment, salon.Department.Code)

	s.sendWelcome(ctx, manager, salon)
	return manager, salon, nil
}

// sendWelcome never fails the registration; the account already exists.
func (s *AccountService) sendWelcome(ctx context.Context, m core.Manager, salon core.Salon) {
	if s.sender == nil || s.composer == nil {
		slog.WarnContext(ctx, "Mail not configured, skipping welcome mail", log.FieldUserID, m.ID)
		return
	}
	msg, err := s.composer.Welcome(m, salon)
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to send welcome mail",
			log.FieldUserID, m.ID,
			log.FieldRecipient, m.Email,
			log.FieldOperation, log.OpNotify,
			log.FieldError, err)
	}
}

func checkNameLength(v *core.ValidationError, field, value string) {
	if len([]rune(strings.TrimSpace(value))) > core.MaxNameLen {
		v.Add(msgNameTooLongFmt, field, core.MaxNameLen)
	}
}

// Login checks the credentials of a manager and issues an access token.
// Unknown emails and wrong passwords both fail with core.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	m, err := s.repo.ManagerByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, core.ErrUserNotFound) {
		return "", time.Time{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("login: %w", err)
	}

	ok, err := auth.ComparePassword(m.PasswordHash, password)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("login: %w", err)
	}
	if !ok {
		slog.WarnContext(ctx, "Login with wrong password", log.FieldUserID, m.ID)
		return "", time.Time{}, core.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(m.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	slog.InfoContext(ctx, "Manager logged in", log.FieldUserID, m.ID)
	return token, expiresAt, nil
}

// Profile returns a manager and their salon. A manager without a salon
// fails with core.ErrSalonNotFound.
func (s *AccountService) Profile(ctx context.Context, managerID int64) (core.Manager, core.Salon, error) {
	m, err := s.repo.ManagerByID(ctx, managerID)
	if err != nil {
		return core.Manager{}, core.Salon{}, err
	}
	salon, err := s.repo.SalonByManager(ctx, managerID)
	if err != nil {
		return core.Manager{}, core.Salon{}, err
	}
	return m, salon, nil
}

// UpdateProfile applies u and reports whether anything changed.
// A new zip code moves the salon to the department it resolves to.
func (s *AccountService) UpdateProfile(ctx context.Context, managerID int64, u ProfileUpdate) (bool, error) {
	v := &core.ValidationError{}
	if len(u.InvalidFields) > 0 {
		v.Add("Invalid fields detected: %s", strings.Join(u.InvalidFields, ", "))
	}

	m, salon, err := s.Profile(ctx, managerID)
	if err != nil {
		return false, err
	}

	changed := false
	setString := func(dst *string, src *string) {
		if src == nil {
			return
		}
		val := strings.TrimSpace(*src)
		if val != "" && val != *dst {
			*dst = val
			changed = true
		}
	}

	setString(&m.FirstName, u.ManagerFirstName)
	setString(&m.LastName, u.ManagerLastName)
	setString(&salon.Name, u.Salon.Name)
	setString(&salon.Street, u.Salon.Street)
	setString(&salon.City, u.Salon.City)

	if u.Salon.ZipCode != nil {
		if zip := strings.TrimSpace(*u.Salon.ZipCode); zip != "" && zip != salon.ZipCode {
			dept, err := s.resolver.Resolve(ctx, zip)
			var pce *PostalCodeError
			switch {
			case errors.As(err, &pce):
				v.Add("%s", pce.Error())
			case err != nil:
				return false, err
			default:
				salon.ZipCode = zip
				salon.DepartmentID = dept.ID
				salon.Department = dept
				changed = true
			}
		}
	}

	if u.Salon.OpeningDate != nil && strings.TrimSpace(*u.Salon.OpeningDate) != "" {
		d, err := core.ParseDate(*u.Salon.OpeningDate)
		switch {
		case err != nil:
			v.Add(msgInvalidDate)
		case !d.Equal(salon.OpeningDate.Time):
			salon.OpeningDate = d
			changed = true
		}
	}

	if u.Salon.EmployeeCount != nil && *u.Salon.EmployeeCount != salon.EmployeeCount {
		salon.EmployeeCount = *u.Salon.EmployeeCount
		changed = true
	}

	checkNameLength(v, "managerFirstName", m.FirstName)
	checkNameLength(v, "managerLastName", m.LastName)
	v.Merge(salon.ValidateLimits())

	if err := v.Err(); err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if err := s.repo.UpdateProfile(ctx, m, salon); err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}
	slog.InfoContext(ctx, "Profile updated",
		log.FieldUserID, m.ID,
		log.FieldSalonID, salon.ID,
		log.FieldDepartment, salon.Department.Code)
	return true, nil
}
