// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request bodies.
// Clients send numbers and numeric strings interchangeably for zip codes,
// employee counts and amounts, so values are read loosely and converted here.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"beautystats/internal/core"
	"beautystats/internal/services"
)

const maxBodyBytes = 1 << 20

var (
	errEmptyBody    = errors.New("empty request body")
	errBodyTooLarge = errors.New("request body too large")
	errNotAnObject  = errors.New("request body is not a JSON object")
)

// Editable profile fields. Anything else in a PATCH body is rejected.
var (
	profileRootFields  = []string{"managerFirstName", "managerLastName", "salon"}
	profileSalonFields = []string{"name", "street", "zipCode", "city", "openingDate", "numberEmployeeFulltime"}
)

// RequestBodyParser reads a JSON object body once and gives typed access to
// its keys.
type RequestBodyParser struct {
	body   []byte
	data   map[string]any
	parsed bool
	err    error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse decodes the body. Numbers are kept as json.Number so amounts do
// not go through float64.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.err = errEmptyBody
		return p.err
	}
	if trimmed[0] != '{' {
		p.err = errNotAnObject
		return p.err
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&p.data); err != nil {
		p.err = fmt.Errorf("decode body: %w", err)
		return p.err
	}
	return nil
}

// IsEmpty reports whether the body decoded to an object without keys.
func (p *RequestBodyParser) IsEmpty() bool {
	return len(p.data) == 0
}

// Keys returns the top-level keys in sorted order.
func (p *RequestBodyParser) Keys() []string {
	keys := make([]string, 0, len(p.data))
	for k := range p.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Value returns the decoded value of key, or nil.
func (p *RequestBodyParser) Value(key string) any {
	return p.data[key]
}

// Get returns key as a trimmed string; numbers are formatted.
func (p *RequestBodyParser) Get(key string) string {
	return stringValue(p.data[key])
}

// Object returns key when it holds a JSON object.
func (p *RequestBodyParser) Object(key string) (map[string]any, bool) {
	obj, ok := p.data[key].(map[string]any)
	return obj, ok
}

// stringValue converts a decoded JSON value to a sanitized string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return sanitizeInput(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// zipCodeValue returns a postal code sent as a string or as a number. A
// number lost its leading zero, so it is padded back to five digits.
func zipCodeValue(v any) string {
	n, ok := v.(json.Number)
	if !ok {
		return stringValue(v)
	}
	i, err := n.Int64()
	if err != nil || i < 0 || i > 99999 {
		return n.String()
	}
	return fmt.Sprintf("%05d", i)
}

// intValue accepts a JSON integer or a string holding one.
func intValue(v any) (int, bool) {
	var s string
	switch val := v.(type) {
	case json.Number:
		s = val.String()
	case string:
		s = strings.TrimSpace(val)
	default:
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseRegisterInput maps a registration body. Missing keys become empty
// values and are reported by the account service.
func ParseRegisterInput(p *RequestBodyParser) services.RegisterInput {
	in := services.RegisterInput{
		Email:     p.Get("email"),
		Password:  passwordValue(p.Value("password")),
		FirstName: p.Get("firstName"),
		LastName:  p.Get("lastName"),
	}

	salon, ok := p.Object("salon")
	if !ok {
		return in
	}
	in.Salon = services.SalonInput{
		Name:        stringValue(salon["name"]),
		Street:      stringValue(salon["street"]),
		ZipCode:     zipCodeValue(salon["zipCode"]),
		City:        stringValue(salon["city"]),
		OpeningDate: stringValue(salon["openingDate"]),
	}
	if n, ok := intValue(salon["numberEmployeeFulltime"]); ok {
		in.Salon.EmployeeCount = &n
	}
	return in
}

// passwordValue keeps the password byte for byte.
func passwordValue(v any) string {
	s, _ := v.(string)
	return s
}

// ParseProfileUpdate maps a PATCH /api/profile body. Keys outside the
// editable set are collected in InvalidFields, prefixed with "salon." for
// nested ones.
func ParseProfileUpdate(p *RequestBodyParser) services.ProfileUpdate {
	var u services.ProfileUpdate

	for _, key := range p.Keys() {
		if !slices.Contains(profileRootFields, key) {
			u.InvalidFields = append(u.InvalidFields, key)
		}
	}
	if p.Value("managerFirstName") != nil {
		s := p.Get("managerFirstName")
		u.ManagerFirstName = &s
	}
	if p.Value("managerLastName") != nil {
		s := p.Get("managerLastName")
		u.ManagerLastName = &s
	}

	if p.Value("salon") == nil {
		return u
	}
	salon, ok := p.Object("salon")
	if !ok {
		u.InvalidFields = append(u.InvalidFields, "salon")
		return u
	}

	nested := make([]string, 0, len(salon))
	for key := range salon {
		if !slices.Contains(profileSalonFields, key) {
			nested = append(nested, "salon."+key)
		}
	}
	slices.Sort(nested)
	u.InvalidFields = append(u.InvalidFields, nested...)

	str := func(key string, zip bool) *string {
		v, ok := salon[key]
		if !ok || v == nil {
			return nil
		}
		s := stringValue(v)
		if zip {
			s = zipCodeValue(v)
		}
		return &s
	}
	u.Salon.Name = str("name", false)
	u.Salon.Street = str("street", false)
	u.Salon.ZipCode = str("zipCode", true)
	u.Salon.City = str("city", false)
	u.Salon.OpeningDate = str("openingDate", false)
	if n, ok := intValue(salon["numberEmployeeFulltime"]); ok {
		u.Salon.EmployeeCount = &n
	}
	return u
}

// ParseIncomeAmount reads the "income" key as a non-negative amount.
func ParseIncomeAmount(p *RequestBodyParser) (core.Money, error) {
	v := p.Value("income")
	if v == nil {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.ParseAmount(v)
}
