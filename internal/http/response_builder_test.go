package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Message("User and salon registered successfully").
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("X-Test") != "1" {
		t.Error("custom header not set")
	}
	if got := decodeBody(t, w)["message"]; got != "User and salon registered successfully" {
		t.Errorf("message = %v", got)
	}
}

func TestJSONResponseBuilder_Payload(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Field("ignored", true).Payload(map[string]int{"id": 7}).Write(w)

	body := decodeBody(t, w)
	if _, ok := body["ignored"]; ok {
		t.Error("payload should replace fields")
	}
	if body["id"] != float64(7) {
		t.Errorf("id = %v", body["id"])
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		status  int
	}{
		{"bad request", BadRequestError("Invalid JSON data"), http.StatusBadRequest},
		{"not found", NotFoundError("No beauty salon found for this user"), http.StatusNotFound},
		{"internal", InternalServerError(), http.StatusInternalServerError},
		{"rate limit", TooManyRequestsError(), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.status {
				t.Errorf("Status code = %d, want %d", w.Code, tt.status)
			}
			if _, ok := decodeBody(t, w)["error"].(string); !ok {
				t.Errorf("error is not a string: %s", w.Body.String())
			}
		})
	}
}

func TestProblemsResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ProblemsResponse([]string{"email is missing or empty", "No department found for the postcode 99000"}).Write(w)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d", w.Code)
	}
	list, ok := decodeBody(t, w)["error"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("error = %v, want two problems", decodeBody(t, w)["error"])
	}
}
