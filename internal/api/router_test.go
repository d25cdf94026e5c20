package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"budget-allocation-engine/internal/bankcal"
)

func newTestRouter() http.Handler {
	return NewServer(bankcal.NewCalendar(), nil).Router()
}

func get(t *testing.T, router http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Error payload is not valid JSON: %v (%s)", err, rec.Body.String())
	}
	return payload.Error.Code
}

func TestHealthEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestNonBankDaysFebruary(t *testing.T) {
	rec := get(t, newTestRouter(), "/api/non-bank-days?from=2026-02-01&to=2026-02-28")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload nonBankDaysResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	if payload.Country != "DK" {
		t.Errorf("Country should default to DK, got %s", payload.Country)
	}

	// February 2026 has no Danish holidays; only the eight weekend days.
	want := []string{
		"2026-02-01", "2026-02-07", "2026-02-08", "2026-02-14",
		"2026-02-15", "2026-02-21", "2026-02-22", "2026-02-28",
	}
	if len(payload.Dates) != len(want) {
		t.Fatalf("Expected %d dates, got %d: %v", len(want), len(payload.Dates), payload.Dates)
	}
	for i, date := range want {
		if payload.Dates[i] != date {
			t.Errorf("Date %d: expected %s, got %s", i, date, payload.Dates[i])
		}
	}
}

func TestNonBankDaysIncludesHolidays(t *testing.T) {
	// Easter 2026 falls on April 5; Good Friday is April 3.
	rec := get(t, newTestRouter(), "/api/non-bank-days?from=2026-04-01&to=2026-04-07&country=dk")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload nonBankDaysResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	found := make(map[string]bool, len(payload.Dates))
	for _, date := range payload.Dates {
		found[date] = true
	}
	for _, holiday := range []string{"2026-04-02", "2026-04-03", "2026-04-06"} {
		if !found[holiday] {
			t.Errorf("Expected Easter-week holiday %s in %v", holiday, payload.Dates)
		}
	}
}

func TestNonBankDaysErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed from date",
			url:        "/api/non-bank-days?from=02-01-2026&to=2026-02-28",
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "invalid_date",
		},
		{
			name:       "malformed to date",
			url:        "/api/non-bank-days?from=2026-02-01&to=bogus",
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "invalid_date",
		},
		{
			name:       "missing from",
			url:        "/api/non-bank-days?to=2026-02-28",
			wantStatus: http.StatusBadRequest,
			wantCode:   "missing_field",
		},
		{
			name:       "inverted range",
			url:        "/api/non-bank-days?from=2026-03-01&to=2026-02-01",
			wantStatus: http.StatusBadRequest,
			wantCode:   "range_inverted",
		},
		{
			name:       "range too large",
			url:        "/api/non-bank-days?from=2024-01-01&to=2025-01-02",
			wantStatus: http.StatusBadRequest,
			wantCode:   "range_too_large",
		},
		{
			name:       "unsupported country",
			url:        "/api/non-bank-days?from=2026-02-01&to=2026-02-28&country=SE",
			wantStatus: http.StatusBadRequest,
			wantCode:   "unsupported_country",
		},
	}

	router := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.url)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if code := decodeError(t, rec); code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, code)
			}
		})
	}
}

func TestCallerMiddlewareRuns(t *testing.T) {
	var called bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	router := NewServer(bankcal.NewCalendar(), nil).Router(mw)
	get(t, router, "/health")
	if !called {
		t.Error("Caller-supplied middleware should wrap every request")
	}
}
