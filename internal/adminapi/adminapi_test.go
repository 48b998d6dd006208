package adminapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	s := New(":0", nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s := New(":0", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected non-empty metrics body")
	}
}

func TestDebugStreamWithoutBrokerIsUnavailable(t *testing.T) {
	s := New(":0", nil)

	req := httptest.NewRequest(http.MethodGet, "/debug/stream", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when no broker attached, got %d", rec.Code)
	}
}

func TestParseTypes(t *testing.T) {
	got, err := parseTypes("0, 2,6")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []byte{0, 2, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestParseTypesEmpty(t *testing.T) {
	got, err := parseTypes("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for empty types param, got %v", got)
	}
}

func TestParseTypesRejectsGarbage(t *testing.T) {
	if _, err := parseTypes("not-a-number"); err == nil {
		t.Fatalf("expected error for non-numeric type")
	}
}
