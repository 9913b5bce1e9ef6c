package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("date") != "2026-03-02" {
			http.Error(w, "bad date", http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/economic":
			_, _ = w.Write([]byte(`[{"event":"CPI m/m","currency":"USD","forecast":"0.3%","impact":"High"}]`))
		case "/earnings":
			_, _ = w.Write([]byte(`[{"company":"Apple","symbol":"AAPL","eps_forecast":"1.52"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := &HTTPSource{BaseURL: srv.URL + "/"}
	date := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()

	econ, err := s.EconomicEvents(ctx, date)
	if err != nil || len(econ) != 1 {
		t.Fatalf("economic: %v %v", econ, err)
	}
	if econ[0].Forecast == nil || *econ[0].Forecast != "0.3%" || econ[0].Actual != nil {
		t.Fatalf("unexpected event: %+v", econ[0])
	}
	earn, err := s.EarningsEvents(ctx, date)
	if err != nil || len(earn) != 1 || earn[0].Symbol != "AAPL" {
		t.Fatalf("earnings: %v %v", earn, err)
	}
}

func TestHTTPSourceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	s := &HTTPSource{BaseURL: srv.URL}
	if _, err := s.EconomicEvents(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestHTTPSourceUnconfigured(t *testing.T) {
	s := &HTTPSource{}
	got, err := s.EarningsEvents(context.Background(), time.Now())
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty, got %v %v", got, err)
	}
}

func TestNotable(t *testing.T) {
	if !Notable(EconomicEvent{Impact: "high"}) || !Notable(EconomicEvent{Impact: "Medium"}) {
		t.Fatalf("high/medium should be notable")
	}
	if Notable(EconomicEvent{Impact: "Low"}) {
		t.Fatalf("low should not be notable")
	}
}
