// Package calendar reads the economic and earnings calendars that seed the
// daily candidate batch.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ImpactHigh   = "High"
	ImpactMedium = "Medium"
	ImpactLow    = "Low"
)

type EconomicEvent struct {
	Event    string  `json:"event"`
	Currency string  `json:"currency"`
	Actual   *string `json:"actual,omitempty"`
	Forecast *string `json:"forecast,omitempty"`
	Previous *string `json:"previous,omitempty"`
	Impact   string  `json:"impact"`
}

type EarningsEvent struct {
	Company         string  `json:"company"`
	Symbol          string  `json:"symbol"`
	EPSForecast     *string `json:"eps_forecast,omitempty"`
	RevenueForecast *string `json:"revenue_forecast,omitempty"`
}

type Source interface {
	EconomicEvents(ctx context.Context, date time.Time) ([]EconomicEvent, error)
	EarningsEvents(ctx context.Context, date time.Time) ([]EarningsEvent, error)
}

// HTTPSource reads a JSON calendar feed:
//
//	GET {BaseURL}/economic?date=YYYY-MM-DD -> []EconomicEvent
//	GET {BaseURL}/earnings?date=YYYY-MM-DD -> []EarningsEvent
type HTTPSource struct {
	BaseURL string
	HTTP    *http.Client
}

func (s *HTTPSource) EconomicEvents(ctx context.Context, date time.Time) ([]EconomicEvent, error) {
	var out []EconomicEvent
	if err := s.get(ctx, "economic", date, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPSource) EarningsEvents(ctx context.Context, date time.Time) ([]EarningsEvent, error) {
	var out []EarningsEvent
	if err := s.get(ctx, "earnings", date, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *HTTPSource) get(ctx context.Context, path string, date time.Time, dst any) error {
	if s == nil || strings.TrimSpace(s.BaseURL) == "" {
		return nil
	}
	base := strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	q := url.Values{}
	q.Set("date", date.UTC().Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/"+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar %s http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return json.Unmarshal(b, dst)
}

func (s *HTTPSource) httpClient() *http.Client {
	if s.HTTP != nil {
		return s.HTTP
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// Notable reports whether an economic event is worth a question.
func Notable(ev EconomicEvent) bool {
	return strings.EqualFold(ev.Impact, ImpactHigh) || strings.EqualFold(ev.Impact, ImpactMedium)
}
