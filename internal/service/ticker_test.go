package service

import "testing"

func TestExtractTicker(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Will USD/JPY close above 150?", "USD/JPY"},
		{"Will eur/usd weaken after the ECB?", "EUR/USD"},
		{"Will the S&P 500 close higher than yesterday?", "SPX"},
		{"Will KOSPI rebound?", "KOSPI"},
		{"Will the Nasdaq outperform Apple today?", "NASDAQ"},
		{"Will Nvidia beat EPS estimates?", "NVDA"},
		{"Will Meta guide higher?", "META"},
		{"Will the metaverse trend continue?", ""},
		{"Will the rate decision surprise?", ""},
	}
	for _, tc := range cases {
		got := ExtractTicker(tc.text)
		if tc.want == "" {
			if got != nil {
				t.Fatalf("%q: expected no ticker, got %s", tc.text, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Fatalf("%q: expected %s, got %v", tc.text, tc.want, got)
		}
	}
}
