package service

import (
	"regexp"
	"strings"
)

var currencyPairs = []string{"usd/jpy", "eur/usd", "gbp/usd", "usd/krw", "eur/krw"}

type tickerAlias struct {
	re     *regexp.Regexp
	ticker string
}

func aliases(pairs ...string) []tickerAlias {
	out := make([]tickerAlias, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, tickerAlias{
			re:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(pairs[i]) + `\b`),
			ticker: pairs[i+1],
		})
	}
	return out
}

var indexAliases = aliases(
	"s&p500", "SPX",
	"s&p 500", "SPX",
	"nasdaq", "NASDAQ",
	"dow", "DJI",
	"kospi", "KOSPI",
	"kosdaq", "KOSDAQ",
	"nikkei", "NIKKEI",
)

var companyAliases = aliases(
	"apple", "AAPL",
	"microsoft", "MSFT",
	"google", "GOOGL",
	"amazon", "AMZN",
	"tesla", "TSLA",
	"nvidia", "NVDA",
	"meta", "META",
)

// ExtractTicker finds the instrument a question talks about: currency pairs
// first, then indices, then large caps. Returns nil when none match.
func ExtractTicker(text string) *string {
	lower := strings.ToLower(text)
	for _, pair := range currencyPairs {
		if strings.Contains(lower, pair) {
			return strPtr(strings.ToUpper(pair))
		}
	}
	for _, group := range [][]tickerAlias{indexAliases, companyAliases} {
		for _, a := range group {
			if a.re.MatchString(text) {
				return strPtr(a.ticker)
			}
		}
	}
	return nil
}
