package textgen

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// QuestionContext describes the event a candidate question is drafted from.
type QuestionContext struct {
	SourceType string
	Date       time.Time
	Title      string
	Ticker     string
	Facts      map[string]string
}

func QuestionPrompt(qc QuestionContext) string {
	var b strings.Builder
	b.WriteString("You write one binary (O/X) prediction question for retail investors.\n")
	fmt.Fprintf(&b, "Date: %s\n", qc.Date.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "Category: %s\n", qc.SourceType)
	if qc.Title != "" {
		fmt.Fprintf(&b, "Event: %s\n", qc.Title)
	}
	if qc.Ticker != "" {
		fmt.Fprintf(&b, "Ticker: %s\n", qc.Ticker)
	}
	keys := make([]string, 0, len(qc.Facts))
	for k, v := range qc.Facts {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, qc.Facts[k])
	}
	b.WriteString(`
The question must be answerable with O (yes) or X (no) by the end of the trading day.
Reply with JSON only:
{"prompt": "...", "pros": ["reason for O", ...], "cons": ["reason for X", ...], "importance": "...", "impact": "..."}`)
	return b.String()
}

// AnswerContext is what the resolver sees about a question.
type AnswerContext struct {
	Prompt   string
	Ticker   string
	ClosesAt time.Time
}

func AnswerPrompt(ac AnswerContext) string {
	var b strings.Builder
	b.WriteString("Decide the outcome of this binary prediction question using public market data.\n")
	fmt.Fprintf(&b, "Question: %s\n", ac.Prompt)
	if ac.Ticker != "" {
		fmt.Fprintf(&b, "Ticker: %s\n", ac.Ticker)
	}
	fmt.Fprintf(&b, "Closed at: %s\n", ac.ClosesAt.UTC().Format(time.RFC3339))
	b.WriteString(`
Use "VOID" when the question cannot be decided.
Reply with JSON only:
{"outcome": "O" | "X" | "VOID", "explanation": "...", "proofUrl": "https://...", "reasoning": "..."}`)
	return b.String()
}
