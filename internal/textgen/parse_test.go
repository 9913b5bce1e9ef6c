package textgen

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"academy/internal/config"
)

func TestParseDraftFenced(t *testing.T) {
	text := "Here you go:\n```json\n{\"prompt\":\"Will AAPL close higher?\",\"pros\":[\"strong iPhone\"],\"cons\":[\"rates\"],\"impact\":\"tech\"}\n```\nthanks"
	d, err := ParseDraft(text)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if d.Prompt != "Will AAPL close higher?" || d.Impact != "tech" {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if !reflect.DeepEqual(d.Pros, []string{"strong iPhone"}) || !reflect.DeepEqual(d.Cons, []string{"rates"}) {
		t.Fatalf("reasons: %+v", d)
	}
}

func TestParseDraftBareObjectWithProse(t *testing.T) {
	d, err := ParseDraft(`Sure! {"prompt": "Will KOSPI rise?", "pros": "[\"exports\", \"won\"]", "cons": "foreign selling"} hope it helps`)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !reflect.DeepEqual(d.Pros, []string{"exports", "won"}) {
		t.Fatalf("pros=%v", d.Pros)
	}
	if !reflect.DeepEqual(d.Cons, []string{"foreign selling"}) {
		t.Fatalf("cons=%v", d.Cons)
	}
}

func TestParseDraftMissingReasons(t *testing.T) {
	d, err := ParseDraft(`{"prompt":"Will gold rise?"}`)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if d.Pros == nil || len(d.Pros) != 0 || d.Cons == nil || len(d.Cons) != 0 {
		t.Fatalf("expected empty reasons, got %+v", d)
	}
}

func TestParseDraftFailures(t *testing.T) {
	cases := []string{
		"",
		"the market will go up",
		`{"pros":["a"]}`,
		`{"prompt":"   "}`,
		"```json\n{not json}\n```",
	}
	for _, tc := range cases {
		if _, err := ParseDraft(tc); !errors.Is(err, ErrParse) {
			t.Fatalf("input %q: expected ErrParse, got %v", tc, err)
		}
	}
}

func TestParseAnswer(t *testing.T) {
	a, err := ParseAnswer("```\n{\"outcome\":\"o\",\"explanation\":\"closed up 1%\",\"proofUrl\":\"https://example.com\",\"reasoning\":\"r\"}\n```")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if a.Outcome != "O" || a.ProofURL != "https://example.com" || a.Explanation != "closed up 1%" {
		t.Fatalf("unexpected answer: %+v", a)
	}
	if _, err := ParseAnswer(`{"outcome":"maybe"}`); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for bad outcome, got %v", err)
	}
}

func TestQuestionPromptIncludesFacts(t *testing.T) {
	p := QuestionPrompt(QuestionContext{
		SourceType: "EARNINGS",
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Title:      "Apple earnings",
		Ticker:     "AAPL",
		Facts:      map[string]string{"eps_forecast": "1.52", "empty": " "},
	})
	for _, want := range []string{"2026-03-02", "EARNINGS", "AAPL", "eps_forecast: 1.52"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
	if strings.Contains(p, "empty:") {
		t.Fatalf("blank facts should be omitted")
	}
}

func TestNewDisabled(t *testing.T) {
	g, err := New(configWithProvider(""))
	if err != nil || g != nil {
		t.Fatalf("expected disabled generator, got %v %v", g, err)
	}
	if _, err := New(configWithProvider("openai")); err == nil {
		t.Fatalf("expected missing api key error")
	}
	if _, err := New(configWithProvider("bard")); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func configWithProvider(p string) config.TextGenConfig {
	return config.TextGenConfig{Provider: p}
}
