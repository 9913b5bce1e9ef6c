package textgen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Draft is a validated question draft.
type Draft struct {
	Prompt     string   `json:"prompt"`
	Pros       []string `json:"pros"`
	Cons       []string `json:"cons"`
	Importance string   `json:"importance,omitempty"`
	Impact     string   `json:"impact,omitempty"`
}

// Answer is a validated resolution suggestion.
type Answer struct {
	Outcome     string `json:"outcome"`
	Explanation string `json:"explanation"`
	ProofURL    string `json:"proof_url,omitempty"`
	Reasoning   string `json:"reasoning,omitempty"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractJSON returns the JSON object embedded in text: a fenced block when
// present, else the outermost braces, else the trimmed text.
func ExtractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func ParseDraft(text string) (Draft, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	d := Draft{
		Prompt:     rawString(raw["prompt"]),
		Pros:       reasons(raw["pros"]),
		Cons:       reasons(raw["cons"]),
		Importance: rawString(raw["importance"]),
		Impact:     rawString(raw["impact"]),
	}
	if d.Prompt == "" {
		return Draft{}, fmt.Errorf("%w: missing prompt", ErrParse)
	}
	return d, nil
}

func ParseAnswer(text string) (Answer, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	a := Answer{
		Outcome:     strings.ToUpper(rawString(raw["outcome"])),
		Explanation: rawString(raw["explanation"]),
		ProofURL:    firstNonEmpty(rawString(raw["proofUrl"]), rawString(raw["proof_url"])),
		Reasoning:   rawString(raw["reasoning"]),
	}
	switch a.Outcome {
	case "O", "X", "VOID":
	default:
		return Answer{}, fmt.Errorf("%w: outcome %q", ErrParse, a.Outcome)
	}
	return a, nil
}

func rawString(msg json.RawMessage) string {
	if len(msg) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// reasons accepts a JSON array, a string holding a JSON array, or a plain
// string (one reason). Anything else yields an empty list.
func reasons(msg json.RawMessage) []string {
	out := []string{}
	if len(msg) == 0 {
		return out
	}
	var list []any
	if err := json.Unmarshal(msg, &list); err == nil {
		return appendReasons(out, list)
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return out
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return appendReasons(out, list)
		}
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func appendReasons(out []string, list []any) []string {
	for _, v := range list {
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case nil:
			continue
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
