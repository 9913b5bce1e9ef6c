package service

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

// trimmedField trims an optional edit value; an empty result still clears the
// field, unlike trimmedPtr.
func trimmedField(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func reasonsJSON(items []string) datatypes.JSON {
	clean := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			clean = append(clean, t)
		}
	}
	raw, _ := json.Marshal(clean)
	return datatypes.JSON(raw)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
