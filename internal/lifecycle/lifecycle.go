// Package lifecycle holds the question state machine:
// DRAFT -> OPEN -> CLOSED -> RESOLVED, with OPEN -> RESOLVED allowed directly.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusOpen     Status = "OPEN"
	StatusClosed   Status = "CLOSED"
	StatusResolved Status = "RESOLVED"
)

type Action string

const (
	ActionConfirm Action = "confirm"
	ActionClose   Action = "close"
	ActionResolve Action = "resolve"
	ActionEdit    Action = "edit"
)

var ErrIllegalTransition = errors.New("illegal transition")

var order = map[Status]int{
	StatusDraft:    0,
	StatusOpen:     1,
	StatusClosed:   2,
	StatusResolved: 3,
}

type rule struct {
	from []Status
	to   Status
	// done lists states where the action already took effect; repeating it
	// there is a no-op rather than an error.
	done []Status
}

var rules = map[Action]rule{
	ActionConfirm: {from: []Status{StatusDraft}, to: StatusOpen, done: []Status{StatusOpen}},
	ActionClose:   {from: []Status{StatusOpen}, to: StatusClosed, done: []Status{StatusClosed}},
	ActionResolve: {from: []Status{StatusOpen, StatusClosed}, to: StatusResolved, done: []Status{StatusResolved}},
}

func Parse(raw string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	_, ok := order[s]
	return s, ok
}

func (s Status) Valid() bool {
	_, ok := order[s]
	return ok
}

func (s Status) String() string { return string(s) }

// Next returns the state after applying action to current. changed is false
// when the action was already applied (idempotent repeat).
func Next(current Status, action Action) (next Status, changed bool, err error) {
	if !current.Valid() {
		return current, false, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, current)
	}
	if action == ActionEdit {
		if current == StatusDraft || current == StatusOpen {
			return current, false, nil
		}
		return current, false, fmt.Errorf("%w: cannot edit %s question", ErrIllegalTransition, current)
	}
	r, ok := rules[action]
	if !ok {
		return current, false, fmt.Errorf("%w: unknown action %q", ErrIllegalTransition, action)
	}
	if contains(r.done, current) {
		return current, false, nil
	}
	if !contains(r.from, current) {
		return current, false, fmt.Errorf("%w: cannot %s %s question", ErrIllegalTransition, action, current)
	}
	return r.to, true, nil
}

// AllowedFrom lists the states from which action moves the question forward.
func AllowedFrom(action Action) []Status {
	r, ok := rules[action]
	if !ok {
		return nil
	}
	out := make([]Status, len(r.from))
	copy(out, r.from)
	return out
}

// Strings converts statuses to their column values.
func Strings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// Forward reports whether moving from a to b never regresses.
func Forward(a, b Status) bool {
	return order[b] >= order[a]
}

// AcceptsPredictions reports whether users may still submit choices.
func AcceptsPredictions(s Status) bool {
	return s == StatusOpen
}

func contains(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
