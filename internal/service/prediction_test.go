package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"academy/internal/repository"
)

func TestSubmitPredictionOncePerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)

	p, err := f.predictions.Submit(ctx, 1, q.ID, " o ")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if p.Choice != "O" || !p.SubmittedAt.Equal(f.now) {
		t.Fatalf("unexpected prediction: %+v", p)
	}
	if _, err := f.predictions.Submit(ctx, 1, q.ID, "X"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	n, _ := f.repo.CountPredictions(ctx, repository.ListPredictionsParams{QuestionID: &q.ID})
	if n != 1 {
		t.Fatalf("expected 1 prediction row, got %d", n)
	}
	got, _ := f.repo.GetPrediction(ctx, 1, q.ID)
	if got.Choice != "O" {
		t.Fatalf("prediction mutated to %s", got.Choice)
	}
}

func TestSubmitPredictionConcurrentSameUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.predictions.Submit(ctx, 5, q.ID, "X")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	if ok != 1 || conflicts != 19 {
		t.Fatalf("ok=%d conflicts=%d", ok, conflicts)
	}
}

func TestSubmitPredictionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)

	cases := []struct {
		name   string
		user   uint64
		qid    uint64
		choice string
		want   error
	}{
		{"bad choice", 1, q.ID, "maybe", ErrInvalidInput},
		{"void is not a choice", 1, q.ID, "VOID", ErrInvalidInput},
		{"no user", 0, q.ID, "O", ErrInvalidInput},
		{"missing question", 1, 999, "O", ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.predictions.Submit(ctx, tc.user, tc.qid, tc.choice); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitPredictionRequiresOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, _, _ := f.questions.Create(ctx, CreateQuestionInput{Prompt: "d", ClosesAt: f.now.Add(time.Hour)})
	if _, err := f.predictions.Submit(ctx, 1, draft.ID, "O"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("draft: expected ErrInvalidState, got %v", err)
	}

	closed := f.openQuestion(t)
	_, _ = f.questions.ForceClose(ctx, closed.ID)
	if _, err := f.predictions.Submit(ctx, 1, closed.ID, "O"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("closed: expected ErrInvalidState, got %v", err)
	}

	// OPEN but past closes_at, before the sweep has run.
	stale := f.openQuestion(t)
	f.now = f.now.Add(2 * time.Hour)
	if _, err := f.predictions.Submit(ctx, 1, stale.ID, "O"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expired: expected ErrInvalidState, got %v", err)
	}
}

func TestListForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q1 := f.openQuestion(t)
	q2 := f.openQuestion(t)
	f.predict(t, 1, q1.ID, "O")
	f.predict(t, 1, q2.ID, "X")
	f.predict(t, 2, q1.ID, "X")

	items, total, err := f.predictions.ListForUser(ctx, 1, f.season.ID, 10, 0)
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("list: %v total=%d len=%d", err, total, len(items))
	}
	for _, p := range items {
		if p.UserID != 1 {
			t.Fatalf("foreign prediction %+v", p)
		}
	}
}
