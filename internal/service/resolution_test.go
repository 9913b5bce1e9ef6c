package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"academy/internal/models"
	"academy/internal/notify"
	"academy/internal/repository/memory"
	"academy/internal/textgen"
)

// failingPredictionReads fails the n-th ListPredictionsByQuestion call.
type failingPredictionReads struct {
	*memory.Store
	mu     sync.Mutex
	calls  int
	failOn map[int]error
}

func (r *failingPredictionReads) ListPredictionsByQuestion(ctx context.Context, questionID uint64) ([]models.Prediction, error) {
	r.mu.Lock()
	r.calls++
	err := r.failOn[r.calls]
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.Store.ListPredictionsByQuestion(ctx, questionID)
}

func TestResolveAwardsCorrectPredictors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)
	f.predict(t, 1, q.ID, "O")
	f.predict(t, 2, q.ID, "X")
	f.predict(t, 3, q.ID, "O")

	res, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "o", ProofURL: strPtr(" https://example.com/close ")})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Scored != 2 || res.Failed != 0 || res.AlreadyResolved {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Question.Status != "RESOLVED" || res.Question.ResolvedAt == nil {
		t.Fatalf("question not resolved: %+v", res.Question)
	}
	if res.Resolution.ProofURL == nil || *res.Resolution.ProofURL != "https://example.com/close" {
		t.Fatalf("proof url: %+v", res.Resolution.ProofURL)
	}
	for user, want := range map[uint64]int64{1: 10, 2: 0, 3: 10} {
		if got := f.points(t, user); got != want {
			t.Fatalf("user %d points=%d want %d", user, got, want)
		}
	}
	types := strings.Join(f.events.types(), ",")
	if !strings.Contains(types, notify.EventQuestionResolved) || !strings.Contains(types, notify.EventLeaderboardChanged) {
		t.Fatalf("missing events: %s", types)
	}
}

func TestResolveVoidAwardsNobody(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)
	f.predict(t, 1, q.ID, "O")
	f.predict(t, 2, q.ID, "X")

	res, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "VOID"})
	if err != nil || res.Scored != 0 {
		t.Fatalf("resolve void: %v %+v", err, res)
	}
	for _, user := range []uint64{1, 2} {
		if got := f.points(t, user); got != 0 {
			t.Fatalf("user %d got %d points on VOID", user, got)
		}
		if s, _ := f.repo.GetScore(ctx, user, f.season.ID); s != nil {
			t.Fatalf("VOID created score row for user %d", user)
		}
	}
}

func TestReResolveDoesNotDoubleAward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)
	f.predict(t, 1, q.ID, "X")

	if _, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "X"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	again, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "X", Explanation: strPtr("closed lower")})
	if err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
	if !again.AlreadyResolved || again.Scored != 0 {
		t.Fatalf("unexpected re-resolve result: %+v", again)
	}
	if again.Resolution.Explanation == nil || *again.Resolution.Explanation != "closed lower" {
		t.Fatalf("explanation not updated: %+v", again.Resolution)
	}
	if got := f.points(t, 1); got != 10 {
		t.Fatalf("points=%d after re-resolve, want 10", got)
	}

	if _, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "O"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("changing outcome: expected ErrInvalidState, got %v", err)
	}
	if got := f.points(t, 1); got != 10 {
		t.Fatalf("points=%d after rejected change", got)
	}
}

func TestConcurrentResolveScoresOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)
	f.predict(t, 1, q.ID, "O")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "O"})
		}()
	}
	wg.Wait()
	if got := f.points(t, 1); got != 10 {
		t.Fatalf("points=%d, want 10", got)
	}
}

func TestConcurrentResolutionsSameSeasonSameUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const n = 8
	ids := make([]uint64, 0, n)
	for i := 0; i < n; i++ {
		q := f.openQuestion(t)
		f.predict(t, 42, q.ID, "O")
		ids = append(ids, q.ID)
	}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			if _, err := f.resolutions.Resolve(ctx, id, ResolveInput{Outcome: "O"}); err != nil {
				t.Errorf("resolve %d: %v", id, err)
			}
		}(id)
	}
	wg.Wait()
	if got := f.points(t, 42); got != n*10 {
		t.Fatalf("points=%d want %d", got, n*10)
	}
}

func TestResolvePartialFailureContinues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)
	f.predict(t, 1, q.ID, "O")
	f.predict(t, 2, q.ID, "O")
	f.predict(t, 3, q.ID, "O")
	f.repo.FailIncrementFor = map[uint64]error{2: errors.New("row locked")}

	res, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "O"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Scored != 2 || res.Failed != 1 {
		t.Fatalf("scored=%d failed=%d", res.Scored, res.Failed)
	}
	f.repo.FailIncrementFor = nil
	if f.points(t, 1) != 10 || f.points(t, 3) != 10 || f.points(t, 2) != 0 {
		t.Fatalf("unexpected points after partial failure")
	}
}

func TestResolveRetryAfterPredictionReadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)
	f.predict(t, 1, q.ID, "O")
	f.predict(t, 2, q.ID, "X")
	f.resolutions.Repo = &failingPredictionReads{Store: f.repo, failOn: map[int]error{1: errors.New("connection reset")}}

	if _, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "O"}); err == nil {
		t.Fatal("expected read error")
	}
	stored, err := f.repo.GetQuestionByID(ctx, q.ID)
	if err != nil || stored.Status != "OPEN" {
		t.Fatalf("question changed after failed read: %v %+v", err, stored)
	}
	if res, _ := f.repo.GetResolutionByQuestionID(ctx, q.ID); res != nil {
		t.Fatalf("resolution written after failed read: %+v", res)
	}

	res, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "O"})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.AlreadyResolved || res.Scored != 1 {
		t.Fatalf("retry result: %+v", res)
	}
	if f.points(t, 1) != 10 || f.points(t, 2) != 0 {
		t.Fatalf("points after retry: u1=%d u2=%d", f.points(t, 1), f.points(t, 2))
	}
}

func TestResolveScoresSnapshotWhenRereadFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)
	f.predict(t, 1, q.ID, "X")
	f.resolutions.Repo = &failingPredictionReads{Store: f.repo, failOn: map[int]error{2: errors.New("timeout")}}

	res, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "X"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Scored != 1 || f.points(t, 1) != 10 {
		t.Fatalf("scored=%d points=%d", res.Scored, f.points(t, 1))
	}
}

func TestResolveStateAndInputErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, _, _ := f.questions.Create(ctx, CreateQuestionInput{Prompt: "d", ClosesAt: f.now.Add(1)})
	if _, err := f.resolutions.Resolve(ctx, draft.ID, ResolveInput{Outcome: "O"}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("draft: expected ErrInvalidState, got %v", err)
	}
	if _, err := f.resolutions.Resolve(ctx, 999, ResolveInput{Outcome: "O"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: expected ErrNotFound, got %v", err)
	}
	if _, err := f.resolutions.Resolve(ctx, draft.ID, ResolveInput{Outcome: "YES"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad outcome: expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)
	if _, err := f.resolutions.UpdateMetadata(ctx, q.ID, strPtr("x"), nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before resolve, got %v", err)
	}
	if _, err := f.resolutions.Resolve(ctx, q.ID, ResolveInput{Outcome: "X", ProofURL: strPtr("https://a")}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	res, err := f.resolutions.UpdateMetadata(ctx, q.ID, strPtr(""), strPtr("fell 2%"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.ProofURL != nil || res.Explanation == nil || *res.Explanation != "fell 2%" || res.Outcome != "X" {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.text, g.err
}

func TestSuggest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.openQuestion(t)

	if _, err := f.resolutions.Suggest(ctx, q.ID); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("no generator: expected ErrUpstreamUnavailable, got %v", err)
	}

	f.resolutions.Generator = stubGenerator{text: "```json\n{\"outcome\":\"X\",\"explanation\":\"down\",\"proofUrl\":\"https://p\"}\n```"}
	ans, err := f.resolutions.Suggest(ctx, q.ID)
	if err != nil || ans.Outcome != "X" || ans.ProofURL != "https://p" {
		t.Fatalf("suggest: %v %+v", err, ans)
	}
	got, _ := f.repo.GetQuestionByID(ctx, q.ID)
	if got.Status != "OPEN" {
		t.Fatalf("suggestion must not resolve the question")
	}

	f.resolutions.Generator = stubGenerator{text: "I am not sure."}
	if _, err := f.resolutions.Suggest(ctx, q.ID); !errors.Is(err, ErrParseFailure) {
		t.Fatalf("expected ErrParseFailure, got %v", err)
	}
	f.resolutions.Generator = stubGenerator{err: errors.New("timeout")}
	if _, err := f.resolutions.Suggest(ctx, q.ID); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

var _ textgen.Generator = stubGenerator{}
