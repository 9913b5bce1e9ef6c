package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"academy/internal/lifecycle"
	"academy/internal/models"
	"academy/internal/notify"
	"academy/internal/repository/memory"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type recordedEvents struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordedEvents) Publish(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	repo        *memory.Store
	events      *recordedEvents
	seasons     *SeasonService
	questions   *QuestionService
	candidates  *CandidateService
	predictions *PredictionService
	resolutions *ResolutionService
	leaderboard *LeaderboardService
	season      *models.Season
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: memory.New(), events: &recordedEvents{}, now: baseTime}
	nowFn := func() time.Time { return f.now }
	f.seasons = &SeasonService{Repo: f.repo}
	f.questions = &QuestionService{Repo: f.repo, Seasons: f.seasons, Events: f.events, Now: nowFn}
	f.candidates = &CandidateService{Repo: f.repo}
	f.predictions = &PredictionService{Repo: f.repo, Now: nowFn}
	f.resolutions = &ResolutionService{Repo: f.repo, Events: f.events, Now: nowFn}
	f.leaderboard = &LeaderboardService{Repo: f.repo, Seasons: f.seasons}

	season, err := f.seasons.Create(context.Background(), CreateSeasonInput{
		Name:     "Spring",
		StartAt:  baseTime.AddDate(0, -1, 0),
		EndAt:    baseTime.AddDate(0, 2, 0),
		Activate: true,
	})
	if err != nil {
		t.Fatalf("create season: %v", err)
	}
	f.season = season
	return f
}

// openQuestion creates and confirms a question closing in one hour.
func (f *fixture) openQuestion(t *testing.T) *models.Question {
	t.Helper()
	ctx := context.Background()
	q, _, err := f.questions.Create(ctx, CreateQuestionInput{
		Prompt:   "Will KOSPI close higher today?",
		ClosesAt: f.now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	q, err = f.questions.Confirm(ctx, q.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if q.Status != string(lifecycle.StatusOpen) {
		t.Fatalf("expected OPEN, got %s", q.Status)
	}
	return q
}

func (f *fixture) predict(t *testing.T, userID, questionID uint64, choice string) {
	t.Helper()
	if _, err := f.predictions.Submit(context.Background(), userID, questionID, choice); err != nil {
		t.Fatalf("predict user=%d: %v", userID, err)
	}
}

func (f *fixture) points(t *testing.T, userID uint64) int64 {
	t.Helper()
	rep, err := f.leaderboard.UserScore(context.Background(), userID, f.season.ID)
	if err != nil {
		t.Fatalf("user score: %v", err)
	}
	return rep.TotalPoints
}
