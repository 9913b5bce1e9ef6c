package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"academy/internal/config"
	"academy/internal/lifecycle"
	"academy/internal/models"
	"academy/internal/notify"
	"academy/internal/paas"
	"academy/internal/repository"
	"academy/internal/textgen"
)

const defaultPointsPerCorrect int64 = 10

// ResolutionService applies outcomes and awards points. Points are awarded
// only by the call that moves a question into RESOLVED.
type ResolutionService struct {
	Repo      repository.Repository
	Generator textgen.Generator
	Events    notify.Publisher
	Scoring   config.ScoringConfig
	Timeout   time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

type ResolveInput struct {
	Outcome     string
	ProofURL    *string
	Explanation *string
}

type ResolveResult struct {
	Question   models.Question   `json:"question"`
	Resolution models.Resolution `json:"resolution"`
	// Scored is the number of correct predictors awarded points.
	Scored int `json:"scored"`
	// Failed counts per-user score writes that errored.
	Failed          int  `json:"failed"`
	AlreadyResolved bool `json:"already_resolved"`
}

func NormalizeOutcome(raw string) (string, bool) {
	o := strings.ToUpper(strings.TrimSpace(raw))
	switch o {
	case models.OutcomeO, models.OutcomeX, models.OutcomeVoid:
		return o, true
	default:
		return "", false
	}
}

func (s *ResolutionService) points() int64 {
	if s.Scoring.PointsPerCorrect > 0 {
		return s.Scoring.PointsPerCorrect
	}
	return defaultPointsPerCorrect
}

// Resolve applies outcome to an OPEN or CLOSED question and scores correct
// predictors. On a RESOLVED question with the same outcome it only updates
// proof/explanation; a different outcome is rejected.
func (s *ResolutionService) Resolve(ctx context.Context, questionID uint64, in ResolveInput) (*ResolveResult, error) {
	outcome, ok := NormalizeOutcome(in.Outcome)
	if !ok {
		return nil, fmt.Errorf("%w: outcome must be O, X or VOID", ErrInvalidInput)
	}
	q, err := s.Repo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: question %d", ErrNotFound, questionID)
	}
	if _, changed, err := lifecycle.Next(lifecycle.Status(q.Status), lifecycle.ActionResolve); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	} else if !changed {
		return s.reapply(ctx, q, outcome, in)
	}

	// Predictions are read before the question leaves OPEN/CLOSED so a failed
	// read leaves nothing changed and the call can be retried.
	var preds []models.Prediction
	if outcome != models.OutcomeVoid {
		preds, err = s.Repo.ListPredictionsByQuestion(ctx, questionID)
		if err != nil {
			return nil, err
		}
	}

	now := clock(s.Now).now()
	res := &models.Resolution{
		QuestionID:  questionID,
		Outcome:     outcome,
		ResolvedAt:  now,
		ProofURL:    trimmedPtr(in.ProofURL),
		Explanation: trimmedPtr(in.Explanation),
	}
	moved, err := s.Repo.ResolveQuestion(ctx, lifecycle.Strings(lifecycle.AllowedFrom(lifecycle.ActionResolve)), res)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Someone else moved the question first; never score twice.
		fresh, err := s.Repo.GetQuestionByID(ctx, questionID)
		if err != nil {
			return nil, err
		}
		if fresh == nil || fresh.Status != string(lifecycle.StatusResolved) {
			return nil, fmt.Errorf("%w: question %d cannot be resolved", ErrInvalidState, questionID)
		}
		return s.reapply(ctx, fresh, outcome, in)
	}

	if outcome != models.OutcomeVoid {
		// Pick up predictions accepted between the first read and the move.
		later, err := s.Repo.ListPredictionsByQuestion(ctx, questionID)
		if err == nil {
			preds = later
		} else if s.Logger != nil {
			s.Logger.Warn("re-read predictions failed, scoring earlier snapshot",
				zap.Uint64("question_id", questionID), zap.Error(err))
		}
	}
	scored, failed := s.award(ctx, questionID, q.SeasonID, outcome, preds)
	fresh, err := s.Repo.GetQuestionByID(ctx, questionID)
	if err != nil || fresh == nil {
		fresh = q
		fresh.Status = string(lifecycle.StatusResolved)
		fresh.ResolvedAt = &now
	}

	if s.Events != nil {
		s.Events.Publish(notify.Event{
			Type:       notify.EventQuestionResolved,
			QuestionID: questionID,
			SeasonID:   q.SeasonID,
			Data:       map[string]any{"outcome": outcome, "scored": scored},
		})
		if scored > 0 {
			s.Events.Publish(notify.Event{Type: notify.EventLeaderboardChanged, SeasonID: q.SeasonID})
		}
	}
	if s.Logger != nil {
		s.Logger.Info("question resolved",
			zap.Uint64("question_id", questionID),
			zap.Uint64("season_id", q.SeasonID),
			zap.String("outcome", outcome),
			zap.Int("scored", scored),
			zap.Int("failed", failed),
		)
	}
	paas.LogBestEffortCtx(ctx, "academy_question_resolved", "info", map[string]any{
		"question_id": questionID,
		"season_id":   q.SeasonID,
		"outcome":     outcome,
		"scored":      scored,
		"failed":      failed,
	})
	return &ResolveResult{Question: *fresh, Resolution: *res, Scored: scored, Failed: failed}, nil
}

// reapply handles resolve on an already RESOLVED question.
func (s *ResolutionService) reapply(ctx context.Context, q *models.Question, outcome string, in ResolveInput) (*ResolveResult, error) {
	existing, err := s.Repo.GetResolutionByQuestionID(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Outcome != outcome {
		return nil, fmt.Errorf("%w: question %d already resolved as %s", ErrInvalidState, q.ID, existing.Outcome)
	}
	if existing == nil {
		existing = &models.Resolution{QuestionID: q.ID, Outcome: outcome, ResolvedAt: clock(s.Now).now()}
	}
	if in.ProofURL != nil {
		existing.ProofURL = trimmedPtr(in.ProofURL)
	}
	if in.Explanation != nil {
		existing.Explanation = trimmedPtr(in.Explanation)
	}
	if err := s.Repo.UpsertResolution(ctx, existing); err != nil {
		return nil, err
	}
	return &ResolveResult{Question: *q, Resolution: *existing, AlreadyResolved: true}, nil
}

// award adds points for each correct predictor. A failed write for one user
// is logged and does not stop the others.
func (s *ResolutionService) award(ctx context.Context, questionID, seasonID uint64, outcome string, preds []models.Prediction) (scored, failed int) {
	if outcome == models.OutcomeVoid {
		return 0, 0
	}
	pts := s.points()
	for _, p := range preds {
		if p.Choice != outcome {
			continue
		}
		if err := s.Repo.IncrementScore(ctx, p.UserID, seasonID, pts); err != nil {
			failed++
			if s.Logger != nil {
				s.Logger.Warn("score update failed",
					zap.Uint64("user_id", p.UserID),
					zap.Uint64("season_id", seasonID),
					zap.Uint64("question_id", questionID),
					zap.Error(err),
				)
			}
			continue
		}
		scored++
	}
	return scored, failed
}

// UpdateMetadata edits proof/explanation of an existing resolution. The
// outcome is never changed here. Empty strings clear a field.
func (s *ResolutionService) UpdateMetadata(ctx context.Context, questionID uint64, proofURL, explanation *string) (*models.Resolution, error) {
	res, err := s.Repo.GetResolutionByQuestionID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: resolution for question %d", ErrNotFound, questionID)
	}
	if proofURL != nil {
		res.ProofURL = trimmedPtr(proofURL)
	}
	if explanation != nil {
		res.Explanation = trimmedPtr(explanation)
	}
	if err := s.Repo.UpsertResolution(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Suggest asks the text generator for a proposed outcome. The answer is
// returned to the admin and never applied automatically.
func (s *ResolutionService) Suggest(ctx context.Context, questionID uint64) (*textgen.Answer, error) {
	q, err := s.Repo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: question %d", ErrNotFound, questionID)
	}
	if s.Generator == nil {
		return nil, fmt.Errorf("%w: text generation is not configured", ErrUpstreamUnavailable)
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ac := textgen.AnswerContext{Prompt: q.Prompt, ClosesAt: q.ClosesAt}
	if q.Ticker != nil {
		ac.Ticker = *q.Ticker
	}
	text, err := s.Generator.Generate(ctx, textgen.AnswerPrompt(ac))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	ans, err := textgen.ParseAnswer(text)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("resolution suggestion unparseable", zap.Uint64("question_id", questionID), zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	return &ans, nil
}

func (s *ResolutionService) List(ctx context.Context, outcome string, limit, offset int) ([]models.Resolution, int64, error) {
	params := repository.ListResolutionsParams{Limit: limit, Offset: offset}
	if o := strings.TrimSpace(outcome); o != "" {
		params.Outcome = &o
	}
	items, err := s.Repo.ListResolutions(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountResolutions(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
