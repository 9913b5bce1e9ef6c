package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"academy/internal/lifecycle"
	"academy/internal/models"
	"academy/internal/repository"
)

type PredictionService struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Now    func() time.Time
}

func NormalizeChoice(raw string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(raw))
	switch c {
	case models.ChoiceO, models.ChoiceX:
		return c, true
	default:
		return "", false
	}
}

// Submit records userID's choice on questionID. The question must be OPEN
// and not past closes_at; a second submission for the same pair is a
// Conflict and writes nothing.
func (s *PredictionService) Submit(ctx context.Context, userID, questionID uint64, choice string) (*models.Prediction, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	c, ok := NormalizeChoice(choice)
	if !ok {
		return nil, fmt.Errorf("%w: choice must be O or X", ErrInvalidInput)
	}
	q, err := s.Repo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: question %d", ErrNotFound, questionID)
	}
	now := clock(s.Now).now()
	if !lifecycle.AcceptsPredictions(lifecycle.Status(q.Status)) || !q.ClosesAt.After(now) {
		return nil, fmt.Errorf("%w: question %d is not accepting predictions", ErrInvalidState, questionID)
	}
	existing, err := s.Repo.GetPrediction(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: already submitted", ErrConflict)
	}
	item := &models.Prediction{
		UserID:      userID,
		QuestionID:  questionID,
		Choice:      c,
		SubmittedAt: now,
	}
	if err := s.Repo.InsertPrediction(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: already submitted", ErrConflict)
		}
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Debug("prediction submitted", zap.Uint64("user_id", userID), zap.Uint64("question_id", questionID))
	}
	return item, nil
}

// ListForUser returns the caller's predictions, newest first.
func (s *PredictionService) ListForUser(ctx context.Context, userID, seasonID uint64, limit, offset int) ([]models.Prediction, int64, error) {
	params := repository.ListPredictionsParams{
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	}
	if seasonID > 0 {
		params.SeasonID = &seasonID
	}
	items, err := s.Repo.ListPredictions(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountPredictions(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
