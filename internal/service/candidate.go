package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"academy/internal/models"
	"academy/internal/repository"
)

type CandidateService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type ListCandidatesInput struct {
	Date       *time.Time
	Status     string
	SourceType string
	Limit      int
	Offset     int
}

func (s *CandidateService) List(ctx context.Context, in ListCandidatesInput) ([]models.QuestionCandidate, int64, error) {
	params := repository.ListCandidatesParams{
		Limit:  in.Limit,
		Offset: in.Offset,
		Date:   in.Date,
		Asc:    boolPtr(true),
	}
	if in.Status != "" {
		params.Status = &in.Status
	}
	if in.SourceType != "" {
		params.SourceType = &in.SourceType
	}
	items, err := s.Repo.ListCandidates(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountCandidates(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *CandidateService) Get(ctx context.Context, id uint64) (*models.QuestionCandidate, error) {
	item, err := s.Repo.GetCandidateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: candidate %d", ErrNotFound, id)
	}
	return item, nil
}

// Discard retires a candidate. Already-discarded is a no-op; a SELECTED
// candidate has a question and cannot be discarded.
func (s *CandidateService) Discard(ctx context.Context, id uint64) (*models.QuestionCandidate, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch item.Status {
	case models.CandidateStatusDiscarded:
		return item, nil
	case models.CandidateStatusSelected:
		return nil, fmt.Errorf("%w: candidate %d was already promoted", ErrInvalidState, id)
	}
	ok, err := s.Repo.UpdateCandidateStatus(ctx, id, []string{models.CandidateStatusCandidate}, models.CandidateStatusDiscarded)
	if err != nil {
		return nil, err
	}
	fresh, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok && fresh.Status != models.CandidateStatusDiscarded {
		return nil, fmt.Errorf("%w: candidate %d is %s", ErrInvalidState, id, fresh.Status)
	}
	if s.Logger != nil {
		s.Logger.Info("candidate discarded", zap.Uint64("candidate_id", id))
	}
	return fresh, nil
}
