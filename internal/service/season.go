package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"academy/internal/models"
	"academy/internal/repository"
)

type SeasonService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type CreateSeasonInput struct {
	Name     string
	StartAt  time.Time
	EndAt    time.Time
	Activate bool
}

func (s *SeasonService) Create(ctx context.Context, in CreateSeasonInput) (*models.Season, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.StartAt.IsZero() || in.EndAt.IsZero() || !in.EndAt.After(in.StartAt) {
		return nil, fmt.Errorf("%w: end_at must be after start_at", ErrInvalidInput)
	}
	item := &models.Season{
		Name:    name,
		StartAt: in.StartAt.UTC(),
		EndAt:   in.EndAt.UTC(),
	}
	if err := s.Repo.InsertSeason(ctx, item); err != nil {
		return nil, err
	}
	if in.Activate {
		if err := s.Repo.ActivateSeason(ctx, item.ID); err != nil {
			return nil, err
		}
		item.IsActive = true
	}
	if s.Logger != nil {
		s.Logger.Info("season created", zap.Uint64("season_id", item.ID), zap.String("name", name), zap.Bool("active", item.IsActive))
	}
	return item, nil
}

func (s *SeasonService) Get(ctx context.Context, id uint64) (*models.Season, error) {
	item, err := s.Repo.GetSeasonByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: season %d", ErrNotFound, id)
	}
	return item, nil
}

func (s *SeasonService) List(ctx context.Context, activeOnly bool) ([]models.Season, error) {
	return s.Repo.ListSeasons(ctx, repository.ListSeasonsParams{ActiveOnly: activeOnly, Limit: 200})
}

func (s *SeasonService) Activate(ctx context.Context, id uint64) (*models.Season, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.Repo.ActivateSeason(ctx, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Pick returns season id when set, otherwise the active season.
func (s *SeasonService) Pick(ctx context.Context, id uint64) (*models.Season, error) {
	if id > 0 {
		return s.Get(ctx, id)
	}
	item, err := s.Repo.GetActiveSeason(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: no active season", ErrInvalidInput)
	}
	return item, nil
}
