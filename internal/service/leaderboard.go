package service

import (
	"context"

	"github.com/shopspring/decimal"

	"academy/internal/ranking"
	"academy/internal/repository"
)

type LeaderboardService struct {
	Repo    repository.Repository
	Seasons *SeasonService
}

type UserScoreReport struct {
	UserID      uint64 `json:"user_id"`
	SeasonID    uint64 `json:"season_id"`
	TotalPoints int64  `json:"total_points"`
	// Rank is 0 when the user has no score row in the season.
	Rank        int             `json:"rank"`
	Submissions int64           `json:"submissions"`
	Resolved    int64           `json:"resolved"`
	Correct     int64           `json:"correct"`
	Accuracy    decimal.Decimal `json:"accuracy"`
}

// Leaderboard ranks a season's scores on every call.
func (s *LeaderboardService) Leaderboard(ctx context.Context, seasonID uint64) ([]ranking.Entry, error) {
	if _, err := s.Seasons.Get(ctx, seasonID); err != nil {
		return nil, err
	}
	return s.rank(ctx, seasonID)
}

func (s *LeaderboardService) rank(ctx context.Context, seasonID uint64) ([]ranking.Entry, error) {
	rows, err := s.Repo.ListScoresBySeason(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	scores := make([]ranking.Score, 0, len(rows))
	for _, r := range rows {
		scores = append(scores, ranking.Score{UserID: r.UserID, SeasonID: r.SeasonID, TotalPoints: r.TotalPoints})
	}
	return ranking.Rank(scores), nil
}

// UserScore reports a user's standing. A user with no awards gets 0 points.
// seasonID 0 means the active season.
func (s *LeaderboardService) UserScore(ctx context.Context, userID, seasonID uint64) (*UserScoreReport, error) {
	season, err := s.Seasons.Pick(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	out := &UserScoreReport{UserID: userID, SeasonID: season.ID, Accuracy: decimal.Zero}

	score, err := s.Repo.GetScore(ctx, userID, season.ID)
	if err != nil {
		return nil, err
	}
	if score != nil {
		out.TotalPoints = score.TotalPoints
		entries, err := s.rank(ctx, season.ID)
		if err != nil {
			return nil, err
		}
		if e, ok := ranking.Find(entries, userID); ok {
			out.Rank = e.Rank
		}
	}

	stats, err := s.Repo.UserOutcomeStats(ctx, userID, season.ID)
	if err != nil {
		return nil, err
	}
	out.Submissions = stats.Submissions
	out.Resolved = stats.Resolved
	out.Correct = stats.Correct
	if stats.Resolved > 0 {
		out.Accuracy = decimal.NewFromInt(stats.Correct).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(stats.Resolved)).
			Round(2)
	}
	return out, nil
}
