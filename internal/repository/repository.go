package repository

import (
	"context"
	"errors"
	"time"

	"academy/internal/models"
)

// ErrDuplicate is returned when an insert violates a unique key
// (prediction per user+question, question per candidate).
var ErrDuplicate = errors.New("duplicate key")

// Repository is the persistence contract shared by the postgres store and
// the in-memory store. Getters return (nil, nil) for a missing row.
type Repository interface {
	Ping(ctx context.Context) error

	// Seasons
	InsertSeason(ctx context.Context, item *models.Season) error
	GetSeasonByID(ctx context.Context, id uint64) (*models.Season, error)
	GetActiveSeason(ctx context.Context) (*models.Season, error)
	ListSeasons(ctx context.Context, params ListSeasonsParams) ([]models.Season, error)
	ActivateSeason(ctx context.Context, id uint64) error

	// Candidates
	InsertCandidate(ctx context.Context, item *models.QuestionCandidate) error
	GetCandidateByID(ctx context.Context, id uint64) (*models.QuestionCandidate, error)
	ListCandidates(ctx context.Context, params ListCandidatesParams) ([]models.QuestionCandidate, error)
	CountCandidates(ctx context.Context, params ListCandidatesParams) (int64, error)
	// UpdateCandidateStatus moves a candidate to status only when its current
	// status is in from. Returns false when nothing changed.
	UpdateCandidateStatus(ctx context.Context, id uint64, from []string, status string) (bool, error)

	// Questions
	InsertQuestion(ctx context.Context, item *models.Question) error
	GetQuestionByID(ctx context.Context, id uint64) (*models.Question, error)
	GetQuestionByCandidateID(ctx context.Context, candidateID uint64) (*models.Question, error)
	ListQuestions(ctx context.Context, params ListQuestionsParams) ([]models.Question, error)
	CountQuestions(ctx context.Context, params ListQuestionsParams) (int64, error)
	// UpdateQuestionFields applies updates only while status is in statuses.
	UpdateQuestionFields(ctx context.Context, id uint64, statuses []string, updates QuestionUpdate) (bool, error)
	// TransitionQuestionStatus is a conditional status move (compare-and-set).
	TransitionQuestionStatus(ctx context.Context, id uint64, from []string, to string, at time.Time) (bool, error)
	ListExpiredOpenQuestionIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error)
	// ResolveQuestion moves the question to RESOLVED and upserts its
	// resolution as one unit. Returns false (and writes nothing) when the
	// question status is not in from.
	ResolveQuestion(ctx context.Context, from []string, item *models.Resolution) (bool, error)

	// Predictions
	InsertPrediction(ctx context.Context, item *models.Prediction) error
	GetPrediction(ctx context.Context, userID, questionID uint64) (*models.Prediction, error)
	ListPredictionsByQuestion(ctx context.Context, questionID uint64) ([]models.Prediction, error)
	ListPredictions(ctx context.Context, params ListPredictionsParams) ([]models.Prediction, error)
	CountPredictions(ctx context.Context, params ListPredictionsParams) (int64, error)
	UserOutcomeStats(ctx context.Context, userID, seasonID uint64) (OutcomeStats, error)

	// Resolutions
	UpsertResolution(ctx context.Context, item *models.Resolution) error
	GetResolutionByQuestionID(ctx context.Context, questionID uint64) (*models.Resolution, error)
	ListResolutions(ctx context.Context, params ListResolutionsParams) ([]models.Resolution, error)
	CountResolutions(ctx context.Context, params ListResolutionsParams) (int64, error)

	// Scores
	// IncrementScore adds delta to (userID, seasonID), creating the row at
	// delta when absent. Concurrent calls on the same key must all apply.
	IncrementScore(ctx context.Context, userID, seasonID uint64, delta int64) error
	GetScore(ctx context.Context, userID, seasonID uint64) (*models.Score, error)
	ListScoresBySeason(ctx context.Context, seasonID uint64) ([]models.Score, error)

	// System settings
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
	CountSystemSettings(ctx context.Context, params ListSystemSettingsParams) (int64, error)
}

type ListSeasonsParams struct {
	Limit      int
	Offset     int
	ActiveOnly bool
	OrderBy    string
	Asc        *bool
}

type ListCandidatesParams struct {
	Limit      int
	Offset     int
	Date       *time.Time
	Status     *string
	SourceType *string
	OrderBy    string
	Asc        *bool
}

type ListQuestionsParams struct {
	Limit       int
	Offset      int
	SeasonID    *uint64
	Statuses    []string
	Ticker      *string
	ClosesAfter *time.Time
	OrderBy     string
	Asc         *bool
}

// QuestionUpdate carries editable question fields; nil means unchanged.
type QuestionUpdate struct {
	Ticker     *string
	Prompt     *string
	Pros       []byte
	Cons       []byte
	Importance *string
	Impact     *string
	ClosesAt   *time.Time
}

func (u QuestionUpdate) Empty() bool {
	return u.Ticker == nil && u.Prompt == nil && u.Pros == nil && u.Cons == nil &&
		u.Importance == nil && u.Impact == nil && u.ClosesAt == nil
}

type ListPredictionsParams struct {
	Limit      int
	Offset     int
	UserID     *uint64
	QuestionID *uint64
	SeasonID   *uint64
	OrderBy    string
	Asc        *bool
}

type ListResolutionsParams struct {
	Limit   int
	Offset  int
	Outcome *string
	OrderBy string
	Asc     *bool
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}

// OutcomeStats summarises a user's predictions in one season. Resolved
// excludes VOID outcomes; Correct counts choices equal to the outcome.
type OutcomeStats struct {
	Submissions int64
	Resolved    int64
	Correct     int64
}
