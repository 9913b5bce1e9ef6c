// Package memory is an in-process Repository used by tests and by local
// runs without a database DSN. One mutex guards all tables.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"

	"academy/internal/lifecycle"
	"academy/internal/models"
	"academy/internal/repository"
)

type scoreKey struct {
	userID   uint64
	seasonID uint64
}

type predictionKey struct {
	userID     uint64
	questionID uint64
}

type Store struct {
	mu sync.Mutex

	nextID uint64

	seasons     map[uint64]models.Season
	candidates  map[uint64]models.QuestionCandidate
	questions   map[uint64]models.Question
	predictions map[predictionKey]models.Prediction
	resolutions map[uint64]models.Resolution
	scores      map[scoreKey]models.Score
	settings    map[string]models.SystemSetting

	// FailIncrementFor makes IncrementScore fail for the listed users.
	FailIncrementFor map[uint64]error
}

func New() *Store {
	return &Store{
		seasons:     map[uint64]models.Season{},
		candidates:  map[uint64]models.QuestionCandidate{},
		questions:   map[uint64]models.Question{},
		predictions: map[predictionKey]models.Prediction{},
		resolutions: map[uint64]models.Resolution{},
		scores:      map[scoreKey]models.Score{},
		settings:    map[string]models.SystemSetting{},
	}
}

var _ repository.Repository = (*Store)(nil)

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// --- seasons ---------------------------------------------------------------

func (s *Store) InsertSeason(ctx context.Context, item *models.Season) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.id()
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	s.seasons[item.ID] = *item
	return nil
}

func (s *Store) GetSeasonByID(ctx context.Context, id uint64) (*models.Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.seasons[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) GetActiveSeason(ctx context.Context) (*models.Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.Season
	for _, item := range s.seasons {
		if !item.IsActive {
			continue
		}
		if best == nil || item.ID > best.ID {
			cp := item
			best = &cp
		}
	}
	return best, nil
}

func (s *Store) ListSeasons(ctx context.Context, params repository.ListSeasonsParams) ([]models.Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Season, 0, len(s.seasons))
	for _, item := range s.seasons {
		if params.ActiveOnly && !item.IsActive {
			continue
		}
		out = append(out, item)
	}
	asc := params.Asc != nil && *params.Asc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].StartAt.After(out[j].StartAt)
	})
	return page(out, params.Limit, params.Offset, 100), nil
}

func (s *Store) ActivateSeason(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for key, item := range s.seasons {
		active := key == id
		if item.IsActive != active {
			item.IsActive = active
			item.UpdatedAt = now
			s.seasons[key] = item
		}
	}
	return nil
}

// --- candidates ------------------------------------------------------------

func (s *Store) InsertCandidate(ctx context.Context, item *models.QuestionCandidate) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.id()
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	s.candidates[item.ID] = *item
	return nil
}

func (s *Store) GetCandidateByID(ctx context.Context, id uint64) (*models.QuestionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.candidates[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) filterCandidates(params repository.ListCandidatesParams) []models.QuestionCandidate {
	out := make([]models.QuestionCandidate, 0)
	for _, item := range s.candidates {
		if params.Date != nil && !params.Date.IsZero() &&
			item.CandidateDate.UTC().Format("2006-01-02") != params.Date.UTC().Format("2006-01-02") {
			continue
		}
		if params.Status != nil && *params.Status != "" && !strings.EqualFold(item.Status, *params.Status) {
			continue
		}
		if params.SourceType != nil && *params.SourceType != "" && !strings.EqualFold(item.SourceType, *params.SourceType) {
			continue
		}
		out = append(out, item)
	}
	asc := params.Asc != nil && *params.Asc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) ListCandidates(ctx context.Context, params repository.ListCandidatesParams) ([]models.QuestionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.filterCandidates(params), params.Limit, params.Offset, 100), nil
}

func (s *Store) CountCandidates(ctx context.Context, params repository.ListCandidatesParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filterCandidates(params))), nil
}

func (s *Store) UpdateCandidateStatus(ctx context.Context, id uint64, from []string, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.candidates[id]
	if !ok {
		return false, nil
	}
	if len(from) > 0 && !containsString(from, item.Status) {
		return false, nil
	}
	item.Status = status
	item.UpdatedAt = time.Now().UTC()
	s.candidates[id] = item
	return true, nil
}

// --- questions -------------------------------------------------------------

func (s *Store) InsertQuestion(ctx context.Context, item *models.Question) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.CandidateID != nil {
		for _, q := range s.questions {
			if q.CandidateID != nil && *q.CandidateID == *item.CandidateID {
				return repository.ErrDuplicate
			}
		}
	}
	item.ID = s.id()
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	s.questions[item.ID] = *item
	return nil
}

func (s *Store) GetQuestionByID(ctx context.Context, id uint64) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) GetQuestionByCandidateID(ctx context.Context, candidateID uint64) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.questions {
		if item.CandidateID != nil && *item.CandidateID == candidateID {
			cp := item
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) filterQuestions(params repository.ListQuestionsParams) []models.Question {
	out := make([]models.Question, 0)
	for _, item := range s.questions {
		if params.SeasonID != nil && *params.SeasonID > 0 && item.SeasonID != *params.SeasonID {
			continue
		}
		if len(params.Statuses) > 0 && !containsString(params.Statuses, item.Status) {
			continue
		}
		if params.Ticker != nil && *params.Ticker != "" && (item.Ticker == nil || *item.Ticker != *params.Ticker) {
			continue
		}
		if params.ClosesAfter != nil && !params.ClosesAfter.IsZero() && !item.ClosesAt.After(*params.ClosesAfter) {
			continue
		}
		out = append(out, item)
	}
	asc := params.Asc != nil && *params.Asc
	byClose := params.OrderBy == "closes_at"
	sort.Slice(out, func(i, j int) bool {
		less := out[i].ID < out[j].ID
		if byClose && !out[i].ClosesAt.Equal(out[j].ClosesAt) {
			less = out[i].ClosesAt.Before(out[j].ClosesAt)
		}
		if asc {
			return less
		}
		return !less
	})
	return out
}

func (s *Store) ListQuestions(ctx context.Context, params repository.ListQuestionsParams) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.filterQuestions(params), params.Limit, params.Offset, 200), nil
}

func (s *Store) CountQuestions(ctx context.Context, params repository.ListQuestionsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filterQuestions(params))), nil
}

func (s *Store) UpdateQuestionFields(ctx context.Context, id uint64, statuses []string, u repository.QuestionUpdate) (bool, error) {
	if u.Empty() {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.questions[id]
	if !ok {
		return false, nil
	}
	if len(statuses) > 0 && !containsString(statuses, item.Status) {
		return false, nil
	}
	if u.Ticker != nil {
		if t := strings.TrimSpace(*u.Ticker); t != "" {
			item.Ticker = &t
		} else {
			item.Ticker = nil
		}
	}
	if u.Prompt != nil {
		item.Prompt = *u.Prompt
	}
	if u.Pros != nil {
		item.Pros = datatypes.JSON(u.Pros)
	}
	if u.Cons != nil {
		item.Cons = datatypes.JSON(u.Cons)
	}
	if u.Importance != nil {
		item.Importance = *u.Importance
	}
	if u.Impact != nil {
		item.Impact = *u.Impact
	}
	if u.ClosesAt != nil {
		item.ClosesAt = u.ClosesAt.UTC()
	}
	item.UpdatedAt = time.Now().UTC()
	s.questions[id] = item
	return true, nil
}

func (s *Store) TransitionQuestionStatus(ctx context.Context, id uint64, from []string, to string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(id, from, to, at), nil
}

func (s *Store) transitionLocked(id uint64, from []string, to string, at time.Time) bool {
	item, ok := s.questions[id]
	if !ok || !containsString(from, item.Status) {
		return false
	}
	at = at.UTC()
	item.Status = to
	item.UpdatedAt = at
	switch lifecycle.Status(to) {
	case lifecycle.StatusOpen:
		item.OpenedAt = &at
	case lifecycle.StatusClosed:
		item.ClosedAt = &at
	case lifecycle.StatusResolved:
		item.ResolvedAt = &at
	}
	s.questions[id] = item
	return true
}

func (s *Store) ListExpiredOpenQuestionIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.Question, 0)
	for _, item := range s.questions {
		if item.Status == string(lifecycle.StatusOpen) && item.ClosesAt.Before(now) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ClosesAt.Before(items[j].ClosesAt) })
	items = page(items, limit, 0, 500)
	ids := make([]uint64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

func (s *Store) ResolveQuestion(ctx context.Context, from []string, item *models.Resolution) (bool, error) {
	if item == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transitionLocked(item.QuestionID, from, string(lifecycle.StatusResolved), item.ResolvedAt) {
		return false, nil
	}
	item.UpdatedAt = time.Now().UTC()
	s.resolutions[item.QuestionID] = *item
	return true, nil
}

// --- predictions -----------------------------------------------------------

func (s *Store) InsertPrediction(ctx context.Context, item *models.Prediction) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := predictionKey{userID: item.UserID, questionID: item.QuestionID}
	if _, ok := s.predictions[key]; ok {
		return repository.ErrDuplicate
	}
	item.ID = s.id()
	s.predictions[key] = *item
	return nil
}

func (s *Store) GetPrediction(ctx context.Context, userID, questionID uint64) (*models.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.predictions[predictionKey{userID: userID, questionID: questionID}]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) ListPredictionsByQuestion(ctx context.Context, questionID uint64) ([]models.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Prediction, 0)
	for key, item := range s.predictions {
		if key.questionID == questionID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) filterPredictions(params repository.ListPredictionsParams) []models.Prediction {
	out := make([]models.Prediction, 0)
	for _, item := range s.predictions {
		if params.UserID != nil && item.UserID != *params.UserID {
			continue
		}
		if params.QuestionID != nil && item.QuestionID != *params.QuestionID {
			continue
		}
		if params.SeasonID != nil && *params.SeasonID > 0 {
			q, ok := s.questions[item.QuestionID]
			if !ok || q.SeasonID != *params.SeasonID {
				continue
			}
		}
		out = append(out, item)
	}
	asc := params.Asc != nil && *params.Asc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *Store) ListPredictions(ctx context.Context, params repository.ListPredictionsParams) ([]models.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.filterPredictions(params), params.Limit, params.Offset, 200), nil
}

func (s *Store) CountPredictions(ctx context.Context, params repository.ListPredictionsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filterPredictions(params))), nil
}

func (s *Store) UserOutcomeStats(ctx context.Context, userID, seasonID uint64) (repository.OutcomeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out repository.OutcomeStats
	for key, p := range s.predictions {
		if key.userID != userID {
			continue
		}
		q, ok := s.questions[key.questionID]
		if !ok || q.SeasonID != seasonID {
			continue
		}
		out.Submissions++
		if q.Status != string(lifecycle.StatusResolved) {
			continue
		}
		r, ok := s.resolutions[key.questionID]
		if !ok || r.Outcome == models.OutcomeVoid {
			continue
		}
		out.Resolved++
		if r.Outcome == p.Choice {
			out.Correct++
		}
	}
	return out, nil
}

// --- resolutions -----------------------------------------------------------

func (s *Store) UpsertResolution(ctx context.Context, item *models.Resolution) error {
	if item == nil || item.QuestionID == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.UpdatedAt = time.Now().UTC()
	s.resolutions[item.QuestionID] = *item
	return nil
}

func (s *Store) GetResolutionByQuestionID(ctx context.Context, questionID uint64) (*models.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.resolutions[questionID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) filterResolutions(params repository.ListResolutionsParams) []models.Resolution {
	out := make([]models.Resolution, 0, len(s.resolutions))
	for _, item := range s.resolutions {
		if params.Outcome != nil && *params.Outcome != "" && !strings.EqualFold(item.Outcome, *params.Outcome) {
			continue
		}
		out = append(out, item)
	}
	asc := params.Asc != nil && *params.Asc
	sort.Slice(out, func(i, j int) bool {
		less := out[i].ResolvedAt.Before(out[j].ResolvedAt) ||
			(out[i].ResolvedAt.Equal(out[j].ResolvedAt) && out[i].QuestionID < out[j].QuestionID)
		if asc {
			return less
		}
		return !less
	})
	return out
}

func (s *Store) ListResolutions(ctx context.Context, params repository.ListResolutionsParams) ([]models.Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.filterResolutions(params), params.Limit, params.Offset, 200), nil
}

func (s *Store) CountResolutions(ctx context.Context, params repository.ListResolutionsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filterResolutions(params))), nil
}

// --- scores ----------------------------------------------------------------

func (s *Store) IncrementScore(ctx context.Context, userID, seasonID uint64, delta int64) error {
	if delta == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.FailIncrementFor[userID]; ok {
		return err
	}
	key := scoreKey{userID: userID, seasonID: seasonID}
	item, ok := s.scores[key]
	if !ok {
		item = models.Score{ID: s.id(), UserID: userID, SeasonID: seasonID}
	}
	item.TotalPoints += delta
	item.UpdatedAt = time.Now().UTC()
	s.scores[key] = item
	return nil
}

func (s *Store) GetScore(ctx context.Context, userID, seasonID uint64) (*models.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.scores[scoreKey{userID: userID, seasonID: seasonID}]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) ListScoresBySeason(ctx context.Context, seasonID uint64) ([]models.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Score, 0)
	for key, item := range s.scores {
		if key.seasonID == seasonID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// --- system settings -------------------------------------------------------

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if item == nil {
		return nil
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.settings[item.Key]; ok {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		item.ID = s.id()
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	s.settings[item.Key] = *item
	return nil
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.settings[strings.TrimSpace(key)]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) filterSettings(params repository.ListSystemSettingsParams) []models.SystemSetting {
	out := make([]models.SystemSetting, 0, len(s.settings))
	for key, item := range s.settings {
		if params.Prefix != nil && !strings.HasPrefix(key, strings.TrimSpace(*params.Prefix)) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *Store) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.filterSettings(params), params.Limit, params.Offset, 500), nil
}

func (s *Store) CountSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filterSettings(params))), nil
}

// --- helpers ---------------------------------------------------------------

func page[T any](items []T, limit, offset, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
