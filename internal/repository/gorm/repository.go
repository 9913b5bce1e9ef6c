package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"academy/internal/lifecycle"
	"academy/internal/models"
	"academy/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.Repository = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.PingContext(ctx)
}

// --- seasons ---------------------------------------------------------------

func (s *Store) InsertSeason(ctx context.Context, item *models.Season) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetSeasonByID(ctx context.Context, id uint64) (*models.Season, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Season
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	return found(&item, err)
}

func (s *Store) GetActiveSeason(ctx context.Context) (*models.Season, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Season
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id desc").First(&item).Error
	return found(&item, err)
}

func (s *Store) ListSeasons(ctx context.Context, params repository.ListSeasonsParams) ([]models.Season, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Season{})
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "start_at")
	var items []models.Season
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ActivateSeason makes id the only active season.
func (s *Store) ActivateSeason(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Season{}).
			Where("id <> ? AND is_active = ?", id, true).
			Updates(map[string]any{"is_active": false, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Season{}).
			Where("id = ?", id).
			Updates(map[string]any{"is_active": true, "updated_at": now}).Error
	})
}

// --- candidates ------------------------------------------------------------

func (s *Store) InsertCandidate(ctx context.Context, item *models.QuestionCandidate) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetCandidateByID(ctx context.Context, id uint64) (*models.QuestionCandidate, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.QuestionCandidate
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	return found(&item, err)
}

func (s *Store) candidateQuery(ctx context.Context, params repository.ListCandidatesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.QuestionCandidate{})
	if params.Date != nil && !params.Date.IsZero() {
		query = query.Where("candidate_date = ?", params.Date.UTC().Format("2006-01-02"))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.ToUpper(strings.TrimSpace(*params.Status)))
	}
	if params.SourceType != nil && strings.TrimSpace(*params.SourceType) != "" {
		query = query.Where("source_type = ?", strings.ToUpper(strings.TrimSpace(*params.SourceType)))
	}
	return query
}

func (s *Store) ListCandidates(ctx context.Context, params repository.ListCandidatesParams) ([]models.QuestionCandidate, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOrder(s.candidateQuery(ctx, params), params.OrderBy, params.Asc, "id")
	var items []models.QuestionCandidate
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountCandidates(ctx context.Context, params repository.ListCandidatesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.candidateQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateCandidateStatus(ctx context.Context, id uint64, from []string, status string) (bool, error) {
	if s == nil || s.db == nil || id == 0 {
		return false, nil
	}
	query := s.db.WithContext(ctx).Model(&models.QuestionCandidate{}).Where("id = ?", id)
	if len(from) > 0 {
		query = query.Where("status IN ?", from)
	}
	res := query.Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// --- questions -------------------------------------------------------------

func (s *Store) InsertQuestion(ctx context.Context, item *models.Question) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) GetQuestionByID(ctx context.Context, id uint64) (*models.Question, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Question
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	return found(&item, err)
}

func (s *Store) GetQuestionByCandidateID(ctx context.Context, candidateID uint64) (*models.Question, error) {
	if s == nil || s.db == nil || candidateID == 0 {
		return nil, nil
	}
	var item models.Question
	err := s.db.WithContext(ctx).Where("candidate_id = ?", candidateID).First(&item).Error
	return found(&item, err)
}

func (s *Store) questionQuery(ctx context.Context, params repository.ListQuestionsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Question{})
	if params.SeasonID != nil && *params.SeasonID > 0 {
		query = query.Where("season_id = ?", *params.SeasonID)
	}
	if statuses := cleanStrings(params.Statuses); len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if params.Ticker != nil && strings.TrimSpace(*params.Ticker) != "" {
		query = query.Where("ticker = ?", strings.TrimSpace(*params.Ticker))
	}
	if params.ClosesAfter != nil && !params.ClosesAfter.IsZero() {
		query = query.Where("closes_at > ?", *params.ClosesAfter)
	}
	return query
}

func (s *Store) ListQuestions(ctx context.Context, params repository.ListQuestionsParams) ([]models.Question, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOrder(s.questionQuery(ctx, params), params.OrderBy, params.Asc, "id")
	var items []models.Question
	if err := query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountQuestions(ctx context.Context, params repository.ListQuestionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.questionQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateQuestionFields(ctx context.Context, id uint64, statuses []string, u repository.QuestionUpdate) (bool, error) {
	if s == nil || s.db == nil || id == 0 || u.Empty() {
		return false, nil
	}
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if u.Ticker != nil {
		if t := strings.TrimSpace(*u.Ticker); t != "" {
			updates["ticker"] = t
		} else {
			updates["ticker"] = nil
		}
	}
	if u.Prompt != nil {
		updates["prompt"] = *u.Prompt
	}
	if u.Pros != nil {
		updates["pros"] = datatypes.JSON(u.Pros)
	}
	if u.Cons != nil {
		updates["cons"] = datatypes.JSON(u.Cons)
	}
	if u.Importance != nil {
		updates["importance"] = *u.Importance
	}
	if u.Impact != nil {
		updates["impact"] = *u.Impact
	}
	if u.ClosesAt != nil {
		updates["closes_at"] = u.ClosesAt.UTC()
	}
	query := s.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) TransitionQuestionStatus(ctx context.Context, id uint64, from []string, to string, at time.Time) (bool, error) {
	if s == nil || s.db == nil || id == 0 || len(from) == 0 {
		return false, nil
	}
	at = at.UTC()
	updates := map[string]any{"status": to, "updated_at": at}
	switch lifecycle.Status(to) {
	case lifecycle.StatusOpen:
		updates["opened_at"] = at
	case lifecycle.StatusClosed:
		updates["closed_at"] = at
	case lifecycle.StatusResolved:
		updates["resolved_at"] = at
	}
	res := s.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListExpiredOpenQuestionIDs(ctx context.Context, now time.Time, limit int) ([]uint64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&models.Question{}).
		Where("status = ? AND closes_at < ?", string(lifecycle.StatusOpen), now.UTC()).
		Order("closes_at asc").
		Limit(normalizeLimit(limit, 500)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) ResolveQuestion(ctx context.Context, from []string, item *models.Resolution) (bool, error) {
	if s == nil || s.db == nil || item == nil || item.QuestionID == 0 || len(from) == 0 {
		return false, nil
	}
	moved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		at := item.ResolvedAt.UTC()
		res := tx.Model(&models.Question{}).
			Where("id = ? AND status IN ?", item.QuestionID, from).
			Updates(map[string]any{
				"status":      string(lifecycle.StatusResolved),
				"resolved_at": at,
				"updated_at":  at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		moved = true
		return upsertResolution(tx, item)
	})
	if err != nil {
		return false, err
	}
	return moved, nil
}

// --- predictions -----------------------------------------------------------

func (s *Store) InsertPrediction(ctx context.Context, item *models.Prediction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) GetPrediction(ctx context.Context, userID, questionID uint64) (*models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Prediction
	err := s.db.WithContext(ctx).Where("user_id = ? AND question_id = ?", userID, questionID).First(&item).Error
	return found(&item, err)
}

func (s *Store) ListPredictionsByQuestion(ctx context.Context, questionID uint64) ([]models.Prediction, error) {
	if s == nil || s.db == nil || questionID == 0 {
		return nil, nil
	}
	var items []models.Prediction
	if err := s.db.WithContext(ctx).Where("question_id = ?", questionID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) predictionQuery(ctx context.Context, params repository.ListPredictionsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Prediction{})
	if params.UserID != nil {
		query = query.Where("predictions.user_id = ?", *params.UserID)
	}
	if params.QuestionID != nil {
		query = query.Where("predictions.question_id = ?", *params.QuestionID)
	}
	if params.SeasonID != nil && *params.SeasonID > 0 {
		query = query.Joins("JOIN questions ON questions.id = predictions.question_id").
			Where("questions.season_id = ?", *params.SeasonID)
	}
	return query
}

func (s *Store) ListPredictions(ctx context.Context, params repository.ListPredictionsParams) ([]models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	orderBy := params.OrderBy
	if orderBy == "" {
		orderBy = "predictions.submitted_at"
	}
	query := applyOrder(s.predictionQuery(ctx, params), orderBy, params.Asc, "predictions.submitted_at")
	var items []models.Prediction
	if err := query.Select("predictions.*").Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountPredictions(ctx context.Context, params repository.ListPredictionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.predictionQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UserOutcomeStats(ctx context.Context, userID, seasonID uint64) (repository.OutcomeStats, error) {
	var out repository.OutcomeStats
	if s == nil || s.db == nil {
		return out, nil
	}
	type row struct {
		Submissions int64
		Resolved    int64
		Correct     int64
	}
	var r row
	err := s.db.WithContext(ctx).Raw(`
SELECT
  COUNT(*) AS submissions,
  COUNT(*) FILTER (WHERE q.status = ? AND r.outcome IS NOT NULL AND r.outcome <> ?) AS resolved,
  COUNT(*) FILTER (WHERE q.status = ? AND r.outcome = p.choice) AS correct
FROM predictions p
JOIN questions q ON q.id = p.question_id
LEFT JOIN resolutions r ON r.question_id = p.question_id
WHERE p.user_id = ? AND q.season_id = ?`,
		string(lifecycle.StatusResolved), models.OutcomeVoid,
		string(lifecycle.StatusResolved),
		userID, seasonID,
	).Scan(&r).Error
	if err != nil {
		return out, err
	}
	out.Submissions = r.Submissions
	out.Resolved = r.Resolved
	out.Correct = r.Correct
	return out, nil
}

// --- resolutions -----------------------------------------------------------

func (s *Store) UpsertResolution(ctx context.Context, item *models.Resolution) error {
	if s == nil || s.db == nil || item == nil || item.QuestionID == 0 {
		return nil
	}
	return upsertResolution(s.db.WithContext(ctx), item)
}

func upsertResolution(db *gorm.DB, item *models.Resolution) error {
	item.UpdatedAt = time.Now().UTC()
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"outcome",
			"resolved_at",
			"proof_url",
			"explanation",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetResolutionByQuestionID(ctx context.Context, questionID uint64) (*models.Resolution, error) {
	if s == nil || s.db == nil || questionID == 0 {
		return nil, nil
	}
	var item models.Resolution
	err := s.db.WithContext(ctx).Where("question_id = ?", questionID).First(&item).Error
	return found(&item, err)
}

func (s *Store) resolutionQuery(ctx context.Context, params repository.ListResolutionsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Resolution{})
	if params.Outcome != nil && strings.TrimSpace(*params.Outcome) != "" {
		query = query.Where("outcome = ?", strings.ToUpper(strings.TrimSpace(*params.Outcome)))
	}
	return query
}

func (s *Store) ListResolutions(ctx context.Context, params repository.ListResolutionsParams) ([]models.Resolution, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOrder(s.resolutionQuery(ctx, params), params.OrderBy, params.Asc, "resolved_at")
	var items []models.Resolution
	if err := query.Limit(normalizeLimit(params.Limit, 200)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountResolutions(ctx context.Context, params repository.ListResolutionsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.resolutionQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// --- scores ----------------------------------------------------------------

// IncrementScore is a single upsert so that concurrent awards to the same
// (user, season) are all applied by the database.
func (s *Store) IncrementScore(ctx context.Context, userID, seasonID uint64, delta int64) error {
	if s == nil || s.db == nil || delta == 0 {
		return nil
	}
	now := time.Now().UTC()
	item := &models.Score{
		UserID:      userID,
		SeasonID:    seasonID,
		TotalPoints: delta,
		UpdatedAt:   now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "season_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_points": gorm.Expr("scores.total_points + ?", delta),
			"updated_at":   now,
		}),
	}).Create(item).Error
}

func (s *Store) GetScore(ctx context.Context, userID, seasonID uint64) (*models.Score, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Score
	err := s.db.WithContext(ctx).Where("user_id = ? AND season_id = ?", userID, seasonID).First(&item).Error
	return found(&item, err)
}

func (s *Store) ListScoresBySeason(ctx context.Context, seasonID uint64) ([]models.Score, error) {
	if s == nil || s.db == nil || seasonID == 0 {
		return nil, nil
	}
	var items []models.Score
	if err := s.db.WithContext(ctx).Where("season_id = ?", seasonID).Order("total_points desc, user_id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- system settings -------------------------------------------------------

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).Model(&models.SystemSetting{}).Where("key = ?", key).First(&item).Error
	return found(&item, err)
}

func (s *Store) settingsQuery(ctx context.Context, params repository.ListSystemSettingsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.SystemSetting{})
	if params.Prefix != nil && strings.TrimSpace(*params.Prefix) != "" {
		query = query.Where("key LIKE ?", strings.TrimSpace(*params.Prefix)+"%")
	}
	return query
}

func (s *Store) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOrder(s.settingsQuery(ctx, params), params.OrderBy, params.Asc, "key")
	var items []models.SystemSetting
	if err := query.Limit(normalizeLimit(params.Limit, 500)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.settingsQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// --- helpers ---------------------------------------------------------------

func found[T any](item *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	return err
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
