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
	"academy/internal/notify"
	"academy/internal/repository"
)

// QuestionService owns the question lifecycle: creation and promotion,
// confirm, close (forced or expired) and edits.
type QuestionService struct {
	Repo    repository.Repository
	Seasons *SeasonService
	Events  notify.Publisher
	Flags   *SystemSettingsService
	Logger  *zap.Logger
	Now     func() time.Time
}

type CreateQuestionInput struct {
	SeasonID    uint64
	CandidateID *uint64
	Ticker      *string
	Prompt      string
	Pros        []string
	Cons        []string
	Importance  string
	Impact      string
	ClosesAt    time.Time
}

type UpdateQuestionInput struct {
	Ticker     *string
	Prompt     *string
	Pros       []string
	Cons       []string
	Importance *string
	Impact     *string
	ClosesAt   *time.Time
}

type QuestionDetail struct {
	Question   models.Question    `json:"question"`
	Resolution *models.Resolution `json:"resolution,omitempty"`
}

type ListQuestionsInput struct {
	SeasonID uint64
	Statuses []string
	Limit    int
	Offset   int
}

// Create inserts a DRAFT question. With CandidateID set it promotes that
// candidate instead; created is false when the candidate was already promoted.
func (s *QuestionService) Create(ctx context.Context, in CreateQuestionInput) (q *models.Question, created bool, err error) {
	if in.CandidateID != nil && *in.CandidateID > 0 {
		return s.Promote(ctx, *in.CandidateID, in)
	}
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, false, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if in.ClosesAt.IsZero() {
		return nil, false, fmt.Errorf("%w: closes_at is required", ErrInvalidInput)
	}
	season, err := s.Seasons.Pick(ctx, in.SeasonID)
	if err != nil {
		return nil, false, err
	}
	item := &models.Question{
		SeasonID:   season.ID,
		Ticker:     trimmedPtr(in.Ticker),
		Prompt:     prompt,
		Pros:       reasonsJSON(in.Pros),
		Cons:       reasonsJSON(in.Cons),
		Importance: strings.TrimSpace(in.Importance),
		Impact:     strings.TrimSpace(in.Impact),
		ClosesAt:   in.ClosesAt.UTC(),
		Status:     string(lifecycle.StatusDraft),
	}
	if err := s.Repo.InsertQuestion(ctx, item); err != nil {
		return nil, false, err
	}
	s.logInfo("question created", zap.Uint64("question_id", item.ID), zap.Uint64("season_id", item.SeasonID))
	return item, true, nil
}

// Promote turns a candidate into a DRAFT question. The question insert is
// authoritative; marking the candidate SELECTED is best-effort. Promoting the
// same candidate again returns the existing question.
func (s *QuestionService) Promote(ctx context.Context, candidateID uint64, in CreateQuestionInput) (*models.Question, bool, error) {
	cand, err := s.Repo.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, false, err
	}
	if cand == nil {
		return nil, false, fmt.Errorf("%w: candidate %d", ErrNotFound, candidateID)
	}
	existing, err := s.Repo.GetQuestionByCandidateID(ctx, candidateID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		s.markSelected(ctx, candidateID)
		return existing, false, nil
	}
	if cand.Status == models.CandidateStatusDiscarded {
		return nil, false, fmt.Errorf("%w: candidate %d is discarded", ErrInvalidState, candidateID)
	}
	season, err := s.Seasons.Pick(ctx, in.SeasonID)
	if err != nil {
		return nil, false, err
	}

	closesAt := in.ClosesAt.UTC()
	if in.ClosesAt.IsZero() {
		closesAt = dateOnly(cand.CandidateDate).Add(24 * time.Hour)
	}
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		prompt = cand.Prompt
	}
	ticker := trimmedPtr(in.Ticker)
	if ticker == nil {
		ticker = trimmedPtr(cand.Ticker)
	}
	item := &models.Question{
		SeasonID:    season.ID,
		CandidateID: &cand.ID,
		Ticker:      ticker,
		Prompt:      prompt,
		Pros:        cand.Pros,
		Cons:        cand.Cons,
		Importance:  cand.Importance,
		Impact:      cand.Impact,
		ClosesAt:    closesAt,
		Status:      string(lifecycle.StatusDraft),
	}
	if in.Pros != nil {
		item.Pros = reasonsJSON(in.Pros)
	}
	if in.Cons != nil {
		item.Cons = reasonsJSON(in.Cons)
	}
	if len(item.Pros) == 0 {
		item.Pros = reasonsJSON(nil)
	}
	if len(item.Cons) == 0 {
		item.Cons = reasonsJSON(nil)
	}
	if v := strings.TrimSpace(in.Importance); v != "" {
		item.Importance = v
	}
	if v := strings.TrimSpace(in.Impact); v != "" {
		item.Impact = v
	}

	if err := s.Repo.InsertQuestion(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a concurrent promotion of the same candidate.
			winner, gerr := s.Repo.GetQuestionByCandidateID(ctx, candidateID)
			if gerr == nil && winner != nil {
				s.markSelected(ctx, candidateID)
				return winner, false, nil
			}
		}
		return nil, false, err
	}
	s.markSelected(ctx, candidateID)
	s.logInfo("candidate promoted", zap.Uint64("candidate_id", candidateID), zap.Uint64("question_id", item.ID))
	return item, true, nil
}

func (s *QuestionService) markSelected(ctx context.Context, candidateID uint64) {
	_, err := s.Repo.UpdateCandidateStatus(ctx, candidateID,
		[]string{models.CandidateStatusCandidate, models.CandidateStatusSelected},
		models.CandidateStatusSelected)
	if err != nil && s.Logger != nil {
		s.Logger.Warn("mark candidate selected failed", zap.Uint64("candidate_id", candidateID), zap.Error(err))
	}
}

// Confirm moves DRAFT -> OPEN. Confirming an OPEN question is a no-op.
func (s *QuestionService) Confirm(ctx context.Context, id uint64) (*models.Question, error) {
	q, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	now := clock(s.Now).now()
	if lifecycle.Status(q.Status) == lifecycle.StatusDraft && !q.ClosesAt.After(now) {
		return nil, fmt.Errorf("%w: closes_at must be in the future", ErrInvalidInput)
	}
	q, moved, err := s.transition(ctx, q, lifecycle.ActionConfirm, now)
	if err != nil {
		return nil, err
	}
	if moved {
		s.publish(notify.EventQuestionOpened, q)
		s.logInfo("question opened", zap.Uint64("question_id", q.ID))
	}
	return q, nil
}

// ForceClose moves OPEN -> CLOSED regardless of closes_at. Closing a CLOSED
// question is a no-op; DRAFT and RESOLVED questions are rejected.
func (s *QuestionService) ForceClose(ctx context.Context, id uint64) (*models.Question, error) {
	q, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	q, moved, err := s.transition(ctx, q, lifecycle.ActionClose, clock(s.Now).now())
	if err != nil {
		return nil, err
	}
	if moved {
		s.publish(notify.EventQuestionClosed, q)
		s.logInfo("question force-closed", zap.Uint64("question_id", q.ID))
	}
	return q, nil
}

// CloseExpired closes every OPEN question whose closes_at has passed.
func (s *QuestionService) CloseExpired(ctx context.Context) (int, error) {
	now := clock(s.Now).now()
	const batch = 200
	closed := 0
	for {
		ids, err := s.Repo.ListExpiredOpenQuestionIDs(ctx, now, batch)
		if err != nil {
			return closed, err
		}
		progressed := 0
		for _, id := range ids {
			moved, err := s.Repo.TransitionQuestionStatus(ctx, id,
				lifecycle.Strings(lifecycle.AllowedFrom(lifecycle.ActionClose)),
				string(lifecycle.StatusClosed), now)
			if err != nil {
				if s.Logger != nil {
					s.Logger.Warn("close expired question failed", zap.Uint64("question_id", id), zap.Error(err))
				}
				continue
			}
			if !moved {
				continue
			}
			closed++
			progressed++
			q, err := s.Repo.GetQuestionByID(ctx, id)
			if err != nil || q == nil {
				q = &models.Question{ID: id}
			}
			s.publish(notify.EventQuestionClosed, q)
		}
		if len(ids) < batch || progressed == 0 {
			break
		}
	}
	if closed > 0 {
		s.logInfo("expired questions closed", zap.Int("count", closed))
	}
	return closed, nil
}

// RunExpirySweep is the cron entry point; it honours feature.expiry_sweep.
func (s *QuestionService) RunExpirySweep(ctx context.Context) {
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, FeatureExpirySweep, true) {
		return
	}
	if _, err := s.CloseExpired(ctx); err != nil && s.Logger != nil {
		s.Logger.Warn("expiry sweep failed", zap.Error(err))
	}
}

// Update edits question content while DRAFT or OPEN.
func (s *QuestionService) Update(ctx context.Context, id uint64, in UpdateQuestionInput) (*models.Question, error) {
	q, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, _, err := lifecycle.Next(lifecycle.Status(q.Status), lifecycle.ActionEdit); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	u := repository.QuestionUpdate{
		Ticker:     trimmedField(in.Ticker),
		Importance: trimmedField(in.Importance),
		Impact:     trimmedField(in.Impact),
		ClosesAt:   in.ClosesAt,
	}
	if in.Prompt != nil {
		p := strings.TrimSpace(*in.Prompt)
		if p == "" {
			return nil, fmt.Errorf("%w: prompt cannot be empty", ErrInvalidInput)
		}
		u.Prompt = &p
	}
	if in.ClosesAt != nil {
		if in.ClosesAt.IsZero() {
			return nil, fmt.Errorf("%w: closes_at cannot be zero", ErrInvalidInput)
		}
		if !in.ClosesAt.After(clock(s.Now).now()) {
			return nil, fmt.Errorf("%w: closes_at must be in the future", ErrInvalidInput)
		}
	}
	if in.Pros != nil {
		u.Pros = reasonsJSON(in.Pros)
	}
	if in.Cons != nil {
		u.Cons = reasonsJSON(in.Cons)
	}
	if u.Empty() {
		return q, nil
	}
	editable := []string{string(lifecycle.StatusDraft), string(lifecycle.StatusOpen)}
	ok, err := s.Repo.UpdateQuestionFields(ctx, id, editable, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: question %d is no longer editable", ErrInvalidState, id)
	}
	return s.mustGet(ctx, id)
}

func (s *QuestionService) Get(ctx context.Context, id uint64) (*QuestionDetail, error) {
	q, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.Repo.GetResolutionByQuestionID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &QuestionDetail{Question: *q, Resolution: res}, nil
}

func (s *QuestionService) List(ctx context.Context, in ListQuestionsInput) ([]models.Question, int64, error) {
	params := repository.ListQuestionsParams{
		Limit:    in.Limit,
		Offset:   in.Offset,
		Statuses: in.Statuses,
		OrderBy:  "id",
	}
	if in.SeasonID > 0 {
		params.SeasonID = &in.SeasonID
	}
	items, err := s.Repo.ListQuestions(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountQuestions(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Today lists questions users can still answer.
func (s *QuestionService) Today(ctx context.Context) ([]models.Question, error) {
	now := clock(s.Now).now()
	return s.Repo.ListQuestions(ctx, repository.ListQuestionsParams{
		Statuses:    []string{string(lifecycle.StatusOpen)},
		ClosesAfter: &now,
		OrderBy:     "closes_at",
		Asc:         boolPtr(true),
		Limit:       200,
	})
}

// NeedingAnswers lists questions that still await a resolution.
func (s *QuestionService) NeedingAnswers(ctx context.Context) ([]models.Question, error) {
	return s.Repo.ListQuestions(ctx, repository.ListQuestionsParams{
		Statuses: lifecycle.Strings(lifecycle.AllowedFrom(lifecycle.ActionResolve)),
		OrderBy:  "closes_at",
		Asc:      boolPtr(true),
		Limit:    500,
	})
}

func (s *QuestionService) mustGet(ctx context.Context, id uint64) (*models.Question, error) {
	q, err := s.Repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("%w: question %d", ErrNotFound, id)
	}
	return q, nil
}

// transition applies action through a conditional update. A lost race is
// resolved by re-reading: if the winner produced the same target state the
// call is treated as an idempotent repeat.
func (s *QuestionService) transition(ctx context.Context, q *models.Question, action lifecycle.Action, at time.Time) (*models.Question, bool, error) {
	next, changed, err := lifecycle.Next(lifecycle.Status(q.Status), action)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !changed {
		return q, false, nil
	}
	moved, err := s.Repo.TransitionQuestionStatus(ctx, q.ID, lifecycle.Strings(lifecycle.AllowedFrom(action)), string(next), at)
	if err != nil {
		return nil, false, err
	}
	fresh, err := s.mustGet(ctx, q.ID)
	if err != nil {
		return nil, false, err
	}
	if !moved && fresh.Status != string(next) {
		return nil, false, fmt.Errorf("%w: question %d is %s", ErrInvalidState, q.ID, fresh.Status)
	}
	return fresh, moved, nil
}

func (s *QuestionService) publish(eventType string, q *models.Question) {
	if s.Events == nil || q == nil {
		return
	}
	s.Events.Publish(notify.Event{Type: eventType, QuestionID: q.ID, SeasonID: q.SeasonID})
}

func (s *QuestionService) logInfo(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Info(msg, fields...)
	}
}
