package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"academy/internal/calendar"
	"academy/internal/config"
	"academy/internal/lock"
	"academy/internal/models"
	"academy/internal/notify"
	"academy/internal/paas"
	"academy/internal/repository"
	"academy/internal/textgen"
)

const maxPromptLen = 1000

// CandidateBatchService drafts the day's question candidates from the
// economic and earnings calendars. Upstream and parse failures never abort
// the run: the affected candidate is skipped or saved as a placeholder.
type CandidateBatchService struct {
	Repo      repository.Repository
	Calendar  calendar.Source
	Generator textgen.Generator
	Locker    lock.Locker
	Config    config.CandidateBatchConfig
	Timeout   time.Duration
	Events    notify.Publisher
	Flags     *SystemSettingsService
	Logger    *zap.Logger
	Now       func() time.Time
}

type BatchResult struct {
	RunID        string                     `json:"run_id"`
	Date         string                     `json:"date"`
	Created      []models.QuestionCandidate `json:"created"`
	Placeholders int                        `json:"placeholders"`
	Skipped      int                        `json:"skipped"`
}

type batchPlan struct {
	sourceType string
	ticker     *string
	context    textgen.QuestionContext
	fallback   string
}

type batchDraft struct {
	plan        batchPlan
	draft       textgen.Draft
	placeholder bool
	skip        bool
}

// RunScheduled is the cron entry point; it honours feature.candidate_batch.
func (s *CandidateBatchService) RunScheduled(ctx context.Context) {
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, FeatureCandidateBatch, true) {
		return
	}
	res, err := s.Run(ctx, clock(s.Now).now())
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("candidate batch failed", zap.Error(err))
		}
		return
	}
	paas.LogBestEffortCtx(ctx, "academy_candidate_batch", "info", map[string]any{
		"run_id":       res.RunID,
		"date":         res.Date,
		"created":      len(res.Created),
		"placeholders": res.Placeholders,
		"skipped":      res.Skipped,
	})
}

func (s *CandidateBatchService) Run(ctx context.Context, date time.Time) (*BatchResult, error) {
	day := dateOnly(date)
	res := &BatchResult{RunID: uuid.NewString(), Date: day.Format("2006-01-02"), Created: []models.QuestionCandidate{}}
	log := s.logger().With(zap.String("run_id", res.RunID), zap.String("date", res.Date))

	if s.Locker != nil {
		ttl := s.Config.LockTTL
		if ttl <= 0 {
			ttl = 30 * time.Minute
		}
		release, err := s.Locker.TryLock(ctx, "candidate_batch:"+res.Date, ttl)
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: candidate batch for %s is already running", ErrConflict, res.Date)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: batch lock: %v", ErrUpstreamUnavailable, err)
		}
		defer func() {
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = release(rctx)
		}()
	}

	log.Info("candidate batch started")
	econ, earnings := s.fetchCalendars(ctx, day, log)
	log.Info("calendar fetched", zap.Int("economic", len(econ)), zap.Int("earnings", len(earnings)))

	plans := s.plan(day, econ, earnings)
	drafts := s.draft(ctx, plans, log)

	for _, d := range drafts {
		if d.skip {
			res.Skipped++
			continue
		}
		ticker := d.plan.ticker
		if ticker == nil && d.plan.sourceType == models.SourceTypeMacro {
			ticker = ExtractTicker(d.draft.Prompt)
		}
		item := &models.QuestionCandidate{
			CandidateDate: day,
			SourceType:    d.plan.sourceType,
			Ticker:        ticker,
			Prompt:        truncate(d.draft.Prompt, maxPromptLen),
			Pros:          reasonsJSON(d.draft.Pros),
			Cons:          reasonsJSON(d.draft.Cons),
			Importance:    d.draft.Importance,
			Impact:        d.draft.Impact,
			Status:        models.CandidateStatusCandidate,
		}
		if err := s.Repo.InsertCandidate(ctx, item); err != nil {
			log.Warn("candidate save failed", zap.String("source_type", item.SourceType), zap.Error(err))
			res.Skipped++
			continue
		}
		if d.placeholder {
			res.Placeholders++
		}
		res.Created = append(res.Created, *item)
	}

	if s.Events != nil && len(res.Created) > 0 {
		s.Events.Publish(notify.Event{
			Type: notify.EventCandidatesCreated,
			Data: map[string]any{"date": res.Date, "count": len(res.Created)},
		})
	}
	log.Info("candidate batch finished",
		zap.Int("created", len(res.Created)),
		zap.Int("placeholders", res.Placeholders),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// fetchCalendars reads both calendars in parallel. A failing source is
// logged and treated as empty.
func (s *CandidateBatchService) fetchCalendars(ctx context.Context, day time.Time, log *zap.Logger) ([]calendar.EconomicEvent, []calendar.EarningsEvent) {
	if s.Calendar == nil {
		return nil, nil
	}
	var (
		econ     []calendar.EconomicEvent
		earnings []calendar.EarningsEvent
	)
	cctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		items, err := s.Calendar.EconomicEvents(cctx, day)
		if err != nil {
			log.Warn("economic calendar unavailable", zap.Error(err))
			return nil
		}
		econ = items
		return nil
	})
	g.Go(func() error {
		items, err := s.Calendar.EarningsEvents(cctx, day)
		if err != nil {
			log.Warn("earnings calendar unavailable", zap.Error(err))
			return nil
		}
		earnings = items
		return nil
	})
	_ = g.Wait()
	return econ, earnings
}

func (s *CandidateBatchService) plan(day time.Time, econ []calendar.EconomicEvent, earnings []calendar.EarningsEvent) []batchPlan {
	maxEcon := s.Config.MaxEconomic
	if maxEcon < 0 {
		maxEcon = 0
	}
	maxEarn := s.Config.MaxEarnings
	if maxEarn < 0 {
		maxEarn = 0
	}

	plans := make([]batchPlan, 0, maxEcon+maxEarn+1)
	for _, ev := range econ {
		if len(plans) >= maxEcon {
			break
		}
		if !calendar.Notable(ev) {
			continue
		}
		plans = append(plans, batchPlan{
			sourceType: models.SourceTypeMacro,
			context: textgen.QuestionContext{
				SourceType: models.SourceTypeMacro,
				Date:       day,
				Title:      ev.Event,
				Facts: map[string]string{
					"currency": ev.Currency,
					"impact":   ev.Impact,
					"actual":   deref(ev.Actual),
					"forecast": deref(ev.Forecast),
					"previous": deref(ev.Previous),
				},
			},
			fallback: fmt.Sprintf("Will %s (%s) come in above forecast today? (O/X)", strings.TrimSpace(ev.Event), ev.Currency),
		})
	}

	taken := 0
	for _, ev := range earnings {
		if taken >= maxEarn {
			break
		}
		symbol := strings.ToUpper(strings.TrimSpace(ev.Symbol))
		if symbol == "" {
			continue
		}
		taken++
		plans = append(plans, batchPlan{
			sourceType: models.SourceTypeEarnings,
			ticker:     strPtr(symbol),
			context: textgen.QuestionContext{
				SourceType: models.SourceTypeEarnings,
				Date:       day,
				Title:      ev.Company + " earnings",
				Ticker:     symbol,
				Facts: map[string]string{
					"eps_forecast":     deref(ev.EPSForecast),
					"revenue_forecast": deref(ev.RevenueForecast),
				},
			},
			fallback: fmt.Sprintf("Will %s (%s) beat its EPS forecast? (O/X)", strings.TrimSpace(ev.Company), symbol),
		})
	}

	if s.Config.MarketWide {
		plans = append(plans, batchPlan{
			sourceType: models.SourceTypeIndex,
			context: textgen.QuestionContext{
				SourceType: models.SourceTypeIndex,
				Date:       day,
				Title:      "General market direction",
			},
			fallback: "Will the S&P500 close higher than yesterday? (O/X)",
		})
	}
	return plans
}

// draft calls the generator for each plan concurrently; results keep plan order.
func (s *CandidateBatchService) draft(ctx context.Context, plans []batchPlan, log *zap.Logger) []batchDraft {
	out := make([]batchDraft, len(plans))
	var g errgroup.Group
	g.SetLimit(3)
	for i, p := range plans {
		g.Go(func() error {
			out[i] = s.draftOne(ctx, p, log)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *CandidateBatchService) draftOne(ctx context.Context, p batchPlan, log *zap.Logger) batchDraft {
	if s.Generator == nil {
		return batchDraft{plan: p, draft: placeholderDraft(p.fallback), placeholder: true}
	}
	gctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	text, err := s.Generator.Generate(gctx, textgen.QuestionPrompt(p.context))
	if err != nil {
		log.Warn("question generation failed", zap.String("source_type", p.sourceType), zap.Error(fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)))
		return batchDraft{plan: p, skip: true}
	}
	d, err := textgen.ParseDraft(text)
	if err != nil {
		log.Warn("question draft unparseable", zap.String("source_type", p.sourceType), zap.Error(fmt.Errorf("%w: %v", ErrParseFailure, err)))
		raw := strings.TrimSpace(text)
		if raw == "" {
			raw = p.fallback
		}
		return batchDraft{plan: p, draft: placeholderDraft(raw), placeholder: true}
	}
	return batchDraft{plan: p, draft: d}
}

func placeholderDraft(prompt string) textgen.Draft {
	return textgen.Draft{Prompt: prompt, Pros: []string{}, Cons: []string{}}
}

func (s *CandidateBatchService) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return 30 * time.Second
}

func (s *CandidateBatchService) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
