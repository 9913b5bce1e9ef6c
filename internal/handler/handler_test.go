package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"academy/internal/auth"
	"academy/internal/notify"
	"academy/internal/repository/memory"
	"academy/internal/service"
)

type testEnv struct {
	engine *gin.Engine
	repo   *memory.Store
	hub    *notify.Hub
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{repo: memory.New(), now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	nowFn := func() time.Time { return env.now }
	hub := notify.NewHub(nil)
	env.hub = hub
	settings := &service.SystemSettingsService{Repo: env.repo}
	seasons := &service.SeasonService{Repo: env.repo}
	questions := &service.QuestionService{Repo: env.repo, Seasons: seasons, Events: hub, Flags: settings, Now: nowFn}
	resolutions := &service.ResolutionService{Repo: env.repo, Events: hub, Now: nowFn}
	leaderboard := &service.LeaderboardService{Repo: env.repo, Seasons: seasons}

	env.engine = gin.New()
	Routes{
		Auth:        auth.Authenticator{Disabled: true},
		Health:      &HealthHandler{Checks: map[string]Pinger{"db": env.repo}},
		Candidates:  &CandidateHandler{Service: &service.CandidateService{Repo: env.repo}},
		Questions:   &QuestionHandler{Questions: questions, Resolutions: resolutions},
		Predictions: &PredictionHandler{Predictions: &service.PredictionService{Repo: env.repo, Now: nowFn}, Leaderboard: leaderboard},
		Seasons:     &SeasonHandler{Seasons: seasons, Leaderboard: leaderboard},
		SystemSettings: &SystemSettingsHandler{
			Repo:     env.repo,
			Settings: settings,
		},
		Events: &EventsHandler{Hub: hub},
	}.Register(env.engine)
	return env
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func (e *testEnv) do(t *testing.T, method, path string, userID uint64, role string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatUint(userID, 10))
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func (e *testEnv) admin(t *testing.T, method, path string, body any) (int, envelope) {
	return e.do(t, method, path, 1, auth.RoleAdmin, body)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

// openQuestion creates the active season (once) and an OPEN question.
func (e *testEnv) openQuestion(t *testing.T) uint64 {
	t.Helper()
	if s, _ := e.repo.GetActiveSeason(context.Background()); s == nil {
		code, _ := e.admin(t, http.MethodPost, "/api/admin/seasons", map[string]any{
			"name": "S1", "start_at": e.now.Add(-time.Hour), "end_at": e.now.AddDate(0, 1, 0), "activate": true,
		})
		if code != http.StatusCreated {
			t.Fatalf("create season: %d", code)
		}
	}
	code, env := e.admin(t, http.MethodPost, "/api/admin/questions", map[string]any{
		"prompt": "Will KOSPI close higher?", "closes_at": e.now.Add(time.Hour), "pros": []string{"momentum"},
	})
	if code != http.StatusCreated {
		t.Fatalf("create question: %d %s", code, env.Message)
	}
	id := decode[struct {
		ID uint64 `json:"id"`
	}](t, env.Data).ID
	if code, env := e.admin(t, http.MethodPatch, "/api/admin/questions/"+strconv.FormatUint(id, 10)+"/confirm", nil); code != http.StatusOK {
		t.Fatalf("confirm: %d %s", code, env.Message)
	}
	return id
}

func TestPredictionFlowAndScoring(t *testing.T) {
	e := newTestEnv(t)
	qid := e.openQuestion(t)

	for user, choice := range map[uint64]string{10: "O", 11: "X", 12: "O"} {
		code, env := e.do(t, http.MethodPost, "/api/predictions", user, "", map[string]any{"question_id": qid, "choice": choice})
		if code != http.StatusCreated {
			t.Fatalf("predict user %d: %d %s", user, code, env.Message)
		}
	}
	if code, _ := e.do(t, http.MethodPost, "/api/predictions", 10, "", map[string]any{"question_id": qid, "choice": "X"}); code != http.StatusConflict {
		t.Fatalf("duplicate prediction: expected 409, got %d", code)
	}

	path := "/api/admin/questions/" + strconv.FormatUint(qid, 10) + "/resolve"
	code, env := e.admin(t, http.MethodPatch, path, map[string]any{"outcome": "O"})
	if code != http.StatusOK {
		t.Fatalf("resolve: %d %s", code, env.Message)
	}
	if res := decode[service.ResolveResult](t, env.Data); res.Scored != 2 {
		t.Fatalf("scored=%d", res.Scored)
	}
	// Same outcome again: accepted, no additional points.
	if code, _ := e.admin(t, http.MethodPatch, path, map[string]any{"outcome": "O"}); code != http.StatusOK {
		t.Fatalf("re-resolve: %d", code)
	}
	if code, _ := e.admin(t, http.MethodPatch, path, map[string]any{"outcome": "X"}); code != http.StatusConflict {
		t.Fatalf("changing outcome: expected 409, got %d", code)
	}

	season, _ := e.repo.GetActiveSeason(context.Background())
	code, env = e.do(t, http.MethodGet, "/api/seasons/"+strconv.FormatUint(season.ID, 10)+"/leaderboard", 11, "", nil)
	if code != http.StatusOK {
		t.Fatalf("leaderboard: %d", code)
	}
	board := decode[[]struct {
		UserID      uint64 `json:"user_id"`
		TotalPoints int64  `json:"total_points"`
		Rank        int    `json:"rank"`
	}](t, env.Data)
	if len(board) != 2 || board[0].Rank != 1 || board[1].Rank != 1 || board[0].TotalPoints != 10 {
		t.Fatalf("unexpected board: %+v", board)
	}

	code, env = e.do(t, http.MethodGet, "/api/me/score", 11, "", nil)
	if code != http.StatusOK {
		t.Fatalf("me/score: %d", code)
	}
	if rep := decode[service.UserScoreReport](t, env.Data); rep.TotalPoints != 0 || rep.Submissions != 1 || rep.Resolved != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestPredictOnClosedQuestion(t *testing.T) {
	e := newTestEnv(t)
	qid := e.openQuestion(t)
	if code, _ := e.admin(t, http.MethodPatch, "/api/admin/questions/"+strconv.FormatUint(qid, 10)+"/force-close", nil); code != http.StatusOK {
		t.Fatalf("force-close: %d", code)
	}
	code, env := e.do(t, http.MethodPost, "/api/predictions", 10, "", map[string]any{"question_id": qid, "choice": "O"})
	if code != http.StatusConflict || env.Meta["reason"] != "invalid_state" {
		t.Fatalf("expected 409 invalid_state, got %d %+v", code, env)
	}
	if code, _ := e.do(t, http.MethodPost, "/api/predictions", 10, "", map[string]any{"question_id": qid, "choice": "maybe"}); code != http.StatusBadRequest {
		t.Fatalf("bad choice: expected 400, got %d", code)
	}
}

func TestAuthGuards(t *testing.T) {
	e := newTestEnv(t)
	if code, _ := e.do(t, http.MethodGet, "/api/questions/today", 0, "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", code)
	}
	if code, _ := e.do(t, http.MethodGet, "/api/admin/questions", 5, auth.RoleUser, nil); code != http.StatusForbidden {
		t.Fatalf("user on admin route: expected 403, got %d", code)
	}
	if code, _ := e.do(t, http.MethodGet, "/api/questions/today", 5, "", nil); code != http.StatusOK {
		t.Fatalf("user: expected 200, got %d", code)
	}
}

func TestNotFoundHidesCause(t *testing.T) {
	e := newTestEnv(t)
	code, env := e.do(t, http.MethodGet, "/api/questions/999", 5, "", nil)
	if code != http.StatusNotFound || env.Message != "not found" {
		t.Fatalf("expected bare 404, got %d %q", code, env.Message)
	}
	if code, _ := e.admin(t, http.MethodPatch, "/api/admin/questions/999/resolution", map[string]any{"explanation": "x"}); code != http.StatusNotFound {
		t.Fatalf("missing resolution: expected 404, got %d", code)
	}
}

func TestSuggestWithoutGenerator(t *testing.T) {
	e := newTestEnv(t)
	qid := e.openQuestion(t)
	code, env := e.admin(t, http.MethodPost, "/api/admin/questions/"+strconv.FormatUint(qid, 10)+"/suggest-resolution", nil)
	if code != http.StatusBadGateway || env.Meta["reason"] != "upstream_unavailable" {
		t.Fatalf("expected 502 upstream_unavailable, got %d %+v", code, env)
	}
}

func TestSwitches(t *testing.T) {
	e := newTestEnv(t)
	if code, _ := e.admin(t, http.MethodPut, "/api/admin/system-settings/switches/expiry_sweep", map[string]any{"enabled": false}); code != http.StatusOK {
		t.Fatalf("put switch: %d", code)
	}
	if code, _ := e.admin(t, http.MethodPut, "/api/admin/system-settings/switches/unknown", map[string]any{"enabled": true}); code != http.StatusNotFound {
		t.Fatalf("unknown switch: expected 404, got %d", code)
	}
	code, env := e.admin(t, http.MethodGet, "/api/admin/system-settings/switches", nil)
	if code != http.StatusOK {
		t.Fatalf("list switches: %d", code)
	}
	got := decode[map[string]bool](t, env.Data)
	if got[service.FeatureExpirySweep] || !got[service.FeatureCandidateBatch] {
		t.Fatalf("unexpected switches: %v", got)
	}
	if code, _ := e.admin(t, http.MethodPut, "/api/admin/system-settings/feature.expiry_sweep", map[string]any{"value": "yes"}); code != http.StatusBadRequest {
		t.Fatalf("non-bool switch value: expected 400, got %d", code)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("down") }

func TestReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	(&HealthHandler{Checks: map[string]Pinger{"db": failingPinger{}}}).Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	r.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("request id not echoed: %q", w.Header().Get("X-Request-ID"))
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Fatalf("expected generated uuid, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestEventsWebsocket(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/events"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"X-User-ID": []string{"5"}},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	for e.hub.Subscribers() == 0 {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}
	e.hub.Publish(notify.Event{Type: notify.EventQuestionOpened, QuestionID: 3})

	var got notify.Event
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != notify.EventQuestionOpened || got.QuestionID != 3 {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestServiceErrorHidesStorageCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	r := gin.New()
	r.Use(AccessLog(zap.New(core)))
	r.GET("/x", func(c *gin.Context) {
		ServiceError(c, errors.New("pq: password authentication failed for user academy"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", w.Code)
	}
	if strings.Contains(w.Body.String(), "pq:") {
		t.Fatalf("cause leaked: %s", w.Body.String())
	}
	var body envelope
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Message != "internal error" {
		t.Fatalf("body: %v %s", err, w.Body.String())
	}
	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("log entries=%d", len(entries))
	}
	if cause, _ := entries[0].ContextMap()["error"].(string); !strings.Contains(cause, "pq: password authentication failed") {
		t.Fatalf("cause not logged: %v", entries[0].ContextMap())
	}
}
