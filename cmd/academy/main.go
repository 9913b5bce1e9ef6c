package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"academy/internal/auth"
	"academy/internal/calendar"
	"academy/internal/config"
	cronrunner "academy/internal/cron"
	"academy/internal/db"
	"academy/internal/handler"
	"academy/internal/lock"
	"academy/internal/logger"
	"academy/internal/notify"
	"academy/internal/paas"
	"academy/internal/repository"
	gormrepository "academy/internal/repository/gorm"
	"academy/internal/repository/memory"
	"academy/internal/service"
	"academy/internal/textgen"

	_ "academy/docs"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfgPath := os.Getenv("ACADEMY_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if envOnlyRaw := os.Getenv("ACADEMY_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var store repository.Repository
	if strings.TrimSpace(cfg.DB.DSN) == "" {
		logger.Warn("db.dsn is empty, using the in-memory store")
		store = memory.New()
	} else {
		dbConn, err := db.Open(cfg.DB)
		if err != nil {
			logger.Fatal("db open failed", zap.Error(err))
		}
		defer db.Close(dbConn)
		if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
			logger.Warn("failed to set timezone", zap.Error(err))
		}
		if err := db.AutoMigrate(dbConn); err != nil {
			logger.Fatal("auto-migrate failed", zap.Error(err))
		}
		store = gormrepository.New(dbConn.Gorm)
	}

	checks := map[string]handler.Pinger{"db": store}
	var locker lock.Locker = lock.NewMemoryLocker()
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		rl := lock.NewRedisLocker(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer func() { _ = rl.Close() }()
		locker = rl
		checks["redis"] = rl
	}

	generator, err := textgen.New(cfg.TextGen)
	if err != nil {
		logger.Warn("text generation disabled", zap.Error(err))
	}
	var cal calendar.Source
	if base := strings.TrimSpace(cfg.Calendar.BaseURL); base != "" {
		cal = &calendar.HTTPSource{BaseURL: base, HTTP: &http.Client{Timeout: cfg.Calendar.Timeout}}
	} else {
		logger.Warn("calendar.base_url is empty, batches draft market-wide questions only")
	}

	hub := notify.NewHub(logger)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}
	seasonSvc := &service.SeasonService{Repo: store, Logger: logger}
	questionSvc := &service.QuestionService{Repo: store, Seasons: seasonSvc, Events: hub, Flags: settingsSvc, Logger: logger}
	candidateSvc := &service.CandidateService{Repo: store, Logger: logger}
	predictionSvc := &service.PredictionService{Repo: store, Logger: logger}
	resolutionSvc := &service.ResolutionService{
		Repo:      store,
		Generator: generator,
		Events:    hub,
		Scoring:   cfg.Scoring,
		Timeout:   cfg.TextGen.Timeout,
		Logger:    logger,
	}
	leaderboardSvc := &service.LeaderboardService{Repo: store, Seasons: seasonSvc}
	batchSvc := &service.CandidateBatchService{
		Repo:      store,
		Calendar:  cal,
		Generator: generator,
		Locker:    locker,
		Config:    cfg.CandidateBatch,
		Timeout:   cfg.TextGen.Timeout,
		Events:    hub,
		Flags:     settingsSvc,
		Logger:    logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Auth.Disabled && !strings.EqualFold(cfg.App.Env, "dev") {
		logger.Warn("auth is disabled outside dev")
	}
	if !cfg.Auth.Disabled && strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatal("auth.jwt_secret is required unless auth.disabled is set")
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.RequestID())
	engine.Use(handler.CORS())
	engine.Use(handler.AccessLog(logger))

	paasClient := initPaaSClient(logger)
	engine.Use(paas.InjectClientMiddleware(paasClient))
	engine.Use(paas.AuditMiddleware(paasClient, auth.UserID, logger))

	handler.Routes{
		Auth: auth.Authenticator{
			JWT:      auth.JWT{Secret: []byte(cfg.Auth.JWTSecret), TokenTTL: cfg.Auth.TokenTTL},
			Disabled: cfg.Auth.Disabled,
		},
		Health:         &handler.HealthHandler{Checks: checks},
		Candidates:     &handler.CandidateHandler{Service: candidateSvc, Batch: batchSvc},
		Questions:      &handler.QuestionHandler{Questions: questionSvc, Resolutions: resolutionSvc},
		Predictions:    &handler.PredictionHandler{Predictions: predictionSvc, Leaderboard: leaderboardSvc},
		Seasons:        &handler.SeasonHandler{Seasons: seasonSvc, Leaderboard: leaderboardSvc},
		SystemSettings: &handler.SystemSettingsHandler{Repo: store, Settings: settingsSvc},
		Events:         &handler.EventsHandler{Hub: hub, Logger: logger},
	}.Register(engine)
	paas.RegisterDocs(engine)
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseCtx := paas.WithClient(ctx, paasClient)

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, baseCtx)
		if _, err := cronRunner.Add("candidate_batch", cfg.Cron.CandidateBatch, batchSvc.RunScheduled); err != nil {
			logger.Warn("cron register candidate batch failed", zap.Error(err))
		}
		if _, err := cronRunner.Add("expiry_sweep", cfg.Cron.ExpirySweep, questionSvc.RunExpirySweep); err != nil {
			logger.Warn("cron register expiry sweep failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func initPaaSClient(logger *zap.Logger) *paas.Client {
	base := strings.TrimSpace(os.Getenv("EASYWEB3_API_BASE"))
	apiKey := strings.TrimSpace(os.Getenv("EASYWEB3_API_KEY"))
	if base == "" || apiKey == "" {
		return nil
	}

	p := &paas.Client{BaseURL: base, APIKey: apiKey, Agent: os.Getenv("ACADEMY_PAAS_AGENT")}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.Login(ctx); err != nil {
		logger.Warn("paas login failed (audit logs disabled)", zap.Error(err))
		return nil
	}
	logger.Info("paas login ok")
	return p
}
