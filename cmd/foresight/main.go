package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ngx-platform/foresight/internal/api"
	"github.com/ngx-platform/foresight/internal/cache"
	"github.com/ngx-platform/foresight/internal/config"
	"github.com/ngx-platform/foresight/internal/events"
	"github.com/ngx-platform/foresight/internal/nlp"
	"github.com/ngx-platform/foresight/internal/predict"
	"github.com/ngx-platform/foresight/internal/rules"
	"github.com/ngx-platform/foresight/internal/store"
	"github.com/ngx-platform/foresight/internal/train"
	"github.com/ngx-platform/foresight/internal/unified"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("foresight starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready")

	// Redis parameter cache (optional — without it parameters come from
	// the database on every read)
	var paramsCache predict.ParamsCache
	if cfg.RedisAddr != "" {
		c, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, time.Duration(cfg.CacheTTLSecs)*time.Second, slog.Default())
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		paramsCache = c
		slog.Info("redis cache ready", "addr", cfg.RedisAddr)
	} else {
		slog.Warn("redis not configured — running without parameter cache")
	}

	// Scoring rules
	ruleSet, err := rules.Load(cfg.RulesPath)
	if err != nil {
		slog.Error("failed to load rules", "path", cfg.RulesPath, "error", err)
		os.Exit(1)
	}
	slog.Info("rules loaded", "version", ruleSet.Version)

	// NLP collaborators
	sentiment := nlp.NewLexiconAnalyzer()
	entities := nlp.NewProseExtractor()

	// Message bus, connected before the predictors so every stored
	// prediction can be announced on it
	bus, err := events.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)
	announcer := events.NewAnnouncer(bus, slog.Default())

	// Domain predictors
	objSvc := predict.NewService("objection_model", "objection", db, paramsCache, announcer, slog.Default())
	needsSvc := predict.NewService("needs_model", "needs", db, paramsCache, announcer, slog.Default())
	convSvc := predict.NewService("conversion_model", "conversion", db, paramsCache, announcer, slog.Default())
	registerModels(ctx, ruleSet, objSvc, needsSvc, convSvc)

	objection := predict.NewObjectionPredictor(objSvc, ruleSet.Objection, sentiment, slog.Default())
	needs := predict.NewNeedsPredictor(needsSvc, ruleSet.Needs, entities, slog.Default())
	conversion := predict.NewConversionPredictor(convSvc, ruleSet.Conversion, sentiment, slog.Default())
	fallback := predict.NewFallback(ruleSet.Fallback)

	// ML models
	trainer := train.NewTrainer(db, ruleSet, cfg.ModelDir, slog.Default())
	if err := trainer.LoadModels(); err != nil {
		slog.Warn("loading persisted models failed", "error", err)
	}
	if !trainer.Ready() {
		slog.Info("training initial models", "dir", cfg.ModelDir)
		if err := trainer.TrainAll(ctx); err != nil {
			slog.Warn("initial training incomplete — rule predictors cover the gap", "error", err)
		}
	}

	svc := unified.New(trainer, objection, needs, conversion, fallback, slog.Default())

	outcomes := events.NewOutcomes(objSvc, needsSvc, convSvc, slog.Default())
	if err := outcomes.Register(bus); err != nil {
		slog.Error("failed to subscribe to outcome events", "error", err)
		os.Exit(1)
	}

	// HTTP API
	recorders := map[string]api.Recorder{
		"objection":  objSvc,
		"needs":      needsSvc,
		"conversion": convSvc,
	}
	srv := api.NewServer(cfg.Port, cfg.APIToken, svc, recorders)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := bus.Publish(events.SubjectServiceRegistered, map[string]any{
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"port":         cfg.Port,
		"models_ready": trainer.Ready(),
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("foresight ready", "port", cfg.Port, "models_ready", trainer.Ready())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("foresight stopped")
}

// registerModels performs the idempotent first-run registration; repeated
// startups never overwrite tuned parameters.
func registerModels(ctx context.Context, r *rules.Set, objection, needs, conversion *predict.Service) {
	inits := []struct {
		svc         *predict.Service
		params      map[string]any
		description string
	}{
		{objection, map[string]any{
			"confidence_threshold": r.Objection.ConfidenceThreshold,
			"context_window":       r.Objection.ContextWindow,
		}, "Rule-weighted objection predictor"},
		{needs, map[string]any{
			"confidence_threshold": r.Needs.ConfidenceThreshold,
			"context_window":       r.Needs.ContextWindow,
		}, "Rule-weighted needs predictor"},
		{conversion, map[string]any{
			"high_threshold":   r.Conversion.HighThreshold,
			"medium_threshold": r.Conversion.MediumThreshold,
			"context_window":   r.Conversion.ContextWindow,
		}, "Weighted-signal conversion predictor"},
	}
	for _, in := range inits {
		if err := in.svc.InitializeModel(ctx, in.params, in.description); err != nil {
			slog.Error("model registration failed", "model", in.svc.ModelName(), "error", err)
			os.Exit(1)
		}
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
