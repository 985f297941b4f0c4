package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/truthshield/callguard/internal/ai"
	"github.com/truthshield/callguard/internal/config"
	"github.com/truthshield/callguard/internal/gate"
	platformhttp "github.com/truthshield/callguard/internal/platform/http"
	"github.com/truthshield/callguard/internal/platform/http/middleware"
	"github.com/truthshield/callguard/internal/platform/storage/memory"
	redisstore "github.com/truthshield/callguard/internal/platform/storage/redis"
	"github.com/truthshield/callguard/internal/platform/storage/scylla"
	"github.com/truthshield/callguard/internal/service"
)

func main() {
	configPath := flag.String("config", "callguard.toml", "path to the TOML config file")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system environment")
	}

	if err := run(*configPath, logger); err != nil {
		logger.Fatal("api exited", zap.Error(err))
	}
}

func run(configPath string, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	secrets := config.SecretsFromEnv()
	if secrets.APIKey == "" {
		return errors.New("API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := service.Repository(memory.NewSeededRepository())
	if cfg.Scylla.Enabled {
		session, err := scylla.Connect(cfg.Scylla.Keyspace, cfg.Scylla.Hosts...)
		if err != nil {
			return err
		}
		defer session.Close()
		repo = scylla.NewRepository(session)
		logger.Info("registry backed by scylla", zap.Strings("hosts", cfg.Scylla.Hosts))
	} else {
		logger.Info("registry backed by seeded in-memory store")
	}

	var profiles *redisstore.ProfileStore
	if cfg.Redis.Enabled {
		client, err := rueidis.NewClient(rueidis.ClientOption{
			InitAddress: []string{cfg.Redis.Address},
		})
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()
		profiles = redisstore.NewProfileStore(client, logger.Named("profiles"))
	}

	var analyzer service.Analyzer
	var aiClient *ai.Client
	if secrets.GeminiAPIKey != "" {
		aiClient, err = ai.NewClient(ctx, secrets.GeminiAPIKey, ai.Config{
			Model:          cfg.Gemini.Model,
			MessageTimeout: cfg.Gemini.MessageTimeout,
			MediaTimeout:   cfg.Gemini.MediaTimeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("starting ai client: %w", err)
		}
		defer func() { _ = aiClient.Close() }()
		analyzer = aiClient
	} else {
		logger.Warn("GEMINI_API_KEY not set, running with offline fallbacks only")
	}

	limits := gate.Limits{
		DeepfakeScans: cfg.Limits.DeepfakeScans,
		MessageScans:  cfg.Limits.MessageScans,
		CallLookups:   cfg.Limits.CallLookups,
	}
	var saver service.ProfileSaver
	if profiles != nil {
		saver = profiles
	}
	svc := service.New(repo, analyzer, saver, gate.New(limits), secrets.ReportSalt, logger.Named("service"))

	var loader platformhttp.ProfileLoader
	if profiles != nil {
		loader = profiles
	}
	handler := platformhttp.NewHandler(svc, loader, logger.Named("http"))

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.APIKeyAuth(secrets.APIKey))
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.Int("port", cfg.HTTP.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
