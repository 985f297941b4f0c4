package main

import (
	"context"
	"flag"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/truthshield/callguard/internal/config"
	"github.com/truthshield/callguard/internal/gate"
	"github.com/truthshield/callguard/internal/platform/storage/memory"
	"github.com/truthshield/callguard/internal/platform/storage/scylla"
	"github.com/truthshield/callguard/internal/service"
)

// The worker re-weighs raw reports into fresh reputation records. Run it
// after report bursts or on a schedule; it is safe to re-run at any time.
func main() {
	configPath := flag.String("config", "callguard.toml", "path to the TOML config file")
	phones := flag.String("phones", "", "comma-separated E.164 numbers to recalculate")
	parallel := flag.Int("parallel", 4, "number of concurrent recalculations")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system environment")
	}

	targets := splitPhones(*phones)
	if len(targets) == 0 {
		logger.Fatal("no targets given, pass -phones=+84888999000,+84912345678")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	repo := service.Repository(memory.NewRepository())
	if cfg.Scylla.Enabled {
		session, err := scylla.Connect(cfg.Scylla.Keyspace, cfg.Scylla.Hosts...)
		if err != nil {
			logger.Fatal("scylla connection failed", zap.Error(err))
		}
		defer session.Close()
		repo = scylla.NewRepository(session)
	} else {
		logger.Warn("scylla disabled, recalculating against an empty in-memory store")
	}

	svc := service.New(repo, nil, nil, gate.New(gate.DefaultLimits()), config.SecretsFromEnv().ReportSalt, logger.Named("service"))

	ctx := context.Background()
	p := pool.New().WithErrors().WithMaxGoroutines(*parallel)
	for _, phone := range targets {
		p.Go(func() error {
			return svc.RecalculateReputation(ctx, phone)
		})
	}
	if err := p.Wait(); err != nil {
		logger.Fatal("recalculation failed", zap.Error(err))
	}

	logger.Info("recalculation complete", zap.Int("numbers", len(targets)))
}

func splitPhones(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
