package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"attuned-server/api"
	"attuned-server/auth"
	"attuned-server/config"
	"attuned-server/content"
	"attuned-server/game"
	"attuned-server/loghandler"
	"attuned-server/quota"
	"attuned-server/repair"
	"attuned-server/selector"
	"attuned-server/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables")
	}
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stdout, slog.LevelInfo)))

	cfg := config.Load()
	ctx := context.Background()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to Postgres", "tag", "main", "error", err)
		os.Exit(1)
	}
	var backend storage.Backend
	var bank content.Store
	if store != nil {
		defer store.Close()
		backend = store
		pgBank, err := content.NewPostgresStore(ctx, store.Pool())
		if err != nil {
			slog.Error("failed to prepare activity bank", "tag", "main", "error", err)
			os.Exit(1)
		}
		bank = pgBank
	} else {
		slog.Warn("DATABASE_URL not set; sessions and content are in-memory only", "tag", "main")
		backend = storage.NewMemoryStore()
		bank = content.NewMemoryStore()
	}

	quotaMode := quota.ParseMode(cfg.Quota.Mode)
	var counter quota.Counter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to Redis", "tag", "main", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		counter = quota.NewRedisCounter(client, cfg.Quota.Limit, quotaMode)
		slog.Info("connected to Redis", "tag", "main", "addr", cfg.RedisAddr)
	} else {
		slog.Warn("REDIS_ADDR not set; quota counters are in-memory only", "tag", "main")
		counter = quota.NewMemoryCounter(cfg.Quota.Limit, quotaMode)
	}

	verifier, err := auth.NewVerifier(cfg.AuthBaseURL)
	if err != nil {
		slog.Error("failed to configure auth", "tag", "main", "error", err)
		os.Exit(1)
	}
	if verifier == nil {
		slog.Warn("AUTH_BASE_URL not set; only anonymous identities are accepted", "tag", "main")
	}

	engine := game.NewEngine(game.EngineParams{
		Sessions: backend,
		History:  backend,
		Users:    backend,
		Profiles: backend,
		Bank:     bank,
		Picker:   selector.New(bank, cfg.Selector.TopN, cfg.Selector.TieEpsilon),
		Repairer: repair.New(nil, cfg.Repair.GeneratorRetries),
		Counter:  counter,
	}, game.EngineConfig{
		TargetLength:        cfg.TargetLength,
		QueueTargetSize:     cfg.QueueTargetSize,
		AvoidMaybeUntil:     cfg.AvoidMaybeUntil,
		PlayerHistoryWindow: cfg.PlayerHistoryWindow,
		MaxNameLength:       cfg.MaxNameLength,
		QuotaMode:           quotaMode,
	})

	mux := http.NewServeMux()
	api.NewHandler(engine, verifier).Register(mux)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	slog.Info("activity delivery server listening", "tag", "main",
		"addr", addr, "target_length", cfg.TargetLength, "quota_mode", quotaMode)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("server stopped", "tag", "main", "error", err)
		os.Exit(1)
	}
}
