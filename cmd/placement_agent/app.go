package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/placement-tracker/internal/config"
	"github.com/jonathan/placement-tracker/internal/db"
	"github.com/jonathan/placement-tracker/internal/dedup"
	"github.com/jonathan/placement-tracker/internal/gate"
	"github.com/jonathan/placement-tracker/internal/llm"
	"github.com/jonathan/placement-tracker/internal/mail"
	"github.com/jonathan/placement-tracker/internal/observability"
	"github.com/jonathan/placement-tracker/internal/pipeline"
	syncpkg "github.com/jonathan/placement-tracker/internal/sync"
)

// leaseKey guards the sync cycle across agent instances.
const leaseKey = "placement-tracker:sync-lease"

// app bundles the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	database *db.DB
	pipeline *pipeline.Pipeline
	syncer   *syncpkg.Syncer
	gemini   *llm.GeminiClient
	redis    *redis.Client
}

// newApp loads configuration and wires the pipeline. The mailbox source is
// only connected when withMail is set; commands that process local input or
// only serve reads skip it.
func newApp(ctx context.Context, withMail bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cfg.LogLevel)

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, database: database}

	var enhancer pipeline.Enhancer
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		a.gemini = client
		enhancer = llm.NewEnhancer(client, time.Duration(cfg.EnhancerTimeout)*time.Second)
	} else {
		logger.Warn("no Gemini API key configured, extraction runs deterministic-only")
	}

	g := gate.New(cfg.AllowedSenders, cfg.GateKeywords)
	matcher := dedup.NewMatcher(cfg.SimilarityThreshold, cfg.ConfidenceFloor)
	a.pipeline = pipeline.New(database, g, enhancer, matcher, logger, cfg.Concurrency)

	if withMail {
		source, err := mail.NewGmailSource(ctx, cfg.GmailQuery)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to Gmail: %w", err)
		}

		var lease syncpkg.Lease
		if cfg.RedisURL != "" {
			rdb, err := syncpkg.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				a.Close()
				return nil, err
			}
			a.redis = rdb
			lease = syncpkg.NewRedisLease(rdb, leaseKey, 0)
		}

		a.syncer = syncpkg.NewSyncer(source, database, lease, a.pipeline, logger)
		a.syncer.SetBackfillLimit(cfg.BackfillLimit)
	}

	return a, nil
}

// Close releases every connection the app holds.
func (a *app) Close() {
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			a.logger.Warn("closing Gemini client", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing Redis client", "error", err)
		}
	}
	if a.database != nil {
		a.database.Close()
	}
}
