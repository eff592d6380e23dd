package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/adapters/driven/auth"
	redisadapter "github.com/custodia-labs/handover-core/internal/adapters/driven/redis"
	"github.com/custodia-labs/handover-core/internal/adapters/driven/upstream"
	httpserver "github.com/custodia-labs/handover-core/internal/adapters/driving/http"
	"github.com/custodia-labs/handover-core/internal/config"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
	"github.com/custodia-labs/handover-core/internal/core/services"
	"github.com/custodia-labs/handover-core/internal/extractors"
	"github.com/custodia-labs/handover-core/internal/metrics"
	"github.com/custodia-labs/handover-core/internal/normalisers"
	"github.com/custodia-labs/handover-core/internal/ranking"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()

	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}

	log.Info("handover-core starting", zap.String("version", version))

	// ===== Redis (optional) =====
	redisClient, err := connectRedis(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	var (
		cache driven.ResultCache
		lock  driven.DistributedLock
		ready httpserver.Pinger
	)
	if redisClient != nil {
		defer redisClient.Close()
		cache = redisadapter.NewResultCache(redisClient)
		redisLock := redisadapter.NewLock(redisClient)
		lock = redisLock
		ready = redisLock
	}

	// ===== Handover store =====
	store, err := openStore(ctx, cfg.Database, lock, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// ===== Upstream clients =====
	documents := upstream.NewDocumentClient(upstreamConfig(cfg.Upstream, cfg.Upstream.DocumentsURL), nil, log)
	emails := upstream.NewEmailClient(upstreamConfig(cfg.Upstream, cfg.Upstream.EmailsURL), nil, log)
	var entities driven.EntityExtractor
	if cfg.Upstream.EntitiesURL != "" {
		entities = upstream.NewEntityClient(upstreamConfig(cfg.Upstream, cfg.Upstream.EntitiesURL), nil, log)
	}

	// ===== Services =====
	m := metrics.New()
	authService := services.NewAuthService(auth.NewAdapterWithIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer))
	aggregationService := services.NewAggregationService(services.AggregationDeps{
		Documents:   documents,
		Emails:      emails,
		Entities:    entities,
		Normalisers: normalisers.DefaultRegistry(cfg.Scoring, cfg.Links, log),
		Cascader:    ranking.NewCascader(ranking.Config{NoiseFloor: cfg.Scoring.NoiseFloor}),
		Extractor:   extractors.DefaultChain(),
		Cache:       cache,
		CacheTTL:    cfg.Redis.CacheTTL,
		Metrics:     m,
		Logger:      log,
	})
	handoverService := services.NewHandoverService(store, m, log)

	// ===== HTTP =====
	server := httpserver.NewServer(
		httpserver.Config{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			Version:        version,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		},
		authService,
		aggregationService,
		handoverService,
		store,
		ready,
		m,
		log,
	)

	return server.Start(ctx)
}

func upstreamConfig(cfg config.UpstreamConfig, baseURL string) upstream.Config {
	c := upstream.DefaultConfig(baseURL)
	c.Timeout = cfg.Timeout
	c.RequestsPerSecond = cfg.RequestsPerSecond
	c.Burst = cfg.Burst
	c.MaxRetries = cfg.MaxRetries
	c.MaxBackoff = cfg.MaxBackoff
	return c
}
