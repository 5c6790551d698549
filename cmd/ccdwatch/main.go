package main

import (
	"context"
	"log"
	"os"

	"github.com/evanpardo/ccdwatch/internal/accountregistry"
	"github.com/evanpardo/ccdwatch/internal/chain"
	"github.com/evanpardo/ccdwatch/internal/compose"
	"github.com/evanpardo/ccdwatch/internal/config"
	"github.com/evanpardo/ccdwatch/internal/dispatcher"
	"github.com/evanpardo/ccdwatch/internal/extractor"
	"github.com/evanpardo/ccdwatch/internal/handlers/cli"
	"github.com/evanpardo/ccdwatch/internal/infra/metadata"
	"github.com/evanpardo/ccdwatch/internal/infra/node/rpc"
	"github.com/evanpardo/ccdwatch/internal/infra/notify/ses"
	"github.com/evanpardo/ccdwatch/internal/infra/notify/telegram"
	redisstorage "github.com/evanpardo/ccdwatch/internal/infra/storage/redis"
	"github.com/evanpardo/ccdwatch/internal/pipeline"
	"github.com/evanpardo/ccdwatch/internal/pkg/logger"
	"github.com/evanpardo/ccdwatch/internal/pkg/resilience/retry"
	"github.com/evanpardo/ccdwatch/internal/pkg/telemetry"
	"github.com/evanpardo/ccdwatch/internal/pkg/validation"
	"github.com/evanpardo/ccdwatch/internal/resolver"
	"github.com/evanpardo/ccdwatch/internal/router"
)

func main() {
	ctx := context.Background()

	validation.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, cfg.ServiceName,
			telemetry.WithExporterEndpoint(cfg.OTELExporterEndpoint),
			telemetry.WithExporterTLSCACert(cfg.OTELExporterTLSCACert),
		)
		if err != nil {
			log.Fatalf("initializing telemetry: %v", err)
		}
		defer func() { _ = shutdown(ctx) }()
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	storage, err := redisstorage.NewClient(ctx, chain.Network(cfg.Network), cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal(ctx, "connecting to redis", "error", err)
	}
	defer func() { _ = storage.Close() }()

	node := rpc.NewClient(cfg.NodeRPCEndpoint)

	addressResolver := resolver.New(node, storage)

	extractorOpts := []extractor.Option{}
	tokenNames := pipeline.NewTokenNameCache(storage)
	extractorOpts = append(extractorOpts, extractor.WithTokenNames(tokenNames))
	if cfg.WalletProxyBaseURL != "" {
		extractorOpts = append(extractorOpts, extractor.WithMetadataFetcher(metadata.NewClient(cfg.WalletProxyBaseURL)))
	}
	blockExtractor := extractor.New(addressResolver, node, extractorOpts...)

	labels := pipeline.NewLabelCache(storage)
	eventRouter := router.New(compose.New(), router.WithLabelSource(labels))

	var chatSender dispatcher.ChatSender
	if cfg.TelegramBotToken != "" {
		chatSender = telegram.NewClient(cfg.TelegramBotToken)
	}

	var emailSender dispatcher.EmailSender
	if cfg.EmailFrom != "" {
		emailSender, err = ses.NewClient(ctx, cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			logger.Fatal(ctx, "initializing email sender", "error", err)
		}
	}

	notificationDispatcher := dispatcher.New(chatSender, emailSender, dispatcher.WithAuditStorage(storage))

	p := pipeline.New(
		storage,
		storage,
		blockExtractor,
		eventRouter,
		notificationDispatcher,
		storage,
		addressResolver,
		pipeline.WithNodeStatusStorage(storage),
		pipeline.WithRefreshers(labels, tokenNames),
		pipeline.WithRetry(retry.New()),
		pipeline.WithPollInterval(cfg.PollInterval),
		pipeline.WithRefreshInterval(cfg.RefreshInterval),
		pipeline.WithFastAccountInterval(cfg.FastAccountInterval),
		pipeline.WithNodeLagInterval(cfg.NodeLagInterval),
		pipeline.WithStallTimeout(cfg.StallTimeout),
		pipeline.WithBatchSize(cfg.BlockBatchSize),
		pipeline.WithLagThreshold(cfg.NodeLagThreshold),
	)

	registry := accountregistry.New(storage, addressResolver)

	if err := cli.Run(ctx, registry, p); err != nil {
		logger.Error(ctx, "ccdwatch exited with error", "error", err)
		os.Exit(1)
	}
}
