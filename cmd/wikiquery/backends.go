package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikiquery/internal/config"
	dbNeo4j "github.com/kailas-cloud/wikiquery/internal/db/neo4j"
	dbRedis "github.com/kailas-cloud/wikiquery/internal/db/redis"
	"github.com/kailas-cloud/wikiquery/internal/metrics"
	articlerepo "github.com/kailas-cloud/wikiquery/internal/repository/article"
	"github.com/kailas-cloud/wikiquery/internal/repository/breaker"
	graphrepo "github.com/kailas-cloud/wikiquery/internal/repository/graph"
	"github.com/kailas-cloud/wikiquery/internal/repository/memory"
	healthuc "github.com/kailas-cloud/wikiquery/internal/usecase/health"
	queryuc "github.com/kailas-cloud/wikiquery/internal/usecase/query"
)

// backends is the composition root's view of the storage layer.
type backends struct {
	text   queryuc.TextSearcher
	graph  queryuc.Graph
	corpus queryuc.Corpus
	health *healthuc.Service
	close  func()
}

func buildBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backends, error) {
	switch cfg.Backend.Driver {
	case config.DriverMemory:
		return memoryBackends(cfg, logger)
	case config.DriverRedis:
		return storeBackends(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
}

func memoryBackends(cfg config.Config, logger *zap.Logger) (*backends, error) {
	f, err := memory.LoadFixture(cfg.Backend.Fixture)
	if err != nil {
		return nil, err
	}
	c := memory.FromFixture(f)
	logger.Info("Loaded in-memory corpus",
		zap.String("fixture", cfg.Backend.Fixture),
		zap.Int("articles", c.Len()),
	)

	return &backends{
		text:   c,
		graph:  c,
		corpus: c,
		health: healthuc.New(healthuc.Component{Name: "memory", Pinger: c}),
		close:  func() {},
	}, nil
}

func storeBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backends, error) {
	redisStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}

	graphStore, err := dbNeo4j.NewStore(dbNeo4j.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	})
	if err != nil {
		redisStore.Close()
		return nil, fmt.Errorf("graph store: %w", err)
	}

	closeAll := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := graphStore.Close(closeCtx); err != nil {
			logger.Warn("Failed to close graph store", zap.Error(err))
		}
		redisStore.Close()
	}

	// Wait for both databases to be ready
	if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		closeAll()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}
	if err := graphStore.WaitForReady(ctx, time.Duration(cfg.Graph.ReadinessTimeout)*time.Second); err != nil {
		closeAll()
		return nil, fmt.Errorf("graph not ready: %w", err)
	}
	logger.Info("Connected to databases",
		zap.Strings("redis_addrs", cfg.Redis.Addrs),
		zap.String("graph_uri", cfg.Graph.URI),
	)

	articles := articlerepo.New(redisStore, cfg.Redis.KeyPrefix).WithMaxTextHits(cfg.Query.MaxTextHits)
	links := graphrepo.New(graphStore)

	b := &backends{
		text:   articles,
		graph:  links,
		corpus: articles,
		health: healthuc.New(
			healthuc.Component{Name: "redis", Pinger: redisStore},
			healthuc.Component{Name: "neo4j", Pinger: graphStore},
		),
		close: closeAll,
	}

	if cfg.Breaker.Enabled {
		s := breakerSettings(cfg.Breaker)
		b.text = breaker.NewText(articles, s, logger)
		b.graph = breaker.NewScanningGraph(links, s, logger)
		b.corpus = breaker.NewCorpus(articles, s, logger)
	}

	return b, nil
}

func breakerSettings(c config.BreakerConfig) breaker.Settings {
	return breaker.Settings{
		MaxRequests: c.MaxRequests,
		MinRequests: c.MinRequests,
		Interval:    time.Duration(c.IntervalSec) * time.Second,
		Timeout:     time.Duration(c.TimeoutSec) * time.Second,
		TripRatio:   c.TripRatio,
		OnStateChange: metrics.SetBreakerState,
	}
}
