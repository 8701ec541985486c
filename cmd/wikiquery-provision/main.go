// Command wikiquery-provision prepares the Redis index and the Neo4j schema,
// and optionally seeds both stores from a YAML fixture.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wikiquery/internal/config"
	dbNeo4j "github.com/kailas-cloud/wikiquery/internal/db/neo4j"
	dbRedis "github.com/kailas-cloud/wikiquery/internal/db/redis"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	logpkg "github.com/kailas-cloud/wikiquery/internal/logger"
	articlerepo "github.com/kailas-cloud/wikiquery/internal/repository/article"
	graphrepo "github.com/kailas-cloud/wikiquery/internal/repository/graph"
	"github.com/kailas-cloud/wikiquery/internal/repository/memory"
	"github.com/kailas-cloud/wikiquery/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		env     string
		fixture string
		reset   bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wikiquery-provision",
		Short: "Create the article index and graph schema, optionally seeding a fixture",
		Long: `wikiquery-provision recreates the full-text index over article hashes,
ensures the Neo4j uniqueness constraint and, given --fixture, writes every
article into both stores. Existing indexes are dropped first; with --reset the
indexed hashes and all graph nodes are deleted as well.`,
		Version:      version.String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return run(ctx, env, fixture, reset)
		},
	}

	cmd.Flags().StringVar(&env, "env", config.GetEnv(), "configuration environment (config/<env>.yaml)")
	cmd.Flags().StringVar(&fixture, "fixture", "", "YAML fixture to seed (empty skips seeding)")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing articles before provisioning")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline")

	return cmd
}

func run(ctx context.Context, env, fixture string, reset bool) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Backend.Driver != config.DriverRedis {
		return fmt.Errorf("provisioning needs backend.driver %q, got %q", config.DriverRedis, cfg.Backend.Driver)
	}

	logger, err := logpkg.New(env, logpkg.Options{Level: cfg.Logging.Level, Component: "provision"})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	var nodes []article.Node
	if fixture != "" {
		f, err := memory.LoadFixture(fixture)
		if err != nil {
			return err
		}
		nodes = f.Nodes()
		logger.Info("Loaded fixture", zap.String("path", fixture), zap.Int("articles", len(nodes)))
	}

	redisStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Redis.Addrs,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("redis store: %w", err)
	}
	defer redisStore.Close()

	graphStore, err := dbNeo4j.NewStore(dbNeo4j.Config{
		URI:      cfg.Graph.URI,
		Username: cfg.Graph.Username,
		Password: cfg.Graph.Password,
		Database: cfg.Graph.Database,
	})
	if err != nil {
		return fmt.Errorf("graph store: %w", err)
	}
	defer func() { _ = graphStore.Close(context.Background()) }()

	if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("redis not ready: %w", err)
	}
	if err := graphStore.WaitForReady(ctx, time.Duration(cfg.Graph.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("graph not ready: %w", err)
	}

	articles := articlerepo.New(redisStore, cfg.Redis.KeyPrefix)
	p := &provisioner{
		index:   redisStore,
		def:     articles.IndexDefinition(),
		schema:  graphStore,
		writers: []articleWriter{articles, graphrepo.New(graphStore)},
		logger:  logger,
	}
	return p.run(ctx, nodes, reset)
}
