package wikiquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbNeo4j "github.com/kailas-cloud/wikiquery/internal/db/neo4j"
	dbRedis "github.com/kailas-cloud/wikiquery/internal/db/redis"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/response"
	articlerepo "github.com/kailas-cloud/wikiquery/internal/repository/article"
	"github.com/kailas-cloud/wikiquery/internal/repository/breaker"
	graphrepo "github.com/kailas-cloud/wikiquery/internal/repository/graph"
	"github.com/kailas-cloud/wikiquery/internal/repository/memory"
	healthuc "github.com/kailas-cloud/wikiquery/internal/usecase/health"
	queryuc "github.com/kailas-cloud/wikiquery/internal/usecase/query"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "wikiquery:"
)

// Internal interfaces, swapped out in tests.
type queryUseCase interface {
	Evaluate(ctx context.Context, q domquery.ArticleQuery) (response.Response, error)
}

// Client is the wikiquery SDK entry point. Safe for concurrent use.
type Client struct {
	querySvc  queryUseCase
	healthSvc healthUseCase
	closers   []func()
	obs       *observer
}

// backendSet is what one backend choice contributes to the pipeline.
type backendSet struct {
	text    queryuc.TextSearcher
	graph   queryuc.Graph
	corpus  queryuc.Corpus
	health  []healthuc.Component
	closers []func()
}

// New creates a Client and waits for its backends.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:        defaultKeyPrefix,
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var b *backendSet
	switch {
	case cfg.fixture != "" || len(cfg.articles) > 0:
		b, err = memoryBackends(cfg)
	case len(cfg.redisAddrs) > 0:
		b, err = storeBackends(ctx, cfg)
	default:
		return nil, errors.New("wikiquery: backend required (use WithRedis and WithNeo4j, or WithFixture)")
	}
	if err != nil {
		return nil, err
	}

	text, graph, corpus := b.text, b.graph, b.corpus
	if cfg.breaker {
		s := breaker.DefaultSettings()
		text = breaker.NewText(b.text, s, nil)
		corpus = breaker.NewCorpus(b.corpus, s, nil)
		if scanner, ok := b.graph.(scanningGraph); ok {
			graph = breaker.NewScanningGraph(scanner, s, nil)
		} else {
			graph = breaker.NewGraph(b.graph, s, nil)
		}
	}

	svc := queryuc.New(text, graph, corpus).WithLimits(queryuc.Limits{
		Workers:        cfg.workers,
		Timeout:        cfg.queryTimeout,
		BackendTimeout: cfg.backendTimeout,
	})

	return &Client{
		querySvc:  svc,
		healthSvc: healthuc.New(b.health...),
		closers:   b.closers,
		obs:       obs,
	}, nil
}

type scanningGraph interface {
	queryuc.Graph
	queryuc.LinkCountScanner
}

func memoryBackends(cfg *clientConfig) (*backendSet, error) {
	var f memory.Fixture
	if cfg.fixture != "" {
		var err error
		if f, err = memory.LoadFixture(cfg.fixture); err != nil {
			return nil, fmt.Errorf("wikiquery: %w", err)
		}
	}
	for _, a := range cfg.articles {
		fa := memory.FixtureArticle{
			ID:         a.ID,
			Title:      a.Title,
			Content:    a.Content,
			Categories: a.Categories,
		}
		for _, l := range a.Links {
			fa.Links = append(fa.Links, l.ID)
		}
		f.Articles = append(f.Articles, fa)
	}

	c := memory.FromFixture(f)
	return &backendSet{
		text:   c,
		graph:  c,
		corpus: c,
		health: []healthuc.Component{{Name: "memory", Pinger: c}},
	}, nil
}

func storeBackends(ctx context.Context, cfg *clientConfig) (*backendSet, error) {
	if cfg.graphURI == "" {
		return nil, errors.New("wikiquery: graph address required (use WithNeo4j)")
	}

	redisStore, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.redisAddrs,
		Username: cfg.redisUser,
		Password: cfg.redisPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("wikiquery: create redis store: %w", err)
	}
	graphStore, err := dbNeo4j.NewStore(dbNeo4j.Config{
		URI:      cfg.graphURI,
		Username: cfg.graphUser,
		Password: cfg.graphPassword,
		Database: cfg.graphDatabase,
	})
	if err != nil {
		redisStore.Close()
		return nil, fmt.Errorf("wikiquery: create graph store: %w", err)
	}

	closers := []func(){
		redisStore.Close,
		func() { _ = graphStore.Close(context.Background()) },
	}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if err := redisStore.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		closeAll()
		return nil, fmt.Errorf("wikiquery: redis not ready: %w", err)
	}
	if err := graphStore.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		closeAll()
		return nil, fmt.Errorf("wikiquery: graph not ready: %w", err)
	}

	articles := articlerepo.New(redisStore, cfg.keyPrefix).WithMaxTextHits(cfg.maxTextHits)
	return &backendSet{
		text:   articles,
		graph:  graphrepo.New(graphStore),
		corpus: articles,
		health: []healthuc.Component{
			{Name: "redis", Pinger: redisStore},
			{Name: "neo4j", Pinger: graphStore},
		},
		closers: closers,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}

// Ping fails unless every backend is healthy.
func (c *Client) Ping(ctx context.Context) error {
	h := c.Health(ctx)
	if h.Status != string(healthuc.Healthy) {
		return fmt.Errorf("ping: %w: %v", errUnhealthy, h.Checks)
	}
	return nil
}

// Query starts a new query over the whole corpus.
func (c *Client) Query() *QueryBuilder {
	return &QueryBuilder{client: c}
}

// Article returns one article with its content, or ErrNotFound.
func (c *Client) Article(ctx context.Context, id int64) (Article, error) {
	resp, err := c.Query().IDs(id).fetch(ctx, "article.get", domquery.ReturnNodeWithContent)
	if err != nil {
		return Article{}, err
	}
	nodes := resp.Nodes()
	if len(nodes) == 0 {
		return Article{}, fmt.Errorf("article %d: %w", id, ErrNotFound)
	}
	return articleFromNode(nodes[0]), nil
}
