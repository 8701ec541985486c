package wikiquery

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	redisAddrs    []string
	redisUser     string
	redisPassword string
	keyPrefix     string

	graphURI      string
	graphUser     string
	graphPassword string
	graphDatabase string

	fixture  string
	articles []Article

	readinessTimeout time.Duration
	queryTimeout     time.Duration
	backendTimeout   time.Duration
	workers          int
	maxTextHits      int
	breaker          bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the full-text index and article hashes.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithRedisACL configures Redis with an ACL user.
func WithRedisACL(addrs []string, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = addrs
		c.redisUser = username
		c.redisPassword = password
	})
}

// WithKeyPrefix namespaces article keys and the index name.
// Default: "wikiquery:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithNeo4j configures the link graph. Required together with WithRedis.
func WithNeo4j(uri, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.graphURI = uri
		c.graphUser = username
		c.graphPassword = password
	})
}

// WithNeo4jDatabase selects a non-default Neo4j database.
func WithNeo4jDatabase(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.graphDatabase = name
	})
}

// WithFixture serves queries from a YAML corpus held in memory instead of
// Redis and Neo4j.
func WithFixture(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fixture = path
	})
}

// WithArticles serves queries from the given articles held in memory.
// Link titles are resolved from the set; links to unknown ids are dropped.
func WithArticles(articles ...Article) Option {
	return optionFunc(func(c *clientConfig) {
		c.articles = append(c.articles, articles...)
	})
}

// WithReadinessTimeout bounds the initial wait for the backends.
// Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithTimeouts sets the whole-query and per-backend-call deadlines.
// Zero disables a deadline.
func WithTimeouts(query, backend time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = query
		c.backendTimeout = backend
	})
}

// WithWorkers bounds concurrent backend calls per evaluation round.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithMaxTextHits caps how many hits one text filter may return.
// Default: 10000.
func WithMaxTextHits(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxTextHits = n
	})
}

// WithCircuitBreaker guards each backend with a circuit breaker using
// default settings.
func WithCircuitBreaker() Option {
	return optionFunc(func(c *clientConfig) {
		c.breaker = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
