package breaker

import (
	"context"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
)

type textSearcher interface {
	Search(
		ctx context.Context, field domquery.Field,
		terms []string, fuzzy bool, op domquery.BoolOp,
	) ([]candidate.Hit, error)
}

type graph interface {
	NeighborsAtDistance(ctx context.Context, id int64, distance int, dir domquery.Direction) ([]int64, error)
	LinkCount(ctx context.Context, id int64, dir domquery.Direction, category string) (int, error)
}

type scanningGraph interface {
	graph
	NodesByLinkCount(
		ctx context.Context, dir domquery.Direction, category string,
		minCount int, maxCount *int,
	) (map[int64]int, error)
}

type corpus interface {
	Fetch(ctx context.Context, ids []int64, fields article.Field) (map[int64]article.Node, error)
	ResolveTitles(ctx context.Context, titles []string) ([]int64, error)
	ResolveCategories(ctx context.Context, categories []string) ([]int64, error)
	AllIDs(ctx context.Context) ([]int64, error)
}

// Text guards a text searcher.
type Text struct {
	inner textSearcher
	cb    *gobreaker.CircuitBreaker
}

// NewText wraps inner in a breaker named "text".
func NewText(inner textSearcher, s Settings, log *zap.Logger) *Text {
	return &Text{inner: inner, cb: newBreaker("text", s, log)}
}

// Search implements the text searcher.
func (t *Text) Search(
	ctx context.Context, field domquery.Field, terms []string, fuzzy bool, op domquery.BoolOp,
) ([]candidate.Hit, error) {
	return execute(t.cb, func() ([]candidate.Hit, error) {
		return t.inner.Search(ctx, field, terms, fuzzy, op)
	})
}

// Graph guards a graph backend.
type Graph struct {
	inner graph
	cb    *gobreaker.CircuitBreaker
}

// NewGraph wraps inner in a breaker named "graph".
func NewGraph(inner graph, s Settings, log *zap.Logger) *Graph {
	return &Graph{inner: inner, cb: newBreaker("graph", s, log)}
}

// NeighborsAtDistance implements the graph.
func (g *Graph) NeighborsAtDistance(
	ctx context.Context, id int64, distance int, dir domquery.Direction,
) ([]int64, error) {
	return execute(g.cb, func() ([]int64, error) {
		return g.inner.NeighborsAtDistance(ctx, id, distance, dir)
	})
}

// LinkCount implements the graph.
func (g *Graph) LinkCount(ctx context.Context, id int64, dir domquery.Direction, category string) (int, error) {
	return execute(g.cb, func() (int, error) {
		return g.inner.LinkCount(ctx, id, dir, category)
	})
}

// ScanningGraph guards a graph backend that also scans link counts. Both
// capabilities share one breaker.
type ScanningGraph struct {
	*Graph
	scanner scanningGraph
}

// NewScanningGraph wraps inner in a breaker named "graph".
func NewScanningGraph(inner scanningGraph, s Settings, log *zap.Logger) *ScanningGraph {
	return &ScanningGraph{Graph: NewGraph(inner, s, log), scanner: inner}
}

// NodesByLinkCount implements the link count scanner.
func (g *ScanningGraph) NodesByLinkCount(
	ctx context.Context, dir domquery.Direction, category string, minCount int, maxCount *int,
) (map[int64]int, error) {
	return execute(g.cb, func() (map[int64]int, error) {
		return g.scanner.NodesByLinkCount(ctx, dir, category, minCount, maxCount)
	})
}

// Corpus guards a corpus.
type Corpus struct {
	inner corpus
	cb    *gobreaker.CircuitBreaker
}

// NewCorpus wraps inner in a breaker named "corpus".
func NewCorpus(inner corpus, s Settings, log *zap.Logger) *Corpus {
	return &Corpus{inner: inner, cb: newBreaker("corpus", s, log)}
}

// Fetch implements the corpus.
func (c *Corpus) Fetch(ctx context.Context, ids []int64, fields article.Field) (map[int64]article.Node, error) {
	return execute(c.cb, func() (map[int64]article.Node, error) {
		return c.inner.Fetch(ctx, ids, fields)
	})
}

// ResolveTitles implements the corpus.
func (c *Corpus) ResolveTitles(ctx context.Context, titles []string) ([]int64, error) {
	return execute(c.cb, func() ([]int64, error) {
		return c.inner.ResolveTitles(ctx, titles)
	})
}

// ResolveCategories implements the corpus.
func (c *Corpus) ResolveCategories(ctx context.Context, categories []string) ([]int64, error) {
	return execute(c.cb, func() ([]int64, error) {
		return c.inner.ResolveCategories(ctx, categories)
	})
}

// AllIDs implements the corpus.
func (c *Corpus) AllIDs(ctx context.Context) ([]int64, error) {
	return execute(c.cb, func() ([]int64, error) {
		return c.inner.AllIDs(ctx)
	})
}
