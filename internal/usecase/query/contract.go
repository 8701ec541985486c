package query

import (
	"context"
	"time"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
)

// TextSearcher runs one full-text filter against the search index.
type TextSearcher interface {
	Search(
		ctx context.Context, field domquery.Field,
		terms []string, fuzzy bool, op domquery.BoolOp,
	) ([]candidate.Hit, error)
}

// Graph answers structural questions about the link graph.
type Graph interface {
	// NeighborsAtDistance returns the nodes whose shortest path from id is exactly distance hops.
	NeighborsAtDistance(ctx context.Context, id int64, distance int, dir domquery.Direction) ([]int64, error)
	// LinkCount counts the links of id in dir; a non-empty category only counts
	// links whose other end carries that category.
	LinkCount(ctx context.Context, id int64, dir domquery.Direction, category string) (int, error)
}

// LinkCountScanner is an optional Graph extension that evaluates a link count
// range over the whole graph in one call.
type LinkCountScanner interface {
	NodesByLinkCount(
		ctx context.Context, dir domquery.Direction, category string,
		minCount int, maxCount *int,
	) (map[int64]int, error)
}

// Corpus reads article records.
type Corpus interface {
	// Fetch returns the requested fields of the given articles. Missing ids are absent from the map.
	Fetch(ctx context.Context, ids []int64, fields article.Field) (map[int64]article.Node, error)
	ResolveTitles(ctx context.Context, titles []string) ([]int64, error)
	// ResolveCategories returns the articles carrying any of the categories.
	ResolveCategories(ctx context.Context, categories []string) ([]int64, error)
	AllIDs(ctx context.Context) ([]int64, error)
}

// StageObserver receives per-stage timings (metrics hook).
type StageObserver interface {
	ObserveStage(stage domain.Stage, elapsed time.Duration, err error)
	ObserveQuery(returnType domquery.ReturnType, elapsed time.Duration, err error)
}
