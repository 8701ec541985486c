// Package graph adapts the Neo4j store to the query pipeline's graph capabilities.
package graph

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/wikiquery/internal/db/neo4j"
	domarticle "github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
)

// store is the consumer interface for the link graph (ISP).
type store interface {
	NeighborsAtDistance(ctx context.Context, id int64, distance int, dir neo4j.Direction) ([]int64, error)
	LinkCount(ctx context.Context, id int64, dir neo4j.Direction, category string) (int, error)
	NodesByLinkCount(
		ctx context.Context, dir neo4j.Direction, category string, minCount int, maxCount *int,
	) (map[int64]int, error)
	UpsertArticles(ctx context.Context, articles []neo4j.Article) error
}

// Repo implements Graph and LinkCountScanner.
type Repo struct {
	store store
}

// New creates a graph repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// NeighborsAtDistance returns the exact shortest-path layer at distance.
func (r *Repo) NeighborsAtDistance(
	ctx context.Context, id int64, distance int, dir domquery.Direction,
) ([]int64, error) {
	ids, err := r.store.NeighborsAtDistance(ctx, id, distance, toDirection(dir))
	if err != nil {
		return nil, fmt.Errorf("neighbors of %d at %d: %w", id, distance, err)
	}
	return ids, nil
}

// LinkCount counts the links of id in dir, optionally scoped to a category.
func (r *Repo) LinkCount(ctx context.Context, id int64, dir domquery.Direction, category string) (int, error) {
	n, err := r.store.LinkCount(ctx, id, toDirection(dir), category)
	if err != nil {
		return 0, fmt.Errorf("link count of %d: %w", id, err)
	}
	return n, nil
}

// NodesByLinkCount evaluates a link count range over the whole graph.
func (r *Repo) NodesByLinkCount(
	ctx context.Context, dir domquery.Direction, category string, minCount int, maxCount *int,
) (map[int64]int, error) {
	counts, err := r.store.NodesByLinkCount(ctx, toDirection(dir), category, minCount, maxCount)
	if err != nil {
		return nil, fmt.Errorf("nodes by link count: %w", err)
	}
	return counts, nil
}

// Save writes the graph side of the articles: nodes, categories and LINKS_TO edges.
func (r *Repo) Save(ctx context.Context, nodes ...domarticle.Node) error {
	articles := make([]neo4j.Article, len(nodes))
	for i, n := range nodes {
		links := make([]int64, len(n.Links()))
		for j, l := range n.Links() {
			links[j] = l.ID
		}
		articles[i] = neo4j.Article{
			ID:         n.ID(),
			Title:      n.Title(),
			Categories: n.Categories(),
			Links:      links,
		}
	}
	if err := r.store.UpsertArticles(ctx, articles); err != nil {
		return fmt.Errorf("save graph: %w", err)
	}
	return nil
}

func toDirection(d domquery.Direction) neo4j.Direction {
	if d == domquery.DirectionIn {
		return neo4j.Incoming
	}
	return neo4j.Outgoing
}
