package neo4j

import "context"

// Article is the graph-side projection of an article.
type Article struct {
	ID         int64
	Title      string
	Categories []string
	Links      []int64
}

const (
	cypherConstraint = `CREATE CONSTRAINT article_id_unique IF NOT EXISTS ` +
		`FOR (a:Article) REQUIRE a.article_id IS UNIQUE`

	cypherReset = `MATCH (a:Article) DETACH DELETE a`

	cypherUpsertNodes = `UNWIND $rows AS row
MERGE (a:Article {article_id: row.id})
SET a.title = row.title, a.categories = row.categories`

	// Links to articles that do not exist are dropped.
	cypherUpsertLinks = `UNWIND $rows AS row
MATCH (a:Article {article_id: row.id})
UNWIND row.links AS target
MATCH (b:Article {article_id: target})
MERGE (a)-[:LINKS_TO]->(b)`
)

// EnsureSchema creates the article_id uniqueness constraint if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.write(ctx, cypherConstraint, nil)
}

// Reset removes every article node and its edges.
func (s *Store) Reset(ctx context.Context) error {
	return s.write(ctx, cypherReset, nil)
}

// UpsertArticles merges the articles and then their outgoing links, so links
// between articles of the same batch resolve.
func (s *Store) UpsertArticles(ctx context.Context, articles []Article) error {
	if len(articles) == 0 {
		return nil
	}

	rows := make([]any, len(articles))
	for i, a := range articles {
		cats := a.Categories
		if cats == nil {
			cats = []string{}
		}
		links := a.Links
		if links == nil {
			links = []int64{}
		}
		rows[i] = map[string]any{
			"id":         a.ID,
			"title":      a.Title,
			"categories": cats,
			"links":      links,
		}
	}

	params := map[string]any{"rows": rows}
	if err := s.write(ctx, cypherUpsertNodes, params); err != nil {
		return err
	}
	return s.write(ctx, cypherUpsertLinks, params)
}
