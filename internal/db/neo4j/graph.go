package neo4j

import (
	"context"
	"fmt"
	"slices"

	neodb "github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
)

// Direction selects which LINKS_TO edges are followed from the anchor node.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

// pattern binds the anchor as a and the other end as b.
func (d Direction) pattern() string {
	if d == Incoming {
		return "(a:Article)<-[:LINKS_TO]-(b:Article)"
	}
	return "(a:Article)-[:LINKS_TO]->(b:Article)"
}

const cypherExists = `MATCH (a:Article {article_id: $id}) RETURN a.article_id AS id`

// NeighborsAtDistance returns the ids whose shortest path from id is exactly
// distance hops, ascending. It expands one BFS layer per round trip.
func (s *Store) NeighborsAtDistance(ctx context.Context, id int64, distance int, dir Direction) ([]int64, error) {
	if distance < 0 {
		return nil, fmt.Errorf("distance must be non-negative, got %d", distance)
	}
	if distance == 0 {
		records, err := s.read(ctx, cypherExists, map[string]any{"id": id})
		if err != nil || len(records) == 0 {
			return nil, err
		}
		return []int64{id}, nil
	}

	step := fmt.Sprintf(
		"MATCH %s WHERE a.article_id IN $frontier RETURN DISTINCT b.article_id AS id",
		dir.pattern(),
	)

	visited := map[int64]struct{}{id: {}}
	frontier := []int64{id}
	for d := 0; d < distance && len(frontier) > 0; d++ {
		records, err := s.read(ctx, step, map[string]any{"frontier": frontier})
		if err != nil {
			return nil, err
		}
		next, err := unseen(records, visited)
		if err != nil {
			return nil, err
		}
		frontier = next
	}

	slices.Sort(frontier)
	return frontier, nil
}

func unseen(records []*neodb.Record, visited map[int64]struct{}) ([]int64, error) {
	var next []int64
	for _, rec := range records {
		n, err := recordInt64(rec, "id")
		if err != nil {
			return nil, err
		}
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		next = append(next, n)
	}
	return next, nil
}

// LinkCount counts the edges of id in dir. A non-empty category only counts
// edges whose other end carries it. An unknown id has zero links.
func (s *Store) LinkCount(ctx context.Context, id int64, dir Direction, category string) (int, error) {
	cypher := fmt.Sprintf(
		"MATCH (a:Article {article_id: $id}) OPTIONAL MATCH %s "+
			"WHERE $category = '' OR $category IN b.categories RETURN count(b) AS n",
		dir.pattern(),
	)
	records, err := s.read(ctx, cypher, map[string]any{"id": id, "category": category})
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	n, err := recordInt64(records[0], "n")
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// NodesByLinkCount returns every article whose link count lies in
// [minCount, maxCount]; a nil maxCount is unbounded. Articles without any
// links are included when minCount is zero.
func (s *Store) NodesByLinkCount(
	ctx context.Context, dir Direction, category string, minCount int, maxCount *int,
) (map[int64]int, error) {
	cypher := fmt.Sprintf(
		"MATCH (a:Article) OPTIONAL MATCH %s "+
			"WHERE $category = '' OR $category IN b.categories "+
			"WITH a, count(b) AS n WHERE n >= $min AND ($max IS NULL OR n <= $max) "+
			"RETURN a.article_id AS id, n",
		dir.pattern(),
	)

	var maxParam any
	if maxCount != nil {
		maxParam = int64(*maxCount)
	}
	records, err := s.read(ctx, cypher, map[string]any{
		"category": category,
		"min":      int64(minCount),
		"max":      maxParam,
	})
	if err != nil {
		return nil, err
	}

	out := make(map[int64]int, len(records))
	for _, rec := range records {
		id, err := recordInt64(rec, "id")
		if err != nil {
			return nil, err
		}
		n, err := recordInt64(rec, "n")
		if err != nil {
			return nil, err
		}
		out[id] = int(n)
	}
	return out, nil
}
