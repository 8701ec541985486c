// Package memory is an in-process backend holding a whole article corpus.
// It implements the text, graph and corpus capabilities of the query
// pipeline and is used for local runs and tests.
package memory

import (
	"context"
	"slices"

	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	"github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
)

type document struct {
	title   []string
	content []string
}

// Corpus is an immutable in-memory corpus. Safe for concurrent use.
type Corpus struct {
	nodes   map[int64]article.Node
	ids     []int64
	byTitle map[string][]int64
	out     map[int64][]int64
	in      map[int64][]int64
	docs    map[int64]document
}

// New indexes the given nodes. Links pointing outside the corpus are not edges.
func New(nodes []article.Node) *Corpus {
	c := &Corpus{
		nodes:   make(map[int64]article.Node, len(nodes)),
		byTitle: make(map[string][]int64),
		out:     make(map[int64][]int64),
		in:      make(map[int64][]int64),
		docs:    make(map[int64]document, len(nodes)),
	}
	for _, n := range nodes {
		c.nodes[n.ID()] = n
	}
	for id, n := range c.nodes {
		c.ids = append(c.ids, id)
		c.byTitle[n.Title()] = append(c.byTitle[n.Title()], id)
		c.docs[id] = document{title: analyze(n.Title()), content: analyze(n.Content())}
		for _, l := range n.Links() {
			if _, ok := c.nodes[l.ID]; !ok || slices.Contains(c.out[id], l.ID) {
				continue
			}
			c.out[id] = append(c.out[id], l.ID)
			c.in[l.ID] = append(c.in[l.ID], id)
		}
	}
	slices.Sort(c.ids)
	return c
}

// FromFixture builds a corpus from a parsed fixture.
func FromFixture(f Fixture) *Corpus {
	return New(f.Nodes())
}

// Len returns the number of articles.
func (c *Corpus) Len() int { return len(c.ids) }

// Ping reports the corpus as available while ctx is live.
func (c *Corpus) Ping(ctx context.Context) error { return ctx.Err() }

// Fetch returns the requested fields of the given articles.
func (c *Corpus) Fetch(ctx context.Context, ids []int64, fields article.Field) (map[int64]article.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[int64]article.Node, len(ids))
	for _, id := range ids {
		n, ok := c.nodes[id]
		if !ok {
			continue
		}
		out[id] = project(n, fields)
	}
	return out, nil
}

func project(n article.Node, fields article.Field) article.Node {
	var (
		title      string
		categories []string
		links      []article.Link
	)
	if fields.Has(article.FieldTitle) {
		title = n.Title()
	}
	if fields.Has(article.FieldCategories) {
		categories = n.Categories()
	}
	if fields.Has(article.FieldLinks) {
		links = n.Links()
	}
	p := article.New(n.ID(), title, categories, links)
	if fields.Has(article.FieldContent) {
		p = p.WithContent(n.Content())
	}
	return p
}

// ResolveTitles returns the ids of articles with exactly one of the titles.
func (c *Corpus) ResolveTitles(ctx context.Context, titles []string) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []int64
	for _, t := range titles {
		ids = append(ids, c.byTitle[t]...)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// ResolveCategories returns the ids of articles carrying any of the categories.
func (c *Corpus) ResolveCategories(ctx context.Context, categories []string) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids []int64
	for _, id := range c.ids {
		n := c.nodes[id]
		for _, cat := range categories {
			if n.InCategory(cat) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

// AllIDs returns every article id in ascending order.
func (c *Corpus) AllIDs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(c.ids), nil
}

// Search matches one text filter. A term matches a document when its tokens
// appear consecutively; fuzzy terms match every word within one edit instead.
// The score is the number of matched occurrences.
func (c *Corpus) Search(
	ctx context.Context, field query.Field, terms []string, fuzzy bool, op query.BoolOp,
) ([]candidate.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	analyzed := make([][]string, 0, len(terms))
	for _, t := range terms {
		if tokens := analyze(t); len(tokens) > 0 {
			analyzed = append(analyzed, tokens)
		}
	}
	if len(analyzed) == 0 {
		return nil, nil
	}

	var hits []candidate.Hit
	for _, id := range c.ids {
		tokens := c.docs[id].content
		if field == query.FieldTitle {
			tokens = c.docs[id].title
		}
		score, matched := 0, 0
		for _, term := range analyzed {
			n := occurrences(tokens, term, fuzzy)
			if n > 0 {
				matched++
				score += n
			}
		}
		if matched == 0 || op == query.OpAnd && matched < len(analyzed) {
			continue
		}
		hits = append(hits, candidate.Hit{ID: id, Score: float64(score)})
	}
	return hits, nil
}

func occurrences(tokens, term []string, fuzzy bool) int {
	if fuzzy {
		total := 0
		for _, word := range term {
			n := 0
			for _, tok := range tokens {
				if withinOneEdit(tok, word) {
					n++
				}
			}
			if n == 0 {
				return 0
			}
			total += n
		}
		return total
	}
	n := 0
	for i := 0; i+len(term) <= len(tokens); i++ {
		if slices.Equal(tokens[i:i+len(term)], term) {
			n++
		}
	}
	return n
}

// NeighborsAtDistance returns the nodes whose shortest path from id is exactly distance hops.
func (c *Corpus) NeighborsAtDistance(ctx context.Context, id int64, distance int, dir query.Direction) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := c.nodes[id]; !ok {
		return nil, nil
	}
	adj := c.adjacency(dir)
	visited := map[int64]struct{}{id: {}}
	frontier := []int64{id}
	for d := 0; d < distance && len(frontier) > 0; d++ {
		var next []int64
		for _, n := range frontier {
			for _, m := range adj[n] {
				if _, seen := visited[m]; seen {
					continue
				}
				visited[m] = struct{}{}
				next = append(next, m)
			}
		}
		frontier = next
	}
	slices.Sort(frontier)
	return frontier, nil
}

// LinkCount counts the links of id in dir, optionally only those whose other end is in category.
func (c *Corpus) LinkCount(ctx context.Context, id int64, dir query.Direction, category string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.linkCount(id, dir, category), nil
}

// NodesByLinkCount returns every node whose link count lies in [minCount, maxCount].
func (c *Corpus) NodesByLinkCount(
	ctx context.Context, dir query.Direction, category string, minCount int, maxCount *int,
) (map[int64]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[int64]int)
	for _, id := range c.ids {
		n := c.linkCount(id, dir, category)
		if n < minCount || maxCount != nil && n > *maxCount {
			continue
		}
		out[id] = n
	}
	return out, nil
}

func (c *Corpus) linkCount(id int64, dir query.Direction, category string) int {
	neighbors := c.adjacency(dir)[id]
	if category == "" {
		return len(neighbors)
	}
	n := 0
	for _, m := range neighbors {
		if c.nodes[m].InCategory(category) {
			n++
		}
	}
	return n
}

func (c *Corpus) adjacency(dir query.Direction) map[int64][]int64 {
	if dir == query.DirectionIn {
		return c.in
	}
	return c.out
}
