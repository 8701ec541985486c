package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
	"github.com/kailas-cloud/wikiquery/internal/repository/memory"
)

// Link graph (out edges): 1->2, 1->3, 2->1, 2->4, 3->5, 4->2.
const testFixture = `
articles:
  - id: 1
    title: Go
    content: Go is a programming language designed at Google.
    categories: [Programming languages]
    links: [2, 3]
  - id: 2
    title: Python
    content: Python is a programming language.
    categories: [Programming languages]
    links: [1, 4]
  - id: 3
    title: Google
    content: Google is a company.
    categories: [Companies]
    links: [5]
  - id: 4
    title: Guido van Rossum
    content: Creator of Python programming.
    categories: [People]
    links: [2]
  - id: 5
    title: Mountain View
    content: Mountain View is a city where Google is based.
    categories: [Cities]
  - id: 6
    title: Émile Zola
    content: Émile Zola was a French novelist.
    categories: [People]
`

func newTestCorpus(t *testing.T) *memory.Corpus {
	t.Helper()
	f, err := memory.ParseFixture([]byte(testFixture))
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	return memory.FromFixture(f)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	c := newTestCorpus(t)
	return New(c, c, c)
}

// --- Stubs ---

// stubText overrides text search; falls back to the wrapped corpus.
type stubText struct {
	inner    TextSearcher
	searchFn func(ctx context.Context, field domquery.Field, terms []string) ([]candidate.Hit, error)
}

func (s *stubText) Search(
	ctx context.Context, field domquery.Field, terms []string, fuzzy bool, op domquery.BoolOp,
) ([]candidate.Hit, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, field, terms)
	}
	return s.inner.Search(ctx, field, terms, fuzzy, op)
}

// plainGraph hides the scanner capability and counts LinkCount calls.
type plainGraph struct {
	inner       Graph
	neighborsFn func(ctx context.Context, id int64, distance int) ([]int64, error)

	mu         sync.Mutex
	linkCalls  int
	layerCalls int
}

func (g *plainGraph) NeighborsAtDistance(
	ctx context.Context, id int64, distance int, dir domquery.Direction,
) ([]int64, error) {
	g.mu.Lock()
	g.layerCalls++
	g.mu.Unlock()
	if g.neighborsFn != nil {
		return g.neighborsFn(ctx, id, distance)
	}
	return g.inner.NeighborsAtDistance(ctx, id, distance, dir)
}

func (g *plainGraph) LinkCount(ctx context.Context, id int64, dir domquery.Direction, category string) (int, error) {
	g.mu.Lock()
	g.linkCalls++
	g.mu.Unlock()
	return g.inner.LinkCount(ctx, id, dir, category)
}

// stubCorpus overrides corpus calls; falls back to the wrapped corpus.
type stubCorpus struct {
	inner           Corpus
	fetchFn         func(ctx context.Context, ids []int64, fields article.Field) (map[int64]article.Node, error)
	resolveTitlesFn func(ctx context.Context, titles []string) ([]int64, error)
	allIDsFn        func(ctx context.Context) ([]int64, error)

	mu          sync.Mutex
	fetchFields []article.Field
	allIDsCalls int
}

func (c *stubCorpus) Fetch(ctx context.Context, ids []int64, fields article.Field) (map[int64]article.Node, error) {
	c.mu.Lock()
	c.fetchFields = append(c.fetchFields, fields)
	c.mu.Unlock()
	if c.fetchFn != nil {
		return c.fetchFn(ctx, ids, fields)
	}
	return c.inner.Fetch(ctx, ids, fields)
}

func (c *stubCorpus) ResolveTitles(ctx context.Context, titles []string) ([]int64, error) {
	if c.resolveTitlesFn != nil {
		return c.resolveTitlesFn(ctx, titles)
	}
	return c.inner.ResolveTitles(ctx, titles)
}

func (c *stubCorpus) ResolveCategories(ctx context.Context, categories []string) ([]int64, error) {
	return c.inner.ResolveCategories(ctx, categories)
}

func (c *stubCorpus) AllIDs(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	c.allIDsCalls++
	c.mu.Unlock()
	if c.allIDsFn != nil {
		return c.allIDsFn(ctx)
	}
	return c.inner.AllIDs(ctx)
}

type stageRecord struct {
	stage domain.Stage
	err   error
}

type recordingObserver struct {
	mu      sync.Mutex
	stages  []stageRecord
	queries int
}

func (o *recordingObserver) ObserveStage(stage domain.Stage, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stageRecord{stage: stage, err: err})
}

func (o *recordingObserver) ObserveQuery(_ domquery.ReturnType, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries++
}

// --- Builders ---

func mustQuery(t *testing.T, rt domquery.ReturnType, opts ...domquery.Option) domquery.ArticleQuery {
	t.Helper()
	q, err := domquery.New(rt, opts...)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

func mustText(t *testing.T, field domquery.Field, fuzzy bool, op domquery.BoolOp, terms ...string) domquery.TextFilter {
	t.Helper()
	f, err := domquery.NewTextFilter(field, terms, fuzzy, op)
	if err != nil {
		t.Fatalf("NewTextFilter: %v", err)
	}
	return f
}

func mustDistance(
	t *testing.T, source int64, distance int, strategy domquery.Strategy, dir domquery.Direction,
) domquery.DistanceFilter {
	t.Helper()
	f, err := domquery.NewDistanceFilter(source, distance, strategy, dir)
	if err != nil {
		t.Fatalf("NewDistanceFilter: %v", err)
	}
	return f
}

func mustLinks(t *testing.T, minCount int, maxCount *int, category string, dir domquery.Direction) domquery.LinksFilter {
	t.Helper()
	f, err := domquery.NewLinksFilter(minCount, maxCount, category, dir)
	if err != nil {
		t.Fatalf("NewLinksFilter: %v", err)
	}
	return f
}

func mustIDs(t *testing.T, ids ...int64) domquery.IDsFilter {
	t.Helper()
	f, err := domquery.NewIDsFilter(ids)
	if err != nil {
		t.Fatalf("NewIDsFilter: %v", err)
	}
	return f
}

func mustTitles(t *testing.T, titles ...string) domquery.TitlesFilter {
	t.Helper()
	f, err := domquery.NewTitlesFilter(titles)
	if err != nil {
		t.Fatalf("NewTitlesFilter: %v", err)
	}
	return f
}

func mustCategories(t *testing.T, categories ...string) domquery.CategoriesFilter {
	t.Helper()
	f, err := domquery.NewCategoriesFilter(categories)
	if err != nil {
		t.Fatalf("NewCategoriesFilter: %v", err)
	}
	return f
}

func mustSort(t *testing.T, key domquery.SortKey, order domquery.Order) domquery.Sort {
	t.Helper()
	s, err := domquery.NewSort(key, order)
	if err != nil {
		t.Fatalf("NewSort: %v", err)
	}
	return s
}

func intPtr(v int) *int { return &v }
