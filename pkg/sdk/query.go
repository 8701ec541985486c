package wikiquery

import (
	"context"
	"errors"
	"time"

	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/response"
)

// QueryBuilder is a fluent builder for article queries. Invalid filters are
// remembered and reported together by the terminal call.
type QueryBuilder struct {
	client *Client

	text     []domquery.TextFilter
	graph    []domquery.GraphFilter
	identity []domquery.IdentityFilter
	sort     *domquery.Sort
	limit    *int
	offset   int

	err error
}

// Match keeps articles whose field contains every term. A term with spaces is a phrase.
func (b *QueryBuilder) Match(field Field, terms ...string) *QueryBuilder {
	return b.addText(field, terms, false, domquery.OpAnd)
}

// MatchAny keeps articles whose field contains at least one term.
func (b *QueryBuilder) MatchAny(field Field, terms ...string) *QueryBuilder {
	return b.addText(field, terms, false, domquery.OpOr)
}

// MatchFuzzy is Match with every word allowed one edit.
func (b *QueryBuilder) MatchFuzzy(field Field, terms ...string) *QueryBuilder {
	return b.addText(field, terms, true, domquery.OpAnd)
}

func (b *QueryBuilder) addText(field Field, terms []string, fuzzy bool, op domquery.BoolOp) *QueryBuilder {
	f, err := domquery.NewTextFilter(domquery.Field(field), terms, fuzzy, op)
	if b.keep(err) {
		b.text = append(b.text, f)
	}
	return b
}

// AtDistance keeps articles whose shortest path from source is exactly distance links.
func (b *QueryBuilder) AtDistance(source int64, distance int, dir Direction) *QueryBuilder {
	return b.addDistance(source, distance, domquery.AtDistance, dir)
}

// WithinDistance keeps articles reachable from source in 1 to distance links.
func (b *QueryBuilder) WithinDistance(source int64, distance int, dir Direction) *QueryBuilder {
	return b.addDistance(source, distance, domquery.UpToDistance, dir)
}

func (b *QueryBuilder) addDistance(source int64, distance int, s domquery.Strategy, dir Direction) *QueryBuilder {
	f, err := domquery.NewDistanceFilter(source, distance, s, domquery.Direction(dir))
	if b.keep(err) {
		b.graph = append(b.graph, f)
	}
	return b
}

// LinkCount keeps articles with between minCount and maxCount links in dir.
// A negative maxCount means no upper bound.
func (b *QueryBuilder) LinkCount(dir Direction, minCount, maxCount int) *QueryBuilder {
	return b.LinkCountToCategory(dir, "", minCount, maxCount)
}

// LinkCountToCategory is LinkCount restricted to links whose other end is in category.
func (b *QueryBuilder) LinkCountToCategory(dir Direction, category string, minCount, maxCount int) *QueryBuilder {
	var upper *int
	if maxCount >= 0 {
		upper = &maxCount
	}
	f, err := domquery.NewLinksFilter(minCount, upper, category, domquery.Direction(dir))
	if b.keep(err) {
		b.graph = append(b.graph, f)
	}
	return b
}

// IDs keeps the given articles.
func (b *QueryBuilder) IDs(ids ...int64) *QueryBuilder {
	f, err := domquery.NewIDsFilter(ids)
	if b.keep(err) {
		b.identity = append(b.identity, f)
	}
	return b
}

// Titles keeps articles with exactly one of the titles.
func (b *QueryBuilder) Titles(titles ...string) *QueryBuilder {
	f, err := domquery.NewTitlesFilter(titles)
	if b.keep(err) {
		b.identity = append(b.identity, f)
	}
	return b
}

// Categories keeps articles in any of the categories.
func (b *QueryBuilder) Categories(categories ...string) *QueryBuilder {
	f, err := domquery.NewCategoriesFilter(categories)
	if b.keep(err) {
		b.identity = append(b.identity, f)
	}
	return b
}

// OrderBy sorts the result. Ties are broken by ascending id.
func (b *QueryBuilder) OrderBy(key SortKey, order Order) *QueryBuilder {
	s, err := domquery.NewSort(domquery.SortKey(key), domquery.Order(order))
	if b.keep(err) {
		b.sort = &s
	}
	return b
}

// Limit caps the number of returned items.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	b.limit = &n
	return b
}

// Offset skips the first n items.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	b.offset = n
	return b
}

// Count returns the number of matching articles.
func (b *QueryBuilder) Count(ctx context.Context) (int, error) {
	resp, err := b.fetch(ctx, "query.count", domquery.ReturnCount)
	if err != nil {
		return 0, err
	}
	return resp.Count(), nil
}

// FetchIDs returns the matching article ids.
func (b *QueryBuilder) FetchIDs(ctx context.Context) (Page[int64], error) {
	resp, err := b.fetch(ctx, "query.ids", domquery.ReturnID)
	if err != nil {
		return Page[int64]{}, err
	}
	return Page[int64]{Items: resp.IDs(), Total: resp.Count()}, nil
}

// FetchTitles returns the matching article titles.
func (b *QueryBuilder) FetchTitles(ctx context.Context) (Page[string], error) {
	resp, err := b.fetch(ctx, "query.titles", domquery.ReturnTitle)
	if err != nil {
		return Page[string]{}, err
	}
	return Page[string]{Items: resp.Titles(), Total: resp.Count()}, nil
}

// FetchArticles returns the matching articles without content.
func (b *QueryBuilder) FetchArticles(ctx context.Context) (Page[Article], error) {
	return b.fetchArticles(ctx, "query.articles", domquery.ReturnNode)
}

// FetchArticlesWithContent returns the matching articles with content.
func (b *QueryBuilder) FetchArticlesWithContent(ctx context.Context) (Page[Article], error) {
	return b.fetchArticles(ctx, "query.articles_content", domquery.ReturnNodeWithContent)
}

func (b *QueryBuilder) fetchArticles(ctx context.Context, op string, rt domquery.ReturnType) (Page[Article], error) {
	resp, err := b.fetch(ctx, op, rt)
	if err != nil {
		return Page[Article]{}, err
	}
	nodes := resp.Nodes()
	items := make([]Article, len(nodes))
	for i, n := range nodes {
		items[i] = articleFromNode(n)
	}
	return Page[Article]{Items: items, Total: resp.Count()}, nil
}

func (b *QueryBuilder) fetch(ctx context.Context, op string, rt domquery.ReturnType) (resp response.Response, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe(op, start, err) }()

	q, err := b.build(rt)
	if err != nil {
		return response.Response{}, err
	}
	return b.client.querySvc.Evaluate(ctx, q)
}

func (b *QueryBuilder) build(rt domquery.ReturnType) (domquery.ArticleQuery, error) {
	if b.err != nil {
		return domquery.ArticleQuery{}, b.err
	}

	var opts []domquery.Option
	if len(b.text) > 0 {
		opts = append(opts, domquery.WithTextFilters(b.text...))
	}
	if len(b.graph) > 0 {
		opts = append(opts, domquery.WithGraphFilters(b.graph...))
	}
	if len(b.identity) > 0 {
		opts = append(opts, domquery.WithIdentityFilters(b.identity...))
	}
	if b.sort != nil {
		opts = append(opts, domquery.WithSort(*b.sort))
	}
	if b.limit != nil {
		opts = append(opts, domquery.WithLimit(*b.limit))
	}
	opts = append(opts, domquery.WithOffset(b.offset))

	return domquery.New(rt, opts...)
}

// keep records err and reports whether it was nil.
func (b *QueryBuilder) keep(err error) bool {
	if err == nil {
		return true
	}
	if b.err == nil {
		b.err = err
	} else {
		b.err = errors.Join(b.err, err)
	}
	return false
}
