package article

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/kailas-cloud/wikiquery/internal/db"
	domarticle "github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
	"github.com/kailas-cloud/wikiquery/internal/logger"
	"go.uber.org/zap"
)

// DefaultMaxTextHits caps one FT.SEARCH text call. It matches the server's
// default MAXSEARCHRESULTS.
const DefaultMaxTextHits = 10000

const tagPageSize = 1000

// store is the consumer interface for articles (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HMGetMulti(ctx context.Context, keys, fields []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchTag(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error)
}

// Repo implements the text searcher and the corpus on Redis hashes + FT index.
type Repo struct {
	store   store
	prefix  string
	maxHits int
}

// New creates an article repository. prefix namespaces keys and the index.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix, maxHits: DefaultMaxTextHits}
}

// WithMaxTextHits overrides the per-call text hit cap.
func (r *Repo) WithMaxTextHits(n int) *Repo {
	if n > 0 {
		r.maxHits = n
	}
	return r
}

// Search runs one text filter and returns hits in relevance order.
func (r *Repo) Search(
	ctx context.Context, field domquery.Field, terms []string, fuzzy bool, op domquery.BoolOp,
) ([]candidate.Hit, error) {
	q := &db.TextQuery{
		IndexName: r.indexName(),
		Field:     string(field),
		Terms:     make([]db.TextTerm, len(terms)),
		MatchAll:  op != domquery.OpOr,
		TopK:      r.maxHits,
	}
	for i, t := range terms {
		q.Terms[i] = db.TextTerm{Text: t, Fuzzy: fuzzy}
	}

	result, err := r.store.SearchText(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", field, err)
	}
	if result.Total > len(result.Entries) {
		logger.FromContext(ctx).Warn("text search truncated",
			zap.String("field", string(field)),
			zap.Int("total", result.Total),
			zap.Int("returned", len(result.Entries)),
			zap.Int("max_text_hits", r.maxHits))
	}

	hits := make([]candidate.Hit, 0, len(result.Entries))
	for _, e := range result.Entries {
		id, err := r.parseKey(e.Key)
		if err != nil {
			return nil, err
		}
		hits = append(hits, candidate.Hit{ID: id, Score: e.Score})
	}
	return hits, nil
}

// Fetch reads the requested fields of the given articles in one pipeline.
// Missing ids are absent from the result.
func (r *Repo) Fetch(ctx context.Context, ids []int64, fields domarticle.Field) (map[int64]domarticle.Node, error) {
	if len(ids) == 0 {
		return map[int64]domarticle.Node{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.articleKey(id)
	}

	rows, err := r.store.HMGetMulti(ctx, keys, hashFieldsFor(fields))
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	out := make(map[int64]domarticle.Node, len(rows))
	for i, m := range rows {
		if m == nil {
			continue
		}
		node, err := parseHashFields(ids[i], m, fields)
		if err != nil {
			return nil, err
		}
		out[ids[i]] = node
	}
	return out, nil
}

// ResolveTitles returns the ids of the articles with exactly these titles.
func (r *Repo) ResolveTitles(ctx context.Context, titles []string) ([]int64, error) {
	return r.resolveTag(ctx, fieldTitleTag, titles)
}

// ResolveCategories returns the ids of the articles carrying any of the categories.
func (r *Repo) ResolveCategories(ctx context.Context, categories []string) ([]int64, error) {
	return r.resolveTag(ctx, fieldCategories, categories)
}

func (r *Repo) resolveTag(ctx context.Context, field string, values []string) ([]int64, error) {
	if len(values) == 0 {
		return nil, nil
	}

	var ids []int64
	for offset := 0; ; offset += tagPageSize {
		result, err := r.store.SearchTag(ctx, &db.TagQuery{
			IndexName: r.indexName(),
			Field:     field,
			Values:    values,
			Offset:    offset,
			Limit:     tagPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", field, err)
		}
		for _, e := range result.Entries {
			id, err := r.parseKey(e.Key)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		if len(result.Entries) < tagPageSize || offset+tagPageSize >= result.Total {
			break
		}
	}

	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// AllIDs lists every stored article id, ascending. It scans keys rather than
// the index so the corpus size is not bounded by MAXSEARCHRESULTS.
func (r *Repo) AllIDs(ctx context.Context) ([]int64, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"article:*")
	if err != nil {
		return nil, fmt.Errorf("scan articles: %w", err)
	}

	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := r.parseKey(k)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Save stores articles as hashes in a single pipeline.
func (r *Repo) Save(ctx context.Context, nodes ...domarticle.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(nodes))
	for i, n := range nodes {
		fields, err := buildHashFields(n)
		if err != nil {
			return fmt.Errorf("article %d: %w", n.ID(), err)
		}
		items[i] = db.HashSetItem{Key: r.articleKey(n.ID()), Fields: fields}
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}
	return nil
}

// IndexDefinition describes the FT index over the article hashes.
func (r *Repo) IndexDefinition() *db.IndexDefinition {
	return db.NewIndex(r.indexName()).
		Prefix(r.prefix+"article:").
		Numeric(fieldID).Sortable().
		TextWithOpts(fieldTitle, 1, true).
		TagWithOpts(fieldTitleTag, tagSeparator, true).
		Text(fieldContent).
		TagWithOpts(fieldCategories, tagSeparator, true).
		MustBuild()
}

func (r *Repo) indexName() string {
	return r.prefix + "articles:idx"
}

func (r *Repo) articleKey(id int64) string {
	return r.prefix + "article:" + strconv.FormatInt(id, 10)
}

func (r *Repo) parseKey(key string) (int64, error) {
	raw, ok := strings.CutPrefix(key, r.prefix+"article:")
	if !ok {
		return 0, fmt.Errorf("unexpected article key %q", key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected article key %q: %w", key, err)
	}
	return id, nil
}
