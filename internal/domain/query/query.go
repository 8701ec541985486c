package query

import (
	"slices"
	"strings"

	"github.com/kailas-cloud/wikiquery/internal/domain"
)

// ReturnType is the requested result projection.
type ReturnType string

// Projections.
const (
	ReturnCount           ReturnType = "count"
	ReturnID              ReturnType = "id"
	ReturnTitle           ReturnType = "title"
	ReturnNode            ReturnType = "node"
	ReturnNodeWithContent ReturnType = "node_with_content"
)

// IsValid checks if the projection is supported.
func (r ReturnType) IsValid() bool {
	switch r {
	case ReturnCount, ReturnID, ReturnTitle, ReturnNode, ReturnNodeWithContent:
		return true
	}
	return false
}

// ArticleQuery is a validated, immutable query over the article corpus.
type ArticleQuery struct {
	returnType ReturnType
	text       []TextFilter
	graph      []GraphFilter
	identity   []IdentityFilter
	sort       *Sort
	limit      *int
	offset     int
}

// Option configures an ArticleQuery under construction.
type Option func(*builder)

type builder struct {
	q        ArticleQuery
	textSet  bool
	graphSet bool
	idSet    bool
	limitSet bool
	errs     []error
}

// WithTextFilters sets the text filters. Passing none is a validation error.
func WithTextFilters(filters ...TextFilter) Option {
	return func(b *builder) {
		b.textSet = true
		b.q.text = append([]TextFilter(nil), filters...)
	}
}

// WithGraphFilters sets the graph filters. Passing none is a validation error.
func WithGraphFilters(filters ...GraphFilter) Option {
	return func(b *builder) {
		b.graphSet = true
		b.q.graph = append([]GraphFilter(nil), filters...)
	}
}

// WithIdentityFilters sets the identity filters. Passing none is a validation error.
func WithIdentityFilters(filters ...IdentityFilter) Option {
	return func(b *builder) {
		b.idSet = true
		b.q.identity = append([]IdentityFilter(nil), filters...)
	}
}

// WithSort sets the sort key and order.
func WithSort(s Sort) Option {
	return func(b *builder) {
		b.q.sort = &s
	}
}

// WithLimit caps the number of returned items.
func WithLimit(limit int) Option {
	return func(b *builder) {
		b.limitSet = true
		b.q.limit = &limit
	}
}

// WithOffset skips the first offset items.
func WithOffset(offset int) Option {
	return func(b *builder) {
		b.q.offset = offset
	}
}

// New validates and creates an ArticleQuery. A query without filters selects every article.
func New(returnType ReturnType, opts ...Option) (ArticleQuery, error) {
	b := &builder{}
	b.q.returnType = ReturnType(strings.ToLower(string(returnType)))
	for _, opt := range opts {
		opt(b)
	}

	if !b.q.returnType.IsValid() {
		return ArticleQuery{}, domain.NewValidationError("return_type", "unknown return type %q", returnType)
	}
	if err := checkFamily("text", b.textSet, len(b.q.text)); err != nil {
		return ArticleQuery{}, err
	}
	if err := checkFamily("graph", b.graphSet, len(b.q.graph)); err != nil {
		return ArticleQuery{}, err
	}
	if err := checkFamily("identity", b.idSet, len(b.q.identity)); err != nil {
		return ArticleQuery{}, err
	}
	for _, f := range b.q.graph {
		if f == nil {
			return ArticleQuery{}, domain.NewValidationError("graph", "nil filter")
		}
	}
	for _, f := range b.q.identity {
		if f == nil {
			return ArticleQuery{}, domain.NewValidationError("identity", "nil filter")
		}
	}
	if b.q.sort != nil {
		if err := b.q.sort.validate(); err != nil {
			return ArticleQuery{}, err
		}
	}
	if b.limitSet && *b.q.limit < 0 {
		return ArticleQuery{}, domain.NewValidationError("limit", "must be non-negative, got %d", *b.q.limit)
	}
	if b.q.offset < 0 {
		return ArticleQuery{}, domain.NewValidationError("offset", "must be non-negative, got %d", b.q.offset)
	}

	return b.q, nil
}

func checkFamily(name string, set bool, n int) error {
	if set && n == 0 {
		return domain.NewValidationError(name, "filter list is present but empty")
	}
	return nil
}

// ReturnType returns the requested projection.
func (q *ArticleQuery) ReturnType() ReturnType { return q.returnType }

// TextFilters returns the text filters in query order.
func (q *ArticleQuery) TextFilters() []TextFilter { return slices.Clone(q.text) }

// GraphFilters returns the graph filters in query order.
func (q *ArticleQuery) GraphFilters() []GraphFilter { return slices.Clone(q.graph) }

// IdentityFilters returns the identity filters in query order.
func (q *ArticleQuery) IdentityFilters() []IdentityFilter { return slices.Clone(q.identity) }

// Sort returns the sort spec, or nil to keep merge order.
func (q *ArticleQuery) Sort() *Sort { return q.sort }

// Limit returns the window size and whether one is set.
func (q *ArticleQuery) Limit() (int, bool) {
	if q.limit == nil {
		return 0, false
	}
	return *q.limit, true
}

// Offset returns the number of skipped items.
func (q *ArticleQuery) Offset() int { return q.offset }

// IsFilterless reports whether no filter family restricts the corpus.
func (q *ArticleQuery) IsFilterless() bool {
	return len(q.text) == 0 && len(q.graph) == 0 && len(q.identity) == 0
}
