package chi

import (
	"fmt"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/response"
)

// ErrorCode is a machine-readable error classification.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeArticleNotFound    ErrorCode = "article_not_found"
	ErrorCodeBackendUnavailable ErrorCode = "backend_unavailable"
	ErrorCodeBackendTimeout     ErrorCode = "backend_timeout"
	ErrorCodeConsistencyError   ErrorCode = "consistency_error"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the body of POST /v1/articles/query. A family that is
// present must hold at least one filter; an absent family does not restrict.
type QueryRequest struct {
	ReturnType string              `json:"return_type"`
	Text       []TextFilterDTO     `json:"text,omitempty"`
	Graph      []GraphFilterDTO    `json:"graph,omitempty"`
	Identity   []IdentityFilterDTO `json:"identity,omitempty"`
	Sort       *SortDTO            `json:"sort,omitempty"`
	Limit      *int                `json:"limit,omitempty"`
	Offset     int                 `json:"offset,omitempty"`
}

// TextFilterDTO matches terms in one field.
type TextFilterDTO struct {
	Field string   `json:"field"`
	Terms []string `json:"terms"`
	Fuzzy bool     `json:"fuzzy,omitempty"`
	Op    string   `json:"op,omitempty"`
}

// GraphFilterDTO is either a "distance" or a "links" filter, selected by Type.
type GraphFilterDTO struct {
	Type      string `json:"type"`
	Direction string `json:"direction"`

	Source   *int64 `json:"source,omitempty"`
	Distance *int   `json:"distance,omitempty"`
	Strategy string `json:"strategy,omitempty"`

	Min      int    `json:"min,omitempty"`
	Max      *int   `json:"max,omitempty"`
	Category string `json:"category,omitempty"`
}

// IdentityFilterDTO is an "ids", "titles" or "categories" filter, selected by Type.
type IdentityFilterDTO struct {
	Type       string   `json:"type"`
	IDs        []int64  `json:"ids,omitempty"`
	Titles     []string `json:"titles,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// SortDTO orders the result.
type SortDTO struct {
	Key   string `json:"key"`
	Order string `json:"order,omitempty"`
}

// QueryResponse carries the projected window. Exactly one of IDs, Titles and
// Articles is set, except for count queries where none is.
type QueryResponse struct {
	ReturnType string        `json:"return_type"`
	Total      int           `json:"total"`
	IDs        *[]int64      `json:"ids,omitempty"`
	Titles     *[]string     `json:"titles,omitempty"`
	Articles   *[]ArticleDTO `json:"articles,omitempty"`
}

// ArticleDTO is a projected article node.
type ArticleDTO struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories"`
	Links      []LinkDTO `json:"links"`
	Content    *string   `json:"content,omitempty"`
}

// LinkDTO is an outgoing link.
type LinkDTO struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (req QueryRequest) toDomain(maxPageSize int) (domquery.ArticleQuery, error) {
	var opts []domquery.Option

	if req.Text != nil {
		filters := make([]domquery.TextFilter, 0, len(req.Text))
		for _, f := range req.Text {
			tf, err := domquery.NewTextFilter(
				domquery.Field(f.Field), f.Terms, f.Fuzzy, domquery.BoolOp(f.Op),
			)
			if err != nil {
				return domquery.ArticleQuery{}, err
			}
			filters = append(filters, tf)
		}
		opts = append(opts, domquery.WithTextFilters(filters...))
	}

	if req.Graph != nil {
		filters := make([]domquery.GraphFilter, 0, len(req.Graph))
		for i, f := range req.Graph {
			gf, err := f.toDomain(i)
			if err != nil {
				return domquery.ArticleQuery{}, err
			}
			filters = append(filters, gf)
		}
		opts = append(opts, domquery.WithGraphFilters(filters...))
	}

	if req.Identity != nil {
		filters := make([]domquery.IdentityFilter, 0, len(req.Identity))
		for i, f := range req.Identity {
			idf, err := f.toDomain(i)
			if err != nil {
				return domquery.ArticleQuery{}, err
			}
			filters = append(filters, idf)
		}
		opts = append(opts, domquery.WithIdentityFilters(filters...))
	}

	if req.Sort != nil {
		s, err := domquery.NewSort(domquery.SortKey(req.Sort.Key), domquery.Order(req.Sort.Order))
		if err != nil {
			return domquery.ArticleQuery{}, err
		}
		opts = append(opts, domquery.WithSort(s))
	}

	if req.Limit != nil {
		opts = append(opts, domquery.WithLimit(clampLimit(*req.Limit, maxPageSize)))
	}
	opts = append(opts, domquery.WithOffset(req.Offset))

	return domquery.New(domquery.ReturnType(req.ReturnType), opts...)
}

func (f GraphFilterDTO) toDomain(i int) (domquery.GraphFilter, error) {
	dir := domquery.Direction(f.Direction)
	switch f.Type {
	case "distance":
		if f.Source == nil {
			return nil, domain.NewValidationError(fmt.Sprintf("graph[%d].source", i), "is required")
		}
		if f.Distance == nil {
			return nil, domain.NewValidationError(fmt.Sprintf("graph[%d].distance", i), "is required")
		}
		return domquery.NewDistanceFilter(*f.Source, *f.Distance, domquery.Strategy(f.Strategy), dir)
	case "links":
		return domquery.NewLinksFilter(f.Min, f.Max, f.Category, dir)
	default:
		return nil, domain.NewValidationError(
			fmt.Sprintf("graph[%d].type", i), "must be \"distance\" or \"links\", got %q", f.Type)
	}
}

func (f IdentityFilterDTO) toDomain(i int) (domquery.IdentityFilter, error) {
	switch f.Type {
	case "ids":
		return domquery.NewIDsFilter(f.IDs)
	case "titles":
		return domquery.NewTitlesFilter(f.Titles)
	case "categories":
		return domquery.NewCategoriesFilter(f.Categories)
	default:
		return nil, domain.NewValidationError(
			fmt.Sprintf("identity[%d].type", i), "must be \"ids\", \"titles\" or \"categories\", got %q", f.Type)
	}
}

// clampLimit caps a requested page size. Negative values pass through so
// the query constructor rejects them.
func clampLimit(limit, maxPageSize int) int {
	if maxPageSize > 0 && limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func responseToDTO(resp response.Response) QueryResponse {
	out := QueryResponse{
		ReturnType: string(resp.ReturnType()),
		Total:      resp.Count(),
	}

	switch resp.ReturnType() {
	case domquery.ReturnID:
		ids := resp.IDs()
		if ids == nil {
			ids = []int64{}
		}
		out.IDs = &ids
	case domquery.ReturnTitle:
		titles := resp.Titles()
		if titles == nil {
			titles = []string{}
		}
		out.Titles = &titles
	case domquery.ReturnNode, domquery.ReturnNodeWithContent:
		articles := make([]ArticleDTO, len(resp.Nodes()))
		for i, n := range resp.Nodes() {
			articles[i] = nodeToDTO(n)
		}
		out.Articles = &articles
	}
	return out
}

func nodeToDTO(n article.Node) ArticleDTO {
	dto := ArticleDTO{
		ID:         n.ID(),
		Title:      n.Title(),
		Categories: n.Categories(),
		Links:      make([]LinkDTO, len(n.Links())),
	}
	if dto.Categories == nil {
		dto.Categories = []string{}
	}
	for i, l := range n.Links() {
		dto.Links[i] = LinkDTO{ID: l.ID, Title: l.Title}
	}
	if n.HasContent() {
		c := n.Content()
		dto.Content = &c
	}
	return dto
}
