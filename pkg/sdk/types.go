package wikiquery

import (
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
)

// Field is a full-text searchable article field.
type Field string

// Searchable fields.
const (
	FieldTitle   Field = Field(domquery.FieldTitle)
	FieldContent Field = Field(domquery.FieldContent)
)

// Direction selects which links of an article are followed or counted.
type Direction string

// Link directions.
const (
	Outgoing Direction = Direction(domquery.DirectionOut)
	Incoming Direction = Direction(domquery.DirectionIn)
)

// SortKey orders query results.
type SortKey string

// Sort keys.
const (
	SortByID        SortKey = SortKey(domquery.SortByID)
	SortByTitle     SortKey = SortKey(domquery.SortByTitle)
	SortByLinkCount SortKey = SortKey(domquery.SortByLinkCount)
)

// Order is a sort direction.
type Order string

// Sort orders.
const (
	Asc  Order = Order(domquery.Asc)
	Desc Order = Order(domquery.Desc)
)

// Link is an outgoing link to another article.
type Link struct {
	ID    int64
	Title string
}

// Article is a projected article. Content is only filled by
// FetchArticlesWithContent and Client.Article.
type Article struct {
	ID         int64
	Title      string
	Categories []string
	Links      []Link
	Content    string
	HasContent bool
}

// Page is one window of a query result. Total counts every match before
// offset and limit.
type Page[T any] struct {
	Items []T
	Total int
}

func articleFromNode(n article.Node) Article {
	a := Article{
		ID:         n.ID(),
		Title:      n.Title(),
		Categories: n.Categories(),
		Content:    n.Content(),
		HasContent: n.HasContent(),
	}
	if links := n.Links(); len(links) > 0 {
		a.Links = make([]Link, len(links))
		for i, l := range links {
			a.Links[i] = Link{ID: l.ID, Title: l.Title}
		}
	}
	return a
}
