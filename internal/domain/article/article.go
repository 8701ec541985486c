package article

// Field selects which parts of an article a corpus lookup must return.
// The id is always returned.
type Field uint8

// Article fields.
const (
	FieldTitle Field = 1 << iota
	FieldCategories
	FieldLinks
	FieldContent
)

// FieldsNode is the lightweight node projection.
const FieldsNode = FieldTitle | FieldCategories | FieldLinks

// FieldsAll includes the body content.
const FieldsAll = FieldsNode | FieldContent

// Has reports whether f includes all of other.
func (f Field) Has(other Field) bool { return f&other == other }

// Link is a weak reference to another article.
type Link struct {
	ID    int64
	Title string
}

// Node is a read-only snapshot of an article.
type Node struct {
	id         int64
	title      string
	categories []string
	links      []Link
	content    string
	hasContent bool
}

// New creates a Node without content.
func New(id int64, title string, categories []string, links []Link) Node {
	return Node{
		id:         id,
		title:      title,
		categories: cloneStrings(categories),
		links:      cloneLinks(links),
	}
}

// WithContent returns a copy of the node carrying body content.
func (n Node) WithContent(content string) Node {
	n.content = content
	n.hasContent = true
	return n
}

// ID returns the article identifier.
func (n Node) ID() int64 { return n.id }

// Title returns the article title.
func (n Node) Title() string { return n.title }

// Categories returns the article categories.
func (n Node) Categories() []string { return n.categories }

// Links returns the outgoing links.
func (n Node) Links() []Link { return n.links }

// Content returns the body content (empty unless HasContent).
func (n Node) Content() string { return n.content }

// HasContent reports whether the content was fetched.
func (n Node) HasContent() bool { return n.hasContent }

// InCategory reports whether the article carries the category.
func (n Node) InCategory(category string) bool {
	for _, c := range n.categories {
		if c == category {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneLinks(l []Link) []Link {
	if l == nil {
		return nil
	}
	out := make([]Link, len(l))
	copy(out, l)
	return out
}
