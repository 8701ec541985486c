package response

import (
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	"github.com/kailas-cloud/wikiquery/internal/domain/query"
)

// Response is the projected query result, tagged by its return type.
type Response struct {
	returnType query.ReturnType
	total      int
	ids        []int64
	titles     []string
	nodes      []article.Node
}

// Count creates a COUNT response.
func Count(total int) Response {
	return Response{returnType: query.ReturnCount, total: total}
}

// IDs creates an ID response.
func IDs(ids []int64, total int) Response {
	return Response{returnType: query.ReturnID, ids: ids, total: total}
}

// Titles creates a TITLE response.
func Titles(titles []string, total int) Response {
	return Response{returnType: query.ReturnTitle, titles: titles, total: total}
}

// Nodes creates a NODE or NODE_WITH_CONTENT response.
func Nodes(rt query.ReturnType, nodes []article.Node, total int) Response {
	return Response{returnType: rt, nodes: nodes, total: total}
}

// ReturnType returns the projection this response carries.
func (r Response) ReturnType() query.ReturnType { return r.returnType }

// Count returns the number of candidates before pagination. Defined for every return type.
func (r Response) Count() int { return r.total }

// IDs returns the window ids (ID responses only).
func (r Response) IDs() []int64 { return r.ids }

// Titles returns the window titles (TITLE responses only).
func (r Response) Titles() []string { return r.titles }

// Nodes returns the window nodes (NODE and NODE_WITH_CONTENT responses).
func (r Response) Nodes() []article.Node { return r.nodes }

// Len returns the number of items in the window (0 for COUNT).
func (r Response) Len() int {
	switch r.returnType {
	case query.ReturnID:
		return len(r.ids)
	case query.ReturnTitle:
		return len(r.titles)
	case query.ReturnNode, query.ReturnNodeWithContent:
		return len(r.nodes)
	}
	return 0
}
