package article

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	domarticle "github.com/kailas-cloud/wikiquery/internal/domain/article"
)

// Hash field names.
const (
	fieldID         = "article_id"
	fieldTitle      = "title"
	fieldTitleTag   = "title_tag"
	fieldContent    = "content"
	fieldCategories = "categories"
	fieldLinks      = "links"
)

const tagSeparator = "|"

type linkDTO struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// buildHashFields converts a domain Node into a flat map for HSET.
func buildHashFields(n domarticle.Node) (map[string]string, error) {
	links := make([]linkDTO, len(n.Links()))
	for i, l := range n.Links() {
		links[i] = linkDTO{ID: l.ID, Title: l.Title}
	}
	raw, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("marshal links: %w", err)
	}

	return map[string]string{
		fieldID:         strconv.FormatInt(n.ID(), 10),
		fieldTitle:      n.Title(),
		fieldTitleTag:   n.Title(),
		fieldContent:    n.Content(),
		fieldCategories: strings.Join(n.Categories(), tagSeparator),
		fieldLinks:      string(raw),
	}, nil
}

// hashFieldsFor lists the hash fields HMGET needs for the requested projection.
// article_id is always read so that an existing article never comes back empty.
func hashFieldsFor(fields domarticle.Field) []string {
	out := []string{fieldID}
	if fields.Has(domarticle.FieldTitle) {
		out = append(out, fieldTitle)
	}
	if fields.Has(domarticle.FieldCategories) {
		out = append(out, fieldCategories)
	}
	if fields.Has(domarticle.FieldLinks) {
		out = append(out, fieldLinks)
	}
	if fields.Has(domarticle.FieldContent) {
		out = append(out, fieldContent)
	}
	return out
}

// parseHashFields rebuilds a Node from an HMGET reply.
func parseHashFields(id int64, m map[string]string, fields domarticle.Field) (domarticle.Node, error) {
	var categories []string
	if c := m[fieldCategories]; c != "" {
		categories = strings.Split(c, tagSeparator)
	}

	var links []domarticle.Link
	if fields.Has(domarticle.FieldLinks) {
		if raw := m[fieldLinks]; raw != "" {
			var dtos []linkDTO
			if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
				return domarticle.Node{}, fmt.Errorf("article %d: decode links: %w", id, err)
			}
			links = make([]domarticle.Link, len(dtos))
			for i, d := range dtos {
				links[i] = domarticle.Link{ID: d.ID, Title: d.Title}
			}
		}
	}

	node := domarticle.New(id, m[fieldTitle], categories, links)
	if fields.Has(domarticle.FieldContent) {
		node = node.WithContent(m[fieldContent])
	}
	return node, nil
}
