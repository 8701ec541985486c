package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/wikiquery/internal/domain"
)

// IdentityFilter is an explicit restriction: IDsFilter, TitlesFilter or CategoriesFilter.
type IdentityFilter interface {
	isIdentityFilter()
	String() string
}

// IDsFilter restricts to explicit article ids.
type IDsFilter struct {
	ids []int64
}

// NewIDsFilter validates and creates an IDsFilter. Duplicates are dropped.
func NewIDsFilter(ids []int64) (IDsFilter, error) {
	if len(ids) == 0 {
		return IDsFilter{}, domain.NewValidationError("ids", "at least one id is required")
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id < 0 {
			return IDsFilter{}, domain.NewValidationError("ids", "must be non-negative, got %d", id)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return IDsFilter{ids: out}, nil
}

func (IDsFilter) isIdentityFilter() {}

// IDs returns the article ids.
func (f IDsFilter) IDs() []int64 { return f.ids }

func (f IDsFilter) String() string { return fmt.Sprintf("ids(%v)", f.ids) }

// TitlesFilter restricts to articles with one of the exact titles.
type TitlesFilter struct {
	titles []string
}

// NewTitlesFilter validates and creates a TitlesFilter.
func NewTitlesFilter(titles []string) (TitlesFilter, error) {
	out, err := cleanValues("titles", titles)
	if err != nil {
		return TitlesFilter{}, err
	}
	return TitlesFilter{titles: out}, nil
}

func (TitlesFilter) isIdentityFilter() {}

// Titles returns the exact titles.
func (f TitlesFilter) Titles() []string { return f.titles }

func (f TitlesFilter) String() string { return fmt.Sprintf("titles(%q)", f.titles) }

// CategoriesFilter restricts to articles carrying any of the categories.
type CategoriesFilter struct {
	categories []string
}

// NewCategoriesFilter validates and creates a CategoriesFilter.
func NewCategoriesFilter(categories []string) (CategoriesFilter, error) {
	out, err := cleanValues("categories", categories)
	if err != nil {
		return CategoriesFilter{}, err
	}
	return CategoriesFilter{categories: out}, nil
}

func (CategoriesFilter) isIdentityFilter() {}

// Categories returns the categories.
func (f CategoriesFilter) Categories() []string { return f.categories }

func (f CategoriesFilter) String() string { return fmt.Sprintf("categories(%q)", f.categories) }

func cleanValues(field string, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, domain.NewValidationError(field, "at least one value is required")
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, domain.NewValidationError(field, "value %d is blank", i)
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}
