package query

import "github.com/kailas-cloud/wikiquery/internal/domain"

// SortKey is the attribute candidates are ordered by.
type SortKey string

// Sort keys.
const (
	SortByID        SortKey = "id"
	SortByTitle     SortKey = "title"
	SortByLinkCount SortKey = "link_count"
)

// IsValid checks if the key is supported.
func (k SortKey) IsValid() bool {
	return k == SortByID || k == SortByTitle || k == SortByLinkCount
}

// Order is the sort direction.
type Order string

// Sort orders.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// IsValid checks if the order is supported.
func (o Order) IsValid() bool { return o == Asc || o == Desc }

// Sort is a sort key with a direction.
type Sort struct {
	key   SortKey
	order Order
}

// NewSort validates and creates a Sort. An empty order defaults to ascending.
func NewSort(key SortKey, order Order) (Sort, error) {
	if order == "" {
		order = Asc
	}
	s := Sort{key: key, order: order}
	if err := s.validate(); err != nil {
		return Sort{}, err
	}
	return s, nil
}

func (s Sort) validate() error {
	if !s.key.IsValid() {
		return domain.NewValidationError("sort.key", "unknown sort key %q", s.key)
	}
	if !s.order.IsValid() {
		return domain.NewValidationError("sort.order", "unknown order %q", s.order)
	}
	return nil
}

// Key returns the sort key.
func (s Sort) Key() SortKey { return s.key }

// Order returns the direction.
func (s Sort) Order() Order { return s.order }
