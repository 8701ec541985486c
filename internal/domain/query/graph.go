package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/wikiquery/internal/domain"
)

// Direction selects incoming or outgoing links.
type Direction string

// Link directions.
const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// IsValid checks if the direction is supported.
func (d Direction) IsValid() bool { return d == DirectionIn || d == DirectionOut }

// Strategy selects how a distance filter treats intermediate layers.
type Strategy string

// Distance strategies.
const (
	// AtDistance keeps only the nodes exactly at the distance.
	AtDistance Strategy = "at_dist"
	// UpToDistance keeps the nodes at every distance from 1 to the distance.
	UpToDistance Strategy = "up_to_dist"
)

// IsValid checks if the strategy is supported.
func (s Strategy) IsValid() bool { return s == AtDistance || s == UpToDistance }

// GraphFilter is a structural filter: DistanceFilter or LinksFilter.
type GraphFilter interface {
	isGraphFilter()
	String() string
}

// DistanceFilter restricts to nodes reachable from a source node.
type DistanceFilter struct {
	source    int64
	distance  int
	strategy  Strategy
	direction Direction
}

// NewDistanceFilter validates and creates a DistanceFilter.
func NewDistanceFilter(source int64, distance int, strategy Strategy, direction Direction) (DistanceFilter, error) {
	if source < 0 {
		return DistanceFilter{}, domain.NewValidationError("distance.source", "must be non-negative, got %d", source)
	}
	if distance < 0 {
		return DistanceFilter{}, domain.NewValidationError("distance.distance", "must be non-negative, got %d", distance)
	}
	if !strategy.IsValid() {
		return DistanceFilter{}, domain.NewValidationError("distance.strategy", "unknown strategy %q", strategy)
	}
	if !direction.IsValid() {
		return DistanceFilter{}, domain.NewValidationError("distance.direction", "unknown direction %q", direction)
	}
	return DistanceFilter{source: source, distance: distance, strategy: strategy, direction: direction}, nil
}

func (DistanceFilter) isGraphFilter() {}

// Source returns the origin node id.
func (f DistanceFilter) Source() int64 { return f.source }

// Distance returns the hop count.
func (f DistanceFilter) Distance() int { return f.distance }

// Strategy returns the layer strategy.
func (f DistanceFilter) Strategy() Strategy { return f.strategy }

// Direction returns the traversal direction.
func (f DistanceFilter) Direction() Direction { return f.direction }

func (f DistanceFilter) String() string {
	return fmt.Sprintf("distance(source=%d %s %d %s)", f.source, f.strategy, f.distance, f.direction)
}

// LinksFilter restricts to nodes whose link count falls in [min, max].
type LinksFilter struct {
	minCount  int
	maxCount  *int
	category  string
	direction Direction
}

// NewLinksFilter validates and creates a LinksFilter. A nil max means unbounded;
// an empty category counts every link.
func NewLinksFilter(minCount int, maxCount *int, category string, direction Direction) (LinksFilter, error) {
	if minCount < 0 {
		return LinksFilter{}, domain.NewValidationError("links.min", "must be non-negative, got %d", minCount)
	}
	if maxCount != nil && *maxCount < minCount {
		return LinksFilter{}, domain.NewValidationError("links.max", "must be >= min (%d), got %d", minCount, *maxCount)
	}
	if !direction.IsValid() {
		return LinksFilter{}, domain.NewValidationError("links.direction", "unknown direction %q", direction)
	}
	f := LinksFilter{minCount: minCount, category: strings.TrimSpace(category), direction: direction}
	if maxCount != nil {
		m := *maxCount
		f.maxCount = &m
	}
	return f, nil
}

func (LinksFilter) isGraphFilter() {}

// Min returns the inclusive lower bound.
func (f LinksFilter) Min() int { return f.minCount }

// Max returns the inclusive upper bound and whether one is set.
func (f LinksFilter) Max() (int, bool) {
	if f.maxCount == nil {
		return 0, false
	}
	return *f.maxCount, true
}

// Category returns the category restriction (empty for none).
func (f LinksFilter) Category() string { return f.category }

// Direction returns which links are counted.
func (f LinksFilter) Direction() Direction { return f.direction }

// Contains reports whether count falls in the filter's range.
func (f LinksFilter) Contains(count int) bool {
	if count < f.minCount {
		return false
	}
	return f.maxCount == nil || count <= *f.maxCount
}

func (f LinksFilter) String() string {
	upper := "inf"
	if f.maxCount != nil {
		upper = fmt.Sprint(*f.maxCount)
	}
	if f.category != "" {
		return fmt.Sprintf("links(%s [%d, %s] category=%q)", f.direction, f.minCount, upper, f.category)
	}
	return fmt.Sprintf("links(%s [%d, %s])", f.direction, f.minCount, upper)
}
