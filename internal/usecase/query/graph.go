package query

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
)

// runGraph evaluates distance filters first, concurrently, then narrows the
// result with links filters. The set is ordered by ascending id. Link counts
// of the first links filter stay attached for LINK_COUNT sorting.
func (s *Service) runGraph(ctx context.Context, filters []domquery.GraphFilter) (candidate.Set, error) {
	if len(filters) == 0 {
		return candidate.Unrestricted(), nil
	}

	var (
		distances []domquery.DistanceFilter
		links     []domquery.LinksFilter
	)
	for _, f := range filters {
		switch f := f.(type) {
		case domquery.DistanceFilter:
			distances = append(distances, f)
		case domquery.LinksFilter:
			links = append(links, f)
		default:
			return candidate.Set{}, domain.NewValidationError("graph", "unsupported filter %T", f)
		}
	}

	set, err := s.runDistances(ctx, distances)
	if err != nil {
		return candidate.Set{}, err
	}

	var counts map[int64]int
	for i, f := range links {
		if !set.IsUnrestricted() && set.Len() == 0 {
			break
		}
		matched, err := s.matchLinks(ctx, f, set)
		if err != nil {
			return candidate.Set{}, err
		}
		ids := make([]int64, 0, len(matched))
		for id := range matched {
			ids = append(ids, id)
		}
		set = set.Intersect(candidate.FromSortedIDs(ids))
		if i == 0 {
			counts = matched
		}
	}
	if counts != nil {
		set = set.WithLinkCounts(counts)
	}
	return set, nil
}

func (s *Service) runDistances(ctx context.Context, filters []domquery.DistanceFilter) (candidate.Set, error) {
	if len(filters) == 0 {
		return candidate.Unrestricted(), nil
	}
	sets := make([]candidate.Set, len(filters))
	g, gctx := s.round(ctx)
	for i, f := range filters {
		g.Go(func() error {
			ids, err := s.reach(gctx, f)
			if err != nil {
				return domain.NewBackendError(domain.StageGraph, f.String(), err)
			}
			sets[i] = candidate.FromSortedIDs(ids)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return candidate.Set{}, err
	}
	out := candidate.Unrestricted()
	for _, ds := range sets {
		out = out.Intersect(ds)
	}
	return out, nil
}

// reach resolves one distance filter into node ids. The source itself is at
// distance 0 and never part of an UP_TO_DIST result.
func (s *Service) reach(ctx context.Context, f domquery.DistanceFilter) ([]int64, error) {
	switch f.Strategy() {
	case domquery.AtDistance:
		if f.Distance() == 0 {
			return []int64{f.Source()}, nil
		}
		return s.layer(ctx, f.Source(), f.Distance(), f.Direction())

	case domquery.UpToDistance:
		if f.Distance() == 0 {
			return nil, nil
		}
		layers := make([][]int64, f.Distance())
		g, gctx := s.round(ctx)
		for d := 1; d <= f.Distance(); d++ {
			g.Go(func() error {
				ids, err := s.layer(gctx, f.Source(), d, f.Direction())
				if err != nil {
					return err
				}
				layers[d-1] = ids
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		var out []int64
		for _, layer := range layers {
			for _, id := range layer {
				if id != f.Source() {
					out = append(out, id)
				}
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", f.Strategy())
}

func (s *Service) layer(ctx context.Context, source int64, distance int, dir domquery.Direction) ([]int64, error) {
	return callBackend(ctx, s.limits.BackendTimeout, func(ctx context.Context) ([]int64, error) {
		return s.graph.NeighborsAtDistance(ctx, source, distance, dir)
	})
}

// matchLinks returns the link counts of the nodes in scope that satisfy f.
// An unrestricted scope is scanned in one call when the graph supports it,
// otherwise every corpus article is counted individually.
func (s *Service) matchLinks(ctx context.Context, f domquery.LinksFilter, scope candidate.Set) (map[int64]int, error) {
	maxCount, hasMax := f.Max()
	var upper *int
	if hasMax {
		upper = &maxCount
	}

	if scope.IsUnrestricted() {
		if scanner, ok := s.graph.(LinkCountScanner); ok {
			matched, err := callBackend(ctx, s.limits.BackendTimeout, func(ctx context.Context) (map[int64]int, error) {
				return scanner.NodesByLinkCount(ctx, f.Direction(), f.Category(), f.Min(), upper)
			})
			if err != nil {
				return nil, domain.NewBackendError(domain.StageGraph, f.String(), err)
			}
			return matched, nil
		}
		universe, err := callBackend(ctx, s.limits.BackendTimeout, s.corpus.AllIDs)
		if err != nil {
			return nil, domain.NewBackendError(domain.StageGraph, f.String(), err)
		}
		return s.countEach(ctx, f, universe)
	}
	return s.countEach(ctx, f, scope.IDs())
}

func (s *Service) countEach(ctx context.Context, f domquery.LinksFilter, ids []int64) (map[int64]int, error) {
	counts := make([]int, len(ids))
	g, gctx := s.round(ctx)
	for i, id := range ids {
		g.Go(func() error {
			n, err := callBackend(gctx, s.limits.BackendTimeout, func(ctx context.Context) (int, error) {
				return s.graph.LinkCount(ctx, id, f.Direction(), f.Category())
			})
			if err != nil {
				return domain.NewBackendError(domain.StageGraph, f.String(), err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	matched := make(map[int64]int)
	for i, id := range ids {
		if f.Contains(counts[i]) {
			matched[id] = counts[i]
		}
	}
	return matched, nil
}
