package query

import (
	"context"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
)

// runIdentity intersects the identity filters. Id filters are applied first;
// when the resulting scope (prior stages included) is small enough, title and
// category filters are matched against fetched records, otherwise they are
// resolved through the corpus.
func (s *Service) runIdentity(
	ctx context.Context, filters []domquery.IdentityFilter, prior candidate.Set,
) (candidate.Set, error) {
	if len(filters) == 0 {
		return candidate.Unrestricted(), nil
	}

	set := candidate.Unrestricted()
	var rest []domquery.IdentityFilter
	for _, f := range filters {
		switch f := f.(type) {
		case domquery.IDsFilter:
			set = set.Intersect(candidate.FromSortedIDs(f.IDs()))
		case domquery.TitlesFilter, domquery.CategoriesFilter:
			rest = append(rest, f)
		default:
			return candidate.Set{}, domain.NewValidationError("identity", "unsupported filter %T", f)
		}
	}
	if len(rest) == 0 {
		if prior.IsUnrestricted() && !set.IsUnrestricted() {
			return s.existing(ctx, set)
		}
		return set, nil
	}

	scope := prior.Intersect(set)
	if !scope.IsUnrestricted() && scope.Len() <= s.limits.IdentityInlineLimit {
		return s.matchInline(ctx, rest, scope)
	}

	for _, f := range rest {
		if !set.IsUnrestricted() && set.Len() == 0 {
			break
		}
		ids, err := s.resolve(ctx, f)
		if err != nil {
			return candidate.Set{}, domain.NewBackendError(domain.StageIdentity, f.String(), err)
		}
		set = set.Intersect(candidate.FromSortedIDs(ids))
	}
	return set, nil
}

// existing drops ids without a corpus record. Small sets are checked with one
// fetch, larger ones against the universe.
func (s *Service) existing(ctx context.Context, set candidate.Set) (candidate.Set, error) {
	if set.Len() == 0 {
		return candidate.Empty(), nil
	}
	if set.Len() > s.limits.IdentityInlineLimit {
		ids, err := callBackend(ctx, s.limits.BackendTimeout, s.corpus.AllIDs)
		if err != nil {
			return candidate.Set{}, domain.NewBackendError(domain.StageIdentity, "ids", err)
		}
		return set.Intersect(candidate.FromSortedIDs(ids)), nil
	}

	nodes, err := callBackend(ctx, s.limits.BackendTimeout, func(ctx context.Context) (map[int64]article.Node, error) {
		return s.corpus.Fetch(ctx, set.IDs(), article.FieldTitle)
	})
	if err != nil {
		return candidate.Set{}, domain.NewBackendError(domain.StageIdentity, "ids", err)
	}
	kept := make([]int64, 0, set.Len())
	for _, id := range set.IDs() {
		if _, ok := nodes[id]; ok {
			kept = append(kept, id)
		}
	}
	return candidate.FromSortedIDs(kept), nil
}

func (s *Service) resolve(ctx context.Context, f domquery.IdentityFilter) ([]int64, error) {
	switch f := f.(type) {
	case domquery.TitlesFilter:
		return callBackend(ctx, s.limits.BackendTimeout, func(ctx context.Context) ([]int64, error) {
			return s.corpus.ResolveTitles(ctx, f.Titles())
		})
	case domquery.CategoriesFilter:
		return callBackend(ctx, s.limits.BackendTimeout, func(ctx context.Context) ([]int64, error) {
			return s.corpus.ResolveCategories(ctx, f.Categories())
		})
	}
	return nil, domain.NewValidationError("identity", "unsupported filter %T", f)
}

// matchInline fetches titles and categories of the scope once and keeps the
// records matching every filter. Ids without a record do not match.
func (s *Service) matchInline(
	ctx context.Context, filters []domquery.IdentityFilter, scope candidate.Set,
) (candidate.Set, error) {
	if scope.Len() == 0 {
		return candidate.Empty(), nil
	}
	nodes, err := callBackend(ctx, s.limits.BackendTimeout, func(ctx context.Context) (map[int64]article.Node, error) {
		return s.corpus.Fetch(ctx, scope.IDs(), article.FieldTitle|article.FieldCategories)
	})
	if err != nil {
		return candidate.Set{}, domain.NewBackendError(domain.StageIdentity, filters[0].String(), err)
	}

	kept := make([]int64, 0, scope.Len())
	for _, id := range scope.IDs() {
		n, ok := nodes[id]
		if ok && matchesAll(n, filters) {
			kept = append(kept, id)
		}
	}
	return candidate.FromSortedIDs(kept), nil
}

func matchesAll(n article.Node, filters []domquery.IdentityFilter) bool {
	for _, f := range filters {
		switch f := f.(type) {
		case domquery.TitlesFilter:
			if !containsString(f.Titles(), n.Title()) {
				return false
			}
		case domquery.CategoriesFilter:
			if !anyCategory(n, f.Categories()) {
				return false
			}
		}
	}
	return true
}

func anyCategory(n article.Node, categories []string) bool {
	for _, c := range categories {
		if n.InCategory(c) {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
