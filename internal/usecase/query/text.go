package query

import (
	"context"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
)

// runText issues every text filter concurrently and intersects the hit sets.
// Scores of a candidate are summed across filters.
func (s *Service) runText(ctx context.Context, filters []domquery.TextFilter) (candidate.Set, error) {
	if len(filters) == 0 {
		return candidate.Unrestricted(), nil
	}

	sets := make([]candidate.Set, len(filters))
	g, gctx := s.round(ctx)
	for i, f := range filters {
		g.Go(func() error {
			hits, err := callBackend(gctx, s.limits.BackendTimeout, func(ctx context.Context) ([]candidate.Hit, error) {
				return s.text.Search(ctx, f.Field(), f.Terms(), f.Fuzzy(), f.Op())
			})
			if err != nil {
				return domain.NewBackendError(domain.StageText, f.String(), err)
			}
			sets[i] = candidate.FromHits(hits)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return candidate.Set{}, err
	}
	return candidate.IntersectScored(sets...), nil
}
