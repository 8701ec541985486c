package query

import (
	"context"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
)

// merge intersects the three stage results. Text order (score) wins when the
// text stage restricted the set; otherwise the result is ordered by id. When
// every stage is unrestricted the whole corpus is materialized.
func (s *Service) merge(ctx context.Context, text, graph, identity candidate.Set) (candidate.Set, error) {
	merged := text.Intersect(graph).Intersect(identity)
	if !merged.IsUnrestricted() {
		if text.IsUnrestricted() {
			merged = merged.SortedByID()
		}
		return merged, nil
	}

	ids, err := callBackend(ctx, s.limits.BackendTimeout, s.corpus.AllIDs)
	if err != nil {
		return candidate.Set{}, domain.NewBackendError(domain.StageUniverse, "", err)
	}
	return candidate.FromSortedIDs(ids), nil
}
