package query

import (
	"cmp"
	"context"
	"sort"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
)

// window applies the optional sort and then offset and limit.
func (s *Service) window(ctx context.Context, merged candidate.Set, q *domquery.ArticleQuery) ([]candidate.Candidate, error) {
	cands := merged.Candidates()
	if srt := q.Sort(); srt != nil && len(cands) > 0 {
		var titles map[int64]string
		if srt.Key() == domquery.SortByTitle {
			var err error
			if titles, err = s.titlesOf(ctx, cands); err != nil {
				return nil, err
			}
		}
		sortCandidates(cands, *srt, titles)
	}
	limit, hasLimit := q.Limit()
	return paginate(cands, q.Offset(), limit, hasLimit), nil
}

func (s *Service) titlesOf(ctx context.Context, cands []candidate.Candidate) (map[int64]string, error) {
	ids := make([]int64, len(cands))
	for i, c := range cands {
		ids[i] = c.ID
	}
	nodes, err := callBackend(ctx, s.limits.BackendTimeout, func(ctx context.Context) (map[int64]article.Node, error) {
		return s.corpus.Fetch(ctx, ids, article.FieldTitle)
	})
	if err != nil {
		return nil, domain.NewBackendError(domain.StageSort, "", err)
	}
	if missing := missingIDs(ids, nodes); len(missing) > 0 {
		return nil, domain.NewConsistencyError(domain.StageSort, missing)
	}
	titles := make(map[int64]string, len(nodes))
	for id, n := range nodes {
		titles[id] = n.Title()
	}
	return titles, nil
}

// sortCandidates orders in place. Ties are always broken by ascending id so
// the result does not depend on the incoming order. Missing link counts sort as 0.
func sortCandidates(cands []candidate.Candidate, srt domquery.Sort, titles map[int64]string) {
	desc := srt.Order() == domquery.Desc
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		var c int
		switch srt.Key() {
		case domquery.SortByID:
			c = cmp.Compare(a.ID, b.ID)
		case domquery.SortByTitle:
			c = cmp.Compare(titles[a.ID], titles[b.ID])
		case domquery.SortByLinkCount:
			c = cmp.Compare(a.LinkCount, b.LinkCount)
		}
		if c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		return a.ID < b.ID
	})
}

func paginate(cands []candidate.Candidate, offset, limit int, hasLimit bool) []candidate.Candidate {
	if offset >= len(cands) {
		return []candidate.Candidate{}
	}
	end := len(cands)
	if hasLimit && limit < end-offset {
		end = offset + limit
	}
	return cands[offset:end]
}

func missingIDs(ids []int64, nodes map[int64]article.Node) []int64 {
	var missing []int64
	for _, id := range ids {
		if _, ok := nodes[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
