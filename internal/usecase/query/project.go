package query

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/response"
)

// project fetches the fields the return type needs for the window, preserving
// window order. Every window id must have a corpus record.
func (s *Service) project(
	ctx context.Context, rt domquery.ReturnType, window []candidate.Candidate, total int,
) (response.Response, error) {
	if rt == domquery.ReturnCount {
		return response.Count(total), nil
	}

	fields, err := fieldsFor(rt)
	if err != nil {
		return response.Response{}, err
	}
	ids := make([]int64, len(window))
	for i, c := range window {
		ids[i] = c.ID
	}

	nodes := map[int64]article.Node{}
	if len(ids) > 0 {
		nodes, err = callBackend(ctx, s.limits.BackendTimeout, func(ctx context.Context) (map[int64]article.Node, error) {
			return s.corpus.Fetch(ctx, ids, fields)
		})
		if err != nil {
			return response.Response{}, domain.NewBackendError(domain.StageProjection, "", err)
		}
		if missing := missingIDs(ids, nodes); len(missing) > 0 {
			return response.Response{}, domain.NewConsistencyError(domain.StageProjection, missing)
		}
	}

	switch rt {
	case domquery.ReturnID:
		return response.IDs(ids, total), nil
	case domquery.ReturnTitle:
		titles := make([]string, len(ids))
		for i, id := range ids {
			titles[i] = nodes[id].Title()
		}
		return response.Titles(titles, total), nil
	default:
		out := make([]article.Node, len(ids))
		for i, id := range ids {
			out[i] = nodes[id]
		}
		return response.Nodes(rt, out, total), nil
	}
}

func fieldsFor(rt domquery.ReturnType) (article.Field, error) {
	switch rt {
	case domquery.ReturnID:
		return 0, nil
	case domquery.ReturnTitle:
		return article.FieldTitle, nil
	case domquery.ReturnNode:
		return article.FieldsNode, nil
	case domquery.ReturnNodeWithContent:
		return article.FieldsAll, nil
	}
	return 0, fmt.Errorf("unsupported return type %q", rt)
}
