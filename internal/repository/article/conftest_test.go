package article

import (
	"context"
	"testing"

	"github.com/kailas-cloud/wikiquery/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn  func(ctx context.Context, items []db.HashSetItem) error
	hmgetMultiFn func(ctx context.Context, keys, fields []string) ([]map[string]string, error)
	scanFn       func(ctx context.Context, pattern string) ([]string, error)
	searchTextFn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchTagFn  func(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HMGetMulti(ctx context.Context, keys, fields []string) ([]map[string]string, error) {
	if m.hmgetMultiFn != nil {
		return m.hmgetMultiFn(ctx, keys, fields)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchTag(ctx context.Context, q *db.TagQuery) (*db.SearchResult, error) {
	if m.searchTagFn != nil {
		return m.searchTagFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "wq:"), ms
}
