package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikiquery/internal/db"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
)

type fakeIndex struct {
	exists  bool
	dropErr error
	calls   []string
}

func (f *fakeIndex) IndexExists(context.Context, string) (bool, error) {
	f.calls = append(f.calls, "exists")
	return f.exists, nil
}

func (f *fakeIndex) DropIndex(_ context.Context, _ string, deleteDocs bool) error {
	f.calls = append(f.calls, fmt.Sprintf("drop(dd=%v)", deleteDocs))
	return f.dropErr
}

func (f *fakeIndex) CreateIndex(context.Context, *db.IndexDefinition) error {
	f.calls = append(f.calls, "create")
	return nil
}

type fakeSchema struct {
	calls []string
}

func (f *fakeSchema) EnsureSchema(context.Context) error {
	f.calls = append(f.calls, "schema")
	return nil
}

func (f *fakeSchema) Reset(context.Context) error {
	f.calls = append(f.calls, "reset")
	return nil
}

type fakeWriter struct {
	batches [][]int64
	err     error
}

func (f *fakeWriter) Save(_ context.Context, nodes ...article.Node) error {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	f.batches = append(f.batches, ids)
	return f.err
}

func testDef() *db.IndexDefinition {
	return db.NewIndex("wq:articles:idx").Prefix("wq:article:").Numeric("article_id").MustBuild()
}

func nodes(n int) []article.Node {
	out := make([]article.Node, n)
	for i := range out {
		out[i] = article.New(int64(i+1), fmt.Sprintf("A%d", i+1), nil, nil)
	}
	return out
}

func TestProvision_FreshStores(t *testing.T) {
	idx, schema, w := &fakeIndex{}, &fakeSchema{}, &fakeWriter{}
	p := &provisioner{index: idx, def: testDef(), schema: schema, writers: []articleWriter{w}, logger: zap.NewNop()}

	if err := p.run(context.Background(), nodes(3), false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !slices.Equal(idx.calls, []string{"exists", "create"}) {
		t.Errorf("index calls %v", idx.calls)
	}
	if !slices.Equal(schema.calls, []string{"schema"}) {
		t.Errorf("schema calls %v", schema.calls)
	}
	if len(w.batches) != 1 || !slices.Equal(w.batches[0], []int64{1, 2, 3}) {
		t.Errorf("batches %v", w.batches)
	}
}

func TestProvision_ResetDropsDocumentsAndGraph(t *testing.T) {
	idx, schema := &fakeIndex{exists: true}, &fakeSchema{}
	p := &provisioner{index: idx, def: testDef(), schema: schema, logger: zap.NewNop()}

	if err := p.run(context.Background(), nil, true); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !slices.Equal(idx.calls, []string{"exists", "drop(dd=true)", "create"}) {
		t.Errorf("index calls %v", idx.calls)
	}
	if !slices.Equal(schema.calls, []string{"schema", "reset"}) {
		t.Errorf("schema calls %v", schema.calls)
	}
}

func TestProvision_DropRaceIgnored(t *testing.T) {
	idx := &fakeIndex{exists: true, dropErr: db.ErrIndexNotFound}
	p := &provisioner{index: idx, def: testDef(), schema: &fakeSchema{}, logger: zap.NewNop()}

	if err := p.run(context.Background(), nil, false); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestProvision_BatchesAcrossWriters(t *testing.T) {
	hashes, graph := &fakeWriter{}, &fakeWriter{}
	p := &provisioner{
		index: &fakeIndex{}, def: testDef(), schema: &fakeSchema{},
		writers: []articleWriter{hashes, graph}, logger: zap.NewNop(),
	}

	if err := p.run(context.Background(), nodes(seedBatchSize+1), false); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, w := range []*fakeWriter{hashes, graph} {
		if len(w.batches) != 2 || len(w.batches[0]) != seedBatchSize || len(w.batches[1]) != 1 {
			t.Errorf("unexpected batching %d batches", len(w.batches))
		}
	}
}

func TestProvision_WriterFailureStops(t *testing.T) {
	hashes := &fakeWriter{err: errors.New("OOM command not allowed")}
	graph := &fakeWriter{}
	p := &provisioner{
		index: &fakeIndex{}, def: testDef(), schema: &fakeSchema{},
		writers: []articleWriter{hashes, graph}, logger: zap.NewNop(),
	}

	if err := p.run(context.Background(), nodes(2), false); err == nil {
		t.Fatal("expected seed error")
	}
	if len(graph.batches) != 0 {
		t.Error("graph must not be written after the hashes failed")
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"env", "fixture", "reset", "timeout"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing flag --%s", name)
		}
	}
}
