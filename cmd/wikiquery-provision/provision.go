package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/wikiquery/internal/db"
	"github.com/kailas-cloud/wikiquery/internal/domain/article"
)

// seedBatchSize bounds one pipelined write.
const seedBatchSize = 500

type indexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

type graphSchema interface {
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error
}

type articleWriter interface {
	Save(ctx context.Context, nodes ...article.Node) error
}

type provisioner struct {
	index   indexManager
	def     *db.IndexDefinition
	schema  graphSchema
	writers []articleWriter
	logger  *zap.Logger
}

// run recreates the index, ensures the graph schema and writes nodes to every
// writer in order. The article hashes go first so the graph never links to
// an article the corpus cannot return.
func (p *provisioner) run(ctx context.Context, nodes []article.Node, reset bool) error {
	if err := p.recreateIndex(ctx, reset); err != nil {
		return err
	}

	if err := p.schema.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}
	if reset {
		if err := p.schema.Reset(ctx); err != nil {
			return fmt.Errorf("reset graph: %w", err)
		}
		p.logger.Info("Graph reset")
	}

	for start := 0; start < len(nodes); start += seedBatchSize {
		batch := nodes[start:min(start+seedBatchSize, len(nodes))]
		for _, w := range p.writers {
			if err := w.Save(ctx, batch...); err != nil {
				return fmt.Errorf("seed articles %d..%d: %w", batch[0].ID(), batch[len(batch)-1].ID(), err)
			}
		}
	}
	if len(nodes) > 0 {
		p.logger.Info("Seeded articles", zap.Int("count", len(nodes)))
	}
	return nil
}

func (p *provisioner) recreateIndex(ctx context.Context, deleteDocs bool) error {
	exists, err := p.index.IndexExists(ctx, p.def.Name)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		if err := p.index.DropIndex(ctx, p.def.Name, deleteDocs); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index: %w", err)
		}
		p.logger.Info("Dropped index", zap.String("index", p.def.Name), zap.Bool("documents", deleteDocs))
	}

	if err := p.index.CreateIndex(ctx, p.def); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	p.logger.Info("Created index", zap.String("index", p.def.Name), zap.Stringer("definition", p.def))
	return nil
}
