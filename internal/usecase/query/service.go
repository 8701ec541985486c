package query

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/wikiquery/internal/domain"
	domquery "github.com/kailas-cloud/wikiquery/internal/domain/query"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/candidate"
	"github.com/kailas-cloud/wikiquery/internal/domain/search/response"
	"github.com/kailas-cloud/wikiquery/internal/logger"
)

// Default execution limits.
const (
	DefaultWorkers             = 8
	DefaultIdentityInlineLimit = 256
)

// Limits bounds the work a single evaluation may do.
type Limits struct {
	// Workers caps concurrent backend calls within one round of a stage.
	Workers int
	// Timeout bounds the whole evaluation (0 = none).
	Timeout time.Duration
	// BackendTimeout bounds every single backend call (0 = none).
	BackendTimeout time.Duration
	// IdentityInlineLimit is the largest prior candidate set for which title and
	// category filters are matched against fetched records instead of resolved.
	IdentityInlineLimit int
}

// Service evaluates article queries against the text, graph and corpus backends.
type Service struct {
	text     TextSearcher
	graph    Graph
	corpus   Corpus
	limits   Limits
	observer StageObserver
}

// New creates a query service.
func New(text TextSearcher, graph Graph, corpus Corpus) *Service {
	return &Service{
		text:   text,
		graph:  graph,
		corpus: corpus,
		limits: Limits{Workers: DefaultWorkers, IdentityInlineLimit: DefaultIdentityInlineLimit},
	}
}

// WithLimits overrides execution limits. Non-positive worker and inline values keep defaults.
func (s *Service) WithLimits(l Limits) *Service {
	if l.Workers <= 0 {
		l.Workers = DefaultWorkers
	}
	if l.IdentityInlineLimit <= 0 {
		l.IdentityInlineLimit = DefaultIdentityInlineLimit
	}
	s.limits = l
	return s
}

// WithObserver attaches a stage observer.
func (s *Service) WithObserver(o StageObserver) *Service {
	s.observer = o
	return s
}

// Evaluate runs the full pipeline: text and graph stages concurrently, then
// identity, merge, sort and pagination, and finally projection.
func (s *Service) Evaluate(ctx context.Context, q domquery.ArticleQuery) (resp response.Response, err error) {
	start := time.Now()
	defer func() {
		if s.observer != nil {
			s.observer.ObserveQuery(q.ReturnType(), time.Since(start), err)
		}
	}()

	if s.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limits.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return response.Response{}, fmt.Errorf("evaluate: %w", err)
	}

	ctx = logger.WithFields(ctx, zap.String("return_type", string(q.ReturnType())))
	log := logger.FromContext(ctx)

	var textSet, graphSet candidate.Set
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var stageErr error
		textSet, stageErr = timed(s, domain.StageText, func() (candidate.Set, error) {
			return s.runText(gctx, q.TextFilters())
		})
		return stageErr
	})
	g.Go(func() error {
		var stageErr error
		graphSet, stageErr = timed(s, domain.StageGraph, func() (candidate.Set, error) {
			return s.runGraph(gctx, q.GraphFilters())
		})
		return stageErr
	})
	if err := g.Wait(); err != nil {
		return response.Response{}, err
	}
	log.Debug("structural stages done",
		zap.Bool("text_unrestricted", textSet.IsUnrestricted()),
		zap.Int("text_candidates", textSet.Len()),
		zap.Bool("graph_unrestricted", graphSet.IsUnrestricted()),
		zap.Int("graph_candidates", graphSet.Len()),
	)

	idSet, err := timed(s, domain.StageIdentity, func() (candidate.Set, error) {
		return s.runIdentity(ctx, q.IdentityFilters(), textSet.Intersect(graphSet))
	})
	if err != nil {
		return response.Response{}, err
	}

	merged, err := timed(s, domain.StageUniverse, func() (candidate.Set, error) {
		return s.merge(ctx, textSet, graphSet, idSet)
	})
	if err != nil {
		return response.Response{}, err
	}
	total := merged.Len()
	log.Debug("candidates merged", zap.Int("total", total))

	if q.ReturnType() == domquery.ReturnCount {
		if err := ctx.Err(); err != nil {
			return response.Response{}, fmt.Errorf("evaluate: %w", err)
		}
		return response.Count(total), nil
	}

	window, err := timed(s, domain.StageSort, func() ([]candidate.Candidate, error) {
		return s.window(ctx, merged, &q)
	})
	if err != nil {
		return response.Response{}, err
	}

	resp, err = timed(s, domain.StageProjection, func() (response.Response, error) {
		return s.project(ctx, q.ReturnType(), window, total)
	})
	if err != nil {
		return response.Response{}, err
	}
	if err := ctx.Err(); err != nil {
		return response.Response{}, fmt.Errorf("evaluate: %w", err)
	}
	return resp, nil
}

// timed runs fn and reports its duration to the observer.
func timed[T any](s *Service, stage domain.Stage, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	if s.observer != nil {
		s.observer.ObserveStage(stage, time.Since(start), err)
	}
	return v, err
}

// callBackend runs a single backend call under the per-call timeout.
func callBackend[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx)
}

// round returns an errgroup bounded by the worker limit.
func (s *Service) round(ctx context.Context) (*errgroup.Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limits.Workers)
	return g, gctx
}
