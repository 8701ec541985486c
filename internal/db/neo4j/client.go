// Package neo4j implements the article link graph on Neo4j.
//
// Graph model: (:Article {article_id, title, categories})-[:LINKS_TO]->(:Article).
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neodb "github.com/neo4j/neo4j-go-driver/v5/neo4j/db"

	"github.com/kailas-cloud/wikiquery/internal/db"
)

// Config holds connection parameters for a Neo4j store.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// runner executes a single Cypher statement in a managed transaction.
type runner interface {
	read(ctx context.Context, cypher string, params map[string]any) ([]*neodb.Record, error)
	write(ctx context.Context, cypher string, params map[string]any) error
}

// Store implements graph reads and writes via the official Neo4j driver.
type Store struct {
	driver neo4jdriver.DriverWithContext
	run    runner
}

// NewStore creates a Neo4j store. The connection is established lazily.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("uri is required")
	}
	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}

	driver, err := neo4jdriver.NewDriverWithContext(cfg.URI, neo4jdriver.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	return &Store{
		driver: driver,
		run:    &sessionRunner{driver: driver, database: database},
	}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.driver == nil {
		return errors.New("ping: driver not configured")
	}
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the driver and its connection pool.
func (s *Store) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for graph database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) read(ctx context.Context, cypher string, params map[string]any) ([]*neodb.Record, error) {
	records, err := s.run.read(ctx, cypher, params)
	if err != nil {
		return nil, &db.Error{Op: db.OpGraphRead, Err: err}
	}
	return records, nil
}

func (s *Store) write(ctx context.Context, cypher string, params map[string]any) error {
	if err := s.run.write(ctx, cypher, params); err != nil {
		return &db.Error{Op: db.OpGraphWrite, Err: err}
	}
	return nil
}

type sessionRunner struct {
	driver   neo4jdriver.DriverWithContext
	database string
}

func (r *sessionRunner) read(ctx context.Context, cypher string, params map[string]any) ([]*neodb.Record, error) {
	session := r.driver.NewSession(ctx, neo4jdriver.SessionConfig{
		DatabaseName: r.database,
		AccessMode:   neo4jdriver.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()

	out, err := session.ExecuteRead(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	records, _ := out.([]*neodb.Record)
	return records, nil
}

func (r *sessionRunner) write(ctx context.Context, cypher string, params map[string]any) error {
	session := r.driver.NewSession(ctx, neo4jdriver.SessionConfig{DatabaseName: r.database})
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4jdriver.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// recordInt64 reads an integer column. Cypher integers arrive as int64.
func recordInt64(rec *neodb.Record, key string) (int64, error) {
	v, ok := rec.Get(key)
	if !ok {
		return 0, fmt.Errorf("missing column %q", key)
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("column %q: expected int64, got %T", key, v)
	}
	return n, nil
}
