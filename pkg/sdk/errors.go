package wikiquery

import "github.com/kailas-cloud/wikiquery/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation  = domain.ErrValidation
	ErrBackend     = domain.ErrBackend
	ErrConsistency = domain.ErrConsistency
	ErrNotFound    = domain.ErrNotFound
)
