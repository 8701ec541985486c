// Package breaker wraps the pipeline backends in circuit breakers. A tripped
// breaker fails calls immediately; it never retries.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Settings configures one breaker per wrapped backend.
type Settings struct {
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// TripRatio is the failure ratio that opens the breaker once MinRequests calls were seen.
	TripRatio   float64
	MinRequests uint32
	// OnStateChange is called after every transition (e.g. to export a gauge).
	OnStateChange func(name string, to gobreaker.State)
}

// DefaultSettings returns conservative breaker settings.
func DefaultSettings() Settings {
	return Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		TripRatio:   0.5,
		MinRequests: 10,
	}
}

// ErrOpen is returned while a breaker rejects calls.
var ErrOpen = errors.New("circuit breaker open")

func newBreaker(name string, s Settings, log *zap.Logger) *gobreaker.CircuitBreaker {
	if log == nil {
		log = zap.NewNop()
	}
	minRequests := s.MinRequests
	if minRequests == 0 {
		minRequests = 1
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.TripRatio
		},
		// A caller giving up says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if s.OnStateChange != nil {
				s.OnStateChange(name, to)
			}
		},
	})
}

// execute runs fn through cb. Rejections are reported as ErrOpen.
func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w: %w", cb.Name(), ErrOpen, err)
		}
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}
