package health

import "context"

// Pinger checks a backend's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Component is a named backend taking part in the health report.
type Component struct {
	Name   string
	Pinger Pinger
}
