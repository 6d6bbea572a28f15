package health

import "context"

// Pinger checks availability of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexReadiness reports whether the offer indexes have been built.
type IndexReadiness interface {
	Ready() bool
}
