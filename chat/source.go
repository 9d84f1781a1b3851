package chat

import "context"

// Sink receives events from a Source. Implementations must not block for long;
// sources call them from their network goroutines.
type Sink interface {
	Deliver(msg Message)
	SetConnected(connected bool)
}

// Source produces chat messages until ctx is canceled.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}
