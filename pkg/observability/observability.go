package observability

import "context"

// Observability bundles the logger, meter and tracer of the process. Start
// begins serving metrics when a standalone address is configured; Close
// flushes traces and logs.
type Observability interface {
	Close(ctx context.Context) error
	Logger() Logger
	Meter() Meter
	Start(ctx context.Context) error
	Tracer() Tracer
}
