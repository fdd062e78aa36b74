package observability

import "context"

type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

type Span interface {
	End()
	RecordError(err error)
	// SetAttributes annotates the span with fields, e.g. the id of the award
	// being worked on.
	SetAttributes(fields ...Field)
}
