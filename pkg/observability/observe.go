package observability

import "context"

// Observe runs fn inside a span called name, annotated with attrs. A returned
// error is recorded on the span and passed back as is.
func Observe(ctx context.Context, tracer Tracer, name string, fn func(ctx context.Context) error, attrs ...Field) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return err
}
