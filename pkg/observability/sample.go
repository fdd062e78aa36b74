package observability

import "time"

// Sample is an in-flight timing measurement. It has no effect on any timer
// until Stop is called.
type Sample struct {
	start time.Time
}

func StartSample() Sample {
	return Sample{start: time.Now()}
}

// Stop records the time elapsed since the sample started into t and returns it.
func (s Sample) Stop(t Timer, labels ...Label) time.Duration {
	d := time.Since(s.start)
	t.Record(d, labels...)
	return d
}

// Time runs fn once and records its duration into t, including when fn
// returns an error or panics. The error or panic reaches the caller unchanged.
func Time(t Timer, fn func() error, labels ...Label) error {
	s := StartSample()
	defer s.Stop(t, labels...)
	return fn()
}

// TimeValue is Time for operations that produce a value.
func TimeValue[T any](t Timer, fn func() (T, error), labels ...Label) (T, error) {
	s := StartSample()
	defer s.Stop(t, labels...)
	return fn()
}
