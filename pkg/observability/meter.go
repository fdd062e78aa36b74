package observability

import "time"

// Meter is the metric registry seen by application code. Registering a name
// that already exists with the same kind returns the existing instrument.
type Meter interface {
	Counter(name string, opts ...MetricOpt) (Counter, error)
	Gauge(name string, opts ...MetricOpt) (Gauge, error)
	GaugeFunc(name string, fn func() float64, opts ...MetricOpt) error
	Timer(name string, opts ...MetricOpt) (Timer, error)
}

// Counter only moves up. Negative increments are dropped.
type Counter interface {
	Inc(v float64, labels ...Label)
	With(labels ...Label) Counter
}

type Gauge interface {
	Set(v float64, labels ...Label)
	Add(v float64, labels ...Label)
}

type Timer interface {
	Record(d time.Duration, labels ...Label)
	Start(labels ...Label) func()
	With(labels ...Label) Timer
}
