package observability

import "errors"

// ErrMetricConflict is returned when a name is already registered with a
// different kind or with label keys the new registration cannot reuse.
var ErrMetricConflict = errors.New("metric already registered with a different kind or labels")

type Label struct {
	Key   string
	Value string
}

type MetricOpt struct {
	Help        string
	Buckets     []float64
	ConstLabels []Label
	LabelKeys   []string
	Unit        string
}

// MeterID identifies a single series: a metric name plus its tag set.
type MeterID struct {
	Name   string
	Labels []Label
}

// Label returns the value of the tag named key.
func (id MeterID) Label(key string) (string, bool) {
	for _, l := range id.Labels {
		if l.Key == key {
			return l.Value, true
		}
	}
	return "", false
}

func LabelKeys(labels []Label) []string {
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = l.Key
	}
	return keys
}
