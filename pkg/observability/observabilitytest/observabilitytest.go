// Package observabilitytest reads back what a Prometheus gatherer exports.
package observabilitytest

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// Families gathers g and indexes the result by exposition name.
func Families(t testing.TB, g prometheus.Gatherer) map[string]*dto.MetricFamily {
	t.Helper()

	mfs, err := g.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

// Find returns the series of name carrying every label in labels. An empty
// expected value also matches a missing label.
func Find(t testing.TB, g prometheus.Gatherer, name string, labels map[string]string) []*dto.Metric {
	t.Helper()

	mf, ok := Families(t, g)[name]
	if !ok {
		return nil
	}

	var out []*dto.Metric
	for _, m := range mf.GetMetric() {
		if HasLabels(m, labels) {
			out = append(out, m)
		}
	}
	return out
}

// Value returns the value of the single series matching name and labels:
// counter and gauge values, or the observation count of a histogram. It is 0
// when no series matches.
func Value(t testing.TB, g prometheus.Gatherer, name string, labels map[string]string) float64 {
	t.Helper()

	found := Find(t, g, name, labels)
	if len(found) == 0 {
		return 0
	}
	require.Len(t, found, 1, "more than one series of %s matches %v", name, labels)
	return MetricValue(found[0])
}

func MetricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	case m.GetUntyped() != nil:
		return m.GetUntyped().GetValue()
	}
	return 0
}

func HasLabels(m *dto.Metric, labels map[string]string) bool {
	for k, v := range labels {
		got := ""
		for _, lp := range m.GetLabel() {
			if lp.GetName() == k {
				got = lp.GetValue()
				break
			}
		}
		if got != v {
			return false
		}
	}
	return true
}

func Label(m *dto.Metric, key string) (string, bool) {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == key {
			return lp.GetValue(), true
		}
	}
	return "", false
}
