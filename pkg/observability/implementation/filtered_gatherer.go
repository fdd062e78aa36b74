package implementation

import (
	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// FilteredGatherer removes denied series from what g gathers. Families left
// without series are dropped. The series name seen by the filters is the
// exposition name.
func FilteredGatherer(g prometheus.Gatherer, filters ...observability.MeterFilter) prometheus.Gatherer {
	if len(filters) == 0 {
		return g
	}

	return prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		mfs, err := g.Gather()

		out := mfs[:0]
		for _, mf := range mfs {
			kept := mf.Metric[:0]
			for _, m := range mf.Metric {
				if !observability.Denied(meterID(mf.GetName(), m), filters) {
					kept = append(kept, m)
				}
			}
			if len(kept) == 0 {
				continue
			}
			mf.Metric = kept
			out = append(out, mf)
		}
		return out, err
	})
}

func meterID(name string, m *dto.Metric) observability.MeterID {
	labels := make([]observability.Label, 0, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		labels = append(labels, observability.Label{Key: lp.GetName(), Value: lp.GetValue()})
	}
	return observability.MeterID{Name: name, Labels: labels}
}
