package implementation_test

import (
	"errors"
	"testing"

	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/chnu/award-monitoring-system/pkg/observability/implementation"
	"github.com/chnu/award-monitoring-system/pkg/observability/observabilitytest"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestFilteredGatherer(t *testing.T) {
	t.Run("no filters returns the gatherer as is", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		assert.Same(t, reg, implementation.FilteredGatherer(reg))
	})

	t.Run("denied series are dropped and the rest kept", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "requests_total", Help: "requests"}, []string{"uri"})
		reg.MustRegister(vec)
		vec.WithLabelValues("/actuator/health").Inc()
		vec.WithLabelValues("/actuatorish").Inc()
		vec.WithLabelValues("/api/awards").Inc()

		g := implementation.FilteredGatherer(reg, observability.DenyURIPrefix("/actuator/"))

		assert.Empty(t, observabilitytest.Find(t, g, "requests_total", map[string]string{"uri": "/actuator/health"}))
		assert.Len(t, observabilitytest.Find(t, g, "requests_total", map[string]string{"uri": "/actuatorish"}), 1)
		assert.Len(t, observabilitytest.Find(t, g, "requests_total", map[string]string{"uri": "/api/awards"}), 1)
	})

	t.Run("series without a uri label are kept", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: "jobs_total", Help: "jobs"})
		reg.MustRegister(c)
		c.Inc()

		g := implementation.FilteredGatherer(reg, observability.DenyURIPrefix("/actuator"))

		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "jobs_total", nil))
	})

	t.Run("gather errors are passed on with what was gathered", func(t *testing.T) {
		gatherErr := errors.New("collector failed")
		inner := prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
			return []*dto.MetricFamily{{
				Name: proto.String("jobs_total"),
				Type: dto.MetricType_COUNTER.Enum(),
				Metric: []*dto.Metric{{
					Counter: &dto.Counter{Value: proto.Float64(1)},
				}},
			}}, gatherErr
		})

		mfs, err := implementation.FilteredGatherer(inner, observability.DenyURIPrefix("/actuator")).Gather()

		assert.ErrorIs(t, err, gatherErr)
		require.Len(t, mfs, 1)
		assert.Equal(t, "jobs_total", mfs[0].GetName())
	})
}
