package service_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chnu/award-monitoring-system/internal/service"
	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/chnu/award-monitoring-system/pkg/observability/implementation"
	"github.com/chnu/award-monitoring-system/pkg/observability/observabilitytest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetrics(t *testing.T, opts ...implementation.Option) (*service.BusinessMetricsService, prometheus.Gatherer) {
	t.Helper()

	meter := implementation.NewPrometheusMeter(opts...)
	metrics, err := service.NewBusinessMetricsService(meter)
	require.NoError(t, err)
	return metrics, implementation.PromGatherer(meter)
}

func TestBusinessMetricsService_Registration(t *testing.T) {
	t.Run("every named metric is exported", func(t *testing.T) {
		_, g := newMetrics(t)

		families := observabilitytest.Families(t, g)
		for _, name := range []string{
			"award_requests_pending_total",
			"user_sessions_active",
			"document_processing_time_seconds",
			"award_workflow_time_seconds",
			"document_processing_failures_total",
			"user_registrations_total",
		} {
			assert.Contains(t, families, name)
		}
	})

	t.Run("two services over one meter share the series", func(t *testing.T) {
		meter := implementation.NewPrometheusMeter()
		first, err := service.NewBusinessMetricsService(meter)
		require.NoError(t, err)
		second, err := service.NewBusinessMetricsService(meter)
		require.NoError(t, err)

		first.RecordUserRegistration()
		second.RecordUserRegistration()

		assert.Equal(t, 2.0, observabilitytest.Value(t, implementation.PromGatherer(meter), "user_registrations_total", nil))
	})

	t.Run("a name taken by another kind fails construction", func(t *testing.T) {
		meter := implementation.NewPrometheusMeter()
		_, err := meter.Timer(service.MetricUserRegistrations)
		require.NoError(t, err)

		_, err = service.NewBusinessMetricsService(meter)
		assert.ErrorIs(t, err, observability.ErrMetricConflict)
	})
}

func TestBusinessMetricsService_RecordSubmission(t *testing.T) {
	t.Run("outcomes are counted separately", func(t *testing.T) {
		metrics, g := newMetrics(t)

		metrics.RecordSubmission(service.SubmissionSuccess)
		metrics.RecordSubmission(service.SubmissionSuccess)
		metrics.RecordSubmission(service.SubmissionFailed)

		assert.Equal(t, 2.0, observabilitytest.Value(t, g, "award_submissions_total", map[string]string{"status": "success"}))
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_submissions_total", map[string]string{"status": "failed"}))
	})

	t.Run("concurrent submissions are not lost", func(t *testing.T) {
		metrics, g := newMetrics(t)

		const n = 1000
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				metrics.RecordSubmission(service.SubmissionSuccess)
			}()
		}
		wg.Wait()

		assert.Equal(t, float64(n), observabilitytest.Value(t, g, "award_submissions_total", map[string]string{"status": "success"}))
	})
}

func TestBusinessMetricsService_RecordApproval(t *testing.T) {
	t.Run("decisions without a level", func(t *testing.T) {
		metrics, g := newMetrics(t)

		metrics.RecordApproval(true, "")
		metrics.RecordApproval(false, "")
		metrics.RecordApproval(false, "")

		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_approvals_total", map[string]string{"decision": "approved", "level": ""}))
		assert.Equal(t, 2.0, observabilitytest.Value(t, g, "award_approvals_total", map[string]string{"decision": "rejected", "level": ""}))
	})

	t.Run("the same level reuses one series", func(t *testing.T) {
		metrics, g := newMetrics(t)

		metrics.RecordApproval(true, "L")
		metrics.RecordApprovalWithLevel("L", true)

		found := observabilitytest.Find(t, g, "award_approvals_total", map[string]string{"decision": "approved", "level": "L"})
		require.Len(t, found, 1)
		assert.Equal(t, 2.0, observabilitytest.MetricValue(found[0]))
	})

	t.Run("a levelled decision is not counted in the decision-only series", func(t *testing.T) {
		metrics, g := newMetrics(t)

		metrics.RecordApproval(true, "national")

		assert.Equal(t, 0.0, observabilitytest.Value(t, g, "award_approvals_total", map[string]string{"decision": "approved", "level": ""}))
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_approvals_total", map[string]string{"decision": "approved", "level": "national"}))
	})

	t.Run("levels partition series", func(t *testing.T) {
		metrics, g := newMetrics(t)

		metrics.RecordApproval(true, "regional")
		metrics.RecordApproval(false, "regional")
		metrics.RecordApproval(true, "national")

		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_approvals_total", map[string]string{"decision": "approved", "level": "regional"}))
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_approvals_total", map[string]string{"decision": "rejected", "level": "regional"}))
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_approvals_total", map[string]string{"decision": "approved", "level": "national"}))
	})
}

func TestBusinessMetricsService_InvalidLabelValues(t *testing.T) {
	t.Run("approval level with invalid utf-8 is recorded under a cleaned value", func(t *testing.T) {
		metrics, g := newMetrics(t)

		assert.NotPanics(t, func() {
			metrics.RecordApproval(true, "L\xff")
			metrics.RecordApproval(true, "L\xff")
		})

		assert.Equal(t, 2.0, observabilitytest.Value(t, g, "award_approvals_total", map[string]string{"decision": "approved", "level": "L\uFFFD"}))
	})

	t.Run("ad-hoc counter tags with invalid utf-8 do not panic", func(t *testing.T) {
		metrics, g := newMetrics(t)

		var c observability.Counter
		assert.NotPanics(t, func() {
			var err error
			c, err = metrics.CreateCounter("notification.sent", "Notifications sent", observability.Label{Key: "channel", Value: "\xfe"})
			require.NoError(t, err)
			c.Inc(1)
		})

		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "notification_sent_total", map[string]string{"channel": "\uFFFD"}))
	})
}

func TestBusinessMetricsService_PendingRequests(t *testing.T) {
	t.Run("gauge tracks the cell", func(t *testing.T) {
		metrics, g := newMetrics(t)

		metrics.SetPendingRequests(5)
		metrics.IncrementPending()
		metrics.DecrementPending()
		metrics.DecrementPending()

		assert.Equal(t, int64(4), metrics.PendingRequests())
		assert.Equal(t, 4.0, observabilitytest.Value(t, g, "award_requests_pending_total", nil))
	})

	t.Run("decrements below zero are not clamped", func(t *testing.T) {
		metrics, g := newMetrics(t)

		metrics.DecrementPending()

		assert.Equal(t, -1.0, observabilitytest.Value(t, g, "award_requests_pending_total", nil))
	})

	t.Run("concurrent increments and decrements balance out", func(t *testing.T) {
		metrics, g := newMetrics(t)
		metrics.SetPendingRequests(10)

		const n = 500
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				metrics.IncrementPending()
			}()
			go func() {
				defer wg.Done()
				metrics.DecrementPending()
			}()
		}
		wg.Wait()

		assert.Equal(t, 10.0, observabilitytest.Value(t, g, "award_requests_pending_total", nil))
	})
}

func TestBusinessMetricsService_TimedOperations(t *testing.T) {
	t.Run("end feeds the timer of the operation kind", func(t *testing.T) {
		metrics, g := newMetrics(t)

		op := metrics.BeginTimedOperation(service.AwardWorkflow)
		assert.Equal(t, service.AwardWorkflow, op.Kind())
		assert.Equal(t, 0.0, observabilitytest.Value(t, g, "award_workflow_time_seconds", nil))

		metrics.EndTimedOperation(op)

		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_workflow_time_seconds", nil))
		assert.Equal(t, 0.0, observabilitytest.Value(t, g, "document_processing_time_seconds", nil))
	})

	t.Run("start and stop pairs", func(t *testing.T) {
		metrics, g := newMetrics(t)

		doc := metrics.StartDocumentProcessing()
		workflow := metrics.StartWorkflowTimer()
		time.Sleep(2 * time.Millisecond)
		metrics.StopDocumentProcessing(doc)
		metrics.StopWorkflowTimer(workflow)

		found := observabilitytest.Find(t, g, "document_processing_time_seconds", nil)
		require.Len(t, found, 1)
		assert.Equal(t, uint64(1), found[0].GetHistogram().GetSampleCount())
		assert.GreaterOrEqual(t, found[0].GetHistogram().GetSampleSum(), 0.002)
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_workflow_time_seconds", nil))
	})

	t.Run("operations overlap independently", func(t *testing.T) {
		metrics, g := newMetrics(t)

		ops := make([]*service.TimedOperation, 10)
		for i := range ops {
			ops[i] = metrics.BeginTimedOperation(service.DocumentProcessing)
		}
		for _, op := range ops {
			metrics.EndTimedOperation(op)
		}

		assert.Equal(t, 10.0, observabilitytest.Value(t, g, "document_processing_time_seconds", nil))
	})

	t.Run("kind names", func(t *testing.T) {
		assert.Equal(t, "document_processing", service.DocumentProcessing.String())
		assert.Equal(t, "award_workflow", service.AwardWorkflow.String())
	})
}

func TestBusinessMetricsService_MeasureDocumentProcessing(t *testing.T) {
	t.Run("success is timed", func(t *testing.T) {
		metrics, g := newMetrics(t)

		err := metrics.MeasureDocumentProcessing(func() error { return nil })

		require.NoError(t, err)
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "document_processing_time_seconds", nil))
	})

	t.Run("failure is timed and the same error returned", func(t *testing.T) {
		metrics, g := newMetrics(t)
		failure := errors.New("unreadable scan")

		err := metrics.MeasureDocumentProcessing(func() error { return failure })

		assert.Same(t, failure, err)
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "document_processing_time_seconds", nil))
		assert.Equal(t, 0.0, observabilitytest.Value(t, g, "document_processing_failures_total", nil))
	})

	t.Run("panic is timed and propagated", func(t *testing.T) {
		metrics, g := newMetrics(t)

		assert.PanicsWithValue(t, "corrupt", func() {
			_ = metrics.MeasureDocumentProcessing(func() error { panic("corrupt") })
		})
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "document_processing_time_seconds", nil))
	})

	t.Run("value returning operations", func(t *testing.T) {
		metrics, g := newMetrics(t)

		pages, err := service.MeasureDocument(metrics, func() (int, error) { return 3, nil })

		require.NoError(t, err)
		assert.Equal(t, 3, pages)
		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "document_processing_time_seconds", nil))
	})

	t.Run("failures are counted on request", func(t *testing.T) {
		metrics, g := newMetrics(t)

		metrics.RecordDocumentProcessingFailure()
		metrics.RecordDocumentProcessingFailure()

		assert.Equal(t, 2.0, observabilitytest.Value(t, g, "document_processing_failures_total", nil))
	})
}

func TestBusinessMetricsService_Users(t *testing.T) {
	metrics, g := newMetrics(t)

	metrics.RecordUserRegistration()
	metrics.SetActiveSessions(3)
	metrics.IncrementActiveSessions()
	metrics.DecrementActiveSessions()
	metrics.DecrementActiveSessions()

	assert.Equal(t, 1.0, observabilitytest.Value(t, g, "user_registrations_total", nil))
	assert.Equal(t, int64(2), metrics.ActiveSessions())
	assert.Equal(t, 2.0, observabilitytest.Value(t, g, "user_sessions_active", nil))
}

func TestBusinessMetricsService_AdHocMetrics(t *testing.T) {
	t.Run("create counter is idempotent", func(t *testing.T) {
		metrics, g := newMetrics(t)
		channel := observability.Label{Key: "channel", Value: "email"}

		c1, err := metrics.CreateCounter("notification.sent", "Notifications sent", channel)
		require.NoError(t, err)
		c2, err := metrics.CreateCounter("notification.sent", "Notifications sent", channel)
		require.NoError(t, err)

		c1.Inc(1)
		c2.Inc(1)

		found := observabilitytest.Find(t, g, "notification_sent_total", map[string]string{"channel": "email"})
		require.Len(t, found, 1)
		assert.Equal(t, 2.0, observabilitytest.MetricValue(found[0]))
	})

	t.Run("create counter without tags", func(t *testing.T) {
		metrics, g := newMetrics(t)

		c, err := metrics.CreateCounter("award.reminders.total", "Reminders")
		require.NoError(t, err)
		c.Inc(1)

		assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_reminders_total", nil))
	})

	t.Run("create timer is idempotent", func(t *testing.T) {
		metrics, g := newMetrics(t)

		t1, err := metrics.CreateTimer("report.generation", "Report generation")
		require.NoError(t, err)
		t2, err := metrics.CreateTimer("report.generation", "Report generation")
		require.NoError(t, err)

		t1.Record(time.Millisecond)
		t2.Record(time.Millisecond)

		assert.Equal(t, 2.0, observabilitytest.Value(t, g, "report_generation_seconds", nil))
	})

	t.Run("a name used by another kind fails", func(t *testing.T) {
		metrics, _ := newMetrics(t)

		_, err := metrics.CreateTimer(service.MetricAwardSubmissions, "clash")
		assert.ErrorIs(t, err, observability.ErrMetricConflict)
	})
}

func TestBusinessMetricsService_Export(t *testing.T) {
	metrics, g := newMetrics(t,
		implementation.WithCommonLabels(
			observability.Label{Key: "application", Value: "award-monitoring-system"},
			observability.Label{Key: "environment", Value: "test"},
		),
		implementation.WithMeterFilters(observability.DenyURIPrefix("/actuator")),
	)

	metrics.RecordSubmission(service.SubmissionSuccess)
	metrics.RecordApproval(true, "L")
	metrics.IncrementPending()

	for name, mf := range observabilitytest.Families(t, g) {
		for _, m := range mf.GetMetric() {
			assert.True(t, observabilitytest.HasLabels(m, map[string]string{
				"application": "award-monitoring-system",
				"environment": "test",
			}), name)
		}
	}
	assert.Equal(t, 1.0, observabilitytest.Value(t, g, "award_submissions_total", map[string]string{
		"status":      "success",
		"application": "award-monitoring-system",
	}))
}
