package service

import (
	"sync/atomic"

	"github.com/chnu/award-monitoring-system/pkg/observability"
)

const (
	MetricAwardSubmissions          = "award.submissions.total"
	MetricAwardApprovals            = "award.approvals.total"
	MetricDocumentProcessingFailure = "document.processing.failures.total"
	MetricUserRegistrations         = "user.registrations.total"
	MetricAwardRequestsPending      = "award.requests.pending.total"
	MetricUserSessionsActive        = "user.sessions.active"
	MetricDocumentProcessingTime    = "document.processing.time"
	MetricAwardWorkflowTime         = "award.workflow.time"
)

type SubmissionOutcome string

const (
	SubmissionSuccess SubmissionOutcome = "success"
	SubmissionFailed  SubmissionOutcome = "failed"
)

type OperationKind int

const (
	DocumentProcessing OperationKind = iota
	AwardWorkflow
)

func (k OperationKind) String() string {
	switch k {
	case DocumentProcessing:
		return "document_processing"
	case AwardWorkflow:
		return "award_workflow"
	default:
		return "unknown"
	}
}

// TimedOperation is the handle returned by BeginTimedOperation. It must be
// passed to EndTimedOperation exactly once; ending it twice records twice.
type TimedOperation struct {
	kind   OperationKind
	sample observability.Sample
}

func (op *TimedOperation) Kind() OperationKind { return op.kind }

// BusinessMetrics is what the application records domain events through.
type BusinessMetrics interface {
	RecordSubmission(outcome SubmissionOutcome)
	RecordApproval(approved bool, level string)
	SetPendingRequests(count int64)
	IncrementPending()
	DecrementPending()
	BeginTimedOperation(kind OperationKind) *TimedOperation
	EndTimedOperation(op *TimedOperation)
	MeasureDocumentProcessing(fn func() error) error
	RecordDocumentProcessingFailure()
	RecordUserRegistration()
	SetActiveSessions(count int64)
	IncrementActiveSessions()
	DecrementActiveSessions()
}

// BusinessMetricsService owns the award, document and user metrics. All
// instruments are created in the constructor and live as long as the process.
// Every method is safe for concurrent use and none of them takes a lock of
// its own: counters, timers and the gauge cells are updated atomically.
//
// Caller contract: a TimedOperation is single use, and Decrement* calls must
// be matched by earlier increments. Neither is checked; an unmatched
// decrement drives the gauge negative.
type BusinessMetricsService struct {
	meter observability.Meter

	submissionsSuccess observability.Counter
	submissionsFailed  observability.Counter
	approvals          observability.Counter
	approvalsApproved  observability.Counter
	approvalsRejected  observability.Counter
	documentFailures   observability.Counter
	userRegistrations  observability.Counter

	pendingRequests atomic.Int64
	activeSessions  atomic.Int64

	documentProcessingTimer observability.Timer
	awardWorkflowTimer      observability.Timer
}

func NewBusinessMetricsService(meter observability.Meter) (*BusinessMetricsService, error) {
	s := &BusinessMetricsService{meter: meter}

	submissions, err := meter.Counter(MetricAwardSubmissions, observability.MetricOpt{
		Help:      "Total award submissions",
		LabelKeys: []string{"status"},
	})
	if err != nil {
		return nil, err
	}
	s.submissionsSuccess = submissions.With(observability.Label{Key: "status", Value: string(SubmissionSuccess)})
	s.submissionsFailed = submissions.With(observability.Label{Key: "status", Value: string(SubmissionFailed)})

	// level is optional; the decision-only series carry an empty level.
	s.approvals, err = meter.Counter(MetricAwardApprovals, observability.MetricOpt{
		Help:      "Total award approvals",
		LabelKeys: []string{"decision", "level"},
	})
	if err != nil {
		return nil, err
	}
	s.approvalsApproved = s.approvals.With(decisionLabel(true), levelLabel(""))
	s.approvalsRejected = s.approvals.With(decisionLabel(false), levelLabel(""))

	if s.documentFailures, err = meter.Counter(MetricDocumentProcessingFailure, observability.MetricOpt{
		Help: "Total document processing failures",
	}); err != nil {
		return nil, err
	}

	if s.userRegistrations, err = meter.Counter(MetricUserRegistrations, observability.MetricOpt{
		Help: "Total user registrations",
	}); err != nil {
		return nil, err
	}

	if err := meter.GaugeFunc(MetricAwardRequestsPending, func() float64 {
		return float64(s.pendingRequests.Load())
	}, observability.MetricOpt{Help: "Current pending award requests"}); err != nil {
		return nil, err
	}

	if err := meter.GaugeFunc(MetricUserSessionsActive, func() float64 {
		return float64(s.activeSessions.Load())
	}, observability.MetricOpt{Help: "Current active user sessions"}); err != nil {
		return nil, err
	}

	if s.documentProcessingTimer, err = meter.Timer(MetricDocumentProcessingTime, observability.MetricOpt{
		Help: "Document processing time",
	}); err != nil {
		return nil, err
	}

	if s.awardWorkflowTimer, err = meter.Timer(MetricAwardWorkflowTime, observability.MetricOpt{
		Help: "Award workflow completion time",
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// ---- award submissions ----

func (s *BusinessMetricsService) RecordSubmission(outcome SubmissionOutcome) {
	if outcome == SubmissionSuccess {
		s.submissionsSuccess.Inc(1)
		return
	}
	s.submissionsFailed.Inc(1)
}

// ---- award approvals ----

// RecordApproval counts a decision. With a non-empty level the decision is
// counted in the (decision, level) series instead of the decision-only one;
// the registry returns the same series for every call with that pair.
func (s *BusinessMetricsService) RecordApproval(approved bool, level string) {
	if level != "" {
		s.approvals.Inc(1, decisionLabel(approved), levelLabel(level))
		return
	}
	if approved {
		s.approvalsApproved.Inc(1)
		return
	}
	s.approvalsRejected.Inc(1)
}

func (s *BusinessMetricsService) RecordApprovalWithLevel(level string, approved bool) {
	s.RecordApproval(approved, level)
}

// ---- pending requests ----

func (s *BusinessMetricsService) SetPendingRequests(count int64) {
	s.pendingRequests.Store(count)
}

func (s *BusinessMetricsService) IncrementPending() {
	s.pendingRequests.Add(1)
}

// DecrementPending is not clamped at zero.
func (s *BusinessMetricsService) DecrementPending() {
	s.pendingRequests.Add(-1)
}

func (s *BusinessMetricsService) PendingRequests() int64 {
	return s.pendingRequests.Load()
}

// ---- timed operations ----

func (s *BusinessMetricsService) BeginTimedOperation(kind OperationKind) *TimedOperation {
	return &TimedOperation{kind: kind, sample: observability.StartSample()}
}

// EndTimedOperation feeds the elapsed time into the timer for op's kind.
func (s *BusinessMetricsService) EndTimedOperation(op *TimedOperation) {
	op.sample.Stop(s.timerFor(op.kind))
}

func (s *BusinessMetricsService) timerFor(kind OperationKind) observability.Timer {
	if kind == AwardWorkflow {
		return s.awardWorkflowTimer
	}
	return s.documentProcessingTimer
}

func (s *BusinessMetricsService) StartDocumentProcessing() *TimedOperation {
	return s.BeginTimedOperation(DocumentProcessing)
}

func (s *BusinessMetricsService) StopDocumentProcessing(op *TimedOperation) {
	s.EndTimedOperation(op)
}

func (s *BusinessMetricsService) StartWorkflowTimer() *TimedOperation {
	return s.BeginTimedOperation(AwardWorkflow)
}

func (s *BusinessMetricsService) StopWorkflowTimer(op *TimedOperation) {
	s.EndTimedOperation(op)
}

// ---- document processing ----

// MeasureDocumentProcessing runs fn once and records its duration whether it
// succeeds, fails or panics. fn's error is returned untouched.
func (s *BusinessMetricsService) MeasureDocumentProcessing(fn func() error) error {
	return observability.Time(s.documentProcessingTimer, fn)
}

// MeasureDocument is MeasureDocumentProcessing for operations returning a value.
func MeasureDocument[T any](s *BusinessMetricsService, fn func() (T, error)) (T, error) {
	return observability.TimeValue(s.documentProcessingTimer, fn)
}

func (s *BusinessMetricsService) RecordDocumentProcessingFailure() {
	s.documentFailures.Inc(1)
}

// ---- users ----

func (s *BusinessMetricsService) RecordUserRegistration() {
	s.userRegistrations.Inc(1)
}

func (s *BusinessMetricsService) SetActiveSessions(count int64) {
	s.activeSessions.Store(count)
}

func (s *BusinessMetricsService) IncrementActiveSessions() {
	s.activeSessions.Add(1)
}

// DecrementActiveSessions is not clamped at zero.
func (s *BusinessMetricsService) DecrementActiveSessions() {
	s.activeSessions.Add(-1)
}

func (s *BusinessMetricsService) ActiveSessions() int64 {
	return s.activeSessions.Load()
}

// ---- ad-hoc metrics ----

// CreateCounter registers, or looks up, a counter outside the named set and
// returns it bound to tags.
func (s *BusinessMetricsService) CreateCounter(name, description string, tags ...observability.Label) (observability.Counter, error) {
	c, err := s.meter.Counter(name, observability.MetricOpt{
		Help:      description,
		LabelKeys: observability.LabelKeys(tags),
	})
	if err != nil {
		return nil, err
	}
	return c.With(tags...), nil
}

func (s *BusinessMetricsService) CreateTimer(name, description string) (observability.Timer, error) {
	return s.meter.Timer(name, observability.MetricOpt{Help: description})
}

func decisionLabel(approved bool) observability.Label {
	if approved {
		return observability.Label{Key: "decision", Value: "approved"}
	}
	return observability.Label{Key: "decision", Value: "rejected"}
}

func levelLabel(level string) observability.Label {
	return observability.Label{Key: "level", Value: level}
}
