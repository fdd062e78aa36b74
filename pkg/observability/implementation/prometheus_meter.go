package implementation

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chnu/award-monitoring-system/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type metricKind int

const (
	kindCounter metricKind = iota
	kindGauge
	kindGaugeFunc
	kindTimer
)

type family struct {
	kind        metricKind
	labelKeys   []string
	constLabels prometheus.Labels
	inst        any
}

type prometheusMeter struct {
	registry     *prometheus.Registry
	registerer   prometheus.Registerer
	commonLabels []observability.Label
	filters      []observability.MeterFilter

	mu       sync.Mutex
	families map[string]*family
}

type Option func(*prometheusMeter)

// WithCommonLabels tags every series registered through the meter, including
// collectors registered through Registerer.
func WithCommonLabels(labels ...observability.Label) Option {
	return func(m *prometheusMeter) {
		m.commonLabels = append(m.commonLabels, labels...)
	}
}

// WithMeterFilters drops denied series at registration, at record time and
// on export.
func WithMeterFilters(filters ...observability.MeterFilter) Option {
	return func(m *prometheusMeter) {
		m.filters = append(m.filters, filters...)
	}
}

func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *prometheusMeter) {
		m.registry = reg
	}
}

func NewPrometheusMeter(opts ...Option) observability.Meter {
	m := &prometheusMeter{families: make(map[string]*family)}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.registerer = m.registry
	if len(m.commonLabels) > 0 {
		m.registerer = prometheus.WrapRegistererWith(toPromLabelsMap(m.commonLabels), m.registry)
	}
	return m
}

func (m *prometheusMeter) Registry() *prometheus.Registry {
	return m.registry
}

// Registerer applies the common labels to whatever is registered through it.
func (m *prometheusMeter) Registerer() prometheus.Registerer {
	return m.registerer
}

// Gatherer is the export view: common labels applied, denied series removed.
func (m *prometheusMeter) Gatherer() prometheus.Gatherer {
	return FilteredGatherer(m.registry, m.filters...)
}

func PromRegistry(m observability.Meter) *prometheus.Registry {
	if pm, ok := m.(*prometheusMeter); ok {
		return pm.Registry()
	}
	return nil
}

func PromRegisterer(m observability.Meter) prometheus.Registerer {
	if pm, ok := m.(*prometheusMeter); ok {
		return pm.Registerer()
	}
	return nil
}

func PromGatherer(m observability.Meter) prometheus.Gatherer {
	if pm, ok := m.(*prometheusMeter); ok {
		return pm.Gatherer()
	}
	return nil
}

// lookupOrRegister returns the family registered under name, creating it on
// first use. A later registration may ask for a subset of the label keys of
// the existing family; missing keys are recorded as empty values. Const
// labels are part of the identity and must match exactly.
func (m *prometheusMeter) lookupOrRegister(
	name string,
	kind metricKind,
	labelKeys []string,
	constLabels []observability.Label,
	build func() (prometheus.Collector, any),
) (*family, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	consts := toPromConstLabels(constLabels)
	if f, ok := m.families[name]; ok {
		if f.kind != kind || !containsAll(f.labelKeys, labelKeys) || !maps.Equal(f.constLabels, consts) {
			return nil, fmt.Errorf("%s: %w", name, observability.ErrMetricConflict)
		}
		return f, nil
	}

	collector, inst := build()
	if err := m.registerer.Register(collector); err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}

	f := &family{kind: kind, labelKeys: labelKeys, constLabels: consts, inst: inst}
	m.families[name] = f
	return f, nil
}

func (m *prometheusMeter) denied(name string, constLabels, labels []observability.Label) bool {
	if len(m.filters) == 0 {
		return false
	}
	id := observability.MeterID{
		Name:   name,
		Labels: slices.Concat(m.commonLabels, constLabels, labels),
	}
	return observability.Denied(id, m.filters)
}

// -------------------- Series --------------------

// series carries what every instrument needs to resolve a child of its vec.
type series struct {
	meter       *prometheusMeter
	name        string
	labelKeys   []string
	constLabels []observability.Label
	bound       []observability.Label
}

func (s series) merge(labels []observability.Label) []observability.Label {
	return slices.Concat(s.bound, labels)
}

func (s series) denied(labels []observability.Label) bool {
	return s.meter.denied(s.name, s.constLabels, labels)
}

// complete reports whether labels give a value for every label key.
func (s series) complete(labels []observability.Label) bool {
	for _, k := range s.labelKeys {
		found := false
		for _, l := range labels {
			if l.Key == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s series) values(labels []observability.Label) []string {
	return labelValues(s.labelKeys, labels)
}

// -------------------- Counter --------------------

type promCounter struct {
	series
	vec   *prometheus.CounterVec
	child prometheus.Counter
}

func (m *prometheusMeter) Counter(name string, opts ...observability.MetricOpt) (observability.Counter, error) {
	opt := firstOpt(opts)
	if m.denied(name, opt.ConstLabels, nil) {
		return noopCounter{}, nil
	}

	f, err := m.lookupOrRegister(name, kindCounter, opt.LabelKeys, opt.ConstLabels, func() (prometheus.Collector, any) {
		vec := prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        expositionName(name, kindCounter),
				Help:        helpOrName(opt.Help, name),
				ConstLabels: toPromConstLabels(opt.ConstLabels),
			},
			opt.LabelKeys,
		)
		return vec, vec
	})
	if err != nil {
		return nil, err
	}

	c := &promCounter{
		series: series{meter: m, name: name, labelKeys: f.labelKeys, constLabels: opt.ConstLabels},
		vec:    f.inst.(*prometheus.CounterVec),
	}
	return c.bind(nil), nil
}

func (c *promCounter) bind(labels []observability.Label) observability.Counter {
	bound := &promCounter{series: c.series, vec: c.vec}
	bound.bound = c.merge(labels)
	if bound.complete(bound.bound) {
		if bound.denied(bound.bound) {
			return noopCounter{}
		}
		if child, err := c.vec.GetMetricWithLabelValues(bound.values(bound.bound)...); err == nil {
			bound.child = child
		}
	}
	return bound
}

func (c *promCounter) With(labels ...observability.Label) observability.Counter {
	return c.bind(labels)
}

func (c *promCounter) Inc(v float64, labels ...observability.Label) {
	if v < 0 {
		return
	}
	if len(labels) == 0 && c.child != nil {
		c.child.Add(v)
		return
	}

	merged := c.merge(labels)
	if c.denied(merged) {
		return
	}
	if child, err := c.vec.GetMetricWithLabelValues(c.values(merged)...); err == nil {
		child.Add(v)
	}
}

// -------------------- Gauge --------------------

type promGauge struct {
	series
	vec *prometheus.GaugeVec
}

func (m *prometheusMeter) Gauge(name string, opts ...observability.MetricOpt) (observability.Gauge, error) {
	opt := firstOpt(opts)
	if m.denied(name, opt.ConstLabels, nil) {
		return noopGauge{}, nil
	}

	f, err := m.lookupOrRegister(name, kindGauge, opt.LabelKeys, opt.ConstLabels, func() (prometheus.Collector, any) {
		vec := prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        expositionName(name, kindGauge),
				Help:        helpOrName(opt.Help, name),
				ConstLabels: toPromConstLabels(opt.ConstLabels),
			},
			opt.LabelKeys,
		)
		return vec, vec
	})
	if err != nil {
		return nil, err
	}

	return &promGauge{
		series: series{meter: m, name: name, labelKeys: f.labelKeys, constLabels: opt.ConstLabels},
		vec:    f.inst.(*prometheus.GaugeVec),
	}, nil
}

func (g *promGauge) Set(v float64, labels ...observability.Label) {
	if g.denied(labels) {
		return
	}
	if child, err := g.vec.GetMetricWithLabelValues(g.values(labels)...); err == nil {
		child.Set(v)
	}
}

func (g *promGauge) Add(v float64, labels ...observability.Label) {
	if g.denied(labels) {
		return
	}
	if child, err := g.vec.GetMetricWithLabelValues(g.values(labels)...); err == nil {
		child.Add(v)
	}
}

// GaugeFunc registers a gauge whose value is read from fn on every export.
// When name is already registered the first fn stays in place.
func (m *prometheusMeter) GaugeFunc(name string, fn func() float64, opts ...observability.MetricOpt) error {
	opt := firstOpt(opts)
	if m.denied(name, opt.ConstLabels, nil) {
		return nil
	}

	_, err := m.lookupOrRegister(name, kindGaugeFunc, nil, opt.ConstLabels, func() (prometheus.Collector, any) {
		gf := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        expositionName(name, kindGaugeFunc),
				Help:        helpOrName(opt.Help, name),
				ConstLabels: toPromConstLabels(opt.ConstLabels),
			},
			fn,
		)
		return gf, gf
	})
	return err
}

// -------------------- Timer --------------------

type promTimer struct {
	series
	histogram *prometheus.HistogramVec
	child     prometheus.Observer
}

func (m *prometheusMeter) Timer(name string, opts ...observability.MetricOpt) (observability.Timer, error) {
	opt := firstOpt(opts)
	if m.denied(name, opt.ConstLabels, nil) {
		return noopTimer{}, nil
	}

	f, err := m.lookupOrRegister(name, kindTimer, opt.LabelKeys, opt.ConstLabels, func() (prometheus.Collector, any) {
		vec := prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        expositionName(name, kindTimer),
				Help:        helpOrName(opt.Help, name),
				Buckets:     opt.Buckets,
				ConstLabels: toPromConstLabels(opt.ConstLabels),
			},
			opt.LabelKeys,
		)
		return vec, vec
	})
	if err != nil {
		return nil, err
	}

	t := &promTimer{
		series:    series{meter: m, name: name, labelKeys: f.labelKeys, constLabels: opt.ConstLabels},
		histogram: f.inst.(*prometheus.HistogramVec),
	}
	return t.bind(nil), nil
}

func (t *promTimer) bind(labels []observability.Label) observability.Timer {
	bound := &promTimer{series: t.series, histogram: t.histogram}
	bound.bound = t.merge(labels)
	if bound.complete(bound.bound) {
		if bound.denied(bound.bound) {
			return noopTimer{}
		}
		if child, err := t.histogram.GetMetricWithLabelValues(bound.values(bound.bound)...); err == nil {
			bound.child = child
		}
	}
	return bound
}

func (t *promTimer) With(labels ...observability.Label) observability.Timer {
	return t.bind(labels)
}

func (t *promTimer) Record(d time.Duration, labels ...observability.Label) {
	if len(labels) == 0 && t.child != nil {
		t.child.Observe(d.Seconds())
		return
	}

	merged := t.merge(labels)
	if t.denied(merged) {
		return
	}
	if child, err := t.histogram.GetMetricWithLabelValues(t.values(merged)...); err == nil {
		child.Observe(d.Seconds())
	}
}

func (t *promTimer) Start(labels ...observability.Label) func() {
	start := time.Now()
	return func() {
		t.Record(time.Since(start), labels...)
	}
}

// -------------------- Noop --------------------

type noopCounter struct{}

func (noopCounter) Inc(float64, ...observability.Label) {}

func (n noopCounter) With(...observability.Label) observability.Counter { return n }

type noopGauge struct{}

func (noopGauge) Set(float64, ...observability.Label) {}

func (noopGauge) Add(float64, ...observability.Label) {}

type noopTimer struct{}

func (noopTimer) Record(time.Duration, ...observability.Label) {}

func (noopTimer) Start(...observability.Label) func() { return func() {} }

func (n noopTimer) With(...observability.Label) observability.Timer { return n }

// -------------------- Helpers --------------------

func firstOpt(opts []observability.MetricOpt) observability.MetricOpt {
	if len(opts) == 0 {
		return observability.MetricOpt{}
	}
	return opts[0]
}

func helpOrName(help, name string) string {
	if help == "" {
		return name
	}
	return help
}

func containsAll(keys, subset []string) bool {
	for _, k := range subset {
		if !slices.Contains(keys, k) {
			return false
		}
	}
	return true
}

// labelValues orders values by keys. The last label for a key wins, unknown
// keys are ignored and missing keys become "". Invalid UTF-8 is replaced so
// the vec never rejects the values.
func labelValues(keys []string, labels []observability.Label) []string {
	values := make([]string, len(keys))
	for i, k := range keys {
		for _, l := range labels {
			if l.Key == k {
				values[i] = strings.ToValidUTF8(l.Value, "\uFFFD")
			}
		}
	}
	return values
}

func toPromLabelsMap(labels []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		m[l.Key] = l.Value
	}
	return m
}

func toPromConstLabels(labels []observability.Label) prometheus.Labels {
	if len(labels) == 0 {
		return nil
	}
	return toPromLabelsMap(labels)
}
