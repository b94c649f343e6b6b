package prometheus

import (
	"time"
)

var (
	DefaultRequestDurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultRunDurationBuckets     = []float64{5, 15, 30, 60, 120, 300, 600, 1200, 3600}
)

// PipelineMetrics are the conversion pipeline's instruments. It satisfies
// the bridgedb client's observer and the resolver's recorder.
type PipelineMetrics struct {
	MappingRequestsTotal   CounterVec
	MappingRequestDuration HistogramVec
	ResolutionsTotal       CounterVec
	RunsTotal              CounterVec
	RunDuration            HistogramVec
	RunInProgress          GaugeVec
	EntitiesEmitted        GaugeVec
	SoftFailuresTotal      CounterVec
	GeneMentions           GaugeVec
	TriplesWritten         GaugeVec
	EventsTotal            CounterVec
}

func NewPipelineMetrics(collector MetricsCollector) *PipelineMetrics {
	return &PipelineMetrics{
		MappingRequestsTotal:   collector.RegisterCounter("mapping_requests_total", "Identifier mapping HTTP attempts", "endpoint", "outcome"),
		MappingRequestDuration: collector.RegisterHistogram("mapping_request_duration_seconds", "Identifier mapping HTTP attempt latency", DefaultRequestDurationBuckets, "endpoint"),
		ResolutionsTotal:       collector.RegisterCounter("resolutions_total", "Identifier resolutions by kind and path", "kind", "path", "result"),
		RunsTotal:              collector.RegisterCounter("runs_total", "Conversion runs by status", "status"),
		RunDuration:            collector.RegisterHistogram("run_duration_seconds", "Conversion run wall time", DefaultRunDurationBuckets, "status"),
		RunInProgress:          collector.RegisterGauge("runs_in_progress", "Conversion runs currently executing", "source"),
		EntitiesEmitted:        collector.RegisterGauge("entities_emitted", "Entities emitted by the last run", "type"),
		SoftFailuresTotal:      collector.RegisterCounter("soft_failures_total", "Soft failures recorded across runs", "kind"),
		GeneMentions:           collector.RegisterGauge("gene_mentions", "Gene mentions found by the last run"),
		TriplesWritten:         collector.RegisterGauge("triples_written", "Triples written by the last run", "file"),
		EventsTotal:            collector.RegisterCounter("events_total", "Pipeline events by topic and outcome", "topic", "outcome"),
	}
}

// ObserveMappingRequest records one HTTP attempt against the mapping service.
func (m *PipelineMetrics) ObserveMappingRequest(endpoint, outcome string, d time.Duration) {
	m.MappingRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.MappingRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordResolution records how one key was resolved; cache hits arrive with
// path "cache".
func (m *PipelineMetrics) RecordResolution(kind, path string, failed bool) {
	m.ResolutionsTotal.WithLabelValues(kind, path, outcome(!failed)).Inc()
}

// RunSnapshot carries the figures of a finished run.
type RunSnapshot struct {
	Status       string
	Duration     time.Duration
	Counts       map[string]int
	GeneMentions int
	SoftFailures map[string]int
	Triples      map[string]int
}

func (m *PipelineMetrics) RunStarted(source string) { m.RunInProgress.WithLabelValues(source).Inc() }

func (m *PipelineMetrics) RunFinished(source string, s RunSnapshot) {
	m.RunInProgress.WithLabelValues(source).Dec()
	m.RunsTotal.WithLabelValues(s.Status).Inc()
	m.RunDuration.WithLabelValues(s.Status).Observe(s.Duration.Seconds())
	for typ, n := range s.Counts {
		m.EntitiesEmitted.WithLabelValues(typ).Set(float64(n))
	}
	for kind, n := range s.SoftFailures {
		m.SoftFailuresTotal.WithLabelValues(kind).Add(float64(n))
	}
	m.GeneMentions.WithLabelValues().Set(float64(s.GeneMentions))
	for file, n := range s.Triples {
		m.TriplesWritten.WithLabelValues(file).Set(float64(n))
	}
}

func (m *PipelineMetrics) RecordEvent(topic string, err error) {
	m.EventsTotal.WithLabelValues(topic, outcome(err == nil)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
