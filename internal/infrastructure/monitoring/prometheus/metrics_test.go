package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPipelineMetrics_Observers(t *testing.T) {
	c := newTestCollector(t)
	m := NewPipelineMetrics(c)

	m.ObserveMappingRequest("xrefsBatch", "ok", 150*time.Millisecond)
	m.ObserveMappingRequest("xrefsBatch", "retry", 20*time.Millisecond)
	m.RecordResolution("chemical", "cache", false)
	m.RecordResolution("gene", "individual", true)

	out := scrape(t, c)
	assert.Contains(t, out, `test_mapping_requests_total{endpoint="xrefsBatch",outcome="ok"} 1`)
	assert.Contains(t, out, `test_mapping_requests_total{endpoint="xrefsBatch",outcome="retry"} 1`)
	assert.Contains(t, out, `test_mapping_request_duration_seconds_count{endpoint="xrefsBatch"} 2`)
	assert.Contains(t, out, `test_resolutions_total{kind="chemical",path="cache",result="success"} 1`)
	assert.Contains(t, out, `test_resolutions_total{kind="gene",path="individual",result="failure"} 1`)
}

func TestPipelineMetrics_RunLifecycle(t *testing.T) {
	c := newTestCollector(t)
	m := NewPipelineMetrics(c)

	m.RunStarted("export.xml")
	assert.Contains(t, scrape(t, c), `test_runs_in_progress{source="export.xml"} 1`)

	m.RunFinished("export.xml", RunSnapshot{
		Status:       "succeeded",
		Duration:     42 * time.Second,
		Counts:       map[string]int{"AOP": 3, "KE": 7},
		GeneMentions: 11,
		SoftFailures: map[string]int{"chemical": 2},
		Triples:      map[string]int{"AOPWikiRDF.nt": 120},
	})
	m.RecordEvent("graph.converted", nil)
	m.RecordEvent("graph.converted", errors.New("broker down"))

	out := scrape(t, c)
	assert.Contains(t, out, `test_runs_in_progress{source="export.xml"} 0`)
	assert.Contains(t, out, `test_runs_total{status="succeeded"} 1`)
	assert.Contains(t, out, `test_entities_emitted{type="KE"} 7`)
	assert.Contains(t, out, `test_soft_failures_total{kind="chemical"} 2`)
	assert.Contains(t, out, "test_gene_mentions 11")
	assert.Contains(t, out, `test_triples_written{file="AOPWikiRDF.nt"} 120`)
	assert.Contains(t, out, `test_events_total{outcome="success",topic="graph.converted"} 1`)
	assert.Contains(t, out, `test_events_total{outcome="failure",topic="graph.converted"} 1`)
}
