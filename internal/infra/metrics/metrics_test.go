package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	if err := (<-ch).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestMustRegister_Idempotent(t *testing.T) {
	MustRegister()
	MustRegister()
}

func TestJobCounters(t *testing.T) {
	before := counterValue(t, jobsSubmittedTotal)
	IncJobSubmitted()
	if got := counterValue(t, jobsSubmittedTotal); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	IncJobFinished(" Completed ")
	if got := counterValue(t, jobsFinishedTotal.WithLabelValues("completed")); got < 1 {
		t.Fatalf("expected normalized label to be counted, got %v", got)
	}
}

func TestPipelineHelpers(t *testing.T) {
	ObserveStage("mixing", 10*time.Millisecond, true)
	IncPipelineError("separation", "filesystem")
	IncQueueOverflow()
	IncHTTPRequest("GET", 200)
	SetBuildInfo("dev", "none")

	if got := counterValue(t, pipelineErrorsTotal.WithLabelValues("separation", "filesystem")); got < 1 {
		t.Fatalf("expected pipeline error to be counted, got %v", got)
	}
}

func TestAddUploadsSwept(t *testing.T) {
	before := counterValue(t, uploadsSweptTotal)
	AddUploadsSwept(0)
	AddUploadsSwept(3)
	if got := counterValue(t, uploadsSweptTotal); got != before+3 {
		t.Fatalf("expected %v, got %v", before+3, got)
	}
}

func TestNormLabels(t *testing.T) {
	cases := map[string]string{" Mixing ": "mixing", "": "unknown", "  ": "unknown"}
	for in, want := range cases {
		if got := norm(in); got != want {
			t.Errorf("norm(%q) = %q, want %q", in, got, want)
		}
	}
}
