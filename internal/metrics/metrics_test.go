package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	// Should have go runtime metrics at minimum
	if len(mfs) == 0 {
		t.Error("expected some metrics to be registered")
	}
}

func TestRegistry_RecordFetch(t *testing.T) {
	reg := NewRegistry()

	reg.RecordFetch("alphavantage", 200, nil, 0.05)
	reg.RecordFetch("alphavantage", 503, errors.New("status"), 0.05)
	reg.RecordFetch("alphavantage", 0, errors.New("dial"), 0.01)

	if got := testutil.ToFloat64(reg.fetchesTotal.WithLabelValues("alphavantage", "2xx")); got != 1 {
		t.Errorf("expected 1 ok fetch, got %v", got)
	}
	if got := testutil.ToFloat64(reg.fetchesTotal.WithLabelValues("alphavantage", "5xx")); got != 1 {
		t.Errorf("expected 1 5xx fetch, got %v", got)
	}
	if got := testutil.ToFloat64(reg.fetchesTotal.WithLabelValues("alphavantage", "error")); got != 1 {
		t.Errorf("expected 1 transport error, got %v", got)
	}
}

func TestRegistry_RecordWriteAndRun(t *testing.T) {
	reg := NewRegistry()

	reg.RecordWrite(nil)
	reg.RecordWrite(errors.New("denied"))
	reg.RecordThrottlePause("alphavantage")
	reg.RecordRun("financial", 207, 12)

	if got := testutil.ToFloat64(reg.recordsWritten.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed write, got %v", got)
	}
	if got := testutil.ToFloat64(reg.throttlePauses.WithLabelValues("alphavantage")); got != 1 {
		t.Errorf("expected 1 pause, got %v", got)
	}
	if got := testutil.ToFloat64(reg.runsTotal.WithLabelValues("financial", "2xx")); got != 1 {
		t.Errorf("expected 1 run, got %v", got)
	}
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var reg *Registry
	reg.RecordFetch("x", 200, nil, 0)
	reg.RecordWrite(nil)
	reg.RecordThrottlePause("x")
	reg.RecordRun("x", 200, 0)
}

func TestRegistry_WriteTextfile(t *testing.T) {
	reg := NewRegistry()
	reg.RecordRun("funds", 200, 1)

	path := filepath.Join(t.TempDir(), "harvest.prom")
	if err := reg.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "harvest_runs_total") {
		t.Error("expected harvest_runs_total in textfile")
	}
}
