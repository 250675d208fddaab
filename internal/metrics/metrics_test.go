package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEditCountsOutcomes(t *testing.T) {
	r := New("")
	r.ObserveEdit("trim", nil, 2*time.Second)
	r.ObserveEdit("trim", errors.New("boom"), time.Second)
	r.ObserveEdit("subtitle", nil, time.Second)

	if got := testutil.ToFloat64(r.EditsTotal.WithLabelValues("trim", StatusSuccess)); got != 1 {
		t.Fatalf("trim success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.EditsTotal.WithLabelValues("trim", StatusFailure)); got != 1 {
		t.Fatalf("trim failure = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.EditDuration); got != 2 {
		t.Fatalf("edit duration series = %d, want 2", got)
	}
}

func TestStartRenderTracksInFlight(t *testing.T) {
	r := New("")
	done := r.StartRender()
	if got := testutil.ToFloat64(r.RendersInFlight); got != 1 {
		t.Fatalf("in flight = %v, want 1", got)
	}
	done(nil, 3)
	if got := testutil.ToFloat64(r.RendersInFlight); got != 0 {
		t.Fatalf("in flight after done = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.RendersTotal.WithLabelValues(StatusSuccess)); got != 1 {
		t.Fatalf("renders success = %v, want 1", got)
	}

	r.StartRender()(errors.New("engine"), 0)
	if got := testutil.ToFloat64(r.RendersTotal.WithLabelValues(StatusFailure)); got != 1 {
		t.Fatalf("renders failure = %v, want 1", got)
	}
}

func TestSetVideoCountsReplacesSeries(t *testing.T) {
	r := New("")
	r.SetVideoCounts(map[string]int{"uploaded": 2, "processing": 1})
	r.SetVideoCounts(map[string]int{"ready": 4})

	if got := testutil.CollectAndCount(r.Videos); got != 1 {
		t.Fatalf("video series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(r.Videos.WithLabelValues("ready")); got != 4 {
		t.Fatalf("ready = %v, want 4", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.ObserveEdit("trim", nil, time.Second)
	r.ObserveEngine("trim", nil)
	r.AddSwept(3)
	r.SetVideoCounts(map[string]int{"ready": 1})
	r.StartRender()(nil, 1)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush on nil recorder: %v", err)
	}
}

func TestFlushWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cutroom.prom")
	r := New(path)
	r.ObserveEngine("burn_subtitle", nil)
	r.AddSwept(2)

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`cutroom_engine_invocations_total{operation="burn_subtitle",status="success"} 1`,
		"cutroom_temp_swept_total 2",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("textfile missing %q:\n%s", want, text)
		}
	}
}
