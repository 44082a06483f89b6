package pipeline_test

import (
	"testing"

	"github.com/momentics/frameq/adapters"
	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/pipeline"
)

func TestManager_AttachReloadsHighWaterMark(t *testing.T) {
	m, prod := startManager(t, 4, 2)
	ctrl := adapters.NewControlAdapter()
	m.Attach(ctrl)

	if err := ctrl.SetConfig(map[string]any{pipeline.ConfigHighWaterMark: "1"}); err != nil {
		t.Fatal(err)
	}
	if h := m.HighWaterMark(); h != 1 {
		t.Fatalf("hwm after reload = %d, want 1", h)
	}
	for _, bad := range []any{-3, []int{1}, "x"} {
		_ = ctrl.SetConfig(map[string]any{pipeline.ConfigHighWaterMark: bad})
		if h := m.HighWaterMark(); h != 1 {
			t.Fatalf("reload of %v changed hwm to %d", bad, h)
		}
	}
	_ = ctrl.SetConfig(map[string]any{pipeline.ConfigHighWaterMark: 3.0})
	if h := m.HighWaterMark(); h != 3 {
		t.Fatalf("float reload: hwm = %d", h)
	}

	prod.Complete(0, api.StatusSuccess)
	stats := ctrl.Stats()
	st, ok := stats["debug.pipeline"].(pipeline.Stats)
	if !ok {
		t.Fatalf("probe missing: %v", stats["debug.pipeline"])
	}
	if st.Ready != 1 || st.HighWaterMark != 3 {
		t.Errorf("probe snapshot: %+v", st)
	}

	m.PublishMetrics(ctrl)
	stats = ctrl.Stats()
	if stats["pipeline.hwm"] != 3 || stats["pipeline.delivered"] != uint64(1) || stats["pipeline.running"] != true {
		t.Errorf("metrics: hwm=%v delivered=%v running=%v",
			stats["pipeline.hwm"], stats["pipeline.delivered"], stats["pipeline.running"])
	}
}
