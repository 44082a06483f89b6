package control_test

import (
	"testing"

	"github.com/momentics/frameq/control"
)

func TestConfigStore_ListenersRunSynchronously(t *testing.T) {
	cs := control.NewConfigStore()
	var seen any
	cs.OnReload(func() {
		// reading the store from a listener must not deadlock
		seen, _ = cs.Get("k")
	})
	cs.SetConfig(map[string]any{"k": 7})
	if seen != 7 {
		t.Fatalf("listener saw %v, want 7", seen)
	}
	snap := cs.GetSnapshot()
	snap["k"] = 8
	if v, _ := cs.Get("k"); v != 7 {
		t.Error("snapshot aliases store")
	}
}

func TestMetricsRegistry(t *testing.T) {
	mr := control.NewMetricsRegistry()
	if !mr.Updated().IsZero() {
		t.Error("fresh registry reports an update")
	}
	mr.Set("a", 1)
	if mr.GetSnapshot()["a"] != 1 || mr.Updated().IsZero() {
		t.Error("Set not recorded")
	}
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)
	dp.RegisterProbe("self", func() any {
		// probes may touch the registry
		dp.RegisterProbe("late", func() any { return 1 })
		return "ok"
	})
	state := dp.DumpState()
	if state["self"] != "ok" {
		t.Errorf("self probe = %v", state["self"])
	}
	if n, ok := state["platform.cpus"].(int); !ok || n < 1 {
		t.Errorf("platform.cpus = %v", state["platform.cpus"])
	}
	if n, ok := state["platform.page_size"].(int); !ok || n <= 0 {
		t.Errorf("platform.page_size = %v", state["platform.page_size"])
	}
}
