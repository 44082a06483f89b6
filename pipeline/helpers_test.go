package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/fake"
	"github.com/momentics/frameq/pipeline"
	"github.com/momentics/frameq/pool"
)

const testBufferSize = 64

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(n, hwm int) pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.BufferCount = n
	cfg.BufferSize = testBufferSize
	cfg.HighWaterMark = hwm
	cfg.Logger = quietLogger()
	return cfg
}

// openManager builds a heap-backed manager and closes it when the test ends.
func openManager(t *testing.T, cfg pipeline.Config, prod api.Producer) *pipeline.Manager {
	t.Helper()
	m, err := pipeline.Open(cfg, prod, pool.WithHeapMemory())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Close(ctx)
	})
	return m
}

func startManager(t *testing.T, n, hwm int) (*pipeline.Manager, *fake.Producer) {
	t.Helper()
	prod := fake.NewProducer()
	m := openManager(t, testConfig(n, hwm), prod)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return m, prod
}

// checkPartition verifies every slot is in exactly one state and the
// outstanding counter matches the Pending set.
func checkPartition(t *testing.T, m *pipeline.Manager) pipeline.Stats {
	t.Helper()
	st := m.Stats()
	n := m.Pool().Len()
	if sum := st.Idle + st.Pending + st.Ready + st.InUse; sum != n {
		t.Fatalf("partition broken: idle=%d pending=%d ready=%d inuse=%d, want sum %d",
			st.Idle, st.Pending, st.Ready, st.InUse, n)
	}
	if st.Outstanding != st.Pending {
		t.Fatalf("outstanding=%d, pending=%d", st.Outstanding, st.Pending)
	}
	if len(st.ReadyOrder) != st.Ready {
		t.Fatalf("ready order %v does not match ready count %d", st.ReadyOrder, st.Ready)
	}
	return st
}

func stopManager(t *testing.T, m *pipeline.Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
