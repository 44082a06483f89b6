package pipeline_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momentics/frameq/api"
)

// TestManager_RandomOperationsKeepInvariants drives completions, acquires and
// releases in a seeded random order and checks the slot partition and the
// ready bound after every step.
func TestManager_RandomOperationsKeepInvariants(t *testing.T) {
	const n, hwm = 6, 2
	m, prod := startManager(t, n, hwm)
	r := rand.New(rand.NewPCG(7, 11))
	var held []int

	for step := 0; step < 2000; step++ {
		switch r.IntN(3) {
		case 0:
			if out := prod.Outstanding(); len(out) > 0 {
				prod.Complete(out[r.IntN(len(out))], api.StatusSuccess)
			}
		case 1:
			if f, err := m.TryAcquire(); err == nil {
				for _, h := range held {
					if h == f.Index {
						t.Fatalf("step %d: slot %d acquired twice", step, f.Index)
					}
				}
				held = append(held, f.Index)
			}
		case 2:
			if len(held) > 0 {
				i := r.IntN(len(held))
				if err := m.Release(held[i]); err != nil {
					t.Fatalf("step %d: release %d: %v", step, held[i], err)
				}
				held = append(held[:i], held[i+1:]...)
			}
		}
		st := checkPartition(t, m)
		if st.Ready > hwm+1 {
			t.Fatalf("step %d: %d ready exceeds bound", step, st.Ready)
		}
		if st.InUse != len(held) || st.Idle != 0 {
			t.Fatalf("step %d: in use %d held %d idle %d", step, st.InUse, len(held), st.Idle)
		}
		if len(prod.Outstanding()) != st.Pending {
			t.Fatalf("step %d: producer holds %v, pending %d", step, prod.Outstanding(), st.Pending)
		}
	}
}

// TestManager_ConcurrentProducerAndConsumer completes buffers from producer
// goroutines while a consumer cycles frames and a monitor samples stats.
func TestManager_ConcurrentProducerAndConsumer(t *testing.T) {
	const n, hwm, frames = 6, 2, 300
	var wg sync.WaitGroup
	var counter atomic.Uint64
	prod := api.ProducerFunc(func(index int, buf []byte, done api.CompletionFunc) error {
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(time.Duration(rand.IntN(200)) * time.Microsecond)
			c := counter.Add(1)
			buf[0] = byte(c)
			done(index, api.StatusSuccess, api.FrameInfo{Count: c})
		}()
		return nil
	})
	m := openManager(t, testConfig(n, hwm), prod)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	stopMonitor := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		for {
			select {
			case <-stopMonitor:
				return
			default:
			}
			st := m.Stats()
			if st.Idle+st.Pending+st.Ready+st.InUse != n || st.Ready > hwm+1 {
				t.Errorf("inconsistent snapshot: %+v", st)
				return
			}
			time.Sleep(100 * time.Microsecond)
		}
	}()

	var lastSeq uint64
	for i := 0; i < frames; i++ {
		f, err := m.AcquireTimeout(2 * time.Second)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if f.Seq <= lastSeq {
			t.Fatalf("seq went backwards: %d after %d", f.Seq, lastSeq)
		}
		lastSeq = f.Seq
		if err := m.Release(f.Index); err != nil {
			t.Fatalf("release: %v", err)
		}
	}
	close(stopMonitor)
	<-monitorDone

	stopManager(t, m)
	wg.Wait()
	st := checkPartition(t, m)
	if st.Pending != 0 || st.InUse != 0 || st.Acquired != frames || st.Released != frames {
		t.Errorf("final stats: %+v", st)
	}
	if st.Delivered != st.Completions-st.Retired {
		t.Errorf("delivered %d completions %d retired %d", st.Delivered, st.Completions, st.Retired)
	}
}

func TestManager_AcquireTimeouts(t *testing.T) {
	m, prod := startManager(t, 2, 1)
	if _, err := m.AcquireTimeout(20 * time.Millisecond); !errors.Is(err, api.ErrOperationTimeout) ||
		!errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("AcquireTimeout: %v", err)
	}
	if _, err := m.AcquireTimeout(0); !errors.Is(err, api.ErrOperationTimeout) {
		t.Fatalf("AcquireTimeout(0): %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := m.AcquireNext(ctx)
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) || errors.Is(err, api.ErrOperationTimeout) {
			t.Fatalf("cancelled acquire: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not wake consumer")
	}

	prod.Complete(1, api.StatusSuccess)
	f, err := m.AcquireTimeout(time.Second)
	if err != nil || f.Index != 1 {
		t.Fatalf("acquire: %v %d", err, f.Index)
	}
}
