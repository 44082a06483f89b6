package affinity

import (
	"runtime"
	"testing"
)

func TestSetAffinity_OutOfRange(t *testing.T) {
	for _, cpu := range []int{-1, runtime.NumCPU()} {
		if err := SetAffinity(cpu); err == nil {
			t.Errorf("SetAffinity(%d) succeeded", cpu)
		}
	}
}

func TestPinCurrentGoroutine_ReleasesOnError(t *testing.T) {
	undo, err := PinCurrentGoroutine(-1)
	if err == nil {
		t.Fatal("expected error for negative cpu")
	}
	undo()
}
