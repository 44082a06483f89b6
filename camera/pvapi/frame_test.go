//go:build (linux || darwin) && (amd64 || arm64)

package pvapi

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"runtime"
	"testing"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/internal/handles"
)

func TestLayout(t *testing.T) {
	var f pvFrame
	checks := []struct {
		name      string
		got, want uintptr
	}{
		{"sizeof tPvFrame", unsafe.Sizeof(f), 488},
		{"Context", unsafe.Offsetof(f.Context), 32},
		{"Status", unsafe.Offsetof(f.Status), 128},
		{"ImageSize", unsafe.Offsetof(f.ImageSize), 136},
		{"Format", unsafe.Offsetof(f.Format), 184},
		{"FrameCount", unsafe.Offsetof(f.FrameCount), 208},
		{"sizeof tPvCameraInfo", unsafe.Sizeof(cameraInfo{}), 128},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestCameraInfoExport(t *testing.T) {
	var ci cameraInfo
	ci.UniqueID = 123
	copy(ci.SerialString[:], "02-2110A-06160")
	copy(ci.DisplayName[:], "GC655")
	ci.InterfaceType = 2
	ci.PermittedAccess = uint64(AccessMaster | AccessMonitor)
	got := ci.export()
	if got.UniqueID != 123 || got.Serial != "02-2110A-06160" || got.Name != "GC655" || got.Interface != "ethernet" {
		t.Errorf("export: %+v", got)
	}
}

// TestFrameCallbackRouting feeds a completed descriptor through the driver
// callback entry point without a driver.
func TestFrameCallbackRouting(t *testing.T) {
	frames, err := newDescriptors(3)
	if err != nil {
		t.Fatal(err)
	}
	defer frames.free()

	c := &Camera{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		frames:   frames,
		inflight: make([]inflight, 2),
	}
	c.id = handles.Register(c)
	defer handles.Unregister(c.id)

	type completion struct {
		index  int
		status api.Status
		info   api.FrameInfo
	}
	var got []completion
	buf := make([]byte, 64)
	pin := new(runtime.Pinner)
	pin.Pin(&buf[0])
	c.inflight[1] = inflight{
		done: func(i int, s api.Status, info api.FrameInfo) { got = append(got, completion{i, s, info}) },
		pin:  pin,
	}

	f := frames.at(1)
	f.ImageBuffer = uintptr(unsafe.Pointer(&buf[0]))
	f.Context[ctxCamera] = c.id
	f.Context[ctxIndex] = 1
	f.Status = int32(ErrDataLost)
	f.Width, f.Height, f.ImageSize = 8, 8, 64
	f.Format = fmtMono8
	f.FrameCount = 17
	f.TimestampHi, f.TimestampLo = 1, 2

	onFrameDone(purego.CDecl{}, unsafe.Pointer(f))
	onFrameDone(purego.CDecl{}, unsafe.Pointer(f)) // duplicate is ignored

	if len(got) != 1 {
		t.Fatalf("completions: %+v", got)
	}
	want := api.FrameInfo{Width: 8, Height: 8, Format: api.PixelMono8, ImageSize: 64, Count: 17, Timestamp: 1<<32 | 2}
	if got[0].index != 1 || got[0].status != api.StatusDataLost || got[0].info != want {
		t.Errorf("completion: %+v", got[0])
	}
	if c.inflight[1].done != nil {
		t.Error("slot still marked in flight")
	}

	// descriptors with an unknown camera handle are dropped
	f.Context[ctxCamera] = 0
	onFrameDone(purego.CDecl{}, unsafe.Pointer(f))
}

func TestInitWithoutLibrary(t *testing.T) {
	if os.Getenv("FRAMEQ_PVAPI_LIB") != "" {
		t.Skip("library path configured")
	}
	err := Init()
	if err == nil {
		t.Skip("PvAPI installed on this host")
	}
	if !errors.Is(err, api.ErrNotSupported) || !errors.Is(err, ErrLibraryNotFound) {
		t.Errorf("Init: %v", err)
	}
	if _, err := Open(0, Options{}); !errors.Is(err, api.ErrNotSupported) {
		t.Errorf("Open: %v", err)
	}
}
