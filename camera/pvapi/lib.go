//go:build (linux || darwin) && (amd64 || arm64)

// File: camera/pvapi/lib.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pvapi

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	libOnce sync.Once
	libErr  error
	lib     uintptr

	// frameDoneCallback is the C entry point passed to PvCaptureQueueFrame.
	frameDoneCallback uintptr
)

var (
	pvInitialize              func() int32
	pvUnInitialize            func()
	pvCameraCount             func() uint64
	pvCameraList              func(list unsafe.Pointer, length uint64, connected *uint64) uint64
	pvCameraOpen              func(uid uint64, access uint32, handle *uintptr) int32
	pvCameraClose             func(handle uintptr) int32
	pvCaptureStart            func(handle uintptr) int32
	pvCaptureEnd              func(handle uintptr) int32
	pvCaptureQuery            func(handle uintptr, started *uint64) int32
	pvCaptureQueueFrame       func(handle, frame, callback uintptr) int32
	pvCaptureQueueClear       func(handle uintptr) int32
	pvCaptureWaitForFrameDone func(handle, frame uintptr, timeoutMs uint64) int32
	pvCommandRun              func(handle uintptr, command string) int32
	pvAttrEnumGet             func(handle uintptr, name string, buf *byte, size uint64, filled *uint64) int32
	pvAttrEnumSet             func(handle uintptr, name, value string) int32
	pvAttrUint32Get           func(handle uintptr, name string, value *uint32) int32
	pvAttrUint32Set           func(handle uintptr, name string, value uint32) int32
	pvAttrFloat32Get          func(handle uintptr, name string, value *float32) int32
	pvAttrFloat32Set          func(handle uintptr, name string, value float32) int32
)

// Init loads libPvAPI and initializes the driver. It is safe to call more
// than once; the first result is cached.
func Init() error {
	libOnce.Do(func() {
		libErr = load()
		if libErr != nil {
			libErr = notSupported(libErr)
		}
	})
	return libErr
}

// Shutdown releases the driver. Cameras must be closed first.
func Shutdown() {
	if Init() == nil {
		pvUnInitialize()
	}
}

func load() error {
	var err error
	lib, err = openLibrary()
	if err != nil {
		return err
	}
	register := func(fptr any, name string) {
		purego.RegisterLibFunc(fptr, lib, name)
	}
	register(&pvInitialize, "PvInitialize")
	register(&pvUnInitialize, "PvUnInitialize")
	register(&pvCameraCount, "PvCameraCount")
	register(&pvCameraList, "PvCameraList")
	register(&pvCameraOpen, "PvCameraOpen")
	register(&pvCameraClose, "PvCameraClose")
	register(&pvCaptureStart, "PvCaptureStart")
	register(&pvCaptureEnd, "PvCaptureEnd")
	register(&pvCaptureQuery, "PvCaptureQuery")
	register(&pvCaptureQueueFrame, "PvCaptureQueueFrame")
	register(&pvCaptureQueueClear, "PvCaptureQueueClear")
	register(&pvCaptureWaitForFrameDone, "PvCaptureWaitForFrameDone")
	register(&pvCommandRun, "PvCommandRun")
	register(&pvAttrEnumGet, "PvAttrEnumGet")
	register(&pvAttrEnumSet, "PvAttrEnumSet")
	register(&pvAttrUint32Get, "PvAttrUint32Get")
	register(&pvAttrUint32Set, "PvAttrUint32Set")
	register(&pvAttrFloat32Get, "PvAttrFloat32Get")
	register(&pvAttrFloat32Set, "PvAttrFloat32Set")

	frameDoneCallback = purego.NewCallback(onFrameDone)

	return check("PvInitialize", pvInitialize())
}

func libraryName() string {
	if runtime.GOOS == "darwin" {
		return "libPvAPI.dylib"
	}
	return "libPvAPI.so"
}

// librarySearchPaths lists directories probed for the library.
func librarySearchPaths() []string {
	var paths []string
	env := "LD_LIBRARY_PATH"
	if runtime.GOOS == "darwin" {
		env = "DYLD_LIBRARY_PATH"
	}
	if p := os.Getenv(env); p != "" {
		paths = append(paths, filepath.SplitList(p)...)
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Dir(exe))
	}
	return append(paths,
		"/usr/local/lib",
		"/usr/lib",
		"/opt/pvapi/lib",
		"/opt/AVT_GigE_SDK/bin-pc/x64",
		"/Library/Frameworks/PvAPI.framework/Libraries",
	)
}

func openLibrary() (uintptr, error) {
	if p := os.Getenv("FRAMEQ_PVAPI_LIB"); p != "" {
		h, err := purego.Dlopen(p, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrLibraryNotFound, p, err)
		}
		return h, nil
	}
	name := libraryName()
	for _, dir := range librarySearchPaths() {
		if h, err := purego.Dlopen(filepath.Join(dir, name), purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
			return h, nil
		}
	}
	// let the dynamic loader try its own configuration
	if h, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
		return h, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
}
