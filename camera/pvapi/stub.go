//go:build !((linux || darwin) && (amd64 || arm64))

// File: camera/pvapi/stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pvapi

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/camera"
)

var errPlatform = fmt.Errorf("pvapi: %s/%s is not supported", runtime.GOOS, runtime.GOARCH)

// Init always fails on this platform.
func Init() error { return notSupported(errPlatform) }

// Shutdown is a no-op on this platform.
func Shutdown() {}

// List always fails on this platform.
func List(time.Duration) ([]CameraInfo, error) { return nil, Init() }

// Camera is unavailable on this platform.
type Camera struct{}

// Open always fails on this platform.
func Open(uint64, Options) (*Camera, error) { return nil, Init() }

func (*Camera) Info() camera.Info { return camera.Info{} }
func (*Camera) PayloadSize() int { return 0 }
func (*Camera) Submit(int, []byte, api.CompletionFunc) error { return Init() }
func (*Camera) CancelPending() error { return Init() }
func (*Camera) Run(context.Context) error { return Init() }
func (*Camera) Capturing() (bool, error) { return false, Init() }
func (*Camera) Grab([]byte, time.Duration) (api.Frame, error) { return api.Frame{}, Init() }
func (*Camera) Close() error { return nil }
func (*Camera) Uint32(string) (uint32, error) { return 0, Init() }
func (*Camera) SetUint32(string, uint32) error { return Init() }
func (*Camera) Float32(string) (float32, error) { return 0, Init() }
func (*Camera) SetFloat32(string, float32) error { return Init() }
func (*Camera) Enum(string) (string, error) { return "", Init() }
func (*Camera) SetEnum(string, string) error { return Init() }
func (*Camera) Command(string) error { return Init() }

var _ camera.Device = (*Camera)(nil)
