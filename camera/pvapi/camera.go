//go:build (linux || darwin) && (amd64 || arm64)

// File: camera/pvapi/camera.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pvapi

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/camera"
	"github.com/momentics/frameq/internal/handles"
)

type inflight struct {
	done api.CompletionFunc
	pin  *runtime.Pinner
}

// Camera is an opened PvAPI camera in capture mode.
type Camera struct {
	log    *slog.Logger
	handle uintptr
	id     uintptr
	info   camera.Info

	mu       sync.Mutex
	frames   *descriptors
	inflight []inflight
	closed   bool

	grabMu sync.Mutex
}

// List returns the cameras visible to the driver. Discovery runs in the
// background after Init, so List polls for up to wait before giving up.
func List(wait time.Duration) ([]CameraInfo, error) {
	if err := Init(); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(wait)
	for pvCameraCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	var (
		raw       [32]cameraInfo
		connected uint64
	)
	n := pvCameraList(unsafe.Pointer(&raw[0]), uint64(len(raw)), &connected)
	out := make([]CameraInfo, 0, n)
	for i := uint64(0); i < n && i < uint64(len(raw)); i++ {
		out = append(out, raw[i].export())
	}
	return out, nil
}

// Open opens camera uid (0 selects the first one found) and puts it in
// capture mode. Buffers may be submitted right away; frames flow once Run
// starts acquisition.
func Open(uid uint64, opts Options) (*Camera, error) {
	opts = opts.withDefaults()
	if uid == 0 {
		cams, err := List(5 * time.Second)
		if err != nil {
			return nil, err
		}
		if len(cams) == 0 {
			return nil, &DriverError{Op: "PvCameraList", Code: ErrNotFound}
		}
		uid = cams[0].UniqueID
	}
	if err := Init(); err != nil {
		return nil, err
	}
	c := &Camera{log: opts.Logger}
	if err := check("PvCameraOpen", pvCameraOpen(uid, uint32(opts.Access), &c.handle)); err != nil {
		return nil, err
	}
	if err := c.readInfo(uid); err != nil {
		pvCameraClose(c.handle)
		return nil, err
	}
	// one spare descriptor for Grab
	frames, err := newDescriptors(opts.MaxFrames + 1)
	if err != nil {
		pvCameraClose(c.handle)
		return nil, api.NewError(api.ErrCodeAllocation, "pvapi: frame descriptors").Wrap(err)
	}
	c.frames = frames
	c.inflight = make([]inflight, opts.MaxFrames)
	if err := check("PvCaptureStart", pvCaptureStart(c.handle)); err != nil {
		_ = frames.free()
		pvCameraClose(c.handle)
		return nil, err
	}
	c.id = handles.Register(c)
	c.log.Info("pvapi: camera opened",
		"uid", uid,
		"width", c.info.Width,
		"height", c.info.Height,
		"format", c.info.Format,
		"payload", c.info.PayloadSize)
	return c, nil
}

func (c *Camera) readInfo(uid uint64) error {
	w, err := c.Uint32("Width")
	if err != nil {
		return err
	}
	h, err := c.Uint32("Height")
	if err != nil {
		return err
	}
	payload, err := c.Uint32("TotalBytesPerFrame")
	if err != nil {
		return err
	}
	format := api.PixelUnknown
	if name, err := c.Enum("PixelFormat"); err == nil {
		format = formatByName(name)
	}
	c.info = camera.Info{
		Name:        "pvapi:" + formatUID(uid),
		Width:       int(w),
		Height:      int(h),
		Format:      format,
		PayloadSize: int(payload),
	}
	return nil
}

// Info implements camera.Device.
func (c *Camera) Info() camera.Info { return c.info }

// PayloadSize is the camera's TotalBytesPerFrame at open time.
func (c *Camera) PayloadSize() int { return c.info.PayloadSize }

// Submit queues buf as frame index. buf stays pinned until its completion.
func (c *Camera) Submit(index int, buf []byte, done api.CompletionFunc) error {
	if len(buf) == 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "pvapi: empty buffer")
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= len(c.inflight) {
		c.mu.Unlock()
		return api.NewError(api.ErrCodeInvalidArgument, "pvapi: frame index out of range").
			WithContext("index", index).WithContext("max", len(c.inflight))
	}
	if c.inflight[index].done != nil {
		c.mu.Unlock()
		return api.NewError(api.ErrCodeInvalidState, "pvapi: frame already queued").WithContext("index", index)
	}
	pin := new(runtime.Pinner)
	pin.Pin(unsafe.SliceData(buf))
	f := c.frames.at(index)
	*f = pvFrame{}
	f.ImageBuffer = uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	f.ImageBufferSize = uint64(len(buf))
	f.Context[ctxCamera] = c.id
	f.Context[ctxIndex] = uintptr(index)
	c.inflight[index] = inflight{done: done, pin: pin}
	c.mu.Unlock()

	// the driver may call back before QueueFrame returns
	if err := check("PvCaptureQueueFrame", pvCaptureQueueFrame(c.handle, uintptr(unsafe.Pointer(f)), frameDoneCallback)); err != nil {
		c.mu.Lock()
		c.inflight[index] = inflight{}
		c.mu.Unlock()
		pin.Unpin()
		return err
	}
	return nil
}

// onFrameDone runs on a driver thread for every completed descriptor.
func onFrameDone(_ purego.CDecl, p unsafe.Pointer) {
	f := (*pvFrame)(p)
	c, ok := handles.Lookup(f.Context[ctxCamera]).(*Camera)
	if !ok {
		return
	}
	c.complete(int(f.Context[ctxIndex]), f)
}

func (c *Camera) complete(index int, f *pvFrame) {
	c.mu.Lock()
	if index < 0 || index >= len(c.inflight) || c.inflight[index].done == nil {
		c.mu.Unlock()
		c.log.Warn("pvapi: completion for frame not queued", "index", index)
		return
	}
	fl := c.inflight[index]
	c.inflight[index] = inflight{}
	c.mu.Unlock()

	code := Code(f.Status)
	info := frameInfo(f)
	fl.pin.Unpin()
	if code != ErrSuccess && code != ErrCancelled {
		c.log.Debug("pvapi: frame completed with error", "index", index, "code", code)
	}
	fl.done(index, statusOf(code), info)
}

func frameInfo(f *pvFrame) api.FrameInfo {
	return api.FrameInfo{
		Width:     int(f.Width),
		Height:    int(f.Height),
		Format:    formatOf(f.Format),
		ImageSize: int(f.ImageSize),
		Count:     f.FrameCount,
		Timestamp: f.TimestampHi<<32 | f.TimestampLo,
	}
}

// CancelPending returns every queued frame through the callback as cancelled.
func (c *Camera) CancelPending() error {
	return check("PvCaptureQueueClear", pvCaptureQueueClear(c.handle))
}

// Run switches the camera to free-run continuous acquisition until ctx is done.
func (c *Camera) Run(ctx context.Context) error {
	if err := c.SetEnum("FrameStartTriggerMode", "Freerun"); err != nil {
		return err
	}
	if err := c.SetEnum("AcquisitionMode", "Continuous"); err != nil {
		c.log.Warn("pvapi: continuous mode not set", "err", err)
	}
	if err := c.Command("AcquisitionStart"); err != nil {
		return err
	}
	c.log.Info("pvapi: acquisition started", "camera", c.info.Name)
	<-ctx.Done()
	err := c.Command("AcquisitionStop")
	c.log.Info("pvapi: acquisition stopped", "camera", c.info.Name, "err", err)
	return err
}

// Capturing reports whether the driver has the camera in capture mode.
func (c *Camera) Capturing() (bool, error) {
	var started uint64
	if err := check("PvCaptureQuery", pvCaptureQuery(c.handle, &started)); err != nil {
		return false, err
	}
	return started != 0, nil
}

// Grab captures a single frame into buf outside the streaming pipeline.
// Acquisition must be running.
func (c *Camera) Grab(buf []byte, timeout time.Duration) (api.Frame, error) {
	c.grabMu.Lock()
	defer c.grabMu.Unlock()
	if len(buf) == 0 {
		return api.Frame{}, api.NewError(api.ErrCodeInvalidArgument, "pvapi: empty buffer")
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return api.Frame{}, ErrClosed
	}
	var pin runtime.Pinner
	pin.Pin(unsafe.SliceData(buf))
	defer pin.Unpin()

	f := c.frames.at(len(c.inflight))
	*f = pvFrame{}
	f.ImageBuffer = uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	f.ImageBufferSize = uint64(len(buf))
	if err := check("PvCaptureQueueFrame", pvCaptureQueueFrame(c.handle, uintptr(unsafe.Pointer(f)), 0)); err != nil {
		return api.Frame{}, err
	}
	if err := check("PvCaptureWaitForFrameDone", pvCaptureWaitForFrameDone(c.handle, uintptr(unsafe.Pointer(f)), uint64(timeout.Milliseconds()))); err != nil {
		_ = c.CancelPending()
		return api.Frame{}, err
	}
	frame := api.Frame{
		Index:       -1,
		Data:        buf,
		Status:      statusOf(Code(f.Status)),
		Info:        frameInfo(f),
		CompletedAt: time.Now(),
	}
	if !frame.Status.Deliverable() {
		return frame, &DriverError{Op: "grab", Code: Code(f.Status)}
	}
	return frame, nil
}

// Close cancels queued frames, leaves capture mode and closes the camera.
func (c *Camera) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	_ = c.CancelPending()
	errEnd := check("PvCaptureEnd", pvCaptureEnd(c.handle))
	errClose := check("PvCameraClose", pvCameraClose(c.handle))
	handles.Unregister(c.id)

	c.mu.Lock()
	queued := 0
	for _, fl := range c.inflight {
		if fl.done != nil {
			queued++
		}
	}
	c.mu.Unlock()
	if queued > 0 {
		// the driver still references these descriptors; leak them
		c.log.Warn("pvapi: frames still queued at close", "count", queued)
	} else if err := c.frames.free(); err != nil {
		c.log.Warn("pvapi: descriptor unmap failed", "err", err)
	}
	c.log.Info("pvapi: camera closed", "camera", c.info.Name)
	if errEnd != nil {
		return errEnd
	}
	return errClose
}

var _ camera.Device = (*Camera)(nil)
