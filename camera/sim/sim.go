// Package sim
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Simulated free-running camera. Queued buffers are filled with a moving
// Mono8 test pattern at a fixed frame rate; a configurable share of frames
// is reported as lost.

package sim

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/frameq/api"
	"github.com/momentics/frameq/camera"
)

var (
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("sim: camera closed")
	// ErrQueueFull is returned when MaxQueued buffers are already queued.
	ErrQueueFull = errors.New("sim: capture queue full")
	// ErrBufferTooSmall is returned for buffers shorter than one frame.
	ErrBufferTooSmall = errors.New("sim: buffer too small")
)

// Config describes the simulated sensor.
type Config struct {
	Width     int
	Height    int
	FPS       float64
	LossRate  float64 // fraction of frames completed as DataLost, 0..1
	MaxQueued int     // 0 means unlimited
	Seed      uint64
	Logger    *slog.Logger
}

// Stats counts what the sensor did.
type Stats struct {
	Frames    uint64 // exposures taken
	Delivered uint64
	Lost      uint64
	Missed    uint64 // exposures with no queued buffer
	Cancelled uint64
	Queued    int
}

type request struct {
	index int
	buf   []byte
	done  api.CompletionFunc
}

// Camera is a simulated producer. Submit and CancelPending are safe for
// concurrent use; completions are delivered in submission order.
type Camera struct {
	cfg   Config
	log   *slog.Logger
	start time.Time

	mu     sync.Mutex
	queued *queue.Queue // of request
	closed bool
	rng    *rand.Rand
	stats  Stats
}

// New validates cfg and creates a camera.
func New(cfg Config) (*Camera, error) {
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "sim: width and height must be positive").
			WithContext("width", cfg.Width).WithContext("height", cfg.Height)
	}
	if cfg.FPS <= 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "sim: fps must be positive").
			WithContext("fps", cfg.FPS)
	}
	if cfg.LossRate < 0 || cfg.LossRate > 1 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "sim: loss rate must be within [0,1]").
			WithContext("loss", cfg.LossRate)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Camera{
		cfg:    cfg,
		log:    log,
		start:  time.Now(),
		queued: queue.New(),
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Info implements camera.Device.
func (c *Camera) Info() camera.Info {
	return camera.Info{
		Name:        "simulated",
		Width:       c.cfg.Width,
		Height:      c.cfg.Height,
		Format:      api.PixelMono8,
		PayloadSize: c.cfg.Width * c.cfg.Height,
	}
}

// Submit queues buf for a future exposure.
func (c *Camera) Submit(index int, buf []byte, done api.CompletionFunc) error {
	if len(buf) < c.cfg.Width*c.cfg.Height {
		return ErrBufferTooSmall
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.cfg.MaxQueued > 0 && c.queued.Length() >= c.cfg.MaxQueued {
		return ErrQueueFull
	}
	c.queued.Add(request{index: index, buf: buf, done: done})
	return nil
}

// Expose takes one picture into the oldest queued buffer and completes it.
// It reports false when no buffer was queued and the exposure was lost.
func (c *Camera) Expose() bool {
	c.mu.Lock()
	c.stats.Frames++
	count := c.stats.Frames
	if c.queued.Length() == 0 {
		c.stats.Missed++
		c.mu.Unlock()
		return false
	}
	req := c.queued.Remove().(request)
	lost := c.cfg.LossRate > 0 && c.rng.Float64() < c.cfg.LossRate
	if lost {
		c.stats.Lost++
	} else {
		c.stats.Delivered++
	}
	c.mu.Unlock()

	size := c.cfg.Width * c.cfg.Height
	fillPattern(req.buf[:size], c.cfg.Width, c.cfg.Height, count)
	status := api.StatusSuccess
	if lost {
		// the tail of the frame never arrived
		clear(req.buf[size*2/3 : size])
		status = api.StatusDataLost
	}
	req.done(req.index, status, api.FrameInfo{
		Width:     c.cfg.Width,
		Height:    c.cfg.Height,
		Format:    api.PixelMono8,
		ImageSize: size,
		Count:     count,
		Timestamp: uint64(time.Since(c.start).Microseconds()),
	})
	return true
}

// fillPattern draws diagonal bands that drift by one pixel per frame plus a
// bright square bouncing across the image.
func fillPattern(buf []byte, w, h int, frame uint64) {
	shift := int(frame)
	for y := 0; y < h; y++ {
		row := buf[y*w : (y+1)*w]
		for x := range row {
			row[x] = byte((x + y + shift) & 0x7f)
		}
	}
	side := min(w, h) / 8
	if side == 0 {
		return
	}
	px := int(frame*3) % (2 * (w - side + 1))
	if px >= w-side+1 {
		px = 2*(w-side+1) - px - 1
	}
	py := (h - side) / 2
	for y := py; y < py+side; y++ {
		row := buf[y*w+px : y*w+px+side]
		for x := range row {
			row[x] = 0xff
		}
	}
}

// Run exposes frames at the configured rate until ctx is done.
func (c *Camera) Run(ctx context.Context) error {
	period := time.Duration(float64(time.Second) / c.cfg.FPS)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	c.log.Info("sim: acquisition started", "fps", c.cfg.FPS, "width", c.cfg.Width, "height", c.cfg.Height)
	for {
		select {
		case <-ctx.Done():
			st := c.Stats()
			c.log.Info("sim: acquisition stopped", "frames", st.Frames, "missed", st.Missed, "lost", st.Lost)
			return nil
		case <-ticker.C:
			if !c.Expose() {
				c.log.Debug("sim: no buffer queued, frame skipped")
			}
		}
	}
}

// CancelPending completes every queued buffer as cancelled.
func (c *Camera) CancelPending() error {
	c.mu.Lock()
	reqs := make([]request, 0, c.queued.Length())
	for c.queued.Length() > 0 {
		reqs = append(reqs, c.queued.Remove().(request))
	}
	c.stats.Cancelled += uint64(len(reqs))
	c.mu.Unlock()
	for _, r := range reqs {
		r.done(r.index, api.StatusCancelled, api.FrameInfo{})
	}
	return nil
}

// Close rejects further submissions and cancels queued buffers.
func (c *Camera) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.CancelPending()
}

// Stats returns a snapshot of the sensor counters.
func (c *Camera) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.stats
	st.Queued = c.queued.Length()
	return st
}

var _ camera.Device = (*Camera)(nil)
