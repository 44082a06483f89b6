// Package fake
// Author: momentics <momentics@gmail.com>
//
// Manually driven producer for deterministic pipeline tests.

package fake

import (
	"errors"
	"sync"

	"github.com/momentics/frameq/api"
)

// ErrRejected is returned by Submit while failures are injected.
var ErrRejected = errors.New("fake: submission rejected")

type submission struct {
	index int
	buf   []byte
	done  api.CompletionFunc
}

// Producer records submissions and completes them only when told to.
type Producer struct {
	mu       sync.Mutex
	queued   []submission
	history  []int
	failNext int
	failAll  bool

	// AsyncCancel makes CancelPending deliver cancellations from a new goroutine.
	AsyncCancel bool
}

// NewProducer creates an empty fake producer.
func NewProducer() *Producer { return &Producer{} }

// Submit implements api.Producer.
func (p *Producer) Submit(index int, buf []byte, done api.CompletionFunc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAll {
		return ErrRejected
	}
	if p.failNext > 0 {
		p.failNext--
		return ErrRejected
	}
	p.queued = append(p.queued, submission{index: index, buf: buf, done: done})
	p.history = append(p.history, index)
	return nil
}

// FailNext rejects the next n submissions.
func (p *Producer) FailNext(n int) {
	p.mu.Lock()
	p.failNext = n
	p.mu.Unlock()
}

// FailAll rejects every submission until called with false.
func (p *Producer) FailAll(on bool) {
	p.mu.Lock()
	p.failAll = on
	p.mu.Unlock()
}

// Complete finishes the outstanding submission for index.
// It reports false if index has no outstanding submission.
func (p *Producer) Complete(index int, status api.Status) bool {
	return p.CompleteInfo(index, status, api.FrameInfo{})
}

// CompleteInfo finishes the outstanding submission for index with metadata.
func (p *Producer) CompleteInfo(index int, status api.Status, info api.FrameInfo) bool {
	s, ok := p.take(index)
	if !ok {
		return false
	}
	s.done(index, status, info)
	return true
}

// CompleteAll finishes every outstanding submission in submission order.
func (p *Producer) CompleteAll(status api.Status) int {
	p.mu.Lock()
	queued := p.queued
	p.queued = nil
	p.mu.Unlock()
	for _, s := range queued {
		s.done(s.index, status, api.FrameInfo{})
	}
	return len(queued)
}

// CancelPending implements api.Canceler.
func (p *Producer) CancelPending() error {
	if p.AsyncCancel {
		go p.CompleteAll(api.StatusCancelled)
		return nil
	}
	p.CompleteAll(api.StatusCancelled)
	return nil
}

// Buffer returns the buffer of the outstanding submission for index.
func (p *Producer) Buffer(index int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.queued {
		if s.index == index {
			return s.buf
		}
	}
	return nil
}

// Outstanding lists indices submitted and not yet completed, oldest first.
func (p *Producer) Outstanding() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int, len(p.queued))
	for i, s := range p.queued {
		out[i] = s.index
	}
	return out
}

// Submissions lists every accepted submission in order.
func (p *Producer) Submissions() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.history...)
}

func (p *Producer) take(index int) (submission, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.queued {
		if s.index == index {
			p.queued = append(p.queued[:i], p.queued[i+1:]...)
			return s, true
		}
	}
	return submission{}, false
}

var (
	_ api.Producer = (*Producer)(nil)
	_ api.Canceler = (*Producer)(nil)
)
