package imaging

import (
	"errors"
	"image"
	"sync"
)

// ErrReleased is returned when a Frame is released a second time.
var ErrReleased = errors.New("frame already released")

// Ledger tracks single-channel stage images between the moment a stage
// produces them and the moment their last consumer releases them.
//
// A nil *Ledger is valid: frames tracked by it are still released normally
// but nothing is counted.
type Ledger struct {
	mu       sync.Mutex
	live     int
	produced int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Track registers img as a live frame owned by the caller.
func (l *Ledger) Track(img *image.Gray) *Frame {
	if l != nil {
		l.mu.Lock()
		l.live++
		l.produced++
		l.mu.Unlock()
	}
	return &Frame{gray: img, ledger: l}
}

// Live returns the number of frames tracked but not yet released.
func (l *Ledger) Live() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// Produced returns the total number of frames ever tracked.
func (l *Ledger) Produced() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.produced
}

// Frame is a stage image with an explicit lifetime.
type Frame struct {
	mu     sync.Mutex
	gray   *image.Gray
	ledger *Ledger
}

// Gray returns the underlying image, or nil once the frame has been released.
func (f *Frame) Gray() *image.Gray {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gray
}

// Bounds returns the frame extents, or the empty rectangle after release.
func (f *Frame) Bounds() image.Rectangle {
	if g := f.Gray(); g != nil {
		return g.Bounds()
	}
	return image.Rectangle{}
}

// Released reports whether Release has been called.
func (f *Frame) Released() bool {
	return f.Gray() == nil
}

// Release drops the frame's pixels. Releasing a nil frame is a no-op;
// releasing the same frame twice returns ErrReleased.
func (f *Frame) Release() error {
	if f == nil {
		return nil
	}
	f.mu.Lock()
	if f.gray == nil {
		f.mu.Unlock()
		return ErrReleased
	}
	f.gray = nil
	f.mu.Unlock()

	if f.ledger != nil {
		f.ledger.mu.Lock()
		f.ledger.live--
		f.ledger.mu.Unlock()
	}
	return nil
}
