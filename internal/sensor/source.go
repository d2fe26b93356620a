package sensor

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrPermissionDenied  = errors.New("location permission denied")
	ErrSensorUnavailable = errors.New("location sensor unavailable")
)

// Source is a continuous position feed. Subscribe requests permission and
// starts updates; the returned channel stays open until Close. Fixes arrive
// at unpredictable intervals and are pushed, never polled.
type Source interface {
	Subscribe(ctx context.Context) (<-chan Fix, error)
	Close() error
}

// PushSource adapts fixes posted by the device over HTTP into a Source.
type PushSource struct {
	mu     sync.Mutex
	ch     chan Fix
	closed bool
}

func NewPushSource() *PushSource {
	return &PushSource{ch: make(chan Fix, 16)}
}

func (p *PushSource) Subscribe(_ context.Context) (<-chan Fix, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrSensorUnavailable
	}
	return p.ch, nil
}

// Push hands a device-reported fix to the subscriber. Reports false when the
// buffer is full or the source is closed.
func (p *PushSource) Push(f Fix) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.ch <- f:
		return true
	default:
		return false
	}
}

func (p *PushSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
