package usecase

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned to a debounced caller whose work was replaced by
// a newer submission before the quiet period ended.
var ErrSuperseded = errors.New("superseded by a newer request")

// Debouncer runs only the last of a burst of submissions, after delay has
// passed without a newer one.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Submit blocks for the quiet period and then runs fn. It returns
// ErrSuperseded when another Submit or Cancel arrives first, or the context
// error when ctx ends while waiting.
func (d *Debouncer) Submit(ctx context.Context, fn func(context.Context) error) error {
	d.mu.Lock()
	d.seq++
	ticket := d.seq
	if d.cancel != nil {
		d.cancel()
	}
	waitCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()
	defer cancel()

	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return ErrSuperseded
		case <-timer.C:
		}
	}

	d.mu.Lock()
	current := d.seq == ticket
	d.mu.Unlock()
	if !current {
		return ErrSuperseded
	}
	return fn(ctx)
}

// Cancel drops the pending submission, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Ticker calls fn every interval until the returned stop function is called.
// stop waits for an in-flight fn to return and is safe to call more than once.
func Ticker(interval time.Duration, fn func(elapsed time.Duration)) (stop func()) {
	started := time.Now()
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				fn(now.Sub(started))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			<-exited
		})
	}
}
