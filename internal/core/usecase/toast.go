package usecase

import (
	"sync"
	"time"
)

type ToastKind string

const (
	ToastInfo    ToastKind = "info"
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

const DefaultToastTTL = 4 * time.Second

type Toast struct {
	ID        uint64
	Kind      ToastKind
	Message   string
	ExpiresAt time.Time
}

// Remaining is how long the toast stays visible from now.
func (t Toast) Remaining(now time.Time) time.Duration {
	if d := t.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Notifier queues transient notices for the next render. Each notice is
// shown at most once and is dropped when it expires before being shown.
type Notifier struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	seq    uint64
	toasts []Toast
}

func NewNotifier(ttl time.Duration, now func() time.Time) *Notifier {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Notifier{ttl: ttl, now: now}
}

func (n *Notifier) Show(kind ToastKind, message string) Toast {
	if kind == "" {
		kind = ToastInfo
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	toast := Toast{
		ID:        n.seq,
		Kind:      kind,
		Message:   message,
		ExpiresAt: n.now().Add(n.ttl),
	}
	n.toasts = append(n.toasts, toast)
	return toast
}

// Drain returns the live toasts in creation order and empties the queue.
func (n *Notifier) Drain() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	live := make([]Toast, 0, len(n.toasts))
	for _, toast := range n.toasts {
		if now.Before(toast.ExpiresAt) {
			live = append(live, toast)
		}
	}
	n.toasts = nil
	return live
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.toasts)
}
