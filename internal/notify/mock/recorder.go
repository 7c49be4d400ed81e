package mock

import (
	"context"
	"sync"

	"github.com/utafrali/rocketshoes/internal/notify"
)

// Recorder is a notifier that keeps every notification it receives, in
// order, and always succeeds. The zero value is ready to use.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
}

// Notify records n.
func (r *Recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
	return nil
}

// Notifications returns a copy of what has been recorded.
func (r *Recorder) Notifications() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}
