// Package notify delivers user-visible toasts.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/scrynk/scrynk/models"
	"github.com/scrynk/scrynk/session"
)

// Notifier shows a transient notification to the user behind ctx.
type Notifier interface {
	Notify(ctx context.Context, t models.Toast)
}

// Error sends an error toast.
func Error(ctx context.Context, n Notifier, message string) {
	n.Notify(ctx, models.Toast{Level: models.ToastError, Message: message})
}

// Info sends an informational toast.
func Info(ctx context.Context, n Notifier, message string) {
	n.Notify(ctx, models.Toast{Level: models.ToastInfo, Message: message})
}

// Flash queues toasts in the session store for the visitor found in ctx.
// They are shown on the next view that visitor renders.
type Flash struct {
	store *session.Store
}

// NewFlash creates a Flash notifier backed by store.
func NewFlash(store *session.Store) *Flash {
	return &Flash{store: store}
}

func (f *Flash) Notify(ctx context.Context, t models.Toast) {
	id := session.VisitorFrom(ctx)
	if id == "" {
		slog.WarnContext(ctx, "dropping toast without visitor", "level", t.Level, "message", t.Message)
		return
	}
	f.store.PushToast(id, t)
}

// Recorder keeps every toast in memory.
type Recorder struct {
	mu     sync.Mutex
	toasts []models.Toast
}

func (r *Recorder) Notify(_ context.Context, t models.Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []models.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Errors returns the number of recorded error toasts.
func (r *Recorder) Errors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.toasts {
		if t.Level == models.ToastError {
			n++
		}
	}
	return n
}

// Multi fans a toast out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, t models.Toast) {
	for _, n := range m {
		n.Notify(ctx, t)
	}
}

// Writer prints each toast as one line, for terminal surfaces.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriter creates a Writer notifier printing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(_ context.Context, t models.Toast) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s: %s\n", t.Level, t.Message)
}
