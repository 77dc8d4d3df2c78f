// Package notify carries transient, user-facing messages about cart
// operations that could not be completed.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Kind classifies a notification.
type Kind string

const (
	KindOutOfStock   Kind = "out_of_stock"
	KindAddFailed    Kind = "add_failed"
	KindRemoveFailed Kind = "remove_failed"
	KindUpdateFailed Kind = "update_failed"
)

var messages = map[Kind]string{
	KindOutOfStock:   "requested quantity is out of stock",
	KindAddFailed:    "failed to add product",
	KindRemoveFailed: "failed to remove product",
	KindUpdateFailed: "failed to update product amount",
}

// Notification is one message for the shopper.
type Notification struct {
	Kind      Kind   `json:"kind"`
	ProductID int64  `json:"product_id"`
	Message   string `json:"message"`
}

// New builds a notification with the standard message for kind.
func New(kind Kind, productID int64) Notification {
	return Notification{Kind: kind, ProductID: productID, Message: messages[kind]}
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes each notification as a WARN line.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, note Notification) {
	n.logger.WarnContext(ctx, note.Message,
		slog.String("kind", string(note.Kind)),
		slog.Int64("product_id", note.ProductID),
	)
}

// Recorder collects the notifications raised while serving one request.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// Notifications returns what was recorded so far, never nil.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

type recorderKey struct{}

// WithRecorder attaches a fresh Recorder to ctx.
func WithRecorder(ctx context.Context) (context.Context, *Recorder) {
	rec := &Recorder{}
	return context.WithValue(ctx, recorderKey{}, rec), rec
}

// RecorderFromContext returns the Recorder attached to ctx, or nil.
func RecorderFromContext(ctx context.Context) *Recorder {
	rec, _ := ctx.Value(recorderKey{}).(*Recorder)
	return rec
}

// Dispatch delivers n to notifier and to the request's Recorder, if any.
func Dispatch(ctx context.Context, notifier Notifier, n Notification) {
	if notifier != nil {
		notifier.Notify(ctx, n)
	}
	if rec := RecorderFromContext(ctx); rec != nil {
		rec.Notify(ctx, n)
	}
}
