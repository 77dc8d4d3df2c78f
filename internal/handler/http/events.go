package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
	"github.com/alicecomoura/hook-shopping-cart/internal/service"
)

const (
	sseEventCart      = "cart"
	sseKeepAlive      = 15 * time.Second
	sseRetryMillisecs = 3000
)

// EventsHandler streams the cart to storefront clients as Server-Sent Events.
type EventsHandler struct {
	done      <-chan struct{}
	manager   *service.Manager
	logger    *slog.Logger
	keepAlive time.Duration
}

// NewEventsHandler creates a new SSE handler. Open streams end when ctx is
// canceled.
func NewEventsHandler(ctx context.Context, manager *service.Manager, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		done:      ctx.Done(),
		manager:   manager,
		logger:    logger,
		keepAlive: sseKeepAlive,
	}
}

// Stream handles GET /api/v1/cart/events. It sends the current cart on
// connect and again after every committed mutation.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	ctx := r.Context()

	// Capacity one: a slow client only ever sees the newest cart.
	updates := make(chan domain.CartList, 1)
	unsubscribe := h.manager.Subscribe(func(_ context.Context, cart domain.CartList) {
		for {
			select {
			case updates <- cart:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", sseRetryMillisecs); err != nil {
		return
	}

	var seq uint64
	send := func(cart domain.CartList) error {
		seq++
		data, err := json.Marshal(newCartView(cart))
		if err != nil {
			return fmt.Errorf("marshal cart: %w", err)
		}
		if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", seq, sseEventCart, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send(h.manager.Cart()); err != nil {
		h.logger.WarnContext(ctx, "cart stream write failed", slog.String("error", err.Error()))
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case cart := <-updates:
			if err := send(cart); err != nil {
				h.logger.DebugContext(ctx, "cart stream closed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
