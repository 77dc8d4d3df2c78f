package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alicecomoura/hook-shopping-cart/internal/domain"
	pkgkafka "github.com/alicecomoura/hook-shopping-cart/pkg/kafka"
	"github.com/alicecomoura/hook-shopping-cart/pkg/logger"
)

// Event type and source identifiers for cart events.
const (
	EventCartUpdated  = "cart.updated"
	SourceCartService = "cart-service"
)

// TopicCartUpdated receives a snapshot after every committed mutation.
var TopicCartUpdated = pkgkafka.Topic("cart", "updated")

// Publisher is the subset of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Entries []domain.CartEntry `json:"entries"`
	Size    int                `json:"size"`
	Total   domain.Money       `json:"total"`
}

// Producer publishes cart domain events to Kafka.
type Producer struct {
	kafka       Publisher
	aggregateID string
	logger      *slog.Logger
}

// NewProducer creates a producer whose events are keyed by aggregateID,
// the storage key of the cart.
func NewProducer(kafka Publisher, aggregateID string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:       kafka,
		aggregateID: aggregateID,
		logger:      logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart domain.CartList) error {
	data := CartUpdatedData{
		Entries: cart.Clone(),
		Size:    cart.Size(),
		Total:   cart.Total(),
	}

	event, err := pkgkafka.NewEvent(EventCartUpdated, p.aggregateID, SourceCartService, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("aggregate_id", p.aggregateID),
		slog.Int("size", data.Size),
	)
	return nil
}

// CartUpdated is a service.Listener. Failures are logged and dropped.
func (p *Producer) CartUpdated(ctx context.Context, cart domain.CartList) {
	if err := p.PublishCartUpdated(ctx, cart); err != nil {
		p.logger.WarnContext(ctx, "failed to publish cart event",
			slog.String("error", err.Error()),
		)
	}
}
