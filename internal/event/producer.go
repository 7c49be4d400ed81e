package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/notify"
	pkgkafka "github.com/utafrali/rocketshoes/pkg/kafka"
	"github.com/utafrali/rocketshoes/pkg/logger"
)

// Kafka topics for cart events.
const (
	TopicCartUpdated      = "rocketshoes.cart.updated"
	TopicCartNotification = "rocketshoes.cart.notification"
)

// SourceCartService identifies events originating from this service.
const SourceCartService = "cart-service"

// Cart operations reported in CartUpdatedData.Operation.
const (
	OperationAdd    = "add"
	OperationRemove = "remove"
	OperationUpdate = "update"
)

// CartUpdatedData is the payload of a cart.updated event.
type CartUpdatedData struct {
	StorageKey string          `json:"storage_key"`
	Operation  string          `json:"operation"`
	ProductID  int64           `json:"product_id"`
	Entries    domain.Cart     `json:"entries"`
	Size       int             `json:"size"`
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
}

// NotificationData is the payload of a cart.notification event.
type NotificationData struct {
	StorageKey string `json:"storage_key"`
	notify.Notification
}

// publisher is the part of *pkgkafka.Producer used here.
type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart events to Kafka, keyed by storage key.
type Producer struct {
	kafka  publisher
	key    string
	logger *slog.Logger
}

// NewProducer creates a producer for the cart stored under storageKey.
func NewProducer(kafka publisher, storageKey string, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		key:    storageKey,
		logger: logger,
	}
}

// PublishCartUpdated publishes the cart as it stands after a mutation.
func (p *Producer) PublishCartUpdated(ctx context.Context, operation string, productID int64, cart domain.Cart) error {
	if cart == nil {
		cart = domain.Cart{}
	}
	summary := cart.Summary()
	data := CartUpdatedData{
		StorageKey: p.key,
		Operation:  operation,
		ProductID:  productID,
		Entries:    cart,
		Size:       summary.Size,
		ItemCount:  summary.ItemCount,
		Total:      summary.Total,
	}

	if err := p.publish(ctx, TopicCartUpdated, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("operation", operation),
		slog.Int64("product_id", productID),
		slog.Int("item_count", summary.ItemCount),
	)
	return nil
}

// Notify publishes n as a cart.notification event. It makes Producer a
// notify.Notifier.
func (p *Producer) Notify(ctx context.Context, n notify.Notification) error {
	return p.publish(ctx, TopicCartNotification, NotificationData{StorageKey: p.key, Notification: n})
}

func (p *Producer) publish(ctx context.Context, topic string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, SourceCartService, p.key, data,
		pkgkafka.WithCorrelationID(logger.CorrelationIDFromContext(ctx)))
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}
