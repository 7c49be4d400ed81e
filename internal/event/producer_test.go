package event

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/notify"
	pkgkafka "github.com/utafrali/rocketshoes/pkg/kafka"
	"github.com/utafrali/rocketshoes/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, evt *pkgkafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: evt})
	return nil
}

func newTestProducer(pub publisher) *Producer {
	return NewProducer(pub, "@RocketShoes:cart", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishCartUpdated(t *testing.T) {
	pub := &fakePublisher{}
	p := newTestProducer(pub)
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	cart := domain.Cart{{Product: domain.Product{ID: 1}, Amount: 2}}
	require.NoError(t, p.PublishCartUpdated(ctx, OperationAdd, 1, cart))

	require.Len(t, pub.sent, 1)
	got := pub.sent[0]
	assert.Equal(t, TopicCartUpdated, got.topic)
	assert.Equal(t, TopicCartUpdated, got.event.Type)
	assert.Equal(t, "@RocketShoes:cart", got.event.Subject)
	assert.Equal(t, SourceCartService, got.event.Source)
	assert.Equal(t, "corr-1", got.event.CorrelationID)
	assert.JSONEq(t, `{
		"storage_key":"@RocketShoes:cart",
		"operation":"add",
		"product_id":1,
		"entries":[{"id":1,"amount":2}],
		"size":1,
		"item_count":2,
		"total":"0"
	}`, string(got.event.Data))
}

func TestPublishCartUpdated_EmptyCartHasEmptyEntries(t *testing.T) {
	pub := &fakePublisher{}
	require.NoError(t, newTestProducer(pub).PublishCartUpdated(context.Background(), OperationRemove, 3, nil))

	var data CartUpdatedData
	require.NoError(t, pub.sent[0].event.DecodeData(&data))
	assert.NotNil(t, data.Entries)
	assert.Empty(t, data.Entries)
	assert.Equal(t, OperationRemove, data.Operation)
}

func TestNotify_PublishesNotification(t *testing.T) {
	pub := &fakePublisher{}
	var n notify.Notifier = newTestProducer(pub)

	require.NoError(t, n.Notify(context.Background(), notify.StockExceeded(7)))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, TopicCartNotification, pub.sent[0].topic)
	assert.Empty(t, pub.sent[0].event.CorrelationID)
	assert.JSONEq(t, `{
		"storage_key":"@RocketShoes:cart",
		"level":"error",
		"code":"STOCK_EXCEEDED",
		"message":"Requested quantity is out of stock",
		"product_id":7
	}`, string(pub.sent[0].event.Data))
}

func TestPublish_Error(t *testing.T) {
	pub := &fakePublisher{err: assert.AnError}
	p := newTestProducer(pub)

	err := p.PublishCartUpdated(context.Background(), OperationUpdate, 1, domain.Cart{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "publish rocketshoes.cart.updated event")

	err = p.Notify(context.Background(), notify.AddFailed(1))
	assert.ErrorIs(t, err, assert.AnError)
}
