package eventproducers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/crypto-sim/src/eventpubsub"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

type fakeKafkaWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}

	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeKafkaWriter) Close() error {
	return nil
}

type fakeRedis struct {
	hash      map[string]string
	published map[string][]string
	err       error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hash: map[string]string{}, published: map[string][]string{}}
}

func (r *fakeRedis) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if r.err != nil {
		return redis.NewIntResult(0, r.err)
	}

	for i := 0; i+1 < len(values); i += 2 {
		r.hash[key+"/"+fmt.Sprint(values[i])] = fmt.Sprint(values[i+1])
	}

	return redis.NewIntResult(1, nil)
}

func (r *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	r.published[channel] = append(r.published[channel], fmt.Sprint(message))
	return redis.NewIntResult(0, nil)
}

func priceEvent(symbol, price string) *models.PriceUpdatedEvent {
	return &models.PriceUpdatedEvent{
		Symbol:    symbol,
		Price:     decimal.RequireFromString(price),
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestKafkaEventPublisher(t *testing.T) {
	t.Run("Price events are keyed by symbol", func(t *testing.T) {
		writer := &fakeKafkaWriter{}
		publisher := NewKafkaEventPublisher(writer)

		publisher.OnPriceUpdated(priceEvent("ZOR", "12.6001"))

		require.Len(t, writer.messages, 1)
		assert.Equal(t, "ZOR", string(writer.messages[0].Key))

		var envelope struct {
			Type    string                   `json:"type"`
			Payload models.PriceUpdatedEvent `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(writer.messages[0].Value, &envelope))
		assert.Equal(t, eventpubsub.PriceUpdatedEvent, envelope.Type)
		assert.True(t, envelope.Payload.Price.Equal(decimal.RequireFromString("12.6001")))
	})

	t.Run("Trade events are keyed by the traded symbol", func(t *testing.T) {
		writer := &fakeKafkaWriter{}
		publisher := NewKafkaEventPublisher(writer)

		publisher.OnTradeExecuted(&models.TradeExecutedEvent{UserID: 3, Result: &models.TradeResult{Symbol: "NEB"}})

		require.Len(t, writer.messages, 1)
		assert.Equal(t, "NEB", string(writer.messages[0].Key))
	})

	t.Run("Write failures are not fatal", func(t *testing.T) {
		writer := &fakeKafkaWriter{err: fmt.Errorf("broker down")}
		publisher := NewKafkaEventPublisher(writer)

		assert.NotPanics(t, func() { publisher.OnPriceUpdated(priceEvent("ZOR", "1")) })
		assert.Error(t, publisher.publish(eventpubsub.PriceUpdatedEvent, "ZOR", priceEvent("ZOR", "1")))
	})

	t.Run("Receives events from the bus", func(t *testing.T) {
		eventpubsub.Init()
		defer eventpubsub.Init()

		writer := &fakeKafkaWriter{}
		require.NoError(t, NewKafkaEventPublisher(writer).Subscribe())

		eventpubsub.Publish(eventpubsub.PriceUpdatedEvent, priceEvent("LUM", "45.1"))
		eventpubsub.WaitAsync()

		writer.mu.Lock()
		defer writer.mu.Unlock()
		assert.Len(t, writer.messages, 1)
	})
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers([]string{" a:9092 ,", "b:9092"}))
	assert.Empty(t, ParseBrokers(nil))
}

func TestRedisPricePublisher(t *testing.T) {
	t.Run("Stores the latest price and publishes it", func(t *testing.T) {
		client := newFakeRedis()
		publisher := NewRedisPricePublisher(client, "crypto-sim:prices")

		require.NoError(t, publisher.Publish(context.Background(), priceEvent("ZOR", "12.5")))
		require.NoError(t, publisher.Publish(context.Background(), priceEvent("ZOR", "12.7")))

		assert.Equal(t, "12.7", client.hash["crypto-sim:prices/ZOR"])
		assert.Equal(t, []string{"12.5", "12.7"}, client.published["crypto-sim:prices:ZOR"])
	})

	t.Run("Returns the redis error", func(t *testing.T) {
		client := newFakeRedis()
		client.err = fmt.Errorf("connection refused")

		err := NewRedisPricePublisher(client, "k").Publish(context.Background(), priceEvent("ZOR", "1"))
		assert.ErrorContains(t, err, "connection refused")
		assert.Empty(t, client.published)
	})
}
