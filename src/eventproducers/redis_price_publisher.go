package eventproducers

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/crypto-sim/src/eventpubsub"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const redisWriteTimeout = 2 * time.Second

type RedisPriceClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPricePublisher keeps the latest price per symbol in one hash and
// publishes each tick on <key>:<symbol>.
type RedisPricePublisher struct {
	client RedisPriceClient
	key    string
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func NewRedisPricePublisher(client RedisPriceClient, key string) *RedisPricePublisher {
	return &RedisPricePublisher{client: client, key: key}
}

func (p *RedisPricePublisher) Channel(symbol string) string {
	return fmt.Sprintf("%s:%s", p.key, symbol)
}

func (p *RedisPricePublisher) Publish(ctx context.Context, event *models.PriceUpdatedEvent) error {
	price := event.Price.String()

	if err := p.client.HSet(ctx, p.key, event.Symbol, price).Err(); err != nil {
		return fmt.Errorf("RedisPricePublisher: hset %s: %w", event.Symbol, err)
	}

	if err := p.client.Publish(ctx, p.Channel(event.Symbol), price).Err(); err != nil {
		return fmt.Errorf("RedisPricePublisher: publish %s: %w", event.Symbol, err)
	}

	return nil
}

func (p *RedisPricePublisher) OnPriceUpdated(event *models.PriceUpdatedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), redisWriteTimeout)
	defer cancel()

	if err := p.Publish(ctx, event); err != nil {
		log.Warn(err)
	}
}

func (p *RedisPricePublisher) Subscribe() error {
	if err := eventpubsub.Subscribe(eventpubsub.PriceUpdatedEvent, p.OnPriceUpdated); err != nil {
		return fmt.Errorf("RedisPricePublisher: %w", err)
	}

	return nil
}
