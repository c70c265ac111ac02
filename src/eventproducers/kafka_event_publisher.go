package eventproducers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/crypto-sim/src/eventpubsub"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const kafkaWriteTimeout = 5 * time.Second

type KafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEnvelope is the JSON value of every message; the key is the symbol.
type KafkaEnvelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sentAt"`
}

// KafkaEventPublisher forwards bus events to a Kafka topic.
type KafkaEventPublisher struct {
	writer KafkaMessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

func NewKafkaEventPublisher(writer KafkaMessageWriter) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

func (p *KafkaEventPublisher) publish(eventType, key string, payload interface{}) error {
	value, err := json.Marshal(&KafkaEnvelope{
		Type:    eventType,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("KafkaEventPublisher: marshal %s: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), kafkaWriteTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("KafkaEventPublisher: write %s: %w", eventType, err)
	}

	return nil
}

func (p *KafkaEventPublisher) OnPriceUpdated(event *models.PriceUpdatedEvent) {
	if err := p.publish(eventpubsub.PriceUpdatedEvent, event.Symbol, event); err != nil {
		log.Warn(err)
	}
}

func (p *KafkaEventPublisher) OnTradeExecuted(event *models.TradeExecutedEvent) {
	if err := p.publish(eventpubsub.TradeExecutedEvent, event.Result.Symbol, event); err != nil {
		log.Warn(err)
	}
}

func (p *KafkaEventPublisher) Subscribe() error {
	if err := eventpubsub.Subscribe(eventpubsub.PriceUpdatedEvent, p.OnPriceUpdated); err != nil {
		return fmt.Errorf("KafkaEventPublisher: %w", err)
	}

	if err := eventpubsub.Subscribe(eventpubsub.TradeExecutedEvent, p.OnTradeExecuted); err != nil {
		return fmt.Errorf("KafkaEventPublisher: %w", err)
	}

	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(brokers []string) []string {
	var out []string
	for _, b := range brokers {
		for _, part := range strings.Split(b, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
