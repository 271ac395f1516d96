package notify

import (
	"context"
	"encoding/json"
	"time"

	"retail_service/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// messageWriter is the slice of kafka.Writer the notifier needs; tests swap in
// a fake.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type envelope struct {
	writer messageWriter
	topic  string
	key    string
	value  []byte
}

type Config struct {
	Brokers         []string
	OrderTopic      string
	StockTopic      string
	DeadLetterTopic string
	BufferSize      int
	MaxAttempts     int
	RetryBackoff    time.Duration
}

// KafkaNotifier delivers notification messages asynchronously. Emit methods
// enqueue and return immediately; the Run loop owns delivery, retries, and the
// dead-letter fallback. Nothing here can fail the mutation that emitted the
// message.
type KafkaNotifier struct {
	orderWriter      messageWriter
	stockWriter      messageWriter
	deadLetterWriter messageWriter
	orderTopic       string
	stockTopic       string
	queue            chan envelope
	maxAttempts      int
	retryBackoff     time.Duration
	log              *logrus.Logger
}

func NewKafkaNotifier(cfg Config, logger *logrus.Logger) *KafkaNotifier {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}

	return &KafkaNotifier{
		orderWriter:      newWriter(cfg.Brokers, cfg.OrderTopic),
		stockWriter:      newWriter(cfg.Brokers, cfg.StockTopic),
		deadLetterWriter: newWriter(cfg.Brokers, cfg.DeadLetterTopic),
		orderTopic:       cfg.OrderTopic,
		stockTopic:       cfg.StockTopic,
		queue:            make(chan envelope, cfg.BufferSize),
		maxAttempts:      cfg.MaxAttempts,
		retryBackoff:     cfg.RetryBackoff,
		log:              logger,
	}
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		Compression:  kafka.Snappy,
	}
}

func (n *KafkaNotifier) EmitOrderStatus(msg domain.OrderStatusMessage) {
	n.enqueue(n.orderWriter, n.orderTopic, msg.OrderID, msg)
}

func (n *KafkaNotifier) EmitStockUpdate(msg domain.StockUpdateMessage) {
	n.enqueue(n.stockWriter, n.stockTopic, msg.ProductID, msg)
}

func (n *KafkaNotifier) enqueue(w messageWriter, topic, key string, msg interface{}) {
	value, err := json.Marshal(msg)
	if err != nil {
		n.log.Errorf("Failed to encode notification for topic %s: %v", topic, err)
		return
	}

	select {
	case n.queue <- envelope{writer: w, topic: topic, key: key, value: value}:
	default:
		// A saturated queue must not block the commit path.
		n.log.Errorf("Notification queue full, dropping message for topic %s (key: %s)", topic, key)
	}
}

// Run drains the queue until ctx is cancelled, then flushes whatever is left.
func (n *KafkaNotifier) Run(ctx context.Context) error {
	n.log.Info("Notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			n.log.Info("Notification dispatcher stopping, flushing queue")
			n.flush()
			return ctx.Err()
		case env := <-n.queue:
			n.deliver(ctx, env)
		}
	}
}

func (n *KafkaNotifier) flush() {
	for {
		select {
		case env := <-n.queue:
			n.deliver(context.Background(), env)
		default:
			return
		}
	}
}

func (n *KafkaNotifier) deliver(ctx context.Context, env envelope) {
	kafkaMsg := kafka.Message{Key: []byte(env.key), Value: env.value}

	var err error
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = env.writer.WriteMessages(writeCtx, kafkaMsg)
		cancel()
		if err == nil {
			return
		}
		n.log.Warnf("Delivery attempt %d/%d failed for topic %s: %v", attempt, n.maxAttempts, env.topic, err)
		if attempt < n.maxAttempts {
			select {
			case <-ctx.Done():
				n.log.Errorf("Delivery aborted for topic %s: %v", env.topic, ctx.Err())
				return
			case <-time.After(n.retryBackoff * time.Duration(attempt)):
			}
		}
	}

	n.log.Errorf("Delivery exhausted for topic %s (key: %s), routing to dead letter: %v", env.topic, env.key, err)
	dlCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dlMsg := kafka.Message{
		Key:   []byte(env.key),
		Value: env.value,
		Headers: []kafka.Header{
			{Key: "original-topic", Value: []byte(env.topic)},
		},
	}
	if dlErr := n.deadLetterWriter.WriteMessages(dlCtx, dlMsg); dlErr != nil {
		n.log.Errorf("Dead letter write failed for topic %s (key: %s): %v", env.topic, env.key, dlErr)
	}
}

func (n *KafkaNotifier) Close() error {
	var firstErr error
	for _, w := range []messageWriter{n.orderWriter, n.stockWriter, n.deadLetterWriter} {
		if closer, ok := w.(*kafka.Writer); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
