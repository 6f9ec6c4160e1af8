package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"
)

// KafkaProducer publishes task messages to a Kafka topic, keyed by task id
// so retries of the same task land on the same partition.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaProducer connects a synchronous producer to the given brokers.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{producer: p, topic: topic}, nil
}

func (p *KafkaProducer) Enqueue(ctx context.Context, msg TaskMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.TaskID),
		Value: sarama.ByteEncoder(data),
	})
	return err
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

// KafkaConsumer drives a handler from a consumer group. The group enforces
// at-most-one active claim per message; redelivery after a crash still
// means at-least-once overall.
type KafkaConsumer struct {
	consumer sarama.ConsumerGroup
	topic    string
	logger   *slog.Logger
}

// NewKafkaConsumer joins the given consumer group on the brokers.
func NewKafkaConsumer(brokers []string, groupID, topic string, logger *slog.Logger) (*KafkaConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	c, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &KafkaConsumer{consumer: c, topic: topic, logger: logger}, nil
}

type groupHandler struct {
	fn     Handler
	ctx    context.Context
	logger *slog.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var taskMsg TaskMessage
		if err := json.Unmarshal(msg.Value, &taskMsg); err != nil {
			h.logger.Error("dropping undecodable task message", "error", err)
			session.MarkMessage(msg, "")
			continue
		}
		h.fn(h.ctx, taskMsg)
		session.MarkMessage(msg, "")
	}
	return nil
}

// Consume rejoins the group each time the broker rebalances, until ctx is
// cancelled.
func (c *KafkaConsumer) Consume(ctx context.Context, handler Handler) error {
	h := &groupHandler{fn: handler, ctx: ctx, logger: c.logger}
	for {
		if err := c.consumer.Consume(ctx, []string{c.topic}, h); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.consumer.Close()
}
