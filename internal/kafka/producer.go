package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dhoini/Stars-subscription-service/internal/models"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Producer определяет интерфейс для публикации событий о выданных подписках.
type Producer interface {
	// PublishGrantEvent отправляет событие о выданном продлении подписки.
	// Ключом сообщения служит UserID: все события одного пользователя
	// попадают в одну партицию и сохраняют порядок.
	PublishGrantEvent(ctx context.Context, event models.GrantEvent) error
	// Close закрывает соединение продюсера Kafka.
	Close() error
}

// kafkaProducer реализует интерфейс Producer, используя segmentio/kafka-go.
type kafkaProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaProducer создает и настраивает новый продюсер Kafka.
func NewKafkaProducer(brokers []string, topic string, log *logger.Logger) (Producer, error) {
	if len(brokers) == 0 {
		log.Errorw("Kafka brokers list is empty in config, cannot create producer")
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Infow("Kafka producer initialized", "brokers", brokers, "topic", topic)

	return &kafkaProducer{
		writer: writer,
		log:    log,
	}, nil
}

// PublishGrantEvent сериализует событие в JSON и отправляет в Kafka.
func (k *kafkaProducer) PublishGrantEvent(ctx context.Context, event models.GrantEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		k.log.Errorw("Failed to marshal grant event for Kafka", "error", err, "eventID", event.EventID)
		return fmt.Errorf("kafka: failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.UserID, 10)),
		Value: value,
		Time:  time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(writeCtx, message); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			k.log.Errorw("Kafka write timeout exceeded", "error", err, "eventID", event.EventID)
			return fmt.Errorf("kafka: write timeout: %w", err)
		}
		k.log.Errorw("Failed to write message to Kafka", "error", err, "eventID", event.EventID)
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debugw("Grant event published to Kafka", "eventID", event.EventID, "userID", event.UserID)
	return nil
}

// Close закрывает соединение Kafka Writer.
func (k *kafkaProducer) Close() error {
	if err := k.writer.Close(); err != nil {
		k.log.Errorw("Failed to close Kafka writer", "error", err)
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	return nil
}
