package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evreg/lottery-service/internal/domain"
	"github.com/evreg/lottery-service/pkg/kafka"
)

// DeliveryPublisher hands created notifications to the external delivery
// pipeline (push, email). Delivery mechanics live outside this service;
// the publisher only emits the fact that an inbox row exists.
type DeliveryPublisher interface {
	// PublishNotificationCreated publishes a notification created event
	PublishNotificationCreated(ctx context.Context, n *domain.Notification) error

	// Close closes the publisher
	Close() error
}

// notificationEvent is the wire shape of a notification created event
type notificationEvent struct {
	EventType      string    `json:"event_type"`
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	EventID        string    `json:"event_id"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// KafkaDeliveryPublisher implements DeliveryPublisher using Kafka
type KafkaDeliveryPublisher struct {
	producer *kafka.Producer
	topic    string
}

// DeliveryPublisherConfig contains configuration for the delivery publisher
type DeliveryPublisherConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// NewKafkaDeliveryPublisher creates a new Kafka delivery publisher
func NewKafkaDeliveryPublisher(ctx context.Context, cfg *DeliveryPublisherConfig) (*KafkaDeliveryPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("delivery publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "notification.created"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "lottery-service-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaDeliveryPublisher{producer: producer, topic: topic}, nil
}

// PublishNotificationCreated publishes a notification created event, keyed
// by recipient so one user's events stay ordered
func (p *KafkaDeliveryPublisher) PublishNotificationCreated(ctx context.Context, n *domain.Notification) error {
	event := notificationEvent{
		EventType:      "notification.created",
		NotificationID: n.ID,
		UserID:         n.UserID,
		EventID:        n.EventID,
		Category:       n.Category.String(),
		Title:          n.Title,
		OccurredAt:     n.CreatedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := p.producer.Produce(ctx, p.topic, n.UserID, value); err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}
	return nil
}

// Close closes the publisher
func (p *KafkaDeliveryPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// NoOpDeliveryPublisher is a no-op implementation for testing and for
// deployments without Kafka
type NoOpDeliveryPublisher struct{}

// NewNoOpDeliveryPublisher creates a new no-op delivery publisher
func NewNoOpDeliveryPublisher() *NoOpDeliveryPublisher {
	return &NoOpDeliveryPublisher{}
}

// PublishNotificationCreated is a no-op
func (p *NoOpDeliveryPublisher) PublishNotificationCreated(ctx context.Context, n *domain.Notification) error {
	return nil
}

// Close is a no-op
func (p *NoOpDeliveryPublisher) Close() error {
	return nil
}
