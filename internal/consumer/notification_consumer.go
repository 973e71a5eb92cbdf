package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/slotify/slotify/internal/models"
	"github.com/slotify/slotify/internal/repository"
)

const (
	storeTimeout  = 5 * time.Second
	minRetryDelay = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

// NotificationConsumer turns reservation lifecycle messages into stored
// customer notifications. Redelivered messages are recognised by message id.
type NotificationConsumer struct {
	repo repository.NotificationRepository

	// Consecutive store failures; messages are handled one at a time.
	failures int
	sleep    func(time.Duration)
}

func NewNotificationConsumer(repo repository.NotificationRepository) *NotificationConsumer {
	return &NotificationConsumer{repo: repo, sleep: time.Sleep}
}

// Start handles messages until msgs is closed.
func (nc *NotificationConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			nc.handleMessage(msg)
		}
		log.Println("[NotificationConsumer] channel closed, stopping consumer")
	}()
}

func (nc *NotificationConsumer) handleMessage(msg amqp.Delivery) {
	var event models.ReservationEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("[NotificationConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	messageID := msg.MessageId
	if messageID == "" {
		messageID = fmt.Sprintf("%s:%d:%s", msg.RoutingKey, event.ReservationID, event.Status)
	}

	n := &models.Notification{
		MessageID:     messageID,
		CustomerID:    event.CustomerID,
		ReservationID: event.ReservationID,
		Kind:          msg.RoutingKey,
		Body:          notificationBody(msg.RoutingKey, event),
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	created, err := nc.repo.CreateIfAbsent(ctx, n)
	if err != nil {
		nc.failures++
		delay := retryDelay(nc.failures)
		log.Printf("[NotificationConsumer] failed to store notification for reservation %d, requeue in %s: %v", event.ReservationID, delay, err)
		nc.sleep(delay)
		msg.Nack(false, true) // requeue
		return
	}
	nc.failures = 0

	if created {
		log.Printf("[NotificationConsumer] %s for reservation %d (customer %s)", msg.RoutingKey, event.ReservationID, event.CustomerID)
	} else {
		log.Printf("[NotificationConsumer] duplicate message %s ignored", messageID)
	}
	msg.Ack(false)
}

// retryDelay doubles from minRetryDelay with each consecutive failure, capped
// at maxRetryDelay.
func retryDelay(failures int) time.Duration {
	d := minRetryDelay
	for i := 1; i < failures && d < maxRetryDelay; i++ {
		d *= 2
	}
	return min(d, maxRetryDelay)
}

func notificationBody(routingKey string, e models.ReservationEvent) string {
	switch routingKey {
	case models.EventReservationCreated:
		return fmt.Sprintf("Your reservation #%d for %d on slot %d is pending confirmation.", e.ReservationID, e.PartySize, e.SlotID)
	case models.EventReservationConfirmed:
		return fmt.Sprintf("Your reservation #%d on slot %d is confirmed.", e.ReservationID, e.SlotID)
	case models.EventReservationCancelled:
		return fmt.Sprintf("Your reservation #%d on slot %d was cancelled.", e.ReservationID, e.SlotID)
	default:
		return fmt.Sprintf("Reservation #%d is now %s.", e.ReservationID, e.Status)
	}
}
