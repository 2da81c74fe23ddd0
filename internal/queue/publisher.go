package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Publisher sends reservation events to RabbitMQ.  Each publish dials its own
// connection so a broker outage never leaves a broken channel behind.
type Publisher struct {
	URL string
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishReservationConfirmed publishes ev to ReservationQueue as a
// persistent message.  Errors are logged and returned; checkout treats them
// as non-fatal.
func (p *Publisher) PublishReservationConfirmed(ctx context.Context, ev StallReservationConfirmed) error {
	logger := log.WithFields(log.Fields{"queue": ReservationQueue, "reservation_id": ev.ReservationID})

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		logger.WithError(err).Warn("rabbitmq dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Warn("rabbitmq channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(ReservationQueue, true, false, false, false, nil); err != nil {
		logger.WithError(err).Warn("rabbitmq queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", ReservationQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}); err != nil {
		logger.WithError(err).Warn("rabbitmq publish failed")
		return err
	}
	return nil
}
