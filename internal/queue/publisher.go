package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes OTP dispatch events. It dials per publish so a
// broker restart between requests never leaves a dead channel behind;
// auth traffic is low enough that this costs nothing measurable.
//
// Publisher satisfies the orchestrator's OtpSender contract.
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// SendOtp publishes an OtpRequestedEvent to the durable otp.dispatch
// queue. Messages are marked persistent so codes survive a broker
// restart within their validity window.
func (p *Publisher) SendOtp(ctx context.Context, phone, code string) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		slog.Error("otp publisher: dial failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Error("otp publisher: channel open failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare so publisher and consumer can start in any order.
	if _, err := ch.QueueDeclare(OtpQueueName, true, false, false, false, nil); err != nil {
		slog.Error("otp publisher: queue declare failed", slog.Any("error", err))
		return err
	}

	body, err := json.Marshal(OtpRequestedEvent{
		Phone:       phone,
		Code:        code,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", OtpQueueName, false, false, pub); err != nil {
		slog.Error("otp publisher: publish failed", slog.Any("error", err))
		return err
	}
	return nil
}
