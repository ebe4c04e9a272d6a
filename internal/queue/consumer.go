package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/omkarjadhav/lokvarta/internal/sms"
)

// StartOtpConsumer connects to the broker, declares the otp.dispatch
// queue and delivers each event through the SMS gateway. It runs a
// reconnect loop with capped backoff and keeps running until the process
// exits; failed deliveries are rejected without requeue so a poisoned
// message cannot spin the consumer.
func StartOtpConsumer(url string, sender sms.Sender) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			slog.Warn("otp consumer: broker dial failed", slog.Any("error", err), slog.Duration("retry_in", backoff))
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, sender); err != nil {
			slog.Warn("otp consumer: consume loop ended", slog.Any("error", err))
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, sender sms.Sender) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		slog.Warn("otp consumer: set QoS failed", slog.Any("error", err))
	}
	if _, err := ch.QueueDeclare(OtpQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(OtpQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleDelivery(d.Body, sender); err != nil {
			// Log the phone, never the code.
			slog.Warn("otp consumer: delivery failed", slog.Any("error", err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleDelivery(body []byte, sender sms.Sender) error {
	var ev OtpRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := sender.Send(ctx, ev.Phone, ev.Code); err != nil {
		return fmt.Errorf("send to %s: %w", ev.Phone, err)
	}
	return nil
}
