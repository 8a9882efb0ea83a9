package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ridecover/internal/shared/config"
	"ridecover/internal/shared/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrChannelUnavailable = errors.New("rabbitmq channel not available")

// Publisher — то, что нужно адаптерам для публикации событий
type Publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// RetryPolicy — параметры переподключения
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Factor      float64
}

// DefaultRetry: 10 попыток, задержка растёт в 1.5 раза, не более 30s
var DefaultRetry = RetryPolicy{MaxAttempts: 10, Initial: time.Second, Max: 30 * time.Second, Factor: 1.5}

// next returns the delay after d.
func (p RetryPolicy) next(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * p.Factor)
	if d > p.Max {
		d = p.Max
	}
	return d
}

// RabbitMQ — подключение с одним каналом и повтором при старте
type RabbitMQ struct {
	url      string
	prefetch int
	conn     *amqp.Connection
	ch       *amqp.Channel
	log      *logger.Logger
	mu       sync.RWMutex
	closed   bool
}

// NewRabbitMQ подключается к брокеру, повторяя попытки по DefaultRetry
func NewRabbitMQ(ctx context.Context, cfg config.MQConfig, log *logger.Logger) (*RabbitMQ, error) {
	return Dial(ctx, cfg, DefaultRetry, log)
}

func Dial(ctx context.Context, cfg config.MQConfig, policy RetryPolicy, log *logger.Logger) (*RabbitMQ, error) {
	mq := &RabbitMQ{
		url:      cfg.AMQPURL(),
		prefetch: 10,
		log:      log,
	}

	delay := policy.Initial
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		log.Info(logger.Entry{
			Action:  "rabbitmq_connection_attempt",
			Message: fmt.Sprintf("attempt %d/%d", attempt, policy.MaxAttempts),
			Additional: map[string]any{
				"host": cfg.Host,
				"port": cfg.Port,
			},
		})

		lastErr = mq.connect()
		if lastErr == nil {
			log.Info(logger.Entry{
				Action:  "rabbitmq_connected",
				Message: fmt.Sprintf("connected to %s:%d", cfg.Host, cfg.Port),
				Additional: map[string]any{
					"attempt": attempt,
				},
			})
			return mq, nil
		}

		log.Warn(logger.Entry{
			Action:  "rabbitmq_connection_attempt_failed",
			Message: lastErr.Error(),
			Error:   &logger.ErrObj{Msg: lastErr.Error()},
			Additional: map[string]any{
				"attempt":      attempt,
				"retry_in_sec": delay.Seconds(),
			},
		})

		if attempt == policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay = policy.next(delay)
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", policy.MaxAttempts, lastErr)
}

func (mq *RabbitMQ) connect() error {
	conn, err := amqp.Dial(mq.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.Qos(mq.prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("set qos: %w", err)
	}

	mq.mu.Lock()
	mq.conn = conn
	mq.ch = ch
	mq.mu.Unlock()

	return nil
}

func (mq *RabbitMQ) Channel() *amqp.Channel {
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	return mq.ch
}

// Publish отправляет persistent JSON сообщение с таймаутом 5s
func (mq *RabbitMQ) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	ch := mq.Channel()
	if ch == nil {
		return ErrChannelUnavailable
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return ch.PublishWithContext(
		publishCtx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}

// PublishJSON marshals v and publishes it.
func PublishJSON(ctx context.Context, p Publisher, exchange, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}
	return p.Publish(ctx, exchange, routingKey, body)
}

// Consume читает очередь с ручным ack и вызывает handler в отдельной горутине
func (mq *RabbitMQ) Consume(ctx context.Context, queue, consumer string, handler func(amqp.Delivery)) error {
	ch := mq.Channel()
	if ch == nil {
		return ErrChannelUnavailable
	}

	msgs, err := ch.Consume(
		queue,
		consumer,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming %s: %w", queue, err)
	}

	mq.log.Info(logger.Entry{
		Action:  "consumer_started",
		Message: fmt.Sprintf("consuming from queue: %s", queue),
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					mq.log.Info(logger.Entry{
						Action:  "consumer_stopped",
						Message: queue,
					})
					return
				}
				handler(msg)
			}
		}
	}()

	return nil
}

func (mq *RabbitMQ) Close() {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return
	}
	mq.closed = true

	if mq.ch != nil {
		_ = mq.ch.Close()
	}
	if mq.conn != nil {
		_ = mq.conn.Close()
	}

	mq.log.Info(logger.Entry{Action: "rabbitmq_closed", Message: "connection closed"})
}
