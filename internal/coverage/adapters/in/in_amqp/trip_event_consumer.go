package in_amqp

import (
	"context"
	"encoding/json"
	"errors"

	amqp091 "github.com/rabbitmq/amqp091-go"

	in "ridecover/internal/coverage/application/ports/in"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/model"
	"ridecover/internal/shared/logger"
	"ridecover/internal/shared/mq"
)

// Consumer — часть *mq.RabbitMQ, нужная для чтения очередей
type Consumer interface {
	Consume(ctx context.Context, queue, consumer string, handler func(amqp091.Delivery)) error
}

type disposition int

const (
	ack disposition = iota
	requeue
	drop
)

// tripEvent — общие поля событий ride_topic и driver_topic
type tripEvent struct {
	DriverID string `json:"driver_id"`
	RideID   string `json:"ride_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// TripEventConsumer пересчитывает страховой период при изменении поездки или статуса водителя.
// Водитель, вышедший на смену без инициализированного SDK, запускает setup.
type TripEventConsumer struct {
	mq           Consumer
	updatePeriod in.UpdatePeriodUseCase
	setup        in.SetupUseCase
	log          *logger.Logger
}

func NewTripEventConsumer(
	consumer Consumer,
	updatePeriod in.UpdatePeriodUseCase,
	setup in.SetupUseCase,
	log *logger.Logger,
) *TripEventConsumer {
	return &TripEventConsumer{
		mq:           consumer,
		updatePeriod: updatePeriod,
		setup:        setup,
		log:          log,
	}
}

func (c *TripEventConsumer) Start(ctx context.Context) error {
	c.log.Info(logger.Entry{
		Action:  "trip_event_consumer_starting",
		Message: "starting coverage trip event consumers",
	})

	for _, q := range []string{mq.QueueCoverageRideEvents, mq.QueueCoverageDriverStatus} {
		if err := c.mq.Consume(ctx, q, "coverage-service", func(msg amqp091.Delivery) {
			switch c.handle(ctx, q, msg.RoutingKey, msg.Body) {
			case ack:
				_ = msg.Ack(false)
			case requeue:
				_ = msg.Nack(false, true)
			case drop:
				_ = msg.Nack(false, false)
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *TripEventConsumer) handle(ctx context.Context, queue, routingKey string, body []byte) disposition {
	var ev tripEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		c.log.Error(logger.Entry{
			Action:  "trip_event_unmarshal_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"queue": queue,
			},
		})
		return drop
	}
	if ev.DriverID == "" {
		c.log.Debug(logger.Entry{
			Action:  "trip_event_without_driver",
			Message: routingKey,
			Additional: map[string]any{
				"ride_id": ev.RideID,
			},
		})
		return ack
	}

	log := c.log.WithFields(map[string]any{
		"driver_id":   ev.DriverID,
		"routing_key": routingKey,
	})

	state := c.setup.State(ev.DriverID)
	if queue == mq.QueueCoverageDriverStatus && model.IsOnDuty(ev.Status) &&
		(state == domain.SetupUninitialized || state == domain.SetupFailed) {
		if _, err := c.setup.Setup(ctx, in.SetupInput{DriverID: ev.DriverID}); err != nil {
			log.Error(logger.Entry{
				Action:  "trip_event_setup_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
		// setup сам назначит начальный период
		return ack
	}

	if state != domain.SetupReady {
		log.Debug(logger.Entry{
			Action:  "trip_event_sdk_not_ready",
			Message: string(state),
		})
		return ack
	}

	_, err := c.updatePeriod.Execute(ctx, in.UpdatePeriodInput{DriverID: ev.DriverID, Reason: "event"})
	switch {
	case err == nil:
		return ack
	case errors.Is(err, domain.ErrUnknownDriver):
		log.Warn(logger.Entry{
			Action:  "trip_event_unknown_driver",
			Message: err.Error(),
		})
		return ack
	default:
		// БД недоступна: вернём событие в очередь
		log.Error(logger.Entry{
			Action:  "trip_event_update_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return requeue
	}
}
