package mq

import (
	"context"
	"fmt"

	"ridecover/internal/shared/logger"
)

const (
	ExchangeRide     = "ride_topic"
	ExchangeDriver   = "driver_topic"
	ExchangeCoverage = "coverage_topic"

	// Очереди сервиса покрытия: копии событий поездок и статусов водителя
	QueueCoverageRideEvents   = "coverage.ride_events"
	QueueCoverageDriverStatus = "coverage.driver_status"
)

type binding struct {
	queue      string
	exchange   string
	routingKey string
}

// SetupTopology объявляет exchanges, очереди и привязки сервиса покрытия
func SetupTopology(ctx context.Context, mq *RabbitMQ, log *logger.Logger) error {
	ch := mq.Channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	for _, name := range []string{ExchangeRide, ExchangeDriver, ExchangeCoverage} {
		if err := ch.ExchangeDeclare(
			name,    // name
			"topic", // type
			true,    // durable
			false,   // auto-deleted
			false,   // internal
			false,   // no-wait
			nil,     // args
		); err != nil {
			return fmt.Errorf("declare %s: %w", name, err)
		}
	}

	bindings := []binding{
		{QueueCoverageRideEvents, ExchangeRide, "ride.matched"},
		{QueueCoverageRideEvents, ExchangeRide, "ride.started"},
		{QueueCoverageRideEvents, ExchangeRide, "ride.completed"},
		{QueueCoverageRideEvents, ExchangeRide, "ride.cancelled"},
		{QueueCoverageRideEvents, ExchangeRide, "ride.event"},
		{QueueCoverageRideEvents, ExchangeRide, "ride.status.*"},
		{QueueCoverageDriverStatus, ExchangeDriver, "driver.status.*"},
	}

	declared := map[string]bool{}
	for _, b := range bindings {
		if !declared[b.queue] {
			if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}
			declared[b.queue] = true
		}
		if err := ch.QueueBind(b.queue, b.routingKey, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.routingKey, err)
		}
	}

	log.Info(logger.Entry{
		Action:  "topology_setup_complete",
		Message: "coverage exchanges and queues created",
		Additional: map[string]any{
			"queues": len(declared),
		},
	})

	return nil
}
