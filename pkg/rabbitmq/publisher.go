package rabbitmq

import (
	"context"
	"errors"

	"komonitor/pkg/apperror"

	"github.com/rabbitmq/amqp091-go"
)

var ErrNotConfirmed = errors.New("broker did not confirm message")

type Publisher struct {
	ch         *amqp091.Channel // AMQP channel in confirm mode
	exchange   string           // Exchange to publish messages to
	routingKey string           // Routing key for the messages
}

func NewPublisher(conn *amqp091.Connection, exchange, routingKey string) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("AMQP connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, err
	}

	return &Publisher{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// Publish sends body and waits for the broker confirm, bounded by ctx.
// Safe for concurrent use; every message carries its own deferred confirm.
func (p *Publisher) Publish(ctx context.Context, body []byte) error {
	const op string = "broker.rabbitmq.publish"

	if p.ch == nil {
		return apperror.New(apperror.BrokerErr, op, errors.New("AMQP channel is nil"))
	}

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return apperror.New(apperror.BrokerErr, op, err)
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return apperror.New(apperror.BrokerErr, op, err)
	}
	if !acked {
		return apperror.New(apperror.BrokerErr, op, ErrNotConfirmed)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
