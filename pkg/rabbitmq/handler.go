package rabbitmq

import (
	"context"
	"encoding/json"

	"komonitor/internals/modules/monitor"
	"komonitor/internals/modules/runner"
	"komonitor/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

type BatchRunner interface {
	RunBatch(ctx context.Context, monitors []monitor.Monitor) runner.BatchResult
}

type EventHandler struct {
	runner    BatchRunner
	validator *validator.Validate
	logger    *zerolog.Logger
}

func NewEventHandler(r BatchRunner, v *validator.Validate, logger *zerolog.Logger) *EventHandler {
	return &EventHandler{
		runner:    r,
		validator: v,
		logger:    logger,
	}
}

func (h *EventHandler) Handle(ctx context.Context, msg amqp091.Delivery) error {
	batch, ok, err := h.Decode(msg.Body)
	if err != nil || !ok {
		return err
	}

	res := h.runner.RunBatch(ctx, batch)
	h.logger.Info().
		Str("message_id", msg.MessageId).
		Int("jobs", res.Jobs).
		Dur("duration", res.Duration).
		Msg("batch message processed")
	return nil
}

// Decode parses and validates a batch event. Invalid monitors are logged
// and left out; the event fails only when none is runnable. ok is false for
// events of other types, which are ignored.
func (h *EventHandler) Decode(body []byte) (batch []monitor.Monitor, ok bool, err error) {
	const op string = "broker.rabbitmq.decode_batch"

	var event EventPayload
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, false, &apperror.Error{Kind: apperror.InvalidInput, Op: op, Err: err, Message: "malformed event"}
	}

	if event.Type != EventUptimeBatch {
		h.logger.Debug().Str("type", event.Type).Msg("ignoring unknown event")
		return nil, false, nil
	}

	if err := json.Unmarshal(event.Payload, &batch); err != nil {
		return nil, false, &apperror.Error{Kind: apperror.InvalidInput, Op: op, Err: err, Message: "malformed batch payload"}
	}

	valid, err := monitor.ValidateBatch(h.validator, batch)
	if err != nil {
		if len(valid) == 0 {
			return nil, false, err
		}
		h.logger.Warn().
			Err(err).
			Int("rejected", len(batch)-len(valid)).
			Int("accepted", len(valid)).
			Msg("dropping invalid monitors from batch")
	}
	return valid, true, nil
}
