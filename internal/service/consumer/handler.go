package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
	"github.com/zamyatin-zkex/baseflow/internal/metrics"
	"github.com/zamyatin-zkex/baseflow/pkg/ebus"
	"github.com/zamyatin-zkex/baseflow/pkg/utils"
	"go.uber.org/zap"
)

var _ sarama.ConsumerGroupHandler = Handler{}

// Emitter is the part of the bus the handler publishes to.
type Emitter interface {
	Emit(ctx context.Context, event any) error
}

type Handler struct {
	channels map[string]entity.Kind
	eBus     Emitter
	clock    utils.Clock
	logger   *zap.Logger
}

func NewHandler(topics map[entity.Kind]string, eBus Emitter, clock utils.Clock, logger *zap.Logger) Handler {
	channels := make(map[string]entity.Kind, len(topics))
	for kind, topic := range topics {
		channels[topic] = kind
	}

	return Handler{
		channels: channels,
		eBus:     eBus,
		clock:    clock,
		logger:   logger,
	}
}

func (h Handler) Setup(session sarama.ConsumerGroupSession) error {
	h.logger.Info("consumer session started", zap.Any("claims", session.Claims()))
	return nil
}

func (h Handler) Cleanup(session sarama.ConsumerGroupSession) error {
	return nil
}

func (h Handler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			errs := make(chan error, 1)
			go func() {
				errs <- h.handle(session.Context(), msg)
			}()
			select {
			case err := <-errs:
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return fmt.Errorf("claim handle: %w", err)
				}
				session.MarkMessage(msg, "")
			case <-session.Context().Done():
				return nil
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h Handler) topics() []string {
	return sortedTopics(h.channels)
}

// handle never fails on bad payloads: those are logged, counted and
// skipped so one broken batch cannot stall the channel.
func (h Handler) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	kind, ok := h.channels[message.Topic]
	if !ok {
		h.logger.Warn("message from unknown topic", zap.String("topic", message.Topic))
		return nil
	}

	batch, err := decode(kind, message.Value, h.clock.Now())
	if err != nil {
		metrics.BatchesMalformed.WithLabelValues(string(kind)).Inc()
		h.logger.Warn("skip malformed batch",
			zap.String("channel", string(kind)),
			zap.Int64("offset", message.Offset),
			zap.Error(err),
		)
		return h.emit(ctx, event.BatchSkipped{Channel: kind, Offset: message.Offset, Reason: err.Error()})
	}

	return h.emit(ctx, batch)
}

// emit tolerates channels nobody is subscribed to.
func (h Handler) emit(ctx context.Context, e any) error {
	err := h.eBus.Emit(ctx, e)
	if errors.Is(err, ebus.ErrNoListeners) {
		return nil
	}
	return err
}
