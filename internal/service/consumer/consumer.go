package consumer

import (
	"context"
	"fmt"
	"slices"

	"github.com/IBM/sarama"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/pkg/utils"
	"go.uber.org/zap"
)

// Consumer delivers ledger event batches from Kafka onto the bus, one bus
// event per message.
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       Handler
	logger        *zap.Logger
}

func NewConsumer(client sarama.Client, group string, topics map[entity.Kind]string, eBus Emitter, clock utils.Clock, logger *zap.Logger) (*Consumer, error) {
	cons, err := sarama.NewConsumerGroupFromClient(group, client)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &Consumer{
		consumerGroup: cons,
		handler:       NewHandler(topics, eBus, clock, logger),
		logger:        logger,
	}, nil
}

func (c *Consumer) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.consumerGroup.Close()

	errs := make(chan error, 1)

	go func() {
		for {
			if err := c.consumerGroup.Consume(ctx, c.handler.topics(), c.handler); err != nil {
				errs <- err
				return
			}

			if ctx.Err() != nil {
				errs <- ctx.Err()
				return
			}
			c.logger.Info("consumer group rebalanced")
		}
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("consumer error: %w", err)
	case err := <-c.consumerGroup.Errors():
		return fmt.Errorf("consumerGroup error: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("consumer: %w", ctx.Err())
	}
}

func sortedTopics(topics map[string]entity.Kind) []string {
	out := make([]string, 0, len(topics))
	for topic := range topics {
		out = append(out, topic)
	}
	slices.Sort(out)
	return out
}
