package repository

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/bytedance/sonic"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
)

// Topics maps ledger channels to Kafka topics.
type Topics map[entity.Kind]string

// Events writes ledger event batches, one message per batch. It is what a
// ledger bridge (or the fake ledger) uses to feed the aggregator.
type Events struct {
	producer sarama.SyncProducer
	topics   Topics
}

func NewEvents(producer sarama.SyncProducer, topics Topics) *Events {
	return &Events{producer: producer, topics: topics}
}

func (e *Events) Publish(ctx context.Context, kind entity.Kind, key string, batch any) error {
	topic, ok := e.topics[kind]
	if !ok {
		return fmt.Errorf("no topic for channel %s", kind)
	}

	js, err := sonic.Marshal(batch)
	if err != nil {
		return fmt.Errorf("json marshal %s batch: %w", kind, err)
	}

	_, _, err = e.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(js),
	})
	if err != nil {
		return fmt.Errorf("send %s batch to kafka: %w", kind, err)
	}

	return nil
}
