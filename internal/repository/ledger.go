package repository

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
)

const commandHeader = "command"

// Command is the message the ledger bridge reads from the commands topic.
type Command struct {
	ID       uuid.UUID          `json:"id"`
	Contract string             `json:"contract"`
	Function entity.CommandKind `json:"function"`
	Args     any                `json:"args"`
}

// Ledger publishes write commands for the ledger contract. A command is
// resolved once the broker acknowledged it.
type Ledger struct {
	producer sarama.SyncProducer
	topic    string
	contract string
}

func NewLedger(producer sarama.SyncProducer, topic, contract string) *Ledger {
	return &Ledger{producer: producer, topic: topic, contract: contract}
}

func (l *Ledger) CreateInvoice(ctx context.Context, cmd entity.CreateInvoice) error {
	return l.send(ctx, entity.CommandCreateInvoice, cmd)
}

func (l *Ledger) UpdateInventory(ctx context.Context, cmd entity.UpdateInventory) error {
	return l.send(ctx, entity.CommandUpdateInventory, cmd)
}

func (l *Ledger) send(ctx context.Context, kind entity.CommandKind, args any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("command id: %w", err)
	}

	js, err := sonic.Marshal(Command{
		ID:       id,
		Contract: l.contract,
		Function: kind,
		Args:     args,
	})
	if err != nil {
		return fmt.Errorf("json marshal command: %w", err)
	}

	_, _, err = l.producer.SendMessage(&sarama.ProducerMessage{
		Topic: l.topic,
		Key:   sarama.StringEncoder(id.String()),
		Value: sarama.ByteEncoder(js),
		Headers: []sarama.RecordHeader{{
			Key:   []byte(commandHeader),
			Value: []byte(kind),
		}},
	})
	if err != nil {
		return fmt.Errorf("send %s to kafka: %w", kind, err)
	}

	return nil
}
