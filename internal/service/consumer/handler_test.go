package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
	"github.com/zamyatin-zkex/baseflow/pkg/ebus"
	"github.com/zamyatin-zkex/baseflow/pkg/utils"
	"go.uber.org/zap"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var topics = map[entity.Kind]string{
	entity.KindInvoiceCreated:   "invoice-created",
	entity.KindInvoicePaid:      "invoice-paid",
	entity.KindInventoryUpdated: "inventory-updated",
}

type recorder struct {
	events []any
	err    error
}

func (r *recorder) Emit(ctx context.Context, e any) error {
	r.events = append(r.events, e)
	return r.err
}

func newHandler(emitter Emitter) Handler {
	return NewHandler(topics, emitter, &utils.FixedClock{T: now}, zap.NewNop())
}

func TestDecode_InvoiceCreatedBatch(t *testing.T) {
	value := []byte(`[
		{"invoiceId": "1", "merchant": "0xAlice", "customer": "0xBob", "amount": "25000000"},
		{"invoiceId": 2, "merchant": "0xAlice", "customer": "0xCarol", "amount": 7500000}
	]`)

	out, err := decode(entity.KindInvoiceCreated, value, now)
	require.NoError(t, err)

	batch, ok := out.(event.InvoicesCreated)
	require.True(t, ok)
	require.Len(t, batch.Events, 2)

	first := batch.Events[0]
	assert.Equal(t, "1", first.InvoiceID)
	assert.Equal(t, "0xAlice", first.Merchant)
	assert.Equal(t, "0xBob", first.Customer)
	assert.True(t, decimal.NewFromInt(25_000_000).Equal(first.Amount))
	assert.Equal(t, now, first.Observed())

	assert.Equal(t, "2", batch.Events[1].InvoiceID)
	assert.True(t, decimal.NewFromInt(7_500_000).Equal(batch.Events[1].Amount))
}

func TestDecode_SingleRecord(t *testing.T) {
	out, err := decode(entity.KindInvoicePaid, []byte(`{"invoiceId":"9","customer":"0xbob","amount":"0x2faf080"}`), now)
	require.NoError(t, err)

	batch := out.(event.InvoicesPaid)
	require.Len(t, batch.Events, 1)
	assert.True(t, decimal.NewFromInt(50_000_000).Equal(batch.Events[0].Amount))
}

func TestDecode_MalformedNumbersAreZero(t *testing.T) {
	value := []byte(`[
		{"itemId": "sku-1", "quantity": "lots", "price": null},
		{"itemId": "sku-2", "price": {"nested": true}},
		{"itemId": "sku-3", "quantity": "23", "price": "0xZZ"}
	]`)

	out, err := decode(entity.KindInventoryUpdated, value, now)
	require.NoError(t, err)

	batch := out.(event.InventoryUpdated)
	require.Len(t, batch.Events, 3)
	for _, ev := range batch.Events {
		assert.True(t, ev.Price.IsZero(), ev.ItemID)
	}
	assert.Zero(t, batch.Events[0].Quantity)
	assert.Zero(t, batch.Events[1].Quantity)
	assert.Equal(t, int64(23), batch.Events[2].Quantity)
}

func TestDecode_EmptyBatch(t *testing.T) {
	out, err := decode(entity.KindInvoiceCreated, []byte(`[]`), now)
	require.NoError(t, err)
	assert.Empty(t, out.(event.InvoicesCreated).Events)
}

func TestDecode_Broken(t *testing.T) {
	for _, value := range []string{"", "   ", "{broken", `[{"merchant": 12}]`, `"text"`} {
		_, err := decode(entity.KindInvoiceCreated, []byte(value), now)
		assert.Error(t, err, value)
	}
}

func TestHandler_Handle(t *testing.T) {
	rec := &recorder{}
	h := newHandler(rec)

	err := h.handle(context.Background(), &sarama.ConsumerMessage{
		Topic: "inventory-updated",
		Value: []byte(`[{"merchant":"0xalice","itemId":"sku-1","quantity":23,"price":"25000000"}]`),
	})
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	batch := rec.events[0].(event.InventoryUpdated)
	assert.Equal(t, "sku-1", batch.Events[0].ItemID)
	assert.Equal(t, now, batch.Events[0].ObservedAt)
}

func TestHandler_Handle_Malformed(t *testing.T) {
	rec := &recorder{}
	h := newHandler(rec)

	err := h.handle(context.Background(), &sarama.ConsumerMessage{
		Topic:  "invoice-paid",
		Offset: 42,
		Value:  []byte("{oops"),
	})
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	skipped := rec.events[0].(event.BatchSkipped)
	assert.Equal(t, entity.KindInvoicePaid, skipped.Channel)
	assert.Equal(t, int64(42), skipped.Offset)
}

func TestHandler_Handle_UnknownTopic(t *testing.T) {
	rec := &recorder{}
	h := newHandler(rec)

	require.NoError(t, h.handle(context.Background(), &sarama.ConsumerMessage{Topic: "other", Value: []byte("[]")}))
	assert.Empty(t, rec.events)
}

func TestHandler_Handle_NoListeners(t *testing.T) {
	h := newHandler(ebus.New())

	err := h.handle(context.Background(), &sarama.ConsumerMessage{Topic: "invoice-created", Value: []byte("[]")})
	assert.NoError(t, err)
}

func TestHandler_Handle_ListenerError(t *testing.T) {
	boom := errors.New("boom")
	h := newHandler(&recorder{err: boom})

	err := h.handle(context.Background(), &sarama.ConsumerMessage{Topic: "invoice-created", Value: []byte("[]")})
	assert.ErrorIs(t, err, boom)
}

func TestHandler_Topics(t *testing.T) {
	h := newHandler(&recorder{})
	assert.Equal(t, []string{"inventory-updated", "invoice-created", "invoice-paid"}, h.topics())
}
