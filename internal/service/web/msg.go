package web

import (
	"reflect"
)

type msg struct {
	mType int
	data  []byte
	err   error
}

// BaseMessage is the envelope pushed to websocket clients.
type BaseMessage struct {
	Name    string
	Payload interface{}
}

func NewMessage(payload interface{}) BaseMessage {
	msg := BaseMessage{
		Name:    reflect.TypeOf(payload).Name(),
		Payload: payload,
	}

	return msg
}

type invoiceRequest struct {
	Customer string `json:"customer"`
	Amount   string `json:"amount"`
	DueDate  int64  `json:"dueDate"`
	Metadata string `json:"metadata"`
}

type inventoryRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int64  `json:"quantity"`
	Price    string `json:"price"`
}

type reorderRequest struct {
	ItemID string `json:"itemId"`
}

type reorderResponse struct {
	Reordered []string `json:"reordered"`
	Error     string   `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
