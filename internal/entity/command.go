package entity

import "github.com/shopspring/decimal"

type CommandKind string

const (
	CommandCreateInvoice   CommandKind = "createInvoice"
	CommandUpdateInventory CommandKind = "updateInventory"
)

// CommandState is the single in-flight/last-error slot of the gateway.
// An empty LastError means the last call succeeded or none failed yet.
type CommandState struct {
	InFlight  bool   `json:"inFlight"`
	LastError string `json:"lastError,omitempty"`
}

// CreateInvoice is the ledger write with amounts already in ledger units.
type CreateInvoice struct {
	Customer string          `json:"customer"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  int64           `json:"dueDate"`
	Metadata string          `json:"metadata"`
}

type UpdateInventory struct {
	ItemID   string          `json:"itemId"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// StockItem is a tracked item the merchant may restock.
type StockItem struct {
	ID              string `mapstructure:"id" json:"id"`
	Name            string `mapstructure:"name" json:"name"`
	Stock           int64  `mapstructure:"stock" json:"stock"`
	ReorderPoint    int64  `mapstructure:"reorder_point" json:"reorderPoint"`
	Price           string `mapstructure:"price" json:"price"`
	ReorderQuantity int64  `mapstructure:"reorder_quantity" json:"reorderQuantity"`
}

func (s StockItem) Low() bool {
	return s.Stock < s.ReorderPoint
}
