package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Holding struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

type WalletView struct {
	Symbol  string          `json:"symbol"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

type TransactionView struct {
	TradeID        uuid.UUID       `json:"tradeId"`
	Symbol         string          `json:"symbol"`
	Side           TradeSide       `json:"side"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExecutionPrice decimal.Decimal `json:"executionPrice"`
	Commission     decimal.Decimal `json:"commission"`
	ExecutedAt     time.Time       `json:"executedAt"`
}

func NewTransactionView(record *TransactionRecord, symbol string) TransactionView {
	return TransactionView{
		TradeID:        record.TradeID,
		Symbol:         symbol,
		Side:           record.Side,
		Quantity:       record.Quantity,
		ExecutionPrice: record.ExecutionPrice,
		Commission:     record.Commission,
		ExecutedAt:     record.ExecutedAt,
	}
}

type PortfolioSummary struct {
	UserID             uint              `json:"userId"`
	UsdBalance         decimal.Decimal   `json:"usdBalance"`
	Holdings           []Holding         `json:"holdings"`
	TotalCryptoValue   decimal.Decimal   `json:"totalCryptoValue"`
	TotalValue         decimal.Decimal   `json:"totalValue"`
	RecentTransactions []TransactionView `json:"recentTransactions"`
}
