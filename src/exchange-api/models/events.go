package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceUpdatedEvent struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Timestamp     time.Time       `json:"timestamp"`
}

type TradeExecutedEvent struct {
	UserID uint         `json:"userId"`
	Result *TradeResult `json:"result"`
}
