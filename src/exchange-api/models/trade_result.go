package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TradeResult struct {
	TradeID          uuid.UUID       `json:"tradeId"`
	Symbol           string          `json:"symbol"`
	Side             TradeSide       `json:"side"`
	ExecutedQuantity decimal.Decimal `json:"executedQuantity"`
	ExecutionPrice   decimal.Decimal `json:"executionPrice"`
	Commission       decimal.Decimal `json:"commission"`
	NewUsdBalance    decimal.Decimal `json:"newUsdBalance"`
	NewCoinBalance   decimal.Decimal `json:"newCoinBalance"`
	ExecutedAt       time.Time       `json:"executedAt"`
}
