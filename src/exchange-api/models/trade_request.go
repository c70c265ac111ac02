package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPrecision is the scale of every numeric(20,8) column.
const MoneyPrecision int32 = 8

var MaxTradeQuantity = decimal.NewFromInt(1_000_000)

type TradeRequest struct {
	UserID   uint            `json:"-"`
	Symbol   string          `json:"symbol"`
	Side     TradeSide       `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Normalize trims and upper-cases symbol and side in place.
func (req *TradeRequest) Normalize() {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	req.Side = TradeSide(strings.ToUpper(strings.TrimSpace(string(req.Side))))
}

func (req *TradeRequest) Validate() error {
	if req.Symbol == "" {
		return NewTradeError(InvalidRequest, "symbol is required")
	}

	if err := req.Side.Validate(); err != nil {
		return NewTradeError(InvalidRequest, "%v", err)
	}

	if !req.Quantity.IsPositive() {
		return NewTradeError(InvalidRequest, "quantity must be greater than zero")
	}

	if !req.Quantity.Equal(req.Quantity.Truncate(MoneyPrecision)) {
		return NewTradeError(InvalidRequest, "quantity must have at most %d decimal places", MoneyPrecision)
	}

	if req.Quantity.GreaterThan(MaxTradeQuantity) {
		return NewTradeError(InvalidRequest, "quantity must not exceed %s", MaxTradeQuantity.String())
	}

	return nil
}
