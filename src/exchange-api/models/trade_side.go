package models

import "fmt"

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

func (s TradeSide) Validate() error {
	switch s {
	case TradeSideBuy, TradeSideSell:
		return nil
	default:
		return fmt.Errorf("side must be BUY or SELL, got %q", string(s))
	}
}

func (s TradeSide) OrderSide() OrderSide {
	if s == TradeSideBuy {
		return OrderSideBuy
	}

	return OrderSideSell
}
