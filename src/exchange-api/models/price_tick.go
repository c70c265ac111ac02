package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceTick struct {
	Timestamp time.Time
	Price     decimal.Decimal
}
