package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceQuote struct {
	Symbol string              `json:"symbol"`
	Name   string              `json:"name"`
	Price  decimal.NullDecimal `json:"price"`
}

// MarketStats omits the 24h fields when the window has no history.
type MarketStats struct {
	Symbol           string              `json:"symbol"`
	CurrentPrice     decimal.NullDecimal `json:"currentPrice"`
	Volatility       float64             `json:"volatility"`
	Change24h        *decimal.Decimal    `json:"change24h,omitempty"`
	ChangePercent24h *decimal.Decimal    `json:"changePercent24h,omitempty"`
	High24h          *decimal.Decimal    `json:"high24h,omitempty"`
	Low24h           *decimal.Decimal    `json:"low24h,omitempty"`
	StdDev24h        *decimal.Decimal    `json:"stddev24h,omitempty"`
	Samples24h       int                 `json:"samples24h"`
}

func (s *MarketStats) HasWindow() bool {
	return s.Samples24h > 0
}

type PricePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  string          `json:"interval"`
}

func NewPricePoints(records []*PriceHistoryRecord) []PricePoint {
	points := make([]PricePoint, 0, len(records))
	for _, r := range records {
		points = append(points, PricePoint{
			Timestamp: r.Timestamp,
			Price:     r.Price,
			Volume:    r.Volume,
			Interval:  r.Interval,
		})
	}

	return points
}
