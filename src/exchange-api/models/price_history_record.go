package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PriceHistoryIntervalTrade = "trade"
)

// PriceHistoryRecord is append-only and hard deleted by the retention sweep,
// so it does not embed gorm.Model.
type PriceHistoryRecord struct {
	ID        uint            `gorm:"primaryKey"`
	CryptoID  uint            `gorm:"column:crypto_id;not null;index:idx_price_history_crypto_ts,priority:1"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(20,8);not null"`
	Volume    decimal.Decimal `gorm:"column:volume;type:numeric(20,8);not null"`
	Timestamp time.Time       `gorm:"column:timestamp;type:timestamp;not null;index:idx_price_history_crypto_ts,priority:2;index:idx_price_history_ts"`
	Interval  string          `gorm:"column:interval_label;type:text;not null"`
}

func (PriceHistoryRecord) TableName() string {
	return "price_history"
}

func NewPriceHistoryRecord(cryptoID uint, price, volume decimal.Decimal, timestamp time.Time, interval string) *PriceHistoryRecord {
	return &PriceHistoryRecord{
		CryptoID:  cryptoID,
		Price:     price,
		Volume:    volume,
		Timestamp: timestamp,
		Interval:  interval,
	}
}
