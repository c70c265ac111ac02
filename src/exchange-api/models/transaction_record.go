package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionRecord is the immutable audit row written by every settled trade.
// Exactly one of BuyOrderID / SellOrderID is set, matching Side.
type TransactionRecord struct {
	gorm.Model
	TradeID        uuid.UUID       `gorm:"column:trade_id;type:uuid;not null;uniqueIndex:idx_transaction_trade"`
	UserID         uint            `gorm:"column:user_id;not null;index:idx_transaction_user"`
	CryptoID       uint            `gorm:"column:crypto_id;not null"`
	Side           TradeSide       `gorm:"column:side;type:text;not null"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:numeric(20,8);not null"`
	ExecutionPrice decimal.Decimal `gorm:"column:execution_price;type:numeric(20,8);not null"`
	Commission     decimal.Decimal `gorm:"column:commission;type:numeric(20,8);not null"`
	BuyOrderID     *uint           `gorm:"column:buy_order_id"`
	SellOrderID    *uint           `gorm:"column:sell_order_id"`
	ExecutedAt     time.Time       `gorm:"column:executed_at;type:timestamp;not null"`
}

func (TransactionRecord) TableName() string {
	return "transactions"
}

func NewTransactionRecord(userID, cryptoID uint, side TradeSide, quantity, price, commission decimal.Decimal, order *OrderRecord, executedAt time.Time) *TransactionRecord {
	tx := &TransactionRecord{
		TradeID:        uuid.New(),
		UserID:         userID,
		CryptoID:       cryptoID,
		Side:           side,
		Quantity:       quantity,
		ExecutionPrice: price,
		Commission:     commission,
		ExecutedAt:     executedAt,
	}

	if order != nil {
		orderID := order.ID
		if side == TradeSideBuy {
			tx.BuyOrderID = &orderID
		} else {
			tx.SellOrderID = &orderID
		}
	}

	return tx
}
