package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRecord struct {
	gorm.Model
	UserID    uint            `gorm:"column:user_id;not null;index:idx_order_user"`
	CryptoID  uint            `gorm:"column:crypto_id;not null"`
	Side      OrderSide       `gorm:"column:side;type:text;not null"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(20,8);not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(20,8);not null"`
	Status    OrderStatus     `gorm:"column:status;type:text;not null"`
}

func (OrderRecord) TableName() string {
	return "orders"
}

func NewFilledOrderRecord(userID, cryptoID uint, side OrderSide, quantity, unitPrice decimal.Decimal) *OrderRecord {
	return &OrderRecord{
		UserID:    userID,
		CryptoID:  cryptoID,
		Side:      side,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Status:    OrderStatusFilled,
	}
}
