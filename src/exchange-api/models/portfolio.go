package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var InitialUsdBalance = decimal.RequireFromString("10000.00")

// Portfolio is a user's USD cash balance.
type Portfolio struct {
	gorm.Model
	UserID     uint            `gorm:"column:user_id;not null;uniqueIndex:idx_portfolio_user"`
	UsdBalance decimal.Decimal `gorm:"column:usd_balance;type:numeric(20,8);not null"`
}

func NewPortfolio(userID uint) *Portfolio {
	return &Portfolio{
		UserID:     userID,
		UsdBalance: InitialUsdBalance,
	}
}
