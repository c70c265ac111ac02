package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is a user's balance of a single coin.
type Wallet struct {
	gorm.Model
	UserID   uint            `gorm:"column:user_id;not null;uniqueIndex:idx_wallet_user_crypto"`
	CryptoID uint            `gorm:"column:crypto_id;not null;uniqueIndex:idx_wallet_user_crypto"`
	Balance  decimal.Decimal `gorm:"column:balance;type:numeric(20,8);not null"`
}

func NewWallet(userID, cryptoID uint) *Wallet {
	return &Wallet{
		UserID:   userID,
		CryptoID: cryptoID,
		Balance:  decimal.Zero,
	}
}
