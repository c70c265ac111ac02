package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Cryptocurrency struct {
	gorm.Model
	Symbol      string              `gorm:"column:symbol;type:text;not null;uniqueIndex:idx_crypto_symbol"`
	Name        string              `gorm:"column:name;type:text;not null"`
	Description string              `gorm:"column:description;type:text"`
	Price       decimal.NullDecimal `gorm:"column:price;type:numeric(20,8)"`
}

// HasPrice reports whether the simulator has published a usable price.
func (c *Cryptocurrency) HasPrice() bool {
	return c.Price.Valid && c.Price.Decimal.IsPositive()
}

func NewCryptocurrency(symbol, name, description string) *Cryptocurrency {
	return &Cryptocurrency{
		Symbol:      symbol,
		Name:        name,
		Description: description,
	}
}
