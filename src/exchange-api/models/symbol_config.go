package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type SymbolConfig struct {
	Symbol       string  `yaml:"symbol"`
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	InitialPrice float64 `yaml:"initial_price"`
	Volatility   float64 `yaml:"volatility"`
}

func (c SymbolConfig) SeedPrice() decimal.Decimal {
	return decimal.NewFromFloat(c.InitialPrice)
}

func (c SymbolConfig) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}

	if c.InitialPrice <= 0 {
		return fmt.Errorf("%s: initial_price must be positive", c.Symbol)
	}

	if c.Volatility <= 0 || c.Volatility >= 1 {
		return fmt.Errorf("%s: volatility must be in (0, 1)", c.Symbol)
	}

	return nil
}

func DefaultSymbolCatalogue() []SymbolConfig {
	return []SymbolConfig{
		{Symbol: "ZOR", Name: "Zorcoin", Description: "A digital asset designed for fast, secure payments.", InitialPrice: 12.58, Volatility: 0.05},
		{Symbol: "NEB", Name: "Nebulium", Description: "A blockchain platform focused on scalable smart contracts.", InitialPrice: 8.34, Volatility: 0.08},
		{Symbol: "LUM", Name: "Lumera", Description: "A decentralized network built for cross-chain interoperability.", InitialPrice: 45.67, Volatility: 0.03},
	}
}
