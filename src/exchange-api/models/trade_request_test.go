package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeRequest(t *testing.T) {
	t.Run("Normalize trims and upper-cases", func(t *testing.T) {
		req := TradeRequest{Symbol: " zor\t", Side: " sell ", Quantity: decimal.NewFromInt(1)}
		req.Normalize()

		assert.Equal(t, "ZOR", req.Symbol)
		assert.Equal(t, TradeSideSell, req.Side)
		require.NoError(t, req.Validate())
	})

	t.Run("Quantity bounds", func(t *testing.T) {
		req := TradeRequest{Symbol: "ZOR", Side: TradeSideBuy, Quantity: MaxTradeQuantity}
		assert.NoError(t, req.Validate())

		req.Quantity = MaxTradeQuantity.Add(decimal.RequireFromString("0.00000001"))
		assert.True(t, errors.Is(req.Validate(), ErrInvalidRequest))

		req.Quantity = decimal.Zero
		assert.True(t, errors.Is(req.Validate(), ErrInvalidRequest))
	})

	t.Run("Quantity scale is limited to the stored precision", func(t *testing.T) {
		req := TradeRequest{Symbol: "ZOR", Side: TradeSideBuy, Quantity: decimal.RequireFromString("0.12345678")}
		assert.NoError(t, req.Validate())

		req.Quantity = decimal.RequireFromString("1.500000000")
		assert.NoError(t, req.Validate())

		req.Quantity = decimal.RequireFromString("0.123456789")
		assert.True(t, errors.Is(req.Validate(), ErrInvalidRequest))

		req.Quantity = decimal.RequireFromString("0.000000001")
		assert.True(t, errors.Is(req.Validate(), ErrInvalidRequest))
	})

	t.Run("Side must be exact after normalising", func(t *testing.T) {
		req := TradeRequest{Symbol: "ZOR", Side: "B", Quantity: decimal.NewFromInt(1)}
		req.Normalize()
		assert.True(t, errors.Is(req.Validate(), ErrInvalidRequest))
	})
}
