package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/services"
)

func TestRun(t *testing.T) {
	db := models.NewMockDatabase()
	catalogue := models.DefaultSymbolCatalogue()

	_, err := services.NewSeeder(db).Seed(catalogue[:2])
	require.NoError(t, err)

	zor, err := db.FetchCryptocurrencyBySymbol("ZOR")
	require.NoError(t, err)
	require.NoError(t, db.UpdateCryptocurrencyPrice(zor.ID, decimal.RequireFromString("12.58")))

	report, err := Run(services.NewMarketQuery(db, catalogue, 0), catalogue)
	require.NoError(t, err)
	require.Len(t, report, 2)

	assert.Equal(t, "$12.5800", formatPrice(report[0].CurrentPrice))
	assert.Equal(t, "-", formatPrice(report[1].CurrentPrice))
	assert.Equal(t, "-", formatDecimal(report[0].High24h, 4))
}
