package marketdata

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOHLCV(t *testing.T) {
	end := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	base := decimal.NewFromFloat(12.58)

	t.Run("One day is 288 five minute bars", func(t *testing.T) {
		bars := GenerateOHLCV(base, 0.05, 1, end, rand.New(rand.NewSource(3)))
		require.Len(t, bars, BarsPerDay)

		assert.Equal(t, end.Add(-24*time.Hour), bars[0].Timestamp)
		for i := 1; i < len(bars); i++ {
			assert.Equal(t, SeriesStep, bars[i].Timestamp.Sub(bars[i-1].Timestamp))
		}
	})

	t.Run("High and low bound open and close", func(t *testing.T) {
		bars := GenerateOHLCV(base, 0.08, 2, end, rand.New(rand.NewSource(11)))
		floor := base.Mul(decimal.NewFromFloat(0.1)).Round(4)

		for _, b := range bars {
			assert.True(t, b.High.GreaterThanOrEqual(b.Open))
			assert.True(t, b.High.GreaterThanOrEqual(b.Close))
			assert.True(t, b.Low.LessThanOrEqual(b.Open))
			assert.True(t, b.Low.LessThanOrEqual(b.Close))
			assert.True(t, b.Close.GreaterThanOrEqual(floor), "close %s below floor", b.Close)
			assert.Positive(t, b.Volume)
		}
	})

	t.Run("Zero days yields nothing", func(t *testing.T) {
		assert.Empty(t, GenerateOHLCV(base, 0.05, 0, end, rand.New(rand.NewSource(1))))
	})
}

func TestWriteOHLCVFile(t *testing.T) {
	end := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	bars := GenerateOHLCV(decimal.NewFromFloat(45.67), 0.03, 1, end, rand.New(rand.NewSource(5)))

	path := filepath.Join(t.TempDir(), "nested", HistoricalFilename("LUM"))
	require.NoError(t, WriteOHLCVFile(path, bars))

	ticks, err := ReadPriceTicksFile(path)
	require.NoError(t, err)
	require.Len(t, ticks, len(bars))

	assert.Equal(t, bars[0].Timestamp, ticks[0].Timestamp)
	assert.True(t, bars[len(bars)-1].Close.Equal(ticks[len(ticks)-1].Price))
}
