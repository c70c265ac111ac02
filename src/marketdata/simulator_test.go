package marketdata

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

type failingSymbolDatabase struct {
	*models.MockDatabase
	failSymbol string
}

func (db *failingSymbolDatabase) FetchCryptocurrencyBySymbol(symbol string) (*models.Cryptocurrency, error) {
	if symbol == db.failSymbol {
		return nil, fmt.Errorf("connection reset")
	}

	return db.MockDatabase.FetchCryptocurrencyBySymbol(symbol)
}

type failingTickDatabase struct {
	*models.MockDatabase
	fail bool
}

func (db *failingTickDatabase) Transaction(fn func(tx models.IDatabaseService) error) error {
	if db.fail {
		return fmt.Errorf("deadlock detected")
	}

	return db.MockDatabase.Transaction(fn)
}

func seedCryptos(t *testing.T, db models.IDatabaseService, configs ...models.SymbolConfig) map[string]uint {
	t.Helper()

	ids := make(map[string]uint)
	for _, cfg := range configs {
		crypto := models.NewCryptocurrency(cfg.Symbol, cfg.Name, cfg.Description)
		require.NoError(t, db.CreateCryptocurrency(crypto))
		ids[cfg.Symbol] = crypto.ID
	}

	return ids
}

func flatSeries(symbol string, prices ...string) *PriceSeries {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := &PriceSeries{Symbol: symbol}
	for _, p := range prices {
		series.Ticks = append(series.Ticks, models.PriceTick{Timestamp: ts, Price: decimal.RequireFromString(p)})
		ts = ts.Add(SeriesStep)
	}

	return series
}

func TestPriceSimulator(t *testing.T) {
	zor := models.SymbolConfig{Symbol: "ZOR", Name: "Zorcoin", InitialPrice: 12.58, Volatility: 0.05}
	neb := models.SymbolConfig{Symbol: "NEB", Name: "Nebulium", InitialPrice: 8.34, Volatility: 0.08}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("Replay index wraps after a full pass", func(t *testing.T) {
		db := models.NewMockDatabase()
		ids := seedCryptos(t, db, zor)

		sim := NewPriceSimulator(&sync.WaitGroup{}, db, 5*time.Second, rand.New(rand.NewSource(42)))
		require.NoError(t, sim.AddSymbol(zor, flatSeries("ZOR", "12.58", "12.60", "12.62"), zor.SeedPrice()))

		for i := 1; i <= 3; i++ {
			require.Equal(t, 1, sim.Tick(ctx, now.Add(time.Duration(i)*5*time.Second)))

			idx, found := sim.ReplayIndex("ZOR")
			require.True(t, found)
			assert.Equal(t, i%3, idx)

			history, err := db.FetchLatestPriceHistory(ids["ZOR"], 100)
			require.NoError(t, err)
			assert.Len(t, history, i)
		}
	})

	t.Run("Replay index holds when the write fails", func(t *testing.T) {
		db := &failingTickDatabase{MockDatabase: models.NewMockDatabase(), fail: true}
		ids := seedCryptos(t, db, zor)

		sim := NewPriceSimulator(&sync.WaitGroup{}, db, 5*time.Second, rand.New(rand.NewSource(42)))
		require.NoError(t, sim.AddSymbol(zor, flatSeries("ZOR", "12.58", "20.00"), zor.SeedPrice()))

		assert.Equal(t, 0, sim.Tick(ctx, now))

		idx, _ := sim.ReplayIndex("ZOR")
		assert.Equal(t, 0, idx)

		price, _ := sim.CurrentPrice("ZOR")
		assert.True(t, price.Equal(zor.SeedPrice()))

		db.fail = false
		require.Equal(t, 1, sim.Tick(ctx, now))

		idx, _ = sim.ReplayIndex("ZOR")
		assert.Equal(t, 1, idx)

		history, err := db.FetchLatestPriceHistory(ids["ZOR"], 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		deviation := history[0].Price.Sub(decimal.RequireFromString("12.58")).Div(decimal.RequireFromString("12.58")).Abs()
		assert.True(t, deviation.LessThan(decimal.NewFromFloat(0.05)), "price %s", history[0].Price)
	})

	t.Run("Replayed price stays near the base price", func(t *testing.T) {
		db := models.NewMockDatabase()
		ids := seedCryptos(t, db, zor)

		sim := NewPriceSimulator(&sync.WaitGroup{}, db, 5*time.Second, rand.New(rand.NewSource(42)))
		require.NoError(t, sim.AddSymbol(zor, flatSeries("ZOR", "12.58"), zor.SeedPrice()))

		base := decimal.RequireFromString("12.58")
		for i := 0; i < 20; i++ {
			sim.Tick(ctx, now)

			price, found := sim.CurrentPrice("ZOR")
			require.True(t, found)

			deviation := price.Sub(base).Div(base).Abs()
			assert.True(t, deviation.LessThan(decimal.NewFromFloat(0.05)), "price %s", price)
			assert.True(t, price.Equal(price.Round(PricePrecision)))
		}

		crypto, err := db.FetchCryptocurrencyByID(ids["ZOR"])
		require.NoError(t, err)
		require.True(t, crypto.Price.Valid)

		current, _ := sim.CurrentPrice("ZOR")
		assert.True(t, current.Equal(crypto.Price.Decimal))
	})

	t.Run("History rows carry the tick interval and a volume sample", func(t *testing.T) {
		db := models.NewMockDatabase()
		ids := seedCryptos(t, db, zor)

		sim := NewPriceSimulator(&sync.WaitGroup{}, db, 5*time.Second, rand.New(rand.NewSource(1)))
		require.NoError(t, sim.AddSymbol(zor, nil, zor.SeedPrice()))
		sim.Tick(ctx, now)

		history, err := db.FetchPriceHistory(ids["ZOR"], now, now)
		require.NoError(t, err)
		require.Len(t, history, 1)

		assert.Equal(t, "5s", history[0].Interval)
		assert.True(t, history[0].Volume.GreaterThanOrEqual(decimal.NewFromInt(MinSyntheticVolume)))
		assert.True(t, history[0].Volume.LessThan(decimal.NewFromInt(MaxSyntheticVolume)))
	})

	t.Run("Random walk without a series", func(t *testing.T) {
		db := models.NewMockDatabase()
		seedCryptos(t, db, neb)

		sim := NewPriceSimulator(&sync.WaitGroup{}, db, 5*time.Second, rand.New(rand.NewSource(9)))
		require.NoError(t, sim.AddSymbol(neb, nil, neb.SeedPrice()))

		for i := 0; i < 50; i++ {
			require.Equal(t, 1, sim.Tick(ctx, now))
		}

		price, _ := sim.CurrentPrice("NEB")
		assert.True(t, price.IsPositive())

		idx, _ := sim.ReplayIndex("NEB")
		assert.Equal(t, 0, idx)
	})

	t.Run("A failing symbol does not block the others", func(t *testing.T) {
		db := &failingSymbolDatabase{MockDatabase: models.NewMockDatabase(), failSymbol: "NEB"}
		ids := seedCryptos(t, db, zor, neb)

		sim := NewPriceSimulator(&sync.WaitGroup{}, db, 5*time.Second, rand.New(rand.NewSource(2)))
		require.NoError(t, sim.AddSymbol(neb, nil, neb.SeedPrice()))
		require.NoError(t, sim.AddSymbol(zor, nil, zor.SeedPrice()))

		assert.Equal(t, 1, sim.Tick(ctx, now))

		nebPrice, _ := sim.CurrentPrice("NEB")
		assert.True(t, nebPrice.Equal(neb.SeedPrice()))

		zorHistory, err := db.FetchLatestPriceHistory(ids["ZOR"], 10)
		require.NoError(t, err)
		assert.Len(t, zorHistory, 1)

		nebHistory, err := db.FetchLatestPriceHistory(ids["NEB"], 10)
		require.NoError(t, err)
		assert.Empty(t, nebHistory)
	})

	t.Run("Rejects bad registrations", func(t *testing.T) {
		sim := NewPriceSimulator(&sync.WaitGroup{}, models.NewMockDatabase(), time.Second, rand.New(rand.NewSource(1)))
		require.NoError(t, sim.AddSymbol(zor, nil, zor.SeedPrice()))

		assert.Error(t, sim.AddSymbol(zor, nil, zor.SeedPrice()))
		assert.Error(t, sim.AddSymbol(neb, &PriceSeries{Symbol: "NEB"}, neb.SeedPrice()))
		assert.Error(t, sim.AddSymbol(neb, nil, decimal.Zero))

		_, found := sim.CurrentPrice("LUM")
		assert.False(t, found)
	})

	t.Run("Readers see whole prices while ticking", func(t *testing.T) {
		db := models.NewMockDatabase()
		seedCryptos(t, db, zor)

		sim := NewPriceSimulator(&sync.WaitGroup{}, db, 5*time.Second, rand.New(rand.NewSource(4)))
		require.NoError(t, sim.AddSymbol(zor, nil, zor.SeedPrice()))

		done := make(chan struct{})
		var readers sync.WaitGroup
		for i := 0; i < 4; i++ {
			readers.Add(1)
			go func() {
				defer readers.Done()
				for {
					select {
					case <-done:
						return
					default:
						price, _ := sim.CurrentPrice("ZOR")
						assert.True(t, price.IsPositive())
					}
				}
			}()
		}

		for i := 0; i < 100; i++ {
			sim.Tick(ctx, now)
		}

		close(done)
		readers.Wait()
	})

	t.Run("Start ticks until the context is cancelled", func(t *testing.T) {
		db := models.NewMockDatabase()
		ids := seedCryptos(t, db, zor)

		wg := &sync.WaitGroup{}
		sim := NewPriceSimulator(wg, db, 10*time.Millisecond, rand.New(rand.NewSource(4)))
		require.NoError(t, sim.AddSymbol(zor, nil, zor.SeedPrice()))

		runCtx, cancel := context.WithCancel(ctx)
		sim.Start(runCtx)

		require.Eventually(t, func() bool {
			history, err := db.FetchLatestPriceHistory(ids["ZOR"], 10)
			return err == nil && len(history) >= 2
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		wg.Wait()
	})
}
