package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

type testEnv struct {
	db       *models.MockDatabase
	ledger   *Ledger
	executor *TradeExecutor
	cryptos  map[string]uint
	userID   uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := models.NewMockDatabase()

	_, err := NewSeeder(db).Seed(models.DefaultSymbolCatalogue())
	require.NoError(t, err)

	cryptos := make(map[string]uint)
	for _, cfg := range models.DefaultSymbolCatalogue() {
		c, err := db.FetchCryptocurrencyBySymbol(cfg.Symbol)
		require.NoError(t, err)
		cryptos[cfg.Symbol] = c.ID
	}

	require.NoError(t, db.UpdateCryptocurrencyPrice(cryptos["ZOR"], decimal.RequireFromString("12.58")))
	require.NoError(t, db.UpdateCryptocurrencyPrice(cryptos["NEB"], decimal.RequireFromString("8.34")))

	user, err := NewUserService(db).Register("alice", "alice@example.com")
	require.NoError(t, err)

	ledger := NewLedger(db)

	return &testEnv{
		db:       db,
		ledger:   ledger,
		executor: NewTradeExecutor(db, ledger),
		cryptos:  cryptos,
		userID:   user.ID,
	}
}

func (env *testEnv) usd(t *testing.T) decimal.Decimal {
	t.Helper()

	p, err := env.db.FetchPortfolio(env.userID)
	require.NoError(t, err)
	return p.UsdBalance
}

func (env *testEnv) coins(t *testing.T, symbol string) decimal.Decimal {
	t.Helper()

	w, err := env.db.FetchWallet(env.userID, env.cryptos[symbol])
	if err != nil {
		return decimal.Zero
	}
	return w.Balance
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func trade(userID uint, symbol string, side models.TradeSide, quantity string) models.TradeRequest {
	return models.TradeRequest{
		UserID:   userID,
		Symbol:   symbol,
		Side:     side,
		Quantity: dec(quantity),
	}
}

// failingWritesDatabase fails CreateTransaction inside any unit of work.
type failingWritesDatabase struct {
	*models.MockDatabase
}

type failingTx struct {
	models.IDatabaseService
}

func (f *failingTx) CreateTransaction(*models.TransactionRecord) error {
	return fmt.Errorf("disk full")
}

func (db *failingWritesDatabase) Transaction(fn func(tx models.IDatabaseService) error) error {
	return db.MockDatabase.Transaction(func(tx models.IDatabaseService) error {
		return fn(&failingTx{IDatabaseService: tx})
	})
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}
