package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

func TestLedger(t *testing.T) {
	t.Run("Creates a portfolio with the opening balance", func(t *testing.T) {
		ledger := NewLedger(models.NewMockDatabase())

		portfolio, err := ledger.GetOrCreatePortfolio(7)
		require.NoError(t, err)
		assertDecimal(t, "10000.00", portfolio.UsdBalance)

		again, err := ledger.GetOrCreatePortfolio(7)
		require.NoError(t, err)
		assert.Equal(t, portfolio.ID, again.ID)
	})

	t.Run("Creates an empty wallet", func(t *testing.T) {
		ledger := NewLedger(models.NewMockDatabase())

		wallet, err := ledger.GetOrCreateWallet(7, 3)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.IsZero())
		assert.Equal(t, uint(3), wallet.CryptoID)
	})

	t.Run("Rejects adjustments below zero", func(t *testing.T) {
		db := models.NewMockDatabase()
		ledger := NewLedger(db)

		_, err := ledger.AdjustUsd(7, dec("-10000.01"))
		assert.True(t, errors.Is(err, models.ErrInsufficientFunds), "got %v", err)

		_, err = ledger.AdjustCoin(7, 3, dec("-0.5"))
		assert.True(t, errors.Is(err, models.ErrInsufficientHoldings), "got %v", err)

		_, err = db.FetchWallet(7, 3)
		assert.True(t, errors.Is(err, models.ErrNotFound))

		portfolio, err := ledger.AdjustUsd(7, dec("-10000"))
		require.NoError(t, err)
		assert.True(t, portfolio.UsdBalance.IsZero())
	})

	t.Run("Settle rolls back every write on error", func(t *testing.T) {
		db := models.NewMockDatabase()
		ledger := NewLedger(db)

		_, err := ledger.GetOrCreatePortfolio(7)
		require.NoError(t, err)

		err = ledger.Settle(7, func(tx *LedgerTx) error {
			if _, err := tx.AdjustUsd(dec("-100")); err != nil {
				return err
			}

			if _, err := tx.AdjustCoin(3, dec("8")); err != nil {
				return err
			}

			return fmt.Errorf("boom")
		})
		require.Error(t, err)

		portfolio, err := db.FetchPortfolio(7)
		require.NoError(t, err)
		assertDecimal(t, "10000", portfolio.UsdBalance)

		_, err = db.FetchWallet(7, 3)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("Concurrent adjustments for one user are serialized", func(t *testing.T) {
		ledger := NewLedger(models.NewMockDatabase())

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ledger.AdjustCoin(7, 3, dec("0.1"))
				assert.NoError(t, err)
			}()
		}

		wg.Wait()

		wallet, err := ledger.GetOrCreateWallet(7, 3)
		require.NoError(t, err)
		assertDecimal(t, "5", wallet.Balance)
	})
}
