package services

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const ledgerShards = 64

// Ledger is the only mutator of portfolio and wallet rows. Work for one user
// is serialized by an in-process shard lock and, inside the database
// transaction, by row locks on the portfolio and wallet.
type Ledger struct {
	db    models.IDatabaseService
	locks [ledgerShards]sync.Mutex
}

func NewLedger(db models.IDatabaseService) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) lockFor(userID uint) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatUint(uint64(userID), 10)))
	return &l.locks[h.Sum32()%ledgerShards]
}

// Settle runs fn as one unit of work for userID. Every write made through the
// LedgerTx is rolled back if fn returns an error.
func (l *Ledger) Settle(userID uint, fn func(tx *LedgerTx) error) error {
	mu := l.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	return l.db.Transaction(func(tx models.IDatabaseService) error {
		return fn(&LedgerTx{db: tx, userID: userID})
	})
}

func (l *Ledger) GetOrCreatePortfolio(userID uint) (*models.Portfolio, error) {
	var portfolio *models.Portfolio
	err := l.Settle(userID, func(tx *LedgerTx) error {
		var err error
		portfolio, err = tx.GetOrCreatePortfolio()
		return err
	})

	return portfolio, err
}

func (l *Ledger) GetOrCreateWallet(userID, cryptoID uint) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := l.Settle(userID, func(tx *LedgerTx) error {
		var err error
		wallet, err = tx.GetOrCreateWallet(cryptoID)
		return err
	})

	return wallet, err
}

func (l *Ledger) AdjustUsd(userID uint, delta decimal.Decimal) (*models.Portfolio, error) {
	var portfolio *models.Portfolio
	err := l.Settle(userID, func(tx *LedgerTx) error {
		var err error
		portfolio, err = tx.AdjustUsd(delta)
		return err
	})

	return portfolio, err
}

func (l *Ledger) AdjustCoin(userID, cryptoID uint, delta decimal.Decimal) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := l.Settle(userID, func(tx *LedgerTx) error {
		var err error
		wallet, err = tx.AdjustCoin(cryptoID, delta)
		return err
	})

	return wallet, err
}

// LedgerTx is a ledger bound to one user and one open transaction. It is only
// valid inside the Settle callback that produced it.
type LedgerTx struct {
	db     models.IDatabaseService
	userID uint
}

func (tx *LedgerTx) DB() models.IDatabaseService {
	return tx.db
}

func (tx *LedgerTx) UserID() uint {
	return tx.userID
}

func (tx *LedgerTx) GetOrCreatePortfolio() (*models.Portfolio, error) {
	portfolio, err := tx.db.FetchPortfolioForUpdate(tx.userID)
	if err == nil {
		return portfolio, nil
	}

	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("GetOrCreatePortfolio: %w", err)
	}

	portfolio = models.NewPortfolio(tx.userID)
	if err := tx.db.SavePortfolio(portfolio); err != nil {
		return nil, fmt.Errorf("GetOrCreatePortfolio: %w", err)
	}

	return portfolio, nil
}

func (tx *LedgerTx) GetOrCreateWallet(cryptoID uint) (*models.Wallet, error) {
	wallet, err := tx.db.FetchWalletForUpdate(tx.userID, cryptoID)
	if err == nil {
		return wallet, nil
	}

	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("GetOrCreateWallet: %w", err)
	}

	wallet = models.NewWallet(tx.userID, cryptoID)
	if err := tx.db.SaveWallet(wallet); err != nil {
		return nil, fmt.Errorf("GetOrCreateWallet: %w", err)
	}

	return wallet, nil
}

// AdjustUsd applies delta to the USD balance. A result below zero fails with
// InsufficientFunds and writes nothing.
func (tx *LedgerTx) AdjustUsd(delta decimal.Decimal) (*models.Portfolio, error) {
	portfolio, err := tx.GetOrCreatePortfolio()
	if err != nil {
		return nil, err
	}

	balance := portfolio.UsdBalance.Add(delta)
	if balance.IsNegative() {
		return nil, models.NewTradeError(models.InsufficientFunds, "need $%s, have $%s", delta.Neg().StringFixed(2), portfolio.UsdBalance.StringFixed(2))
	}

	portfolio.UsdBalance = balance
	if err := tx.db.SavePortfolio(portfolio); err != nil {
		return nil, fmt.Errorf("AdjustUsd: %w", err)
	}

	return portfolio, nil
}

// AdjustCoin applies delta to one coin balance. A result below zero fails
// with InsufficientHoldings and writes nothing.
func (tx *LedgerTx) AdjustCoin(cryptoID uint, delta decimal.Decimal) (*models.Wallet, error) {
	wallet, err := tx.GetOrCreateWallet(cryptoID)
	if err != nil {
		return nil, err
	}

	balance := wallet.Balance.Add(delta)
	if balance.IsNegative() {
		return nil, models.NewTradeError(models.InsufficientHoldings, "need %s, have %s", delta.Neg().String(), wallet.Balance.String())
	}

	wallet.Balance = balance
	if err := tx.db.SaveWallet(wallet); err != nil {
		return nil, fmt.Errorf("AdjustCoin: %w", err)
	}

	return wallet, nil
}
