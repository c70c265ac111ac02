package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IDatabaseService is the persistence port. Lookups that find nothing return
// an error wrapping ErrNotFound.
type IDatabaseService interface {
	// Transaction runs fn as one unit of work. Any error returned by fn rolls
	// back every write made through tx.
	Transaction(fn func(tx IDatabaseService) error) error

	CountCryptocurrencies() (int64, error)
	CreateCryptocurrency(crypto *Cryptocurrency) error
	FetchCryptocurrencies() ([]*Cryptocurrency, error)
	FetchCryptocurrencyBySymbol(symbol string) (*Cryptocurrency, error)
	FetchCryptocurrencyByID(id uint) (*Cryptocurrency, error)
	UpdateCryptocurrencyPrice(id uint, price decimal.Decimal) error

	CreateUser(user *User) error
	FetchUser(id uint) (*User, error)
	FetchUserByUsername(username string) (*User, error)

	FetchPortfolio(userID uint) (*Portfolio, error)
	FetchPortfolioForUpdate(userID uint) (*Portfolio, error)
	SavePortfolio(portfolio *Portfolio) error

	FetchWallet(userID, cryptoID uint) (*Wallet, error)
	FetchWalletForUpdate(userID, cryptoID uint) (*Wallet, error)
	FetchWallets(userID uint) ([]*Wallet, error)
	SaveWallet(wallet *Wallet) error

	CreateOrder(order *OrderRecord) error
	CreateTransaction(tx *TransactionRecord) error
	FetchTransactions(userID uint, limit int) ([]*TransactionRecord, error)

	CreatePriceHistory(record *PriceHistoryRecord) error
	FetchPriceHistory(cryptoID uint, start, end time.Time) ([]*PriceHistoryRecord, error)
	FetchLatestPriceHistory(cryptoID uint, limit int) ([]*PriceHistoryRecord, error)
	DeletePriceHistoryBefore(cutoff time.Time) (int64, error)
}
