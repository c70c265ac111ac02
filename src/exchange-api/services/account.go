package services

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const (
	RecentTransactionsInSummary = 10
	DefaultTransactionsLimit    = 50
	MaxTransactionsLimit        = 500
)

type AccountService struct {
	db     models.IDatabaseService
	ledger *Ledger
}

func NewAccountService(db models.IDatabaseService, ledger *Ledger) *AccountService {
	return &AccountService{db: db, ledger: ledger}
}

func (s *AccountService) requireUser(userID uint) error {
	if _, err := s.db.FetchUser(userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NewTradeError(models.UserNotFound, "user %d not found", userID)
		}

		return models.NewInternalError(err)
	}

	return nil
}

func (s *AccountService) cryptosByID() (map[uint]*models.Cryptocurrency, error) {
	cryptos, err := s.db.FetchCryptocurrencies()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	out := make(map[uint]*models.Cryptocurrency, len(cryptos))
	for _, c := range cryptos {
		out[c.ID] = c
	}

	return out, nil
}

func (s *AccountService) transactionViews(userID uint, limit int, cryptos map[uint]*models.Cryptocurrency) ([]models.TransactionView, error) {
	records, err := s.db.FetchTransactions(userID, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	views := make([]models.TransactionView, 0, len(records))
	for _, r := range records {
		symbol := ""
		if c, found := cryptos[r.CryptoID]; found {
			symbol = c.Symbol
		}

		views = append(views, models.NewTransactionView(r, symbol))
	}

	return views, nil
}

// GetPortfolioSummary values every non-zero holding at the current price,
// or zero when no price has been published yet.
func (s *AccountService) GetPortfolioSummary(userID uint) (*models.PortfolioSummary, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}

	portfolio, err := s.ledger.GetOrCreatePortfolio(userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	wallets, err := s.db.FetchWallets(userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	cryptos, err := s.cryptosByID()
	if err != nil {
		return nil, err
	}

	summary := &models.PortfolioSummary{
		UserID:           userID,
		UsdBalance:       portfolio.UsdBalance,
		Holdings:         []models.Holding{},
		TotalCryptoValue: decimal.Zero,
	}

	for _, w := range wallets {
		if !w.Balance.IsPositive() {
			continue
		}

		holding := models.Holding{Quantity: w.Balance, CurrentPrice: decimal.Zero}
		if c, found := cryptos[w.CryptoID]; found {
			holding.Symbol = c.Symbol
			holding.Name = c.Name
			if c.HasPrice() {
				holding.CurrentPrice = c.Price.Decimal
			}
		}

		holding.CurrentValue = holding.Quantity.Mul(holding.CurrentPrice)
		summary.TotalCryptoValue = summary.TotalCryptoValue.Add(holding.CurrentValue)
		summary.Holdings = append(summary.Holdings, holding)
	}

	summary.TotalValue = summary.UsdBalance.Add(summary.TotalCryptoValue)

	if summary.RecentTransactions, err = s.transactionViews(userID, RecentTransactionsInSummary, cryptos); err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *AccountService) GetWallets(userID uint) ([]models.WalletView, error) {
	if err := s.requireUser(userID); err != nil {
		return nil, err
	}

	wallets, err := s.db.FetchWallets(userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	cryptos, err := s.cryptosByID()
	if err != nil {
		return nil, err
	}

	views := make([]models.WalletView, 0, len(wallets))
	for _, w := range wallets {
		view := models.WalletView{Balance: w.Balance}
		if c, found := cryptos[w.CryptoID]; found {
			view.Symbol = c.Symbol
			view.Name = c.Name
		}

		views = append(views, view)
	}

	return views, nil
}

// GetTransactions returns newest first. limit must be in [1, 500].
func (s *AccountService) GetTransactions(userID uint, limit int) ([]models.TransactionView, error) {
	if limit < 1 || limit > MaxTransactionsLimit {
		return nil, models.NewTradeError(models.InvalidRequest, "limit must be between 1 and %d", MaxTransactionsLimit)
	}

	if err := s.requireUser(userID); err != nil {
		return nil, err
	}

	cryptos, err := s.cryptosByID()
	if err != nil {
		return nil, err
	}

	return s.transactionViews(userID, limit, cryptos)
}
