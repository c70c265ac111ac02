package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

// DatabaseService is the postgres-backed IDatabaseService.
type DatabaseService struct {
	db *gorm.DB
}

var _ models.IDatabaseService = (*DatabaseService)(nil)

func NewDatabaseService(db *gorm.DB) *DatabaseService {
	return &DatabaseService{db: db}
}

func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), models.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func (s *DatabaseService) Transaction(fn func(tx models.IDatabaseService) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&DatabaseService{db: tx})
	})
}

func (s *DatabaseService) CountCryptocurrencies() (int64, error) {
	var count int64
	if err := s.db.Model(&models.Cryptocurrency{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("CountCryptocurrencies: %w", err)
	}

	return count, nil
}

func (s *DatabaseService) CreateCryptocurrency(crypto *models.Cryptocurrency) error {
	if err := s.db.Create(crypto).Error; err != nil {
		return fmt.Errorf("CreateCryptocurrency: %w", err)
	}

	return nil
}

func (s *DatabaseService) FetchCryptocurrencies() ([]*models.Cryptocurrency, error) {
	var cryptos []*models.Cryptocurrency
	if err := s.db.Order("id asc").Find(&cryptos).Error; err != nil {
		return nil, fmt.Errorf("FetchCryptocurrencies: %w", err)
	}

	return cryptos, nil
}

func (s *DatabaseService) FetchCryptocurrencyBySymbol(symbol string) (*models.Cryptocurrency, error) {
	var crypto models.Cryptocurrency
	if err := s.db.Where("symbol = ?", symbol).First(&crypto).Error; err != nil {
		return nil, notFound(err, "FetchCryptocurrencyBySymbol %s", symbol)
	}

	return &crypto, nil
}

func (s *DatabaseService) FetchCryptocurrencyByID(id uint) (*models.Cryptocurrency, error) {
	var crypto models.Cryptocurrency
	if err := s.db.First(&crypto, id).Error; err != nil {
		return nil, notFound(err, "FetchCryptocurrencyByID %d", id)
	}

	return &crypto, nil
}

func (s *DatabaseService) UpdateCryptocurrencyPrice(id uint, price decimal.Decimal) error {
	result := s.db.Model(&models.Cryptocurrency{}).Where("id = ?", id).Update("price", price)
	if result.Error != nil {
		return fmt.Errorf("UpdateCryptocurrencyPrice: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("UpdateCryptocurrencyPrice %d: %w", id, models.ErrNotFound)
	}

	return nil
}

func (s *DatabaseService) CreateUser(user *models.User) error {
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("CreateUser: %w", err)
	}

	return nil
}

func (s *DatabaseService) FetchUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, notFound(err, "FetchUser %d", id)
	}

	return &user, nil
}

func (s *DatabaseService) FetchUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "FetchUserByUsername %s", username)
	}

	return &user, nil
}

func (s *DatabaseService) fetchPortfolio(db *gorm.DB, userID uint) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := db.Where("user_id = ?", userID).First(&portfolio).Error; err != nil {
		return nil, notFound(err, "FetchPortfolio %d", userID)
	}

	return &portfolio, nil
}

func (s *DatabaseService) FetchPortfolio(userID uint) (*models.Portfolio, error) {
	return s.fetchPortfolio(s.db, userID)
}

func (s *DatabaseService) FetchPortfolioForUpdate(userID uint) (*models.Portfolio, error) {
	return s.fetchPortfolio(s.db.Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (s *DatabaseService) SavePortfolio(portfolio *models.Portfolio) error {
	if err := s.db.Save(portfolio).Error; err != nil {
		return fmt.Errorf("SavePortfolio: %w", err)
	}

	return nil
}

func (s *DatabaseService) fetchWallet(db *gorm.DB, userID, cryptoID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.Where("user_id = ? AND crypto_id = ?", userID, cryptoID).First(&wallet).Error; err != nil {
		return nil, notFound(err, "FetchWallet %d/%d", userID, cryptoID)
	}

	return &wallet, nil
}

func (s *DatabaseService) FetchWallet(userID, cryptoID uint) (*models.Wallet, error) {
	return s.fetchWallet(s.db, userID, cryptoID)
}

func (s *DatabaseService) FetchWalletForUpdate(userID, cryptoID uint) (*models.Wallet, error) {
	return s.fetchWallet(s.db.Clauses(clause.Locking{Strength: "UPDATE"}), userID, cryptoID)
}

func (s *DatabaseService) FetchWallets(userID uint) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	if err := s.db.Where("user_id = ?", userID).Order("crypto_id asc").Find(&wallets).Error; err != nil {
		return nil, fmt.Errorf("FetchWallets: %w", err)
	}

	return wallets, nil
}

func (s *DatabaseService) SaveWallet(wallet *models.Wallet) error {
	if err := s.db.Save(wallet).Error; err != nil {
		return fmt.Errorf("SaveWallet: %w", err)
	}

	return nil
}

func (s *DatabaseService) CreateOrder(order *models.OrderRecord) error {
	if err := s.db.Create(order).Error; err != nil {
		return fmt.Errorf("CreateOrder: %w", err)
	}

	return nil
}

func (s *DatabaseService) CreateTransaction(tx *models.TransactionRecord) error {
	if err := s.db.Create(tx).Error; err != nil {
		return fmt.Errorf("CreateTransaction: %w", err)
	}

	return nil
}

func (s *DatabaseService) FetchTransactions(userID uint, limit int) ([]*models.TransactionRecord, error) {
	var records []*models.TransactionRecord
	query := s.db.Where("user_id = ?", userID).Order("executed_at desc, id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("FetchTransactions: %w", err)
	}

	return records, nil
}

func (s *DatabaseService) CreatePriceHistory(record *models.PriceHistoryRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("CreatePriceHistory: %w", err)
	}

	return nil
}

func (s *DatabaseService) FetchPriceHistory(cryptoID uint, start, end time.Time) ([]*models.PriceHistoryRecord, error) {
	var records []*models.PriceHistoryRecord
	if err := s.db.
		Where("crypto_id = ? AND timestamp BETWEEN ? AND ?", cryptoID, start, end).
		Order("timestamp asc, id asc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("FetchPriceHistory: %w", err)
	}

	return records, nil
}

func (s *DatabaseService) FetchLatestPriceHistory(cryptoID uint, limit int) ([]*models.PriceHistoryRecord, error) {
	var records []*models.PriceHistoryRecord
	if err := s.db.
		Where("crypto_id = ?", cryptoID).
		Order("timestamp desc, id desc").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("FetchLatestPriceHistory: %w", err)
	}

	return records, nil
}

func (s *DatabaseService) DeletePriceHistoryBefore(cutoff time.Time) (int64, error) {
	result := s.db.Where("timestamp < ?", cutoff).Delete(&models.PriceHistoryRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("DeletePriceHistoryBefore: %w", result.Error)
	}

	return result.RowsAffected, nil
}
