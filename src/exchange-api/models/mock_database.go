package models

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type walletKey struct {
	userID   uint
	cryptoID uint
}

type mockTables struct {
	nextID       uint
	cryptos      map[uint]Cryptocurrency
	users        map[uint]User
	portfolios   map[uint]Portfolio
	wallets      map[walletKey]Wallet
	orders       []OrderRecord
	transactions []TransactionRecord
	priceHistory []PriceHistoryRecord
}

// MockDatabase is an in-memory IDatabaseService. A single lock serializes
// every call; Transaction holds it for the whole unit of work and replays an
// undo log when fn fails.
type MockDatabase struct {
	mu     sync.Mutex
	tables *mockTables
}

var _ IDatabaseService = (*MockDatabase)(nil)

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{
		tables: &mockTables{
			cryptos:    make(map[uint]Cryptocurrency),
			users:      make(map[uint]User),
			portfolios: make(map[uint]Portfolio),
			wallets:    make(map[walletKey]Wallet),
		},
	}
}

func (m *MockDatabase) Transaction(fn func(tx IDatabaseService) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &mockTx{t: m.tables}
	if err := fn(tx); err != nil {
		tx.rollbackTo(0)
		return err
	}

	return nil
}

func (m *MockDatabase) view() *mockTx {
	return &mockTx{t: m.tables}
}

func (m *MockDatabase) CountCryptocurrencies() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().CountCryptocurrencies()
}

func (m *MockDatabase) CreateCryptocurrency(crypto *Cryptocurrency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().CreateCryptocurrency(crypto)
}

func (m *MockDatabase) FetchCryptocurrencies() ([]*Cryptocurrency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchCryptocurrencies()
}

func (m *MockDatabase) FetchCryptocurrencyBySymbol(symbol string) (*Cryptocurrency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchCryptocurrencyBySymbol(symbol)
}

func (m *MockDatabase) FetchCryptocurrencyByID(id uint) (*Cryptocurrency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchCryptocurrencyByID(id)
}

func (m *MockDatabase) UpdateCryptocurrencyPrice(id uint, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().UpdateCryptocurrencyPrice(id, price)
}

func (m *MockDatabase) CreateUser(user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().CreateUser(user)
}

func (m *MockDatabase) FetchUser(id uint) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchUser(id)
}

func (m *MockDatabase) FetchUserByUsername(username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchUserByUsername(username)
}

func (m *MockDatabase) FetchPortfolio(userID uint) (*Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchPortfolio(userID)
}

func (m *MockDatabase) FetchPortfolioForUpdate(userID uint) (*Portfolio, error) {
	return m.FetchPortfolio(userID)
}

func (m *MockDatabase) SavePortfolio(portfolio *Portfolio) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SavePortfolio(portfolio)
}

func (m *MockDatabase) FetchWallet(userID, cryptoID uint) (*Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchWallet(userID, cryptoID)
}

func (m *MockDatabase) FetchWalletForUpdate(userID, cryptoID uint) (*Wallet, error) {
	return m.FetchWallet(userID, cryptoID)
}

func (m *MockDatabase) FetchWallets(userID uint) ([]*Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchWallets(userID)
}

func (m *MockDatabase) SaveWallet(wallet *Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().SaveWallet(wallet)
}

func (m *MockDatabase) CreateOrder(order *OrderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().CreateOrder(order)
}

func (m *MockDatabase) CreateTransaction(tx *TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().CreateTransaction(tx)
}

func (m *MockDatabase) FetchTransactions(userID uint, limit int) ([]*TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchTransactions(userID, limit)
}

func (m *MockDatabase) CreatePriceHistory(record *PriceHistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().CreatePriceHistory(record)
}

func (m *MockDatabase) FetchPriceHistory(cryptoID uint, start, end time.Time) ([]*PriceHistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchPriceHistory(cryptoID, start, end)
}

func (m *MockDatabase) FetchLatestPriceHistory(cryptoID uint, limit int) ([]*PriceHistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().FetchLatestPriceHistory(cryptoID, limit)
}

func (m *MockDatabase) DeletePriceHistoryBefore(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view().DeletePriceHistoryBefore(cutoff)
}

// mockTx operates on the tables without locking; the caller holds the lock.
type mockTx struct {
	t    *mockTables
	undo []func()
}

func (tx *mockTx) record(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *mockTx) rollbackTo(mark int) {
	for i := len(tx.undo) - 1; i >= mark; i-- {
		tx.undo[i]()
	}

	tx.undo = tx.undo[:mark]
}

func (tx *mockTx) newID() uint {
	tx.t.nextID++
	return tx.t.nextID
}

func (tx *mockTx) Transaction(fn func(tx IDatabaseService) error) error {
	mark := len(tx.undo)
	if err := fn(tx); err != nil {
		tx.rollbackTo(mark)
		return err
	}

	return nil
}

func (tx *mockTx) CountCryptocurrencies() (int64, error) {
	return int64(len(tx.t.cryptos)), nil
}

func (tx *mockTx) CreateCryptocurrency(crypto *Cryptocurrency) error {
	for _, c := range tx.t.cryptos {
		if c.Symbol == crypto.Symbol {
			return fmt.Errorf("MockDatabase: duplicate symbol %s", crypto.Symbol)
		}
	}

	now := time.Now()
	crypto.ID = tx.newID()
	crypto.CreatedAt, crypto.UpdatedAt = now, now
	tx.t.cryptos[crypto.ID] = *crypto

	id := crypto.ID
	tx.record(func() { delete(tx.t.cryptos, id) })
	return nil
}

func (tx *mockTx) FetchCryptocurrencies() ([]*Cryptocurrency, error) {
	out := make([]*Cryptocurrency, 0, len(tx.t.cryptos))
	for _, c := range tx.t.cryptos {
		c := c
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *mockTx) FetchCryptocurrencyBySymbol(symbol string) (*Cryptocurrency, error) {
	for _, c := range tx.t.cryptos {
		if c.Symbol == symbol {
			return &c, nil
		}
	}

	return nil, fmt.Errorf("cryptocurrency %s: %w", symbol, ErrNotFound)
}

func (tx *mockTx) FetchCryptocurrencyByID(id uint) (*Cryptocurrency, error) {
	c, found := tx.t.cryptos[id]
	if !found {
		return nil, fmt.Errorf("cryptocurrency %d: %w", id, ErrNotFound)
	}

	return &c, nil
}

func (tx *mockTx) UpdateCryptocurrencyPrice(id uint, price decimal.Decimal) error {
	prev, found := tx.t.cryptos[id]
	if !found {
		return fmt.Errorf("cryptocurrency %d: %w", id, ErrNotFound)
	}

	next := prev
	next.Price = decimal.NewNullDecimal(price)
	next.UpdatedAt = time.Now()
	tx.t.cryptos[id] = next

	tx.record(func() { tx.t.cryptos[id] = prev })
	return nil
}

func (tx *mockTx) CreateUser(user *User) error {
	for _, u := range tx.t.users {
		if u.Username == user.Username {
			return fmt.Errorf("MockDatabase: duplicate username %s", user.Username)
		}
	}

	now := time.Now()
	user.ID = tx.newID()
	user.CreatedAt, user.UpdatedAt = now, now
	tx.t.users[user.ID] = *user

	id := user.ID
	tx.record(func() { delete(tx.t.users, id) })
	return nil
}

func (tx *mockTx) FetchUser(id uint) (*User, error) {
	u, found := tx.t.users[id]
	if !found {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	return &u, nil
}

func (tx *mockTx) FetchUserByUsername(username string) (*User, error) {
	for _, u := range tx.t.users {
		if u.Username == username {
			return &u, nil
		}
	}

	return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
}

func (tx *mockTx) FetchPortfolio(userID uint) (*Portfolio, error) {
	p, found := tx.t.portfolios[userID]
	if !found {
		return nil, fmt.Errorf("portfolio for user %d: %w", userID, ErrNotFound)
	}

	return &p, nil
}

func (tx *mockTx) FetchPortfolioForUpdate(userID uint) (*Portfolio, error) {
	return tx.FetchPortfolio(userID)
}

func (tx *mockTx) SavePortfolio(portfolio *Portfolio) error {
	prev, existed := tx.t.portfolios[portfolio.UserID]
	if existed && portfolio.ID != prev.ID {
		return fmt.Errorf("MockDatabase: duplicate portfolio for user %d", portfolio.UserID)
	}

	now := time.Now()
	if portfolio.ID == 0 {
		portfolio.ID = tx.newID()
		portfolio.CreatedAt = now
	}
	portfolio.UpdatedAt = now
	tx.t.portfolios[portfolio.UserID] = *portfolio

	userID := portfolio.UserID
	tx.record(func() {
		if existed {
			tx.t.portfolios[userID] = prev
		} else {
			delete(tx.t.portfolios, userID)
		}
	})
	return nil
}

func (tx *mockTx) FetchWallet(userID, cryptoID uint) (*Wallet, error) {
	w, found := tx.t.wallets[walletKey{userID, cryptoID}]
	if !found {
		return nil, fmt.Errorf("wallet for user %d crypto %d: %w", userID, cryptoID, ErrNotFound)
	}

	return &w, nil
}

func (tx *mockTx) FetchWalletForUpdate(userID, cryptoID uint) (*Wallet, error) {
	return tx.FetchWallet(userID, cryptoID)
}

func (tx *mockTx) FetchWallets(userID uint) ([]*Wallet, error) {
	var out []*Wallet
	for k, w := range tx.t.wallets {
		if k.userID == userID {
			w := w
			out = append(out, &w)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CryptoID < out[j].CryptoID })
	return out, nil
}

func (tx *mockTx) SaveWallet(wallet *Wallet) error {
	key := walletKey{wallet.UserID, wallet.CryptoID}
	prev, existed := tx.t.wallets[key]
	if existed && wallet.ID != prev.ID {
		return fmt.Errorf("MockDatabase: duplicate wallet for user %d crypto %d", wallet.UserID, wallet.CryptoID)
	}

	now := time.Now()
	if wallet.ID == 0 {
		wallet.ID = tx.newID()
		wallet.CreatedAt = now
	}
	wallet.UpdatedAt = now
	tx.t.wallets[key] = *wallet

	tx.record(func() {
		if existed {
			tx.t.wallets[key] = prev
		} else {
			delete(tx.t.wallets, key)
		}
	})
	return nil
}

func (tx *mockTx) CreateOrder(order *OrderRecord) error {
	now := time.Now()
	order.ID = tx.newID()
	order.CreatedAt, order.UpdatedAt = now, now

	n := len(tx.t.orders)
	tx.t.orders = append(tx.t.orders, *order)
	tx.record(func() { tx.t.orders = tx.t.orders[:n] })
	return nil
}

func (tx *mockTx) CreateTransaction(record *TransactionRecord) error {
	now := time.Now()
	record.ID = tx.newID()
	record.CreatedAt, record.UpdatedAt = now, now

	n := len(tx.t.transactions)
	tx.t.transactions = append(tx.t.transactions, *record)
	tx.record(func() { tx.t.transactions = tx.t.transactions[:n] })
	return nil
}

func (tx *mockTx) FetchTransactions(userID uint, limit int) ([]*TransactionRecord, error) {
	var out []*TransactionRecord
	for _, t := range tx.t.transactions {
		if t.UserID == userID {
			t := t
			out = append(out, &t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ExecutedAt.Equal(out[j].ExecutedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].ExecutedAt.After(out[j].ExecutedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (tx *mockTx) CreatePriceHistory(record *PriceHistoryRecord) error {
	record.ID = tx.newID()

	n := len(tx.t.priceHistory)
	tx.t.priceHistory = append(tx.t.priceHistory, *record)
	tx.record(func() { tx.t.priceHistory = tx.t.priceHistory[:n] })
	return nil
}

func (tx *mockTx) FetchPriceHistory(cryptoID uint, start, end time.Time) ([]*PriceHistoryRecord, error) {
	var out []*PriceHistoryRecord
	for _, r := range tx.t.priceHistory {
		if r.CryptoID != cryptoID || r.Timestamp.Before(start) || r.Timestamp.After(end) {
			continue
		}

		r := r
		out = append(out, &r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (tx *mockTx) FetchLatestPriceHistory(cryptoID uint, limit int) ([]*PriceHistoryRecord, error) {
	var out []*PriceHistoryRecord
	for _, r := range tx.t.priceHistory {
		if r.CryptoID == cryptoID {
			r := r
			out = append(out, &r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (tx *mockTx) DeletePriceHistoryBefore(cutoff time.Time) (int64, error) {
	prev := tx.t.priceHistory
	kept := make([]PriceHistoryRecord, 0, len(prev))
	for _, r := range prev {
		if !r.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}

	tx.t.priceHistory = kept
	tx.record(func() { tx.t.priceHistory = prev })
	return int64(len(prev) - len(kept)), nil
}
