package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const (
	MinHistoryHours = 1
	MaxHistoryHours = 168
	MinRecentLimit  = 1
	MaxRecentLimit  = 1000

	statsWindow = 24 * time.Hour
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

type MarketQuery struct {
	db         models.IDatabaseService
	volatility map[string]float64
	cache      *cache.Cache
	now        func() time.Time
}

// NewMarketQuery caches stats for statsTTL; a non-positive TTL disables the
// cache.
func NewMarketQuery(db models.IDatabaseService, catalogue []models.SymbolConfig, statsTTL time.Duration) *MarketQuery {
	volatility := make(map[string]float64, len(catalogue))
	for _, cfg := range catalogue {
		volatility[cfg.Symbol] = cfg.Volatility
	}

	q := &MarketQuery{
		db:         db,
		volatility: volatility,
		now:        func() time.Time { return time.Now().UTC() },
	}

	if statsTTL > 0 {
		q.cache = cache.New(statsTTL, 2*statsTTL)
	}

	return q
}

// LookupSymbol returns SymbolNotFound for unknown symbols.
func (q *MarketQuery) LookupSymbol(symbol string) (*models.Cryptocurrency, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	crypto, err := q.db.FetchCryptocurrencyBySymbol(symbol)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewTradeError(models.SymbolNotFound, "symbol %s not found", symbol)
		}

		return nil, models.NewInternalError(err)
	}

	return crypto, nil
}

func (q *MarketQuery) GetCurrentPrices() ([]models.PriceQuote, error) {
	cryptos, err := q.db.FetchCryptocurrencies()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	quotes := make([]models.PriceQuote, 0, len(cryptos))
	for _, c := range cryptos {
		quotes = append(quotes, models.PriceQuote{
			Symbol: c.Symbol,
			Name:   c.Name,
			Price:  c.Price,
		})
	}

	return quotes, nil
}

func (q *MarketQuery) GetPrice(symbol string) (decimal.Decimal, error) {
	crypto, err := q.LookupSymbol(symbol)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if !crypto.HasPrice() {
		return decimal.Decimal{}, models.NewTradeError(models.PriceUnavailable, "no price available for %s", crypto.Symbol)
	}

	return crypto.Price.Decimal, nil
}

// GetHistoricalSeries returns the records within the last hours hours in
// ascending order. Unknown symbols yield an empty list.
func (q *MarketQuery) GetHistoricalSeries(symbol string, hours int) ([]*models.PriceHistoryRecord, error) {
	crypto, err := q.LookupSymbol(symbol)
	if err != nil {
		if errors.Is(err, models.ErrSymbolNotFound) {
			return []*models.PriceHistoryRecord{}, nil
		}

		return nil, err
	}

	hours = clamp(hours, MinHistoryHours, MaxHistoryHours)
	end := q.now()
	start := end.Add(-time.Duration(hours) * time.Hour)

	records, err := q.db.FetchPriceHistory(crypto.ID, start, end)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if records == nil {
		records = []*models.PriceHistoryRecord{}
	}

	return records, nil
}

// GetLastN returns up to limit records, newest first. Unknown symbols yield
// an empty list.
func (q *MarketQuery) GetLastN(symbol string, limit int) ([]*models.PriceHistoryRecord, error) {
	crypto, err := q.LookupSymbol(symbol)
	if err != nil {
		if errors.Is(err, models.ErrSymbolNotFound) {
			return []*models.PriceHistoryRecord{}, nil
		}

		return nil, err
	}

	records, err := q.db.FetchLatestPriceHistory(crypto.ID, clamp(limit, MinRecentLimit, MaxRecentLimit))
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if records == nil {
		records = []*models.PriceHistoryRecord{}
	}

	return records, nil
}

// GetStats reports ok=false for an unknown symbol.
func (q *MarketQuery) GetStats(symbol string) (*models.MarketStats, bool, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if q.cache != nil {
		if cached, found := q.cache.Get(symbol); found {
			return cached.(*models.MarketStats), true, nil
		}
	}

	crypto, err := q.LookupSymbol(symbol)
	if err != nil {
		if errors.Is(err, models.ErrSymbolNotFound) {
			return nil, false, nil
		}

		return nil, false, err
	}

	end := q.now()
	window, err := q.db.FetchPriceHistory(crypto.ID, end.Add(-statsWindow), end)
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}

	result := &models.MarketStats{
		Symbol:       crypto.Symbol,
		CurrentPrice: crypto.Price,
		Volatility:   q.volatility[crypto.Symbol],
	}

	if err := fillWindowStats(result, window); err != nil {
		return nil, false, models.NewInternalError(err)
	}

	if q.cache != nil {
		q.cache.Set(symbol, result, cache.DefaultExpiration)
	}

	return result, true, nil
}

func fillWindowStats(result *models.MarketStats, window []*models.PriceHistoryRecord) error {
	if len(window) == 0 || !result.CurrentPrice.Valid {
		return nil
	}

	prices := make(stats.Float64Data, 0, len(window))
	for _, r := range window {
		prices = append(prices, r.Price.InexactFloat64())
	}

	high, err := stats.Max(prices)
	if err != nil {
		return fmt.Errorf("high: %w", err)
	}

	low, err := stats.Min(prices)
	if err != nil {
		return fmt.Errorf("low: %w", err)
	}

	stddev, err := stats.StandardDeviation(prices)
	if err != nil {
		return fmt.Errorf("stddev: %w", err)
	}

	current := result.CurrentPrice.Decimal
	open := window[0].Price
	change := current.Sub(open)

	highD := decimal.NewFromFloat(high)
	lowD := decimal.NewFromFloat(low)
	stddevD := decimal.NewFromFloat(stddev).Round(4)

	result.Change24h = &change
	if open.IsPositive() {
		pct := change.DivRound(open, 4).Mul(decimal.NewFromInt(100))
		result.ChangePercent24h = &pct
	}
	result.High24h = &highD
	result.Low24h = &lowD
	result.StdDev24h = &stddevD
	result.Samples24h = len(window)

	return nil
}
