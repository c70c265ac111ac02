package marketdata

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jiaming2012/crypto-sim/src/eventpubsub"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const (
	ReplayNoiseFactor  = 0.01
	PricePrecision     = 4
	MinSyntheticVolume = 1000
	MaxSyntheticVolume = 50000
)

var minTickPrice = decimal.New(1, -PricePrecision)

type symbolState struct {
	config   models.SymbolConfig
	series   *PriceSeries
	cryptoID uint

	// replayIndex and current are written by the ticking goroutine only.
	replayIndex atomic.Int64
	current     atomic.Pointer[decimal.Decimal]
}

// PriceSimulator owns the per-symbol replay cursor and current price. Symbols
// must be registered with AddSymbol before Start.
type PriceSimulator struct {
	wg       *sync.WaitGroup
	db       models.IDatabaseService
	interval time.Duration
	rng      *rand.Rand
	symbols  []*symbolState
	bySymbol map[string]*symbolState
}

func NewPriceSimulator(wg *sync.WaitGroup, db models.IDatabaseService, interval time.Duration, rng *rand.Rand) *PriceSimulator {
	return &PriceSimulator{
		wg:       wg,
		db:       db,
		interval: interval,
		rng:      rng,
		bySymbol: make(map[string]*symbolState),
	}
}

// AddSymbol registers a symbol. A nil series makes it follow a pure random
// walk from initialPrice.
func (s *PriceSimulator) AddSymbol(cfg models.SymbolConfig, series *PriceSeries, initialPrice decimal.Decimal) error {
	if _, found := s.bySymbol[cfg.Symbol]; found {
		return fmt.Errorf("AddSymbol: %s already registered", cfg.Symbol)
	}

	if series != nil && series.Len() == 0 {
		return fmt.Errorf("AddSymbol: %s series is empty", cfg.Symbol)
	}

	if !initialPrice.IsPositive() {
		return fmt.Errorf("AddSymbol: %s initial price must be positive", cfg.Symbol)
	}

	state := &symbolState{config: cfg, series: series}
	price := initialPrice
	state.current.Store(&price)

	s.symbols = append(s.symbols, state)
	s.bySymbol[cfg.Symbol] = state

	return nil
}

func (s *PriceSimulator) Symbols() []string {
	out := make([]string, 0, len(s.symbols))
	for _, st := range s.symbols {
		out = append(out, st.config.Symbol)
	}

	return out
}

func (s *PriceSimulator) CurrentPrice(symbol string) (decimal.Decimal, bool) {
	st, found := s.bySymbol[symbol]
	if !found {
		return decimal.Decimal{}, false
	}

	return *st.current.Load(), true
}

func (s *PriceSimulator) ReplayIndex(symbol string) (int, bool) {
	st, found := s.bySymbol[symbol]
	if !found {
		return 0, false
	}

	return int(st.replayIndex.Load()), true
}

func (s *PriceSimulator) Volatility(symbol string) (float64, bool) {
	st, found := s.bySymbol[symbol]
	if !found {
		return 0, false
	}

	return st.config.Volatility, true
}

// nextPrice applies gaussian noise to the base price at the replay cursor, or
// to the current price for a random walk. The cursor is left untouched.
func (s *PriceSimulator) nextPrice(st *symbolState) decimal.Decimal {
	var base decimal.Decimal
	var noiseFactor float64

	if st.series != nil {
		base = st.series.At(int(st.replayIndex.Load())).Price
		noiseFactor = ReplayNoiseFactor
	} else {
		base = *st.current.Load()
		noiseFactor = st.config.Volatility / 10
	}

	factor := decimal.NewFromFloat(1 + noiseFactor*s.rng.NormFloat64())
	price := base.Mul(factor).Round(PricePrecision)
	if price.LessThan(minTickPrice) {
		price = minTickPrice
	}

	return price
}

func (s *PriceSimulator) sampleVolume() decimal.Decimal {
	v := MinSyntheticVolume + s.rng.Float64()*(MaxSyntheticVolume-MinSyntheticVolume)
	return decimal.NewFromFloat(v).Round(2)
}

func (s *PriceSimulator) resolveCryptoID(st *symbolState) (uint, error) {
	if st.cryptoID != 0 {
		return st.cryptoID, nil
	}

	crypto, err := s.db.FetchCryptocurrencyBySymbol(st.config.Symbol)
	if err != nil {
		return 0, err
	}

	st.cryptoID = crypto.ID
	return st.cryptoID, nil
}

func (s *PriceSimulator) tickSymbol(st *symbolState, now time.Time) (*models.PriceUpdatedEvent, error) {
	cryptoID, err := s.resolveCryptoID(st)
	if err != nil {
		return nil, fmt.Errorf("resolve crypto: %w", err)
	}

	price := s.nextPrice(st)
	volume := s.sampleVolume()

	if err := s.db.Transaction(func(tx models.IDatabaseService) error {
		if err := tx.UpdateCryptocurrencyPrice(cryptoID, price); err != nil {
			return err
		}

		return tx.CreatePriceHistory(models.NewPriceHistoryRecord(cryptoID, price, volume, now, s.interval.String()))
	}); err != nil {
		return nil, err
	}

	if st.series != nil {
		st.replayIndex.Store((st.replayIndex.Load() + 1) % int64(st.series.Len()))
	}

	previous := st.current.Swap(&price)

	change := decimal.Zero
	if previous != nil && previous.IsPositive() {
		change = price.Sub(*previous).Div(*previous).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &models.PriceUpdatedEvent{
		Symbol:        st.config.Symbol,
		Price:         price,
		ChangePercent: change,
		Timestamp:     now,
	}, nil
}

// Tick advances every symbol once. A failure on one symbol is logged and does
// not stop the others. Returns the number of symbols updated.
func (s *PriceSimulator) Tick(ctx context.Context, now time.Time) int {
	ctx, span := otel.Tracer("price_simulator").Start(ctx, "PriceSimulator.Tick")
	defer span.End()

	logger := log.WithContext(ctx)

	updated := 0
	for _, st := range s.symbols {
		event, err := s.tickSymbol(st, now)
		if err != nil {
			logger.WithField("symbol", st.config.Symbol).Errorf("PriceSimulator.Tick: %v", err)
			span.RecordError(err)
			continue
		}

		updated++
		logger.Infof("%s: $%s (%s%%)", event.Symbol, event.Price.StringFixed(PricePrecision), event.ChangePercent.StringFixed(2))
		eventpubsub.Publish(eventpubsub.PriceUpdatedEvent, event)
	}

	span.SetAttributes(attribute.Int("symbols", len(s.symbols)), attribute.Int("updated", updated))
	if updated < len(s.symbols) {
		span.SetStatus(codes.Error, "one or more symbols failed to update")
	}

	return updated
}

func (s *PriceSimulator) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx, time.Now().UTC())
		case <-ctx.Done():
			log.Info("PriceSimulator stopped")
			return
		}
	}
}

func (s *PriceSimulator) Start(ctx context.Context) {
	s.wg.Add(1)

	log.Infof("Starting PriceSimulator for %d symbols every %s", len(s.symbols), s.interval)

	go s.run(ctx)
}
