package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const (
	DefaultSyntheticPoints = 1000
	DefaultMinSeriesPoints = 100
	SeriesStep             = 5 * time.Minute

	isoLocalLayout = "2006-01-02T15:04:05"
)

var minSyntheticPrice = 1.0

// CsvPriceRowDTO is one row of a historical OHLCV file. Fields stay strings so
// that a malformed row can be skipped without failing the whole file.
type CsvPriceRowDTO struct {
	Timestamp string `csv:"timestamp"`
	Open      string `csv:"open"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    string `csv:"volume"`
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(isoLocalLayout, s); err == nil {
		return t, nil
	}

	return time.Parse(time.RFC3339, s)
}

func (dto *CsvPriceRowDTO) ToModel() (models.PriceTick, error) {
	ts, err := parseTimestamp(dto.Timestamp)
	if err != nil {
		return models.PriceTick{}, fmt.Errorf("invalid timestamp %q: %w", dto.Timestamp, err)
	}

	closePrice, err := decimal.NewFromString(strings.TrimSpace(dto.Close))
	if err != nil {
		return models.PriceTick{}, fmt.Errorf("invalid close %q: %w", dto.Close, err)
	}

	if !closePrice.IsPositive() {
		return models.PriceTick{}, fmt.Errorf("non-positive close %s", closePrice)
	}

	return models.PriceTick{Timestamp: ts, Price: closePrice}, nil
}

// PriceSeries is an immutable, ordered tick sequence replayed by the simulator.
type PriceSeries struct {
	Symbol    string
	Ticks     []models.PriceTick
	Synthetic bool
}

func (s *PriceSeries) Len() int {
	return len(s.Ticks)
}

func (s *PriceSeries) At(i int) models.PriceTick {
	return s.Ticks[i]
}

func (s *PriceSeries) Last() models.PriceTick {
	return s.Ticks[len(s.Ticks)-1]
}

// ReadPriceTicks parses close prices from timestamp,open,high,low,close,volume
// rows. Rows that do not parse are logged and skipped.
func ReadPriceTicks(in io.Reader) ([]models.PriceTick, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []*CsvPriceRowDTO
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("ReadPriceTicks: %w", err)
	}

	ticks := make([]models.PriceTick, 0, len(rows))
	for i, row := range rows {
		tick, err := row.ToModel()
		if err != nil {
			log.Debugf("ReadPriceTicks: skipping row %d: %v", i+2, err)
			continue
		}

		ticks = append(ticks, tick)
	}

	return ticks, nil
}

func ReadPriceTicksFile(path string) ([]models.PriceTick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadPriceTicks(f)
}

// GenerateSyntheticSeries random-walks from seed: each step multiplies the
// price by 1 + 0.1*volatility*N(0,1), floored at 1.
func GenerateSyntheticSeries(seed decimal.Decimal, volatility float64, points int, start time.Time, rng *rand.Rand) []models.PriceTick {
	ticks := make([]models.PriceTick, 0, points)
	price := seed.InexactFloat64()
	ts := start

	for i := 0; i < points; i++ {
		price *= 1 + 0.1*volatility*rng.NormFloat64()
		if price < minSyntheticPrice {
			price = minSyntheticPrice
		}

		ticks = append(ticks, models.PriceTick{
			Timestamp: ts,
			Price:     decimal.NewFromFloat(price).Round(8),
		})

		ts = ts.Add(SeriesStep)
	}

	return ticks
}

type SeriesLoader struct {
	dir             string
	minPoints       int
	syntheticPoints int
	rng             *rand.Rand
	now             func() time.Time
}

func NewSeriesLoader(dir string, minPoints, syntheticPoints int, rng *rand.Rand) *SeriesLoader {
	if minPoints <= 0 {
		minPoints = DefaultMinSeriesPoints
	}

	if syntheticPoints <= 0 {
		syntheticPoints = DefaultSyntheticPoints
	}

	return &SeriesLoader{
		dir:             dir,
		minPoints:       minPoints,
		syntheticPoints: syntheticPoints,
		rng:             rng,
		now:             time.Now,
	}
}

func HistoricalFilename(symbol string) string {
	return fmt.Sprintf("%s_USD_historical.csv", symbol)
}

func (l *SeriesLoader) Path(symbol string) string {
	return filepath.Join(l.dir, HistoricalFilename(symbol))
}

// Load never fails: a missing, unreadable or short file falls back to a
// synthetic series seeded from the symbol's initial price.
func (l *SeriesLoader) Load(cfg models.SymbolConfig) *PriceSeries {
	path := l.Path(cfg.Symbol)

	ticks, err := ReadPriceTicksFile(path)
	switch {
	case err != nil:
		log.Warnf("%s: could not load %s: %v, generating synthetic series", cfg.Symbol, path, err)
	case len(ticks) < l.minPoints:
		log.Warnf("%s: %s has %d points (need %d), generating synthetic series", cfg.Symbol, path, len(ticks), l.minPoints)
	default:
		log.Infof("%s: imported %d ticks from %s", cfg.Symbol, len(ticks), path)
		return &PriceSeries{Symbol: cfg.Symbol, Ticks: ticks}
	}

	start := l.now().Add(-time.Duration(l.syntheticPoints/12) * time.Hour)
	return &PriceSeries{
		Symbol:    cfg.Symbol,
		Ticks:     GenerateSyntheticSeries(cfg.SeedPrice(), cfg.Volatility, l.syntheticPoints, start, l.rng),
		Synthetic: true,
	}
}
