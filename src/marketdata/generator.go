package marketdata

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

const BarsPerDay = 288

type OHLCVBar struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

func (b OHLCVBar) ToDTO() *CsvPriceRowDTO {
	return &CsvPriceRowDTO{
		Timestamp: b.Timestamp.Format(isoLocalLayout),
		Open:      b.Open.StringFixed(4),
		High:      b.High.StringFixed(4),
		Low:       b.Low.StringFixed(4),
		Close:     b.Close.StringFixed(4),
		Volume:    fmt.Sprintf("%d", b.Volume),
	}
}

func round4(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(4)
}

// GenerateOHLCV produces days*288 five minute bars ending at end. Each close
// follows trend, a sine cycle, gaussian noise and a pull back toward base,
// floored at a tenth of base. After each bar there is a 1% chance of a spike of
// up to 5% either way that carries into the next bar.
func GenerateOHLCV(base decimal.Decimal, volatility float64, days int, end time.Time, rng *rand.Rand) []OHLCVBar {
	if days <= 0 {
		return nil
	}

	basePrice := base.InexactFloat64()
	floor := basePrice * 0.1
	total := days * BarsPerDay

	cycleLength := float64(48 + rng.Intn(96))
	trend := (rng.Float64() - 0.5) * 0.001

	price := basePrice
	ts := end.Add(-time.Duration(days) * 24 * time.Hour)
	bars := make([]OHLCVBar, 0, total)

	for i := 0; i < total; i++ {
		cycle := math.Sin(2*math.Pi*float64(i)/cycleLength) * volatility * 0.5
		noise := rng.NormFloat64() * volatility
		reversion := (basePrice - price) / basePrice * 0.001

		price *= 1 + trend + cycle + noise + reversion
		price = math.Max(price, floor)

		open := price * (1 + rng.NormFloat64()*volatility*0.1)
		closePrice := price
		high := math.Max(open, closePrice) * (1 + math.Abs(rng.NormFloat64())*volatility*0.2)
		low := math.Min(open, closePrice) * (1 - math.Abs(rng.NormFloat64())*volatility*0.2)
		volume := math.Exp(rng.NormFloat64()*0.5+10) * 1000

		bars = append(bars, OHLCVBar{
			Timestamp: ts,
			Open:      round4(open),
			High:      round4(high),
			Low:       round4(low),
			Close:     round4(closePrice),
			Volume:    int64(volume),
		})

		if rng.Float64() < 0.01 {
			price *= 0.95 + rng.Float64()*0.1
		}

		ts = ts.Add(SeriesStep)
	}

	return bars
}

func WriteOHLCVFile(path string, bars []OHLCVBar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("WriteOHLCVFile: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("WriteOHLCVFile: %w", err)
	}
	defer f.Close()

	rows := make([]*CsvPriceRowDTO, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, b.ToDTO())
	}

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("WriteOHLCVFile: %w", err)
	}

	return nil
}
