package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/crypto-sim/src/data"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/services"
	"github.com/jiaming2012/crypto-sim/src/utils"
)

func formatDecimal(d *decimal.Decimal, places int32) string {
	if d == nil {
		return "-"
	}

	return d.StringFixed(places)
}

func formatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return "-"
	}

	return "$" + p.Decimal.StringFixed(4)
}

func Run(market *services.MarketQuery, catalogue []models.SymbolConfig) ([]*models.MarketStats, error) {
	var report []*models.MarketStats
	for _, symbolCfg := range catalogue {
		stats, ok, err := market.GetStats(symbolCfg.Symbol)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", symbolCfg.Symbol, err)
		}

		if !ok {
			log.Warnf("%s is in the catalogue but not in the database", symbolCfg.Symbol)
			continue
		}

		report = append(report, stats)
	}

	return report, nil
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/market_report/main.go",
	Short: "Print current price and 24h statistics for every symbol",
	Run: func(cmd *cobra.Command, args []string) {
		goEnv, err := cmd.Flags().GetString("go-env")
		if err != nil {
			log.Fatalf("error getting go-env: %v", err)
		}

		if err := utils.InitEnvironmentVariables(".", goEnv); err != nil {
			log.Fatalf("error loading environment variables: %v", err)
		}

		cfg, err := utils.LoadConfig()
		if err != nil {
			log.Fatalf("error loading config: %v", err)
		}

		db, err := data.OpenDatabase(cfg)
		if err != nil {
			log.Fatalf("error opening database: %v", err)
		}

		catalogue, err := utils.LoadSymbolCatalogue(cfg.SymbolsFile)
		if err != nil {
			log.Fatalf("error loading symbols: %v", err)
		}

		report, err := Run(services.NewMarketQuery(db, catalogue, 0), catalogue)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Symbol", "Price", "24h Change %", "24h High", "24h Low", "Samples"})

		for _, s := range report {
			table.Append([]string{
				s.Symbol,
				formatPrice(s.CurrentPrice),
				formatDecimal(s.ChangePercent24h, 2),
				formatDecimal(s.High24h, 4),
				formatDecimal(s.Low24h, 4),
				fmt.Sprintf("%d", s.Samples24h),
			})
		}

		table.Render()
	},
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")

	runCmd.Execute()
}
