package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/crypto-sim/src/marketdata"
	"github.com/jiaming2012/crypto-sim/src/utils"
)

type RunArgs struct {
	Days        int
	OutDir      string
	SymbolsFile string
	Seed        int64
}

type RunResult struct {
	Symbol string
	Path   string
	Bars   []marketdata.OHLCVBar
}

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/generate_history/main.go --days 30",
	Short: "Generate synthetic 5 minute OHLCV history for every catalogue symbol",
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

		days, _ := cmd.Flags().GetInt("days")
		outDir, _ := cmd.Flags().GetString("outDir")
		seed, _ := cmd.Flags().GetInt64("seed")

		if outDir == "" {
			outDir = cfg.Simulator.HistoricalDataDir
		}

		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		results, err := Run(RunArgs{
			Days:        days,
			OutDir:      outDir,
			SymbolsFile: cfg.SymbolsFile,
			Seed:        seed,
		})
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		render(results)
	},
}

func Run(args RunArgs) ([]RunResult, error) {
	if args.Days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", args.Days)
	}

	catalogue, err := utils.LoadSymbolCatalogue(args.SymbolsFile)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(args.Seed))
	end := time.Now()

	var results []RunResult
	for _, symbolCfg := range catalogue {
		bars := marketdata.GenerateOHLCV(symbolCfg.SeedPrice(), symbolCfg.Volatility, args.Days, end, rng)
		path := filepath.Join(args.OutDir, marketdata.HistoricalFilename(symbolCfg.Symbol))

		if err := marketdata.WriteOHLCVFile(path, bars); err != nil {
			return nil, fmt.Errorf("%s: %w", symbolCfg.Symbol, err)
		}

		log.Infof("%s: wrote %d bars to %s", symbolCfg.Symbol, len(bars), path)
		results = append(results, RunResult{Symbol: symbolCfg.Symbol, Path: path, Bars: bars})
	}

	return results, nil
}

func render(results []RunResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Symbol", "Bars", "First Close", "Last Close", "File"})

	for _, r := range results {
		if len(r.Bars) == 0 {
			continue
		}

		table.Append([]string{
			r.Symbol,
			fmt.Sprintf("%d", len(r.Bars)),
			r.Bars[0].Close.StringFixed(4),
			r.Bars[len(r.Bars)-1].Close.StringFixed(4),
			r.Path,
		})
	}

	table.Render()
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().Int("days", 30, "Days of history to generate.")
	runCmd.PersistentFlags().String("outDir", "", "Output directory. Defaults to HISTORICAL_DATA_DIR.")
	runCmd.PersistentFlags().Int64("seed", 0, "Random seed. Zero uses the clock.")

	runCmd.Execute()
}
