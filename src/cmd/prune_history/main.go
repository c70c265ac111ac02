package main

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jiaming2012/crypto-sim/src/data"
	"github.com/jiaming2012/crypto-sim/src/eventconsumers"
	"github.com/jiaming2012/crypto-sim/src/utils"
)

var runCmd = &cobra.Command{
	Use:   "go run src/cmd/prune_history/main.go --older-than 168h",
	Short: "Delete price history older than the retention period",
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

		period, _ := cmd.Flags().GetDuration("older-than")
		if period <= 0 {
			period = cfg.Retention.Period
		}

		db, err := data.OpenDatabase(cfg)
		if err != nil {
			log.Fatalf("error opening database: %v", err)
		}

		worker := eventconsumers.NewRetentionWorker(&sync.WaitGroup{}, db, period, cfg.Retention.SweepInterval)

		deleted, err := worker.Sweep(time.Now().UTC())
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		log.Infof("deleted %d price history records older than %s", deleted, period)
	},
}

func main() {
	runCmd.PersistentFlags().String("go-env", "development", "The go environment to run the command in.")
	runCmd.PersistentFlags().Duration("older-than", 0, "Retention period. Defaults to PRICE_HISTORY_RETENTION.")

	runCmd.Execute()
}
