package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jiaming2012/crypto-sim/src/data"
	"github.com/jiaming2012/crypto-sim/src/eventconsumers"
	"github.com/jiaming2012/crypto-sim/src/eventproducers"
	"github.com/jiaming2012/crypto-sim/src/eventpubsub"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
	exchange_router "github.com/jiaming2012/crypto-sim/src/exchange-api/router"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/services"
	"github.com/jiaming2012/crypto-sim/src/marketdata"
	"github.com/jiaming2012/crypto-sim/src/telemetry"
	"github.com/jiaming2012/crypto-sim/src/utils"
)

func main() {
	run()
}

// initialPrice starts a symbol at the last historical close, or at its seed
// price when no real history was found.
func initialPrice(cfg models.SymbolConfig, series *marketdata.PriceSeries) decimal.Decimal {
	if series != nil && !series.Synthetic && series.Len() > 0 {
		return series.Last().Price
	}

	return cfg.SeedPrice()
}

func setupSimulator(wg *sync.WaitGroup, db models.IDatabaseService, cfg *utils.Config, catalogue []models.SymbolConfig) (*marketdata.PriceSimulator, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	loader := marketdata.NewSeriesLoader(cfg.Simulator.HistoricalDataDir, cfg.Simulator.MinSeriesPoints, cfg.Simulator.SyntheticPoints, rng)
	simulator := marketdata.NewPriceSimulator(wg, db, cfg.Simulator.TickInterval, rng)

	for _, symbolCfg := range catalogue {
		series := loader.Load(symbolCfg)

		var replay *marketdata.PriceSeries
		if cfg.Simulator.Replay {
			replay = series
		}

		if err := simulator.AddSymbol(symbolCfg, replay, initialPrice(symbolCfg, series)); err != nil {
			return nil, fmt.Errorf("setupSimulator: %w", err)
		}
	}

	return simulator, nil
}

func setupPublishers(cfg *utils.Config) (cleanup func(), err error) {
	var closers []func() error

	cleanup = func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warnf("publisher close: %v", err)
			}
		}
	}

	if brokers := eventproducers.ParseBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		publisher := eventproducers.NewKafkaEventPublisher(eventproducers.NewKafkaWriter(brokers, cfg.KafkaTopic))
		if err := publisher.Subscribe(); err != nil {
			return cleanup, fmt.Errorf("kafka publisher: %w", err)
		}

		closers = append(closers, publisher.Close)
		log.Infof("publishing events to kafka topic %s", cfg.KafkaTopic)
	}

	if cfg.RedisAddr != "" {
		client := eventproducers.NewRedisClient(cfg.RedisAddr)
		if err := eventproducers.NewRedisPricePublisher(client, cfg.RedisPricesKey).Subscribe(); err != nil {
			return cleanup, fmt.Errorf("redis publisher: %w", err)
		}

		closers = append(closers, client.Close)
		log.Infof("publishing prices to redis %s", cfg.RedisAddr)
	}

	return cleanup, nil
}

func registerPprof(router *mux.Router) {
	pprofRouter := router.PathPrefix("/debug/pprof").Subrouter()
	pprofRouter.HandleFunc("/", http.HandlerFunc(pprof.Index))
	pprofRouter.HandleFunc("/cmdline", http.HandlerFunc(pprof.Cmdline))
	pprofRouter.HandleFunc("/profile", http.HandlerFunc(pprof.Profile))
	pprofRouter.HandleFunc("/symbol", http.HandlerFunc(pprof.Symbol))
	pprofRouter.HandleFunc("/trace", http.HandlerFunc(pprof.Trace))
	pprofRouter.Handle("/goroutine", pprof.Handler("goroutine"))
	pprofRouter.Handle("/heap", pprof.Handler("heap"))
}

func run() {
	projectsDir := os.Getenv("PROJECTS_DIR")
	if projectsDir == "" {
		projectsDir = "."
	}

	if err := utils.InitEnvironmentVariables(projectsDir, os.Getenv("GO_ENV")); err != nil {
		log.Panic(err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Main: %v", err)
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	log.Infof("Log level set to %v", log.GetLevel())

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	eventpubsub.Init()

	if cfg.OtelEnabled {
		telemetry.InstallLogHook()

		otelShutdown, err := telemetry.SetupOTelSDK(ctx, cfg.OtelServiceName)
		if err != nil {
			log.Fatalf("Main: failed to set up telemetry: %v", err)
		}

		defer func() {
			if err := otelShutdown(context.Background()); err != nil {
				log.Errorf("Main: telemetry shutdown: %v", err)
			}
		}()
	}

	db, err := data.OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Main: %v", err)
	}

	catalogue, err := utils.LoadSymbolCatalogue(cfg.SymbolsFile)
	if err != nil {
		log.Fatalf("Main: %v", err)
	}

	if _, err := services.NewSeeder(db).Seed(catalogue); err != nil {
		log.Fatalf("Main: failed to seed symbols: %v", err)
	}

	simulator, err := setupSimulator(&wg, db, cfg, catalogue)
	if err != nil {
		log.Fatalf("Main: %v", err)
	}

	cleanupPublishers, err := setupPublishers(cfg)
	defer cleanupPublishers()
	if err != nil {
		log.Fatalf("Main: %v", err)
	}

	hub := exchange_router.NewPriceStreamHub()
	if err := hub.Subscribe(); err != nil {
		log.Fatalf("Main: failed to subscribe price stream: %v", err)
	}

	ledger := services.NewLedger(db)
	users := services.NewUserService(db)

	router := mux.NewRouter()
	exchange_router.SetupHandler(router, exchange_router.Handlers{
		Market: exchange_router.NewMarketHandler(services.NewMarketQuery(db, catalogue, cfg.StatsCacheTTL)),
		Users: exchange_router.NewUserHandler(
			users,
			services.NewAccountService(db, ledger),
			services.NewTradeExecutor(db, ledger),
			exchange_router.NewUserRateLimiter(cfg.TradeRateLimit, cfg.TradeRateBurst),
		),
		Stream: hub,
	})

	registerPprof(router)

	simulator.Start(ctx)
	eventconsumers.NewRetentionWorker(&wg, db, cfg.Retention.Period, cfg.Retention.SweepInterval).Start(ctx)

	// Setup web server
	srv := &http.Server{
		Handler: otelhttp.NewHandler(router, "/"),
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// Start web server
	go func() {
		log.Infof("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Create channel for shutdown signals.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	signal.Notify(stop, syscall.SIGTERM)

	log.Info("Main: init complete")

	// Block here until program is shut down
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Main: server shutdown: %v", err)
	}

	hub.Close()

	// stop the simulator and retention workers
	cancel()
	wg.Wait()

	eventpubsub.WaitAsync()

	log.Info("Main: gracefully stopped!")
}
