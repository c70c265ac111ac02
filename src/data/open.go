package data

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/jiaming2012/crypto-sim/src/dbutils"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
	"github.com/jiaming2012/crypto-sim/src/logger"
	"github.com/jiaming2012/crypto-sim/src/utils"
)

// OpenDatabase returns the store selected by STORAGE_DRIVER.
func OpenDatabase(cfg *utils.Config) (models.IDatabaseService, error) {
	switch cfg.StorageDriver {
	case utils.StorageDriverMemory:
		log.Warn("using in-memory storage, state is lost on exit")
		return models.NewMockDatabase(), nil

	case utils.StorageDriverPostgres:
		url := cfg.DatabaseURL
		if url == "" {
			url = dbutils.PostgresDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DB)
		}

		var gormLogger gorm_logger.Interface
		if cfg.LogSQL {
			gormLogger = logger.NewLogrusLogger(log.StandardLogger(), cfg.SlowSQLThreshold)
		}

		db, err := dbutils.InitPostgresWithUrl(url, gormLogger)
		if err != nil {
			return nil, fmt.Errorf("OpenDatabase: %w", err)
		}

		log.Infof("connected to postgres %s:%s/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DB)
		return NewDatabaseService(db), nil

	default:
		return nil, fmt.Errorf("OpenDatabase: unknown storage driver %q", cfg.StorageDriver)
	}
}
