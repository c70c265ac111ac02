package dbutils

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

var migrations = []interface{}{
	&models.Cryptocurrency{},
	&models.User{},
	&models.Portfolio{},
	&models.Wallet{},
	&models.OrderRecord{},
	&models.TransactionRecord{},
	&models.PriceHistoryRecord{},
}

// InitPostgresWithUrl opens the database and migrates every table. A nil
// gormLogger keeps gorm silent.
func InitPostgresWithUrl(url string, gormLogger logger.Interface) (*gorm.DB, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, m := range migrations {
		if err := db.AutoMigrate(m); err != nil {
			return nil, fmt.Errorf("failed to migrate %T: %w", m, err)
		}
	}

	return db, nil
}

func PostgresDSN(host, port, user, password, dbName string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC", host, user, password, dbName, port)
}

func InitPostgres(host, port, user, password, dbName string, gormLogger logger.Interface) (*gorm.DB, error) {
	return InitPostgresWithUrl(PostgresDSN(host, port, user, password, dbName), gormLogger)
}
