package services

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

type Seeder struct {
	db models.IDatabaseService
}

func NewSeeder(db models.IDatabaseService) *Seeder {
	return &Seeder{db: db}
}

// Seed inserts every catalogue symbol that is not yet stored. New rows start
// without a price. Returns the number of rows created.
func (s *Seeder) Seed(catalogue []models.SymbolConfig) (int, error) {
	created := 0

	err := s.db.Transaction(func(tx models.IDatabaseService) error {
		for _, cfg := range catalogue {
			_, err := tx.FetchCryptocurrencyBySymbol(cfg.Symbol)
			if err == nil {
				continue
			}

			if !errors.Is(err, models.ErrNotFound) {
				return err
			}

			if err := tx.CreateCryptocurrency(models.NewCryptocurrency(cfg.Symbol, cfg.Name, cfg.Description)); err != nil {
				return err
			}

			created++
		}

		return nil
	})

	if err != nil {
		return 0, fmt.Errorf("Seed: %w", err)
	}

	if created > 0 {
		log.Infof("Seeded %d cryptocurrencies", created)
	}

	return created, nil
}
