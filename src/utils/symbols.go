package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

type SymbolCatalogueYAML struct {
	Symbols []models.SymbolConfig `yaml:"symbols"`
}

func ParseSymbolCatalogue(data []byte) ([]models.SymbolConfig, error) {
	var catalogue SymbolCatalogueYAML
	if err := yaml.Unmarshal(data, &catalogue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal symbol catalogue: %w", err)
	}

	if len(catalogue.Symbols) == 0 {
		return nil, fmt.Errorf("symbol catalogue is empty")
	}

	seen := make(map[string]bool)
	for _, s := range catalogue.Symbols {
		if err := s.Validate(); err != nil {
			return nil, err
		}

		if seen[s.Symbol] {
			return nil, fmt.Errorf("duplicate symbol %s", s.Symbol)
		}
		seen[s.Symbol] = true
	}

	return catalogue.Symbols, nil
}

// LoadSymbolCatalogue reads the catalogue at path, or returns the built-in
// catalogue when the file does not exist.
func LoadSymbolCatalogue(path string) ([]models.SymbolConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warnf("symbol catalogue %s not found, using built-in symbols", path)
		return models.DefaultSymbolCatalogue(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read symbol catalogue: %w", err)
	}

	return ParseSymbolCatalogue(data)
}
