package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// InitEnvironmentVariables loads <dir>/.env.<goEnv>. Production reads the
// process environment only.
func InitEnvironmentVariables(dir, goEnv string) error {
	if goEnv == "production" {
		log.Info("Running in production environment")
		return nil
	}

	if goEnv == "" {
		goEnv = "development"
	}

	envFile := filepath.Join(dir, fmt.Sprintf(".env.%s", goEnv))
	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		log.Infof("%s not found, using process environment", envFile)
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s file: %w", envFile, err)
	}

	return nil
}

func GetEnv(key string) (string, error) {
	value, found := os.LookupEnv(key)
	if !found {
		return "", fmt.Errorf("missing environment variable %s", key)
	}

	return value, nil
}
