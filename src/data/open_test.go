package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
	"github.com/jiaming2012/crypto-sim/src/utils"
)

func TestOpenDatabase(t *testing.T) {
	t.Run("Memory driver", func(t *testing.T) {
		db, err := OpenDatabase(&utils.Config{StorageDriver: utils.StorageDriverMemory})
		require.NoError(t, err)

		_, ok := db.(*models.MockDatabase)
		assert.True(t, ok)
	})

	t.Run("Unknown driver", func(t *testing.T) {
		_, err := OpenDatabase(&utils.Config{StorageDriver: "sqlite"})
		assert.Error(t, err)
	})
}
