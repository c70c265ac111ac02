package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

func TestRegister(t *testing.T) {
	t.Run("Creates a user with an opening portfolio", func(t *testing.T) {
		db := models.NewMockDatabase()
		users := NewUserService(db)

		user, err := users.Register("  bob ", "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, "bob", user.Username)

		portfolio, err := db.FetchPortfolio(user.ID)
		require.NoError(t, err)
		assertDecimal(t, "10000", portfolio.UsdBalance)
	})

	t.Run("Rejects invalid input", func(t *testing.T) {
		users := NewUserService(models.NewMockDatabase())

		cases := []struct {
			name     string
			username string
			email    string
		}{
			{"short username", "ab", ""},
			{"long username", strings.Repeat("x", MaxUsernameLength+1), ""},
			{"bad email", "carol", "carol.example.com"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := users.Register(tc.username, tc.email)
				assert.True(t, errors.Is(err, models.ErrInvalidRequest), "got %v", err)
			})
		}
	})

	t.Run("Rejects a duplicate username", func(t *testing.T) {
		db := models.NewMockDatabase()
		users := NewUserService(db)

		_, err := users.Register("dave", "")
		require.NoError(t, err)

		_, err = users.Register("dave", "other@example.com")
		assert.True(t, errors.Is(err, models.ErrInvalidRequest), "got %v", err)
	})
}
