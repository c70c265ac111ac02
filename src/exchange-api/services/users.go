package services

import (
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

type UserService struct {
	db models.IDatabaseService
}

func NewUserService(db models.IDatabaseService) *UserService {
	return &UserService{db: db}
}

func validateRegistration(username, email string) error {
	if n := len(username); n < MinUsernameLength || n > MaxUsernameLength {
		return models.NewTradeError(models.InvalidRequest, "username must be %d to %d characters", MinUsernameLength, MaxUsernameLength)
	}

	if email != "" && !strings.Contains(email, "@") {
		return models.NewTradeError(models.InvalidRequest, "invalid email %q", email)
	}

	return nil
}

// Register creates the user and its opening portfolio in one transaction.
func (s *UserService) Register(username, email string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateRegistration(username, email); err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email}

	err := s.db.Transaction(func(tx models.IDatabaseService) error {
		if _, err := tx.FetchUserByUsername(username); err == nil {
			return models.NewTradeError(models.InvalidRequest, "username %s is already taken", username)
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		if err := tx.CreateUser(user); err != nil {
			return err
		}

		return tx.SavePortfolio(models.NewPortfolio(user.ID))
	})

	if err != nil {
		var tradeErr *models.TradeError
		if errors.As(err, &tradeErr) {
			return nil, tradeErr
		}

		log.Errorf("Register %s: %v", username, err)
		return nil, models.NewInternalError(err)
	}

	log.WithField("userID", user.ID).Infof("Registered user %s", username)
	return user, nil
}
