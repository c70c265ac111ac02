package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func NewErrorResponse(errType string, message string) *errorResponse {
	return &errorResponse{
		Type: errType,
		Msg:  message,
	}
}

func writeJSON(statusCode int, response interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("writeJSON: encode: %w", err)
	}

	return nil
}

func setResponse(response interface{}, w http.ResponseWriter) error {
	return writeJSON(http.StatusOK, response, w)
}

func setErrorResponse(errType string, statusCode int, err error, w http.ResponseWriter) error {
	return writeJSON(statusCode, NewErrorResponse(errType, err.Error()), w)
}

// asTradeError maps any error onto the typed taxonomy. Untyped errors become
// InternalError and are logged here since the caller never sees the cause.
func asTradeError(err error) *models.TradeError {
	var tradeErr *models.TradeError
	if errors.As(err, &tradeErr) {
		return tradeErr
	}

	log.Errorf("unexpected error: %v", err)
	return models.NewInternalError(err)
}

func setTradeErrorResponse(err error, w http.ResponseWriter) error {
	tradeErr := asTradeError(err)
	return writeJSON(tradeErr.StatusCode(), NewErrorResponse(string(tradeErr.Kind), tradeErr.Message), w)
}

func invalidRequest(format string, args ...interface{}) error {
	return models.NewTradeError(models.InvalidRequest, format, args...)
}
