package router

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/services"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerResponse struct {
	UserID     uint            `json:"userId"`
	Username   string          `json:"username"`
	Email      string          `json:"email,omitempty"`
	UsdBalance decimal.Decimal `json:"usdBalance"`
}

type tradeSuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*models.TradeResult
}

type tradeFailureResponse struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Msg     string `json:"message"`
}

type transactionsQuery struct {
	Limit int `schema:"limit,default:50"`
}

type UserHandler struct {
	users    *services.UserService
	accounts *services.AccountService
	trades   *services.TradeExecutor
	limiter  *UserRateLimiter
}

func NewUserHandler(users *services.UserService, accounts *services.AccountService, trades *services.TradeExecutor, limiter *UserRateLimiter) *UserHandler {
	return &UserHandler{
		users:    users,
		accounts: accounts,
		trades:   trades,
		limiter:  limiter,
	}
}

func userIDVar(r *http.Request) (uint, error) {
	raw := mux.Vars(r)["id"]

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, invalidRequest("invalid user id %q", raw)
	}

	return uint(id), nil
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setTradeErrorResponse(invalidRequest("malformed body: %v", err), w)
		return
	}

	user, err := h.users.Register(req.Username, req.Email)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	setResponse(registerResponse{
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		UsdBalance: models.InitialUsdBalance,
	}, w)
}

func setTradeFailure(err error, w http.ResponseWriter) {
	tradeErr := asTradeError(err)
	writeJSON(tradeErr.StatusCode(), tradeFailureResponse{
		Success: false,
		Type:    string(tradeErr.Kind),
		Msg:     tradeErr.Message,
	}, w)
}

func (h *UserHandler) handleTrade(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDVar(r)
	if err != nil {
		setTradeFailure(err, w)
		return
	}

	if h.limiter != nil && !h.limiter.Allow(userID) {
		writeJSON(http.StatusTooManyRequests, tradeFailureResponse{
			Success: false,
			Type:    "RateLimited",
			Msg:     "too many trade requests",
		}, w)
		return
	}

	var req models.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		setTradeFailure(invalidRequest("malformed body: %v", err), w)
		return
	}
	req.UserID = userID

	result, err := h.trades.ExecuteTrade(r.Context(), req)
	if err != nil {
		setTradeFailure(err, w)
		return
	}

	setResponse(tradeSuccessResponse{
		Success:     true,
		Message:     "trade executed",
		TradeResult: result,
	}, w)
}

func (h *UserHandler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDVar(r)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	summary, err := h.accounts.GetPortfolioSummary(userID)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	setResponse(summary, w)
}

func (h *UserHandler) handleWallets(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDVar(r)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	wallets, err := h.accounts.GetWallets(userID)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	setResponse(wallets, w)
}

func (h *UserHandler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDVar(r)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	var query transactionsQuery
	if err := decodeQuery(&query, r); err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	transactions, err := h.accounts.GetTransactions(userID, query.Limit)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	setResponse(transactions, w)
}
