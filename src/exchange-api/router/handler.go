package router

import (
	"net/http"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Market *MarketHandler
	Users  *UserHandler
	Stream *PriceStreamHub
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	setResponse(map[string]string{"status": "ok"}, w)
}

func SetupHandler(router *mux.Router, handlers Handlers) {
	root := NewRouterSetup("", router)
	root.HandleFunc(http.MethodGet, "/health", handleHealth)

	market := NewRouterSetup("/api/market", router)
	market.HandleFunc(http.MethodGet, "/prices", handlers.Market.handlePrices)
	market.HandleFunc(http.MethodGet, "/price/{symbol}", handlers.Market.handlePrice)
	market.HandleFunc(http.MethodGet, "/history/{symbol}", handlers.Market.handleHistory)
	market.HandleFunc(http.MethodGet, "/recent/{symbol}", handlers.Market.handleRecent)
	market.HandleFunc(http.MethodGet, "/stats/{symbol}", handlers.Market.handleStats)

	if handlers.Stream != nil {
		market.HandleFunc(http.MethodGet, "/stream", handlers.Stream.ServeHTTP)
	}

	users := NewRouterSetup("/api/users", router)
	users.HandleFunc(http.MethodPost, "", handlers.Users.handleRegister)
	users.HandleFunc(http.MethodPost, "/{id}/trades", handlers.Users.handleTrade)
	users.HandleFunc(http.MethodGet, "/{id}/portfolio", handlers.Users.handlePortfolio)
	users.HandleFunc(http.MethodGet, "/{id}/wallets", handlers.Users.handleWallets)
	users.HandleFunc(http.MethodGet, "/{id}/transactions", handlers.Users.handleTransactions)
}
