package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"

	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/services"
)

type historyQuery struct {
	Hours int `schema:"hours,default:24"`
}

type recentQuery struct {
	Limit int `schema:"limit,default:100"`
}

type MarketHandler struct {
	market *services.MarketQuery
}

func NewMarketHandler(market *services.MarketQuery) *MarketHandler {
	return &MarketHandler{market: market}
}

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}

func decodeQuery(dst interface{}, r *http.Request) error {
	if err := newQueryDecoder().Decode(dst, r.URL.Query()); err != nil {
		return invalidRequest("malformed query: %v", err)
	}

	return nil
}

func symbolVar(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
}

func (h *MarketHandler) handlePrices(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.market.GetCurrentPrices()
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	setResponse(quotes, w)
}

func (h *MarketHandler) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := symbolVar(r)

	price, err := h.market.GetPrice(symbol)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	setResponse(map[string]interface{}{
		"symbol": symbol,
		"price":  price,
	}, w)
}

func (h *MarketHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	var query historyQuery
	if err := decodeQuery(&query, r); err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	if query.Hours < services.MinHistoryHours || query.Hours > services.MaxHistoryHours {
		setTradeErrorResponse(invalidRequest("hours must be between %d and %d", services.MinHistoryHours, services.MaxHistoryHours), w)
		return
	}

	symbol := symbolVar(r)
	if _, err := h.market.LookupSymbol(symbol); err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	records, err := h.market.GetHistoricalSeries(symbol, query.Hours)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	setResponse(models.NewPricePoints(records), w)
}

func (h *MarketHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	var query recentQuery
	if err := decodeQuery(&query, r); err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	if query.Limit < services.MinRecentLimit || query.Limit > services.MaxRecentLimit {
		setTradeErrorResponse(invalidRequest("limit must be between %d and %d", services.MinRecentLimit, services.MaxRecentLimit), w)
		return
	}

	symbol := symbolVar(r)
	if _, err := h.market.LookupSymbol(symbol); err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	records, err := h.market.GetLastN(symbol, query.Limit)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	setResponse(models.NewPricePoints(records), w)
}

func (h *MarketHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	symbol := symbolVar(r)

	stats, ok, err := h.market.GetStats(symbol)
	if err != nil {
		setTradeErrorResponse(err, w)
		return
	}

	if !ok {
		setErrorResponse(string(models.SymbolNotFound), http.StatusNotFound, errors.New("unknown symbol "+symbol), w)
		return
	}

	setResponse(stats, w)
}
