package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jiaming2012/crypto-sim/src/eventpubsub"
	"github.com/jiaming2012/crypto-sim/src/exchange-api/models"
)

var CommissionRate = decimal.RequireFromString("0.001")

type TradeState string

const (
	TradeStateValidated     TradeState = "validated"
	TradeStatePriceResolved TradeState = "price_resolved"
	TradeStateFundsChecked  TradeState = "funds_checked"
	TradeStateSettled       TradeState = "settled"
)

// TradeEconomics is the price snapshot and cash amounts for one trade.
type TradeEconomics struct {
	Price      decimal.Decimal
	Gross      decimal.Decimal
	Commission decimal.Decimal
	// Cash is the USD that leaves the portfolio on a buy (gross plus
	// commission) or enters it on a sell (gross minus commission).
	Cash decimal.Decimal
}

// ComputeTradeEconomics rounds gross and commission to the stored scale so
// the settled balances match what the database holds.
func ComputeTradeEconomics(side models.TradeSide, quantity, price decimal.Decimal) TradeEconomics {
	gross := quantity.Mul(price).Round(models.MoneyPrecision)
	commission := gross.Mul(CommissionRate).Round(models.MoneyPrecision)

	cash := gross.Sub(commission)
	if side == models.TradeSideBuy {
		cash = gross.Add(commission)
	}

	return TradeEconomics{
		Price:      price,
		Gross:      gross,
		Commission: commission,
		Cash:       cash,
	}
}

type TradeExecutor struct {
	db     models.IDatabaseService
	ledger *Ledger
	now    func() time.Time
}

func NewTradeExecutor(db models.IDatabaseService, ledger *Ledger) *TradeExecutor {
	return &TradeExecutor{
		db:     db,
		ledger: ledger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (e *TradeExecutor) resolve(req *models.TradeRequest) (*models.Cryptocurrency, error) {
	if _, err := e.db.FetchUser(req.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewTradeError(models.UserNotFound, "user %d not found", req.UserID)
		}

		return nil, models.NewInternalError(err)
	}

	crypto, err := e.db.FetchCryptocurrencyBySymbol(req.Symbol)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NewTradeError(models.SymbolNotFound, "symbol %s not found", req.Symbol)
		}

		return nil, models.NewInternalError(err)
	}

	if !crypto.HasPrice() {
		return nil, models.NewTradeError(models.PriceUnavailable, "no price available for %s", req.Symbol)
	}

	return crypto, nil
}

// checkFunds runs inside settlement, after the portfolio and wallet rows are
// locked.
func checkFunds(tx *LedgerTx, side models.TradeSide, cryptoID uint, quantity decimal.Decimal, econ TradeEconomics) error {
	switch side {
	case models.TradeSideBuy:
		portfolio, err := tx.GetOrCreatePortfolio()
		if err != nil {
			return err
		}

		if portfolio.UsdBalance.LessThan(econ.Cash) {
			return models.NewTradeError(models.InsufficientFunds, "need $%s, have $%s", econ.Cash.StringFixed(4), portfolio.UsdBalance.StringFixed(4))
		}
	case models.TradeSideSell:
		wallet, err := tx.GetOrCreateWallet(cryptoID)
		if err != nil {
			return err
		}

		if wallet.Balance.LessThan(quantity) {
			return models.NewTradeError(models.InsufficientHoldings, "need %s, have %s", quantity.String(), wallet.Balance.String())
		}
	}

	return nil
}

// ExecuteTrade validates, prices and settles a market trade. Settlement is
// all or nothing; the returned error is always a *models.TradeError.
func (e *TradeExecutor) ExecuteTrade(ctx context.Context, req models.TradeRequest) (*models.TradeResult, error) {
	ctx, span := otel.Tracer("trade_executor").Start(ctx, "TradeExecutor.ExecuteTrade")
	defer span.End()

	req.Normalize()

	logger := log.WithContext(ctx).WithFields(log.Fields{
		"userID": req.UserID,
		"symbol": req.Symbol,
		"side":   req.Side,
	})

	span.SetAttributes(
		attribute.Int64("userID", int64(req.UserID)),
		attribute.String("symbol", req.Symbol),
		attribute.String("side", string(req.Side)),
		attribute.String("quantity", req.Quantity.String()),
	)

	result, err := e.execute(&req, logger)
	if err != nil {
		var tradeErr *models.TradeError
		if !errors.As(err, &tradeErr) {
			tradeErr = models.NewInternalError(err)
		}

		if tradeErr.Kind == models.InternalError {
			logger.Errorf("ExecuteTrade: %v", tradeErr.Cause)
		} else {
			logger.Infof("ExecuteTrade rejected: %v", tradeErr)
		}

		span.RecordError(tradeErr)
		span.SetStatus(codes.Error, string(tradeErr.Kind))
		return nil, tradeErr
	}

	span.SetAttributes(attribute.String("tradeID", result.TradeID.String()))
	eventpubsub.Publish(eventpubsub.TradeExecutedEvent, &models.TradeExecutedEvent{UserID: req.UserID, Result: result})

	return result, nil
}

func (e *TradeExecutor) execute(req *models.TradeRequest, logger *log.Entry) (*models.TradeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state := TradeStateValidated

	crypto, err := e.resolve(req)
	if err != nil {
		return nil, err
	}

	state = TradeStatePriceResolved
	econ := ComputeTradeEconomics(req.Side, req.Quantity, crypto.Price.Decimal)
	executedAt := e.now()

	result := &models.TradeResult{
		Symbol:           req.Symbol,
		Side:             req.Side,
		ExecutedQuantity: req.Quantity,
		ExecutionPrice:   econ.Price,
		Commission:       econ.Commission,
		ExecutedAt:       executedAt,
	}

	err = e.ledger.Settle(req.UserID, func(tx *LedgerTx) error {
		if err := checkFunds(tx, req.Side, crypto.ID, req.Quantity, econ); err != nil {
			return err
		}

		state = TradeStateFundsChecked

		var portfolio *models.Portfolio
		var wallet *models.Wallet
		var err error

		if req.Side == models.TradeSideBuy {
			if portfolio, err = tx.AdjustUsd(econ.Cash.Neg()); err != nil {
				return err
			}

			if wallet, err = tx.AdjustCoin(crypto.ID, req.Quantity); err != nil {
				return err
			}
		} else {
			if wallet, err = tx.AdjustCoin(crypto.ID, req.Quantity.Neg()); err != nil {
				return err
			}

			if portfolio, err = tx.AdjustUsd(econ.Cash); err != nil {
				return err
			}
		}

		order := models.NewFilledOrderRecord(req.UserID, crypto.ID, req.Side.OrderSide(), req.Quantity, econ.Price)
		if err := tx.DB().CreateOrder(order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		record := models.NewTransactionRecord(req.UserID, crypto.ID, req.Side, req.Quantity, econ.Price, econ.Commission, order, executedAt)
		if err := tx.DB().CreateTransaction(record); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		snapshot := models.NewPriceHistoryRecord(crypto.ID, econ.Price, req.Quantity, executedAt, models.PriceHistoryIntervalTrade)
		if err := tx.DB().CreatePriceHistory(snapshot); err != nil {
			return fmt.Errorf("create trade snapshot: %w", err)
		}

		result.TradeID = record.TradeID
		result.NewUsdBalance = portfolio.UsdBalance
		result.NewCoinBalance = wallet.Balance
		return nil
	})

	if err != nil {
		logger.Debugf("ExecuteTrade aborted in state %s", state)
		return nil, err
	}

	state = TradeStateSettled
	logger.WithField("tradeID", result.TradeID).Infof("ExecuteTrade %s: %s %s @ $%s, commission $%s", state, req.Quantity, req.Symbol, econ.Price, econ.Commission)

	return result, nil
}
