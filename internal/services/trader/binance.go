// Package trader places market orders and reads wallet balances.
package trader

import (
	"context"
	"sync"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tudor/internal/domain"
)

type BinanceTrader struct {
	client *binance.Client
	pair   domain.Pair

	mu    sync.Mutex
	rules *symbolRules
}

// symbolRules carries the precision the exchange imposes on one symbol,
// taken from the exchange info filters.
type symbolRules struct {
	quotePrecision int32
	lotStep        decimal.Decimal
}

func NewBinanceTrader(client *binance.Client, pair domain.Pair) (*BinanceTrader, error) {
	return &BinanceTrader{client: client, pair: pair}, nil
}

// MarketBuy spends quoteAmount of the quote currency on a market buy.
// The exchange computes the base quantity from the current book.
func (t *BinanceTrader) MarketBuy(ctx context.Context, quoteAmount decimal.Decimal, clientOrderID string) error {
	rules, err := t.loadRules(ctx)
	if err != nil {
		return err
	}
	quoteAmount = quoteAmount.RoundFloor(rules.quotePrecision)

	_, err = t.client.NewCreateOrderService().
		Symbol(t.pair.Symbol()).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeMarket).
		QuoteOrderQty(quoteAmount.String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create binance buy order")
	}

	return nil
}

// MarketSell sells baseQty of the base currency at market.
func (t *BinanceTrader) MarketSell(ctx context.Context, baseQty decimal.Decimal, clientOrderID string) error {
	rules, err := t.loadRules(ctx)
	if err != nil {
		return err
	}
	baseQty = floorToStep(baseQty, rules.lotStep)

	_, err = t.client.NewCreateOrderService().
		Symbol(t.pair.Symbol()).
		Side(binance.SideTypeSell).
		Type(binance.OrderTypeMarket).
		Quantity(baseQty.String()).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create binance sell order")
	}

	return nil
}

// GetBalance returns the free balance for a currency.
func (t *BinanceTrader) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	account, err := t.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get binance account balance")
	}

	for _, balance := range account.Balances {
		if balance.Asset == currency {
			free, err := decimal.NewFromString(balance.Free)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse balance")
			}
			return free, nil
		}
	}

	return decimal.Zero, nil
}

// loadRules fetches the symbol's precision rules once and caches them for
// the life of the trader.
func (t *BinanceTrader) loadRules(ctx context.Context) (symbolRules, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rules != nil {
		return *t.rules, nil
	}

	info, err := t.client.NewExchangeInfoService().Symbol(t.pair.Symbol()).Do(ctx)
	if err != nil {
		return symbolRules{}, errors.Wrap(err, "failed to get binance exchange info")
	}

	for _, s := range info.Symbols {
		if s.Symbol != t.pair.Symbol() {
			continue
		}

		rules := symbolRules{quotePrecision: int32(s.QuotePrecision)}
		if f := s.LotSizeFilter(); f != nil {
			step, err := decimal.NewFromString(f.StepSize)
			if err != nil {
				return symbolRules{}, errors.Wrapf(err, "failed to parse lot step size %q", f.StepSize)
			}
			rules.lotStep = step
		}

		t.rules = &rules
		return rules, nil
	}

	return symbolRules{}, errors.Errorf("symbol %s not found in binance exchange info", t.pair.Symbol())
}

// floorToStep rounds qty down to a whole multiple of step. A zero step
// leaves the quantity untouched.
func floorToStep(qty, step decimal.Decimal) decimal.Decimal {
	if step.LessThanOrEqual(decimal.Zero) {
		return qty
	}
	return qty.Div(step).Floor().Mul(step)
}
