package trader

import (
	"context"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tudor/internal/domain"
)

type BybitTrader struct {
	client *bybit.Client
	pair   domain.Pair
}

func NewBybitTrader(client *bybit.Client, pair domain.Pair) (*BybitTrader, error) {
	return &BybitTrader{client: client, pair: pair}, nil
}

// MarketBuy spends quoteAmount of the quote currency on a market buy.
// For Bybit spot market buys Qty is denominated in the quote currency.
func (t *BybitTrader) MarketBuy(ctx context.Context, quoteAmount decimal.Decimal, clientOrderID string) error {
	quoteAmount = quoteAmount.RoundFloor(2)

	_, err := t.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      bybit.SymbolV5(t.pair.Symbol()),
		Side:        bybit.SideBuy,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         quoteAmount.String(),
		OrderLinkID: &clientOrderID,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create bybit buy order")
	}

	return nil
}

// MarketSell sells baseQty of the base currency at market.
func (t *BybitTrader) MarketSell(ctx context.Context, baseQty decimal.Decimal, clientOrderID string) error {
	baseQty = baseQty.RoundFloor(6)

	_, err := t.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      bybit.SymbolV5(t.pair.Symbol()),
		Side:        bybit.SideSell,
		OrderType:   bybit.OrderTypeMarket,
		Qty:         baseQty.String(),
		OrderLinkID: &clientOrderID,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create bybit sell order")
	}

	return nil
}

// GetBalance returns the wallet balance for a currency on the unified account.
func (t *BybitTrader) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	res, err := t.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get bybit account balance")
	}
	if len(res.Result.List) == 0 {
		return decimal.Zero, errors.New("bybit API returned no account data")
	}

	for _, coin := range res.Result.List[0].Coin {
		if string(coin.Coin) == currency {
			balance, err := decimal.NewFromString(coin.WalletBalance)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse balance")
			}
			return balance, nil
		}
	}

	return decimal.Zero, nil
}
