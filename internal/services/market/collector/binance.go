package collector

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/tudor/internal/domain"
)

// BinanceKlineProvider implements KlineProvider for Binance.
type BinanceKlineProvider struct {
	client *binance.Client
}

// NewBinanceKlineProvider creates a new Binance kline provider.
func NewBinanceKlineProvider(client *binance.Client) *BinanceKlineProvider {
	return &BinanceKlineProvider{client: client}
}

// GetKlines fetches candle history from Binance. Binance already returns
// bars oldest first, so no reordering is needed.
func (p *BinanceKlineProvider) GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.MarketCandle, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch klines from Binance for %s", pair.String())
	}

	result := make([]domain.MarketCandle, len(klines))
	for i, k := range klines {
		candle, err := parseCandle(k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "bad kline at index %d", i)
		}

		candle.OpenTime = time.UnixMilli(k.OpenTime)
		candle.CloseTime = time.UnixMilli(k.CloseTime)
		result[i] = candle
	}

	return result, nil
}

// parseCandle converts exchange string prices into a candle.
func parseCandle(open, high, low, close, volume string) (domain.MarketCandle, error) {
	var candle domain.MarketCandle
	var err error

	if candle.Open, err = decimal.NewFromString(open); err != nil {
		return domain.MarketCandle{}, errors.Wrap(err, "parse open price")
	}
	if candle.High, err = decimal.NewFromString(high); err != nil {
		return domain.MarketCandle{}, errors.Wrap(err, "parse high price")
	}
	if candle.Low, err = decimal.NewFromString(low); err != nil {
		return domain.MarketCandle{}, errors.Wrap(err, "parse low price")
	}
	if candle.Close, err = decimal.NewFromString(close); err != nil {
		return domain.MarketCandle{}, errors.Wrap(err, "parse close price")
	}
	if candle.Volume, err = decimal.NewFromString(volume); err != nil {
		return domain.MarketCandle{}, errors.Wrap(err, "parse volume")
	}

	return candle, nil
}
