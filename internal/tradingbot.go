package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tudor/config"
	"github.com/vadiminshakov/tudor/internal/domain"
	"github.com/vadiminshakov/tudor/internal/services/notifier"
	"github.com/vadiminshakov/tudor/internal/services/signal"
	"github.com/vadiminshakov/tudor/internal/services/strategy/trend"
	"github.com/vadiminshakov/tudor/internal/storage/positions"
	"github.com/vadiminshakov/tudor/internal/storage/trades"
	"github.com/vadiminshakov/tudor/pkg/retrier"
)

type TradingStrategy interface {
	Initialize(ctx context.Context) error
	Trade(ctx context.Context) error
	Close() error
}

// TradingBot wires the platform services, storage and strategy together and
// drives the decision loop.
type TradingBot struct {
	Config          config.Config
	tradingStrategy TradingStrategy
	trades          *trades.WALStore
	notify          notifier.Notifier
}

// NewTradingBot creates a new trading bot instance for the given exchange client.
func NewTradingBot(conf config.Config, client any, notify notifier.Notifier, logger *zap.Logger) (*TradingBot, error) {
	provider, err := NewServiceProvider(client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service provider")
	}

	currentTrader, err := provider.Trader(conf.Pair)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trader")
	}
	currentPricer, err := provider.Pricer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pricer")
	}
	klines, err := provider.KlineProvider()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kline provider")
	}

	positionStore, err := positions.NewStore(conf.StateFilePath, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open position store")
	}
	tradeStore, err := trades.NewWALStore(conf.TradesWALDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open trade journal")
	}

	calc, err := signal.NewCalculator(conf.LongWindow, conf.ShortWindow)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create signal calculator")
	}

	tsLogger := logger.With(zap.String("pair", conf.Pair.String()))
	tradingStrategy, err := trend.NewStrategy(
		tsLogger,
		trend.Config{
			Pair:                  conf.Pair,
			CandleInterval:        conf.CandleInterval,
			CandleLimit:           conf.CandleLimit,
			StopLossPct:           conf.StopLossPct,
			TrailingStopPct:       conf.TrailingStopPct,
			TrailingActivationPct: conf.TrailingActivationPct,
			InvestRatio:           conf.InvestRatio,
			MinTradeAmount:        conf.MinTradeAmount,
			ReentryEnabled:        conf.ReentryEnabled,
			ReentryCooldown:       conf.ReentryCooldown,
			SettleDelay:           conf.SettleDelay,
			HeartbeatEvery:        conf.HeartbeatEvery,
		},
		calc,
		currentPricer,
		klines,
		currentTrader,
		positionStore,
		tradeStore,
		notify,
		retrier.New(retrier.WithMaxRetries(conf.RetryCount), retrier.WithDelay(conf.RetryDelay)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trend strategy")
	}

	return &TradingBot{
		Config:          conf,
		tradingStrategy: tradingStrategy,
		trades:          tradeStore,
		notify:          notify,
	}, nil
}

// Close releases the bot's resources.
func (b *TradingBot) Close() {
	b.tradingStrategy.Close()
	b.trades.Close()
}

// Run executes the decision loop until the context is cancelled. Ticks never
// overlap: the next tick waits for the previous one to finish.
func (b *TradingBot) Run(ctx context.Context, logger *zap.Logger) error {
	if err := b.tradingStrategy.Initialize(ctx); err != nil {
		return errors.Wrap(err, "failed to initialize trading strategy")
	}

	ticker := time.NewTicker(b.Config.TickInterval)
	defer ticker.Stop()

	logger.Info("starting trading loop",
		zap.String("pair", b.Config.Pair.String()),
		zap.Duration("tick_interval", b.Config.TickInterval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("context done, stopping trading loop", zap.String("pair", b.Config.Pair.String()))
			return ctx.Err()
		case <-ticker.C:
			if err := b.tradingStrategy.Trade(ctx); err != nil {
				// a failed tick never stops the loop, the next tick
				// re-reads everything from the exchange
				logger.Error("tick failed", zap.String("pair", b.Config.Pair.String()), zap.Error(err))

				if errors.Is(err, domain.ErrExecutionUnconfirmed) || errors.Is(err, domain.ErrRemoteUnavailable) {
					b.notify.Notify(ctx, "tick failed: "+err.Error())
				}
			}
		}
	}
}
