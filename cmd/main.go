// Command tudor runs an unattended trend-following trading bot. It polls
// candle history for a single pair, derives a moving-average trend signal
// and drives buy/hold/sell decisions against the exchange account.
//
// Usage:
//
//	tudor setup                (interactive config wizard)
//	tudor -config config.yaml
//	tudor (uses CLI arguments)
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	For Telegram notifications: TELEGRAM_TOKEN
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/tudor/config"
	"github.com/vadiminshakov/tudor/internal"
	"github.com/vadiminshakov/tudor/internal/services/notifier"
	"github.com/vadiminshakov/tudor/internal/setup"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	conf, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	client, err := newExchangeClient(conf.Platform)
	if err != nil {
		logger.Fatal("failed to create exchange client", zap.Error(err))
	}

	notify := newNotifier(conf, logger)

	bot, err := internal.NewTradingBot(conf, client, notify, logger)
	if err != nil {
		logger.Fatal("failed to create trading bot", zap.Error(err))
	}
	defer bot.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("trading bot stopped", zap.Error(err))
	}

	notify.Notify(context.Background(), "bot stopped: "+conf.Pair.String())
	logger.Info("shutdown complete")
}

func newExchangeClient(platform string) (any, error) {
	switch platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		return binance.NewClient(apiKey, apiSecret), nil
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return nil, errors.New("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		return bybit.NewClient().WithAuth(apiKey, apiSecret), nil
	default:
		return nil, errors.Errorf("unsupported platform: %s", platform)
	}
}

func newNotifier(conf config.Config, logger *zap.Logger) notifier.Notifier {
	if !conf.TelegramEnabled {
		return notifier.Noop{}
	}

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		logger.Warn("telegram enabled but TELEGRAM_TOKEN is not set, notifications disabled")
		return notifier.Noop{}
	}

	return notifier.NewTelegram(token, conf.TelegramChatID, logger)
}
