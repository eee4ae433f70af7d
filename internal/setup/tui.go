// Package setup provides a terminal wizard that generates a yaml config.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/tudor/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform       string
		pair           string
		tickStr        string
		stopLossStr    string
		trailingStr    string
		activationStr  string
		investRatioStr string
		reentry        bool
		cooldownStr    string
		telegramChatID string
		confirm        bool
	)

	// defaults
	tickStr = "1m"
	stopLossStr = "0.07"
	trailingStr = "0.10"
	activationStr = "0.08"
	investRatioStr = "0.9"
	reentry = true
	cooldownStr = "4h"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("TUDOR CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Trend following on autopilot.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TUDOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: ASSET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("Must contain underscore (e.g. BTC_USDT)").
				Value(&pair).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("pair cannot be empty")
					}
					if !containsUnderscore(s) {
						return fmt.Errorf("invalid format: must be BASE_QUOTE (e.g. BTC_USDT)")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TUDOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Decision Tick Interval").
				Description("Duration string (e.g. 30s, 1m, 5m)").
				Value(&tickStr).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TUDOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: RISK SETTINGS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Stop Loss").
				Description("Fraction below entry price (e.g. 0.07 for 7%)").
				Value(&stopLossStr).
				Validate(validateFraction),
			huh.NewInput().
				Title("Trailing Stop").
				Description("Fraction below the highest price (e.g. 0.10)").
				Value(&trailingStr).
				Validate(validateFraction),
			huh.NewInput().
				Title("Trailing Activation").
				Description("Gain over entry that arms the trailing stop (e.g. 0.08)").
				Value(&activationStr).
				Validate(validateFraction),
			huh.NewInput().
				Title("Invest Ratio").
				Description("Share of quote balance spent per entry (e.g. 0.9)").
				Value(&investRatioStr).
				Validate(validateFraction),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TUDOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: REENTRY"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow reentry after an exit?").
				Value(&reentry),
			huh.NewInput().
				Title("Reentry Cooldown").
				Description("Minimum wait after an exit (e.g. 4h)").
				Value(&cooldownStr).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TUDOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 6: NOTIFICATIONS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram Chat ID").
				Description("Leave empty to disable (token comes from TELEGRAM_TOKEN env)").
				Value(&telegramChatID),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("TUDOR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nPair: %s\nTick: %s\nStop Loss: %s\nTrailing: %s (arm at %s)\nInvest Ratio: %s\nReentry: %v (cooldown %s)\n",
		platform, pair, tickStr, stopLossStr, trailingStr, activationStr, investRatioStr, reentry, cooldownStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	tick, _ := time.ParseDuration(tickStr)
	cooldown, _ := time.ParseDuration(cooldownStr)

	cfgTmp := config.ConfigTmp{
		Platform:              platform,
		Pair:                  pair,
		TickInterval:          tick,
		StopLossPct:           stopLossStr,
		TrailingStopPct:       trailingStr,
		TrailingActivationPct: activationStr,
		InvestRatio:           investRatioStr,
		ReentryEnabled:        &reentry,
		ReentryCooldown:       cooldown,
		TelegramEnabled:       telegramChatID != "",
		TelegramChatID:        telegramChatID,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\nConfiguration saved to %s\nStart the bot with: tudor -config %s", filename, filename)))
	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}

func validateFraction(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThan(decimal.Zero) || d.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("must be between 0 and 1")
	}
	return nil
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
