package payment

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CareFund/internal/pkg/env"
)

const (
	LedgerDatabase = "database"
	LedgerRedis    = "redis"
	LedgerMemory   = "memory"
)

const (
	defaultBaseCurrency   = "pkr"
	defaultMaximumAmount  = int64(999_999)
	defaultRatesUpdatedAt = "2026-10-01"
	defaultSuccessURL     = "http://localhost:4000/donate/success?session_id={CHECKOUT_SESSION_ID}"
	defaultCancelURL      = "http://localhost:4000/donate"
)

// BankTransferDetails is shown to donors whenever card payments are not
// available.
type BankTransferDetails struct {
	AccountTitle string `json:"accountTitle"`
	BankName     string `json:"bankName"`
	IBAN         string `json:"iban"`
}

// Config carries processor credentials and the currency policy.
type Config struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string

	BaseCurrency string
	// Rates maps a currency to the number of base-currency units one unit of
	// that currency is worth.
	Rates          map[string]float64
	RatesUpdatedAt string
	MinimumAmounts map[string]int64
	// MaximumAmount caps a single payment, in whole base-currency units.
	MaximumAmount int64

	SuccessURL string
	CancelURL  string

	Ledger       string
	BankTransfer BankTransferDetails
}

// DefaultConfig returns the currency policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseCurrency: defaultBaseCurrency,
		Rates: map[string]float64{
			"pkr": 1,
			"usd": 278.50,
			"eur": 301.20,
			"gbp": 352.80,
			"cad": 204.10,
			"aed": 75.80,
			"sar": 74.20,
		},
		RatesUpdatedAt: defaultRatesUpdatedAt,
		MinimumAmounts: map[string]int64{
			"pkr": 500,
			"usd": 5,
			"eur": 5,
			"gbp": 5,
			"cad": 5,
			"aed": 20,
			"sar": 20,
		},
		MaximumAmount: defaultMaximumAmount,
		SuccessURL:    defaultSuccessURL,
		CancelURL:     defaultCancelURL,
		Ledger:        LedgerDatabase,
	}
}

// ConfigFromEnv overlays environment configuration on DefaultConfig. Invalid
// tables are logged and the defaults kept.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.SecretKey = strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", ""))
	cfg.PublishableKey = strings.TrimSpace(env.GetEnv("STRIPE_PUBLISHABLE_KEY", ""))
	cfg.WebhookSecret = strings.TrimSpace(env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
	cfg.BaseCurrency = strings.ToLower(strings.TrimSpace(env.GetEnv("BASE_CURRENCY", defaultBaseCurrency)))
	cfg.RatesUpdatedAt = strings.TrimSpace(env.GetEnv("EXCHANGE_RATES_UPDATED_AT", defaultRatesUpdatedAt))
	cfg.SuccessURL = strings.TrimSpace(env.GetEnv("CHECKOUT_SUCCESS_URL", defaultSuccessURL))
	cfg.CancelURL = strings.TrimSpace(env.GetEnv("CHECKOUT_CANCEL_URL", defaultCancelURL))
	cfg.Ledger = strings.ToLower(strings.TrimSpace(env.GetEnv("PAYMENT_LEDGER", LedgerDatabase)))
	cfg.BankTransfer = BankTransferDetails{
		AccountTitle: env.GetEnv("BANK_ACCOUNT_TITLE", ""),
		BankName:     env.GetEnv("BANK_NAME", ""),
		IBAN:         env.GetEnv("BANK_IBAN", ""),
	}

	if raw := env.GetEnv("EXCHANGE_RATES", ""); raw != "" {
		rates, err := ParseRateTable(raw)
		if err != nil {
			log.Errorf("[Payment Config] Ignoring EXCHANGE_RATES: %v", err)
		} else {
			cfg.Rates = rates
		}
	}
	if raw := env.GetEnv("MINIMUM_AMOUNTS", ""); raw != "" {
		mins, err := ParseAmountTable(raw)
		if err != nil {
			log.Errorf("[Payment Config] Ignoring MINIMUM_AMOUNTS: %v", err)
		} else {
			cfg.MinimumAmounts = mins
		}
	}
	if raw := env.GetEnv("MAXIMUM_DONATION_AMOUNT", ""); raw != "" {
		ceiling, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || ceiling <= 0 {
			log.Errorf("[Payment Config] Ignoring MAXIMUM_DONATION_AMOUNT=%q", raw)
		} else {
			cfg.MaximumAmount = ceiling
		}
	}

	// The base currency always converts 1:1.
	cfg.Rates[cfg.BaseCurrency] = 1
	return cfg
}

// IsConfigured reports whether card payments can be attempted at all.
func (c Config) IsConfigured() bool {
	return c.SecretKey != ""
}

// SupportedCurrencies returns the currencies with a known rate, sorted.
func (c Config) SupportedCurrencies() []string {
	out := make([]string, 0, len(c.Rates))
	for cur := range c.Rates {
		out = append(out, cur)
	}
	sort.Strings(out)
	return out
}

// ParseRateTable parses "usd:278.5,eur:301.2" into a rate map.
func ParseRateTable(raw string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range splitPairs(raw) {
		cur, val, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		rate, err := strconv.ParseFloat(val, 64)
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid rate for %s: %q", cur, val)
		}
		out[cur] = rate
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty rate table")
	}
	return out, nil
}

// ParseAmountTable parses "pkr:500,usd:5" into a minimum-amount map.
func ParseAmountTable(raw string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, pair := range splitPairs(raw) {
		cur, val, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		amount, err := strconv.ParseInt(val, 10, 64)
		if err != nil || amount < 0 {
			return nil, fmt.Errorf("invalid amount for %s: %q", cur, val)
		}
		out[cur] = amount
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty amount table")
	}
	return out, nil
}

func splitPairs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitPair(pair string) (string, string, error) {
	cur, val, ok := strings.Cut(pair, ":")
	cur = strings.ToLower(strings.TrimSpace(cur))
	val = strings.TrimSpace(val)
	if !ok || cur == "" || val == "" {
		return "", "", fmt.Errorf("malformed entry %q, want currency:value", pair)
	}
	return cur, val, nil
}
