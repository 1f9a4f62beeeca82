package payment

import (
	"math"
	"strings"
)

// ToBaseCurrency converts a whole-unit amount in currency into whole units of
// the base currency. The product is rounded half away from zero.
func (c Config) ToBaseCurrency(amount int64, currency string) (int64, error) {
	cur := strings.ToLower(strings.TrimSpace(currency))
	rate, ok := c.Rates[cur]
	if !ok {
		return 0, newValidationError("currency", "unsupported currency %q", currency)
	}
	return int64(math.Round(float64(amount) * rate)), nil
}

// MaxProcessorAmountMinor is the largest single charge the processor accepts,
// in minor units (eight digits).
const MaxProcessorAmountMinor = int64(99_999_999)

// ToMinorUnits converts whole units into the processor's smallest unit. Every
// supported currency has two decimal places at the processor.
func ToMinorUnits(amount int64) int64 {
	return amount * 100
}

// ValidateAmount enforces the supported-currency set, the per-currency
// minimum, the ceiling on the base-currency equivalent and the processor's
// per-charge limit.
func (c Config) ValidateAmount(amount int64, currency string) error {
	cur := strings.ToLower(strings.TrimSpace(currency))
	if _, ok := c.Rates[cur]; !ok {
		return newValidationError("currency", "unsupported currency %q", currency)
	}
	if amount <= 0 {
		return newValidationError("amount", "amount must be positive")
	}
	if minimum, ok := c.MinimumAmounts[cur]; ok && amount < minimum {
		return newValidationError("amount", "minimum donation is %d %s", minimum, strings.ToUpper(cur))
	}
	if amount > MaxProcessorAmountMinor/100 {
		return newValidationError("amount", "maximum card payment is %d %s", MaxProcessorAmountMinor/100, strings.ToUpper(cur))
	}
	if c.MaximumAmount > 0 {
		base, err := c.ToBaseCurrency(amount, cur)
		if err != nil {
			return err
		}
		if base > c.MaximumAmount {
			return newValidationError("amount", "maximum donation is %d %s", c.MaximumAmount, strings.ToUpper(c.BaseCurrency))
		}
	}
	return nil
}
