package pricing

import (
	"fmt"
	"math"
)

// Hydrate returns a copy of cfg where every service/currency has a standard
// price (taken from defaults when missing), every override has its optional
// fields filled and every providerAmount equals totalAmount - connectionFeeAmount.
func Hydrate(cfg, defaults Config) Config {
	out := Clone(cfg)
	for _, svc := range ValidServices {
		for _, cur := range ValidCurrencies {
			p, ok := out.Price(svc, cur)
			if !ok || p.TotalAmount <= 0 {
				p, _ = defaults.Price(svc, cur)
			}
			if p.Duration <= 0 {
				d, _ := defaults.Price(svc, cur)
				p.Duration = d.Duration
			}
			p.Currency = cur
			p.ProviderAmount = providerAmount(p.TotalAmount, p.ConnectionFeeAmount)
			out.SetPrice(svc, cur, p)

			o := out.OverrideFor(svc, cur)
			if o == nil {
				continue
			}
			if o.StrikeTargets == "" {
				o.StrikeTargets = StrikeTargetsDefault
			}
			if o.Stackable == nil {
				v := out.Overrides.Settings.StackableDefault
				o.Stackable = &v
			}
			o.ProviderAmount = providerAmount(o.TotalAmount, o.ConnectionFeeAmount)
		}
	}
	return out
}

// Validate checks amounts, durations and override windows.
func Validate(cfg Config) error {
	for _, svc := range ValidServices {
		for _, cur := range ValidCurrencies {
			p, ok := cfg.Price(svc, cur)
			if !ok {
				return fmt.Errorf("%w: missing %s/%s price", ErrBadRequest, svc, cur)
			}
			if err := validateAmounts(p.TotalAmount, p.ConnectionFeeAmount); err != nil {
				return fmt.Errorf("%s/%s: %w", svc, cur, err)
			}
			if p.Duration <= 0 {
				return fmt.Errorf("%w: %s/%s duration must be positive", ErrBadRequest, svc, cur)
			}
			if err := ValidateOverride(cfg.OverrideFor(svc, cur)); err != nil {
				return fmt.Errorf("%s/%s override: %w", svc, cur, err)
			}
		}
	}
	return nil
}

// ValidateSubmitted checks the prices an admin actually sent, before
// hydration fills gaps from defaults. Services and currencies left out are
// allowed; every entry present must be complete and valid.
func ValidateSubmitted(cfg Config) error {
	for _, svc := range ValidServices {
		for _, cur := range ValidCurrencies {
			p, ok := cfg.Price(svc, cur)
			if !ok {
				continue
			}
			if err := validateAmounts(p.TotalAmount, p.ConnectionFeeAmount); err != nil {
				return fmt.Errorf("%s/%s: %w", svc, cur, err)
			}
			if p.Duration <= 0 {
				return fmt.Errorf("%w: %s/%s duration must be positive", ErrBadRequest, svc, cur)
			}
		}
	}
	return nil
}

func ValidateOverride(o *Override) error {
	if o == nil {
		return nil
	}
	// a disabled override may be saved as an empty draft
	if o.Enabled || o.TotalAmount != 0 {
		if err := validateAmounts(o.TotalAmount, o.ConnectionFeeAmount); err != nil {
			return err
		}
	}
	if o.StartsAt != nil && o.EndsAt != nil && !o.EndsAt.After(*o.StartsAt) {
		return fmt.Errorf("%w: endsAt must be after startsAt", ErrBadRequest)
	}
	return nil
}

func validateAmounts(total, fee float64) error {
	if math.IsNaN(total) || total <= 0 {
		return fmt.Errorf("%w: totalAmount must be positive", ErrBadRequest)
	}
	if math.IsNaN(fee) || fee < 0 || fee > total {
		return fmt.Errorf("%w: connectionFeeAmount must be between 0 and totalAmount", ErrBadRequest)
	}
	return nil
}

func providerAmount(total, fee float64) float64 {
	return roundCents(total - fee)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Clone deep-copies cfg so hydration never mutates shared defaults.
func Clone(cfg Config) Config {
	out := Config{
		Overrides: Overrides{Settings: cfg.Overrides.Settings},
		UpdatedAt: cfg.UpdatedAt,
		UpdatedBy: cfg.UpdatedBy,
	}
	for _, svc := range ValidServices {
		for cur, p := range cfg.prices(svc) {
			out.SetPrice(svc, cur, p)
		}
		for cur, o := range cfg.overrides(svc) {
			if o == nil {
				continue
			}
			cp := *o
			if o.Stackable != nil {
				v := *o.Stackable
				cp.Stackable = &v
			}
			out.SetOverride(svc, cur, &cp)
		}
	}
	return out
}
