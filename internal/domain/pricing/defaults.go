package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig is used when admin_config/pricing is missing and to fill gaps
// during hydration.
func DefaultConfig() Config {
	return Config{
		Lawyer: map[string]ServicePrice{
			CurrencyEUR: {TotalAmount: 49, ConnectionFeeAmount: 19, Duration: 20, Currency: CurrencyEUR},
			CurrencyUSD: {TotalAmount: 55, ConnectionFeeAmount: 25, Duration: 20, Currency: CurrencyUSD},
		},
		Expat: map[string]ServicePrice{
			CurrencyEUR: {TotalAmount: 19, ConnectionFeeAmount: 9, Duration: 30, Currency: CurrencyEUR},
			CurrencyUSD: {TotalAmount: 25, ConnectionFeeAmount: 15, Duration: 30, Currency: CurrencyUSD},
		},
	}
}

// LoadDefaults reads default prices from a YAML file:
//
//	lawyer:
//	  eur: {totalAmount: 49, connectionFeeAmount: 19, duration: 20}
//	expat:
//	  usd: {totalAmount: 25, connectionFeeAmount: 15, duration: 30}
//
// Entries missing from the file keep the built-in defaults. An empty path
// returns the built-in defaults.
func LoadDefaults(path string) (Config, error) {
	base := DefaultConfig()
	if path == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read pricing defaults: %w", err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return base, fmt.Errorf("parse pricing defaults: %w", err)
	}
	for _, svc := range ValidServices {
		for cur, p := range fileCfg.prices(svc) {
			cur, err := ParseCurrency(cur)
			if err != nil {
				return base, fmt.Errorf("pricing defaults %s: %w", svc, err)
			}
			p.Currency = cur
			base.SetPrice(svc, cur, p)
		}
	}
	out := Hydrate(base, DefaultConfig())
	if err := Validate(out); err != nil {
		return DefaultConfig(), err
	}
	return out, nil
}
