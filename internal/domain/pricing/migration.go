package pricing

import (
	"fmt"
)

// MigrateLegacy converts the legacy flat pricing document
//
//	{lawyerPrice: {eur, usd}, lawyerFee: {eur, usd}, lawyerDuration,
//	 expatPrice:  {eur, usd}, expatFee:  {eur, usd}, expatDuration}
//
// into the nested Config. It returns migrated=false when raw already has the
// nested shape (a "lawyer" or "expat" map) and leaves it untouched.
func MigrateLegacy(raw map[string]interface{}, defaults Config) (Config, bool, error) {
	if raw == nil {
		return Hydrate(Config{}, defaults), true, nil
	}
	if _, ok := raw[ServiceLawyer].(map[string]interface{}); ok {
		return Config{}, false, nil
	}
	if _, ok := raw[ServiceExpat].(map[string]interface{}); ok {
		return Config{}, false, nil
	}

	var cfg Config
	for _, svc := range ValidServices {
		prices, _ := raw[svc+"Price"].(map[string]interface{})
		fees, _ := raw[svc+"Fee"].(map[string]interface{})
		duration, hasDuration := toFloat(raw[svc+"Duration"])

		for _, cur := range ValidCurrencies {
			def, _ := defaults.Price(svc, cur)
			p := def

			if v, ok := toFloat(prices[cur]); ok {
				p.TotalAmount = v
			}
			if v, ok := toFloat(fees[cur]); ok {
				p.ConnectionFeeAmount = v
			}
			if hasDuration {
				p.Duration = int(duration)
			}
			if err := validateAmounts(p.TotalAmount, p.ConnectionFeeAmount); err != nil {
				return Config{}, false, fmt.Errorf("legacy %s/%s: %w", svc, cur, err)
			}
			cfg.SetPrice(svc, cur, p)
		}
	}
	return Hydrate(cfg, defaults), true, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
