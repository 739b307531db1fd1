package pricing

import (
	"fmt"
	"time"
)

// ComputeQuote resolves the effective price of service/currency at now.
// cfg is expected to be hydrated.
func ComputeQuote(cfg Config, service, currency string, now time.Time) (*Quote, error) {
	service, err := ParseService(service)
	if err != nil {
		return nil, err
	}
	currency, err = ParseCurrency(currency)
	if err != nil {
		return nil, err
	}
	std, ok := cfg.Price(service, currency)
	if !ok {
		return nil, fmt.Errorf("%w: no price for %s/%s", ErrNotFound, service, currency)
	}

	q := &Quote{
		ServiceType:         service,
		Currency:            currency,
		TotalAmount:         std.TotalAmount,
		ConnectionFeeAmount: std.ConnectionFeeAmount,
		Duration:            std.Duration,
		StandardTotal:       std.TotalAmount,
	}
	if o := cfg.OverrideFor(service, currency); o.ActiveAt(now) {
		q.TotalAmount = o.TotalAmount
		q.ConnectionFeeAmount = o.ConnectionFeeAmount
		q.OverrideApplied = true
		q.OverrideLabel = o.Label
	}
	q.ProviderAmount = providerAmount(q.TotalAmount, q.ConnectionFeeAmount)
	q.AmountCents = toCents(q.TotalAmount)
	return q, nil
}
