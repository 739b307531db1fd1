package payments

import (
	"fmt"
	"math"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stripe/stripe-go/v78"

	"sos-expat/backend/internal/domain/pricing"
	"sos-expat/backend/internal/domain/providers"
)

func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// CheckExpectedAmount rejects a client-side price that differs from the
// server quote, e.g. a page left open across an override boundary.
func CheckExpectedAmount(q *pricing.Quote, expected *float64) error {
	if expected == nil {
		return nil
	}
	if cents(*expected) != q.AmountCents {
		return fmt.Errorf("%w: price changed, expected %.2f but current price is %.2f %s",
			ErrBadRequest, *expected, q.TotalAmount, q.Currency)
	}
	return nil
}

// NewPayment builds the pending payment stored next to a fresh intent.
func NewPayment(intentID, clientID string, p *providers.Provider, q *pricing.Quote) Payment {
	return Payment{
		ID:                  intentID,
		ClientID:            clientID,
		ProviderID:          p.ID,
		ProviderName:        p.DisplayName(),
		ServiceType:         q.ServiceType,
		Currency:            q.Currency,
		TotalAmount:         q.TotalAmount,
		ConnectionFeeAmount: q.ConnectionFeeAmount,
		ProviderAmount:      q.ProviderAmount,
		AmountCents:         q.AmountCents,
		Duration:            q.Duration,
		OverrideApplied:     q.OverrideApplied,
		OverrideLabel:       q.OverrideLabel,
		Status:              StatusPending,
	}
}

// IntentParams returns the Stripe request for a quote.
func IntentParams(clientID string, p *providers.Provider, q *pricing.Quote, idempotencyKey string) *stripe.PaymentIntentParams {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(q.AmountCents),
		Currency: stripe.String(q.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String(fmt.Sprintf("%s call with %s (%d min)", q.ServiceType, p.DisplayName(), q.Duration)),
		Metadata: map[string]string{
			"clientId":            clientID,
			"providerId":          p.ID,
			"serviceType":         q.ServiceType,
			"totalAmount":         fmt.Sprintf("%.2f", q.TotalAmount),
			"connectionFeeAmount": fmt.Sprintf("%.2f", q.ConnectionFeeAmount),
			"providerAmount":      fmt.Sprintf("%.2f", q.ProviderAmount),
		},
	}
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	return params
}

// CanTransition reports whether a payment may move from one status to
// another. Webhooks can arrive out of order or more than once; anything not
// listed here is ignored.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusSucceeded || to == StatusFailed || to == StatusCanceled
	case StatusFailed:
		// a later attempt on the same intent can still succeed
		return to == StatusSucceeded || to == StatusCanceled
	case StatusSucceeded:
		return to == StatusRefunded
	}
	return false
}

var stripeRefundReasons = map[string]bool{
	string(stripe.RefundReasonDuplicate):           true,
	string(stripe.RefundReasonFraudulent):          true,
	string(stripe.RefundReasonRequestedByCustomer): true,
}

// RefundParams returns the Stripe refund request for paymentID. Free-text
// reasons go to metadata; Stripe only accepts its own reason codes.
func RefundParams(paymentID, adminUID, reason string) *stripe.RefundParams {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
		Metadata: map[string]string{
			"refundedBy": adminUID,
		},
	}
	if stripeRefundReasons[reason] {
		params.Reason = stripe.String(reason)
	} else if reason != "" {
		params.Metadata["adminReason"] = reason
	}
	params.SetIdempotencyKey("refund-" + paymentID)
	return params
}

// Summarize totals payments per currency. Gross, fees and payouts count
// succeeded and refunded payments; Refunded is the amount given back.
func Summarize(list []Payment) Summary {
	by := map[string]*CurrencySummary{}
	for _, p := range list {
		cs := by[p.Currency]
		if cs == nil {
			cs = &CurrencySummary{Currency: p.Currency}
			by[p.Currency] = cs
		}
		cs.Count++
		switch p.Status {
		case StatusSucceeded, StatusRefunded:
			cs.SucceededCount++
			cs.Gross += p.TotalAmount
			cs.ConnectionFees += p.ConnectionFeeAmount
			cs.ProviderPayouts += p.ProviderAmount
		}
		if p.Status == StatusRefunded || p.RefundedAmount > 0 {
			cs.RefundedCount++
			refunded := p.RefundedAmount
			if refunded == 0 {
				refunded = p.TotalAmount
			}
			cs.Refunded += refunded
		}
	}

	out := Summary{Currencies: []CurrencySummary{}, Total: len(list)}
	for _, cs := range by {
		cs.Gross = round2(cs.Gross)
		cs.ConnectionFees = round2(cs.ConnectionFees)
		cs.ProviderPayouts = round2(cs.ProviderPayouts)
		cs.Refunded = round2(cs.Refunded)
		out.Currencies = append(out.Currencies, *cs)
	}
	sort.Slice(out.Currencies, func(i, j int) bool {
		return out.Currencies[i].Currency < out.Currencies[j].Currency
	})
	return out
}

func round2(v float64) float64 {
	return float64(cents(v)) / 100
}

// ProviderTotals returns the provider counter updates for one call: calls
// is +1 when a payment succeeds and -1 when it is refunded.
func ProviderTotals(p Payment, calls int64, now time.Time) []firestore.Update {
	return []firestore.Update{
		{Path: "totalCalls", Value: firestore.Increment(calls)},
		{Path: "totalEarnings", Value: firestore.Increment(round2(float64(calls) * p.ProviderAmount))},
		{Path: "updatedAt", Value: now},
	}
}
