package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"sos-expat/backend/internal/domain/pricing"
	"sos-expat/backend/internal/domain/providers"
)

type fakeQuoter struct {
	quote *pricing.Quote
	err   error
}

func (f fakeQuoter) Quote(_ context.Context, service, currency string) (*pricing.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return pricing.ComputeQuote(pricing.DefaultConfig(), service, currency, time.Now())
}

type fakeProviders map[string]*providers.Provider

func (f fakeProviders) Get(_ context.Context, id string) (*providers.Provider, error) {
	p, ok := f[id]
	if !ok {
		return nil, providers.ErrNotFound
	}
	return p, nil
}

func newTestService(t *testing.T) (*Service, *int) {
	t.Helper()
	calls := 0
	s := &Service{
		quotes: fakeQuoter{},
		providers: fakeProviders{
			"lawyer1": {ID: "lawyer1", Type: providers.TypeLawyer, FirstName: "Ana", LastName: "Costa", IsApproved: true, Status: providers.StatusActive},
			"banned1": {ID: "banned1", Type: providers.TypeLawyer, IsApproved: true, IsBanned: true},
		},
		newIntent: func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
			calls++
			return nil, errors.New("unexpected stripe call")
		},
		now: time.Now,
	}
	return s, &calls
}

func TestCreatePaymentIntentRejectsBeforeStripe(t *testing.T) {
	s, calls := newTestService(t)
	ctx := context.Background()
	wrong := 12.0

	cases := []struct {
		name  string
		uid   string
		input CreateIntentInput
		check func(error) bool
	}{
		{"anonymous", "", CreateIntentInput{ProviderID: "lawyer1", ServiceType: "lawyer", Currency: "eur"}, IsErrUnauthenticated},
		{"missing provider id", "c1", CreateIntentInput{ServiceType: "lawyer", Currency: "eur"}, IsErrBadRequest},
		{"bad service", "c1", CreateIntentInput{ProviderID: "lawyer1", ServiceType: "notary", Currency: "eur"}, IsErrBadRequest},
		{"bad currency", "c1", CreateIntentInput{ProviderID: "lawyer1", ServiceType: "lawyer", Currency: "gbp"}, IsErrBadRequest},
		{"self booking", "lawyer1", CreateIntentInput{ProviderID: "lawyer1", ServiceType: "lawyer", Currency: "eur"}, IsErrForbidden},
		{"unknown provider", "c1", CreateIntentInput{ProviderID: "ghost", ServiceType: "lawyer", Currency: "eur"}, IsErrNotFound},
		{"banned provider", "c1", CreateIntentInput{ProviderID: "banned1", ServiceType: "lawyer", Currency: "eur"}, IsErrPrecondition},
		{"service mismatch", "c1", CreateIntentInput{ProviderID: "lawyer1", ServiceType: "expat", Currency: "eur"}, IsErrBadRequest},
		{"stale amount", "c1", CreateIntentInput{ProviderID: "lawyer1", ServiceType: " Lawyer ", Currency: "EUR", ExpectedAmount: &wrong}, IsErrBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreatePaymentIntent(ctx, tc.uid, tc.input)
			require.Error(t, err)
			require.True(t, tc.check(err), "unexpected error: %v", err)
		})
	}
	require.Zero(t, *calls)
}

func TestCreatePaymentIntentStripeFailureIsInternal(t *testing.T) {
	s, calls := newTestService(t)
	_, err := s.CreatePaymentIntent(context.Background(), "c1", CreateIntentInput{
		ProviderID: "lawyer1", ServiceType: "lawyer", Currency: "eur",
	})
	require.Error(t, err)
	require.Equal(t, 1, *calls)
	require.False(t, IsErrBadRequest(err))
	require.False(t, IsErrPrecondition(err))
}

func TestCheckExpectedAmount(t *testing.T) {
	q := &pricing.Quote{TotalAmount: 49, AmountCents: 4900, Currency: "eur"}
	require.NoError(t, CheckExpectedAmount(q, nil))

	ok := 49.004
	require.NoError(t, CheckExpectedAmount(q, &ok))

	bad := 39.0
	require.True(t, IsErrBadRequest(CheckExpectedAmount(q, &bad)))
}

func TestIntentParams(t *testing.T) {
	p := &providers.Provider{ID: "lawyer1", FirstName: "Ana", LastName: "Costa"}
	q := &pricing.Quote{ServiceType: "lawyer", Currency: "eur", TotalAmount: 49, ConnectionFeeAmount: 19, ProviderAmount: 30, AmountCents: 4900, Duration: 20}

	params := IntentParams("c1", p, q, "key-1")
	require.Equal(t, int64(4900), *params.Amount)
	require.Equal(t, "eur", *params.Currency)
	require.True(t, *params.AutomaticPaymentMethods.Enabled)
	require.Equal(t, "key-1", *params.IdempotencyKey)
	require.Equal(t, "c1", params.Metadata["clientId"])
	require.Equal(t, "lawyer1", params.Metadata["providerId"])
	require.Equal(t, "30.00", params.Metadata["providerAmount"])
	require.Contains(t, *params.Description, "Ana Costa")
}

func TestNewPaymentKeepsSplit(t *testing.T) {
	q, err := pricing.ComputeQuote(pricing.DefaultConfig(), "expat", "usd", time.Now())
	require.NoError(t, err)
	pay := NewPayment("pi_1", "c1", &providers.Provider{ID: "e1"}, q)
	require.Equal(t, StatusPending, pay.Status)
	require.Equal(t, pay.TotalAmount-pay.ConnectionFeeAmount, pay.ProviderAmount)
	require.Equal(t, q.AmountCents, pay.AmountCents)
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusSucceeded))
	require.True(t, CanTransition(StatusPending, StatusFailed))
	require.True(t, CanTransition(StatusFailed, StatusSucceeded))
	require.True(t, CanTransition(StatusSucceeded, StatusRefunded))

	require.False(t, CanTransition(StatusSucceeded, StatusSucceeded))
	require.False(t, CanTransition(StatusSucceeded, StatusFailed))
	require.False(t, CanTransition(StatusRefunded, StatusSucceeded))
	require.False(t, CanTransition(StatusCanceled, StatusSucceeded))
	require.False(t, CanTransition(StatusPending, StatusRefunded))
}

func TestRefundParams(t *testing.T) {
	p := RefundParams("pi_1", "admin1", "requested_by_customer")
	require.Equal(t, "pi_1", *p.PaymentIntent)
	require.Equal(t, "requested_by_customer", *p.Reason)
	require.Equal(t, "refund-pi_1", *p.IdempotencyKey)

	p = RefundParams("pi_1", "admin1", "provider never called back")
	require.Nil(t, p.Reason)
	require.Equal(t, "provider never called back", p.Metadata["adminReason"])
	require.Equal(t, "admin1", p.Metadata["refundedBy"])
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]Payment{
		{Currency: "eur", Status: StatusSucceeded, TotalAmount: 49, ConnectionFeeAmount: 19, ProviderAmount: 30},
		{Currency: "eur", Status: StatusSucceeded, TotalAmount: 19.1, ConnectionFeeAmount: 9.05, ProviderAmount: 10.05},
		{Currency: "eur", Status: StatusRefunded, TotalAmount: 49, ConnectionFeeAmount: 19, ProviderAmount: 30, RefundedAmount: 49},
		{Currency: "eur", Status: StatusPending, TotalAmount: 49},
		{Currency: "usd", Status: StatusFailed, TotalAmount: 55},
		{Currency: "usd", Status: StatusSucceeded, TotalAmount: 55, ConnectionFeeAmount: 25, ProviderAmount: 30, RefundedAmount: 10},
	})
	require.Equal(t, 6, sum.Total)
	require.Len(t, sum.Currencies, 2)

	eur := sum.Currencies[0]
	require.Equal(t, "eur", eur.Currency)
	require.Equal(t, 4, eur.Count)
	require.Equal(t, 3, eur.SucceededCount)
	require.Equal(t, 117.1, eur.Gross)
	require.Equal(t, 47.05, eur.ConnectionFees)
	require.Equal(t, 70.05, eur.ProviderPayouts)
	require.Equal(t, 1, eur.RefundedCount)
	require.Equal(t, 49.0, eur.Refunded)

	usd := sum.Currencies[1]
	require.Equal(t, "usd", usd.Currency)
	require.Equal(t, 2, usd.Count)
	require.Equal(t, 55.0, usd.Gross)
	require.Equal(t, 10.0, usd.Refunded)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	require.Zero(t, sum.Total)
	require.NotNil(t, sum.Currencies)
}

func TestProviderTotalsCreditAndReverse(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := Payment{ProviderAmount: 30}

	credit := ProviderTotals(p, 1, now)
	require.Len(t, credit, 3)
	require.Equal(t, "totalCalls", credit[0].Path)
	require.Equal(t, firestore.Increment(int64(1)), credit[0].Value)
	require.Equal(t, "totalEarnings", credit[1].Path)
	require.Equal(t, firestore.Increment(30.0), credit[1].Value)
	require.Equal(t, now, credit[2].Value)

	reverse := ProviderTotals(p, -1, now)
	require.Equal(t, firestore.Increment(int64(-1)), reverse[0].Value)
	require.Equal(t, firestore.Increment(-30.0), reverse[1].Value)
}
