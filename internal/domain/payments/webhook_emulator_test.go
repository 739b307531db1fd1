package payments

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"sos-expat/backend/internal/store"
	"sos-expat/backend/internal/store/storetest"
)

func eventJSON(id, typ, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"api_version":%q,"data":{"object":%s}}`,
		id, typ, stripe.APIVersion, object))
}

func intentJSON(id string) string {
	return fmt.Sprintf(`{"id":%q,"object":"payment_intent","amount":4900}`, id)
}

func deliver(t *testing.T, s *Service, payload []byte) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.HandleWebhook(rec, signedRequest(t, payload, testWebhookSecret))
	return rec.Code
}

func pendingPayment(id, providerID string) Payment {
	now := time.Now().UTC()
	return Payment{
		ID: id, ClientID: "c1", ProviderID: providerID, ServiceType: "lawyer", Currency: "eur",
		TotalAmount: 49, ConnectionFeeAmount: 19, ProviderAmount: 30, AmountCents: 4900, Duration: 20,
		Status: StatusPending, CreatedAt: now, UpdatedAt: now,
	}
}

func TestWebhookSucceededCreditsProviderOnceAndRefundReverses(t *testing.T) {
	fs := storetest.NewClient(t)
	s := NewService(fs, Config{WebhookSecret: testWebhookSecret}, nil, nil)

	storetest.Put(t, fs, store.ColPayments, "pi_1", pendingPayment("pi_1", "p1"))
	storetest.Put(t, fs, store.ColProfiles, "p1", map[string]interface{}{
		"type": "lawyer", "totalCalls": int64(0), "totalEarnings": 0.0,
	})

	succeeded := eventJSON("evt_1", "payment_intent.succeeded", intentJSON("pi_1"))
	require.Equal(t, http.StatusOK, deliver(t, s, succeeded))
	require.Equal(t, http.StatusOK, deliver(t, s, succeeded), "duplicate delivery")
	require.Equal(t, http.StatusOK, deliver(t, s, eventJSON("evt_2", "payment_intent.succeeded", intentJSON("pi_1"))))

	require.NotNil(t, storetest.Data(t, fs, store.ColStripeEvents, "evt_1"))
	require.Equal(t, StatusSucceeded, storetest.Data(t, fs, store.ColPayments, "pi_1")["status"])
	prov := storetest.Data(t, fs, store.ColProfiles, "p1")
	require.EqualValues(t, 1, prov["totalCalls"])
	require.InDelta(t, 30.0, prov["totalEarnings"], 0.001)

	refunded := eventJSON("evt_3", "charge.refunded",
		`{"id":"ch_1","object":"charge","refunded":true,"amount_refunded":4900,"payment_intent":"pi_1"}`)
	require.Equal(t, http.StatusOK, deliver(t, s, refunded))

	pay := storetest.Data(t, fs, store.ColPayments, "pi_1")
	require.Equal(t, StatusRefunded, pay["status"])
	require.InDelta(t, 49.0, pay["refundedAmount"], 0.001)
	prov = storetest.Data(t, fs, store.ColProfiles, "p1")
	require.EqualValues(t, 0, prov["totalCalls"])
	require.InDelta(t, 0.0, prov["totalEarnings"], 0.001)
}

func TestWebhookSucceededForUnknownPaymentIsRetried(t *testing.T) {
	fs := storetest.NewClient(t)
	s := NewService(fs, Config{WebhookSecret: testWebhookSecret}, nil, nil)

	code := deliver(t, s, eventJSON("evt_early", "payment_intent.succeeded", intentJSON("pi_missing")))
	require.Equal(t, http.StatusInternalServerError, code)
	require.Nil(t, storetest.Data(t, fs, store.ColStripeEvents, "evt_early"), "claim is released")

	storetest.Put(t, fs, store.ColPayments, "pi_missing", pendingPayment("pi_missing", ""))
	code = deliver(t, s, eventJSON("evt_early", "payment_intent.succeeded", intentJSON("pi_missing")))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, StatusSucceeded, storetest.Data(t, fs, store.ColPayments, "pi_missing")["status"])
}

func TestWebhookSucceededDoesNotRecreateDeletedProvider(t *testing.T) {
	fs := storetest.NewClient(t)
	s := NewService(fs, Config{WebhookSecret: testWebhookSecret}, nil, nil)

	storetest.Put(t, fs, store.ColPayments, "pi_2", pendingPayment("pi_2", "gone"))
	require.Equal(t, http.StatusOK, deliver(t, s, eventJSON("evt_gone", "payment_intent.succeeded", intentJSON("pi_2"))))

	require.Equal(t, StatusSucceeded, storetest.Data(t, fs, store.ColPayments, "pi_2")["status"])
	require.Nil(t, storetest.Data(t, fs, store.ColProfiles, "gone"))
}
