package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/require"

	"sos-expat/backend/internal/config"
	"sos-expat/backend/internal/domain/backups"
	"sos-expat/backend/internal/domain/payments"
	"sos-expat/backend/internal/domain/pricing"
	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/domain/reviews"
	"sos-expat/backend/internal/httpjson"
)

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if t, ok := f[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("bad token")
}

func testRouter() http.Handler {
	return NewRouter(RouterDeps{
		Cfg: config.Config{AllowedOrigins: []string{"http://localhost:3000"}},
		Verifier: fakeVerifier{
			"client": {UID: "u1", Claims: map[string]interface{}{"role": "client"}},
			"admin":  {UID: "a1", Claims: map[string]interface{}{"admin": true}},
		},
	})
}

func do(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpjson.APIError {
	t.Helper()
	var e httpjson.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

func TestHealthz(t *testing.T) {
	rec := do(t, testRouter(), http.MethodGet, "/healthz", "")
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := testRouter()

	rec := do(t, h, http.MethodGet, "/v1/admin/providers", "")
	require.Equal(t, 401, rec.Code)
	require.Equal(t, httpjson.CodeUnauthenticated, decodeError(t, rec).Code)

	rec = do(t, h, http.MethodGet, "/v1/admin/providers", "forged")
	require.Equal(t, 401, rec.Code)
}

func TestAdminRoutesRejectClients(t *testing.T) {
	h := testRouter()
	for _, path := range []string{"/v1/admin/providers", "/v1/admin/kyc/pending", "/v1/admin/providers/export.csv"} {
		rec := do(t, h, http.MethodGet, path, "client")
		require.Equal(t, 403, rec.Code, path)
		require.Equal(t, httpjson.CodePermissionDenied, decodeError(t, rec).Code)
	}
}

func TestPaymentRoutesAbsentWithoutStripe(t *testing.T) {
	h := testRouter()
	require.Equal(t, 404, do(t, h, http.MethodPost, "/v1/stripe/webhook", "").Code)
	require.Equal(t, 404, do(t, h, http.MethodPost, "/v1/payments/intents", "client").Code)
}

func TestMapPaymentsError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: sign in", payments.ErrUnauthenticated), 401},
		{fmt.Errorf("%w: not yours", payments.ErrForbidden), 403},
		{fmt.Errorf("%w: gone", payments.ErrNotFound), 404},
		{fmt.Errorf("%w: amount mismatch", payments.ErrBadRequest), 400},
		{fmt.Errorf("%w: not refundable", payments.ErrPrecondition), 412},
		{errors.New("stripe down"), 500},
	}
	for _, c := range cases {
		status, _ := mapPaymentsError(c.err)
		require.Equal(t, c.status, status, c.err.Error())
	}
}

func TestMapErrorsHideInternalDetails(t *testing.T) {
	boom := errors.New("rpc error: code = Unavailable desc = firestore")
	for _, fn := range []func(error) (int, string){
		mapPricingError, mapProvidersError, mapPaymentsError, mapReviewsError,
		mapBackupsError, mapLegalError, mapNotificationsError,
	} {
		status, msg := fn(boom)
		require.Equal(t, 500, status)
		require.Equal(t, "internal error", msg)
	}
}

func TestMapDomainErrorsKeepMessage(t *testing.T) {
	status, msg := mapPricingError(fmt.Errorf("%w: unknown currency", pricing.ErrBadRequest))
	require.Equal(t, 400, status)
	require.Equal(t, "bad request: unknown currency", msg)

	status, _ = mapProvidersError(fmt.Errorf("%w: kyc already approved", providers.ErrPrecondition))
	require.Equal(t, 412, status)

	status, _ = mapReviewsError(fmt.Errorf("%w: review", reviews.ErrNotFound))
	require.Equal(t, 404, status)

	status, _ = mapBackupsError(fmt.Errorf("%w: unknown collection", backups.ErrBadRequest))
	require.Equal(t, 400, status)
}

func TestProviderFilterFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/v1/admin/providers?type=lawyer&status=active&country=FR&online=true&search=dupont&sortBy=createdAt&sortDir=desc&limit=25&cursor=abc", nil)
	f := providerFilter(req)
	require.Equal(t, "lawyer", f.Type)
	require.Equal(t, "active", f.Status)
	require.Equal(t, "FR", f.Country)
	require.NotNil(t, f.Online)
	require.True(t, *f.Online)
	require.Equal(t, "dupont", f.Search)
	require.Equal(t, 25, f.Limit)
	require.Equal(t, "abc", f.Cursor)

	f = providerFilter(httptest.NewRequest(http.MethodGet, "/v1/admin/providers?online=maybe&limit=x", nil))
	require.Nil(t, f.Online)
	require.Zero(t, f.Limit)
}
