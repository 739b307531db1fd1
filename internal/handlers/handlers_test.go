package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/domain/user"
	"sos-expat/backend/internal/middleware"
)

type fakeRoles struct {
	profiles map[string]*user.Profile
	setRole  map[string]string
}

func (f *fakeRoles) Get(_ context.Context, uid string) (*user.Profile, error) {
	p, ok := f.profiles[uid]
	if !ok {
		return nil, status.Error(codes.NotFound, "no user")
	}
	return p, nil
}

func (f *fakeRoles) SetRole(_ context.Context, uid, role string) error {
	if f.setRole == nil {
		f.setRole = map[string]string{}
	}
	f.setRole[uid] = role
	return nil
}

type fakeClaims struct {
	set map[string]map[string]interface{}
}

func (f *fakeClaims) GetUser(_ context.Context, uid string) (*auth.UserRecord, error) {
	return &auth.UserRecord{CustomClaims: map[string]interface{}{"verifiedProvider": true}}, nil
}

func (f *fakeClaims) SetCustomUserClaims(_ context.Context, uid string, c map[string]interface{}) error {
	if f.set == nil {
		f.set = map[string]map[string]interface{}{}
	}
	f.set[uid] = c
	return nil
}

func asUser(r *http.Request, uid string, claims map[string]any) *http.Request {
	return r.WithContext(middleware.WithAuthUser(r.Context(), &middleware.AuthUser{UID: uid, Claims: claims}))
}

func TestSyncMineSetsRoleClaims(t *testing.T) {
	roles := &fakeRoles{profiles: map[string]*user.Profile{"u1": {UID: "u1", Role: user.RoleLawyer}}}
	fc := &fakeClaims{}
	h := NewClaims(roles, fc)

	rec := httptest.NewRecorder()
	h.SyncMine(rec, asUser(httptest.NewRequest(http.MethodPost, "/v1/me/sync-claims", nil), "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "lawyer", fc.set["u1"]["role"])
	require.Equal(t, true, fc.set["u1"]["verifiedProvider"])
	_, hasAdmin := fc.set["u1"]["admin"]
	require.False(t, hasAdmin)
}

func TestSyncMineNeverGrantsAdmin(t *testing.T) {
	roles := &fakeRoles{profiles: map[string]*user.Profile{"u1": {UID: "u1", Role: user.RoleAdmin}}}
	fc := &fakeClaims{}
	h := NewClaims(roles, fc)

	rec := httptest.NewRecorder()
	h.SyncMine(rec, asUser(httptest.NewRequest(http.MethodPost, "/v1/me/sync-claims", nil), "u1", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, fc.set)
}

func TestSyncMineMissingProfile(t *testing.T) {
	h := NewClaims(&fakeRoles{}, &fakeClaims{})
	rec := httptest.NewRecorder()
	h.SyncMine(rec, asUser(httptest.NewRequest(http.MethodPost, "/v1/me/sync-claims", nil), "ghost", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"not-found"`)
}

func setRoleRequest(uid, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/v1/admin/users/"+uid+"/role", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("uid", uid)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return asUser(r, "admin1", map[string]any{"admin": true})
}

func TestSetRole(t *testing.T) {
	roles := &fakeRoles{}
	fc := &fakeClaims{}
	h := NewClaims(roles, fc)

	rec := httptest.NewRecorder()
	h.SetRole(rec, setRoleRequest("u2", `{"role":" Admin "}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "admin", roles.setRole["u2"])
	require.Equal(t, true, fc.set["u2"]["admin"])

	rec = httptest.NewRecorder()
	h.SetRole(rec, setRoleRequest("u3", `{"role":"superuser"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotContains(t, roles.setRole, "u3")
}

func TestMeIncludesProfile(t *testing.T) {
	roles := &fakeRoles{profiles: map[string]*user.Profile{"u1": {UID: "u1", Role: user.RoleClient, Email: "a@b.c"}}}
	h := NewClaims(roles, &fakeClaims{})

	rec := httptest.NewRecorder()
	h.Me(rec, asUser(httptest.NewRequest(http.MethodGet, "/v1/me", nil), "u1", map[string]any{"role": "client"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "u1", body["uid"])
	require.Equal(t, false, body["isAdmin"])
	require.NotNil(t, body["profile"])
}

type fakeSigner struct {
	objects []string
	err     error
}

func (f *fakeSigner) SignedURL(_ context.Context, bucket, object, method, contentType string, ttl time.Duration) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	f.objects = append(f.objects, object)
	return "https://storage.example/" + bucket + "/" + object, time.Unix(1700000000, 0), nil
}

func TestCreateKYCUploadURLs(t *testing.T) {
	signer := &fakeSigner{}
	h := NewUploads("bucket", signer)

	body := `{"items":[{"fileName":"../../passport scan.PDF","contentType":"application/pdf"},{"fileName":"id.png","contentType":"image/png"}]}`
	rec := httptest.NewRecorder()
	h.CreateKYCUploadURLs(rec, asUser(httptest.NewRequest(http.MethodPost, "/v1/uploads/kyc", strings.NewReader(body)), "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, signer.objects, 2)
	for _, o := range signer.objects {
		require.True(t, strings.HasPrefix(o, "kyc/u1/"), o)
		require.NotContains(t, o, "..")
	}
	require.True(t, strings.HasSuffix(signer.objects[0], "-passport_scan.PDF"))
}

func TestCreateKYCUploadURLsValidation(t *testing.T) {
	h := NewUploads("bucket", &fakeSigner{})

	rec := httptest.NewRecorder()
	h.CreateKYCUploadURLs(rec, httptest.NewRequest(http.MethodPost, "/v1/uploads/kyc", strings.NewReader(`{"items":[]}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.CreateKYCUploadURLs(rec, asUser(httptest.NewRequest(http.MethodPost, "/v1/uploads/kyc", strings.NewReader(`{"items":[]}`)), "u1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	body := `{"items":[{"fileName":"a.exe","contentType":"application/x-msdownload"}]}`
	h.CreateKYCUploadURLs(rec, asUser(httptest.NewRequest(http.MethodPost, "/v1/uploads/kyc", strings.NewReader(body)), "u1", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateKYCUploadURLsSignerFailure(t *testing.T) {
	h := NewUploads("bucket", &fakeSigner{err: errors.New("no iam")})
	rec := httptest.NewRecorder()
	body := `{"items":[{"fileName":"a.pdf","contentType":"application/pdf"}]}`
	h.CreateKYCUploadURLs(rec, asUser(httptest.NewRequest(http.MethodPost, "/v1/uploads/kyc", strings.NewReader(body)), "u1", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSanitizeFileName(t *testing.T) {
	require.Equal(t, "passport.pdf", SanitizeFileName("passport.pdf"))
	require.Equal(t, "scan_2024.png", SanitizeFileName("C:\\docs\\scan 2024.png"))
	require.Equal(t, "r_sum_.pdf", SanitizeFileName("résumé.pdf"))
	require.Equal(t, "document", SanitizeFileName(".."))
	require.Equal(t, "document", SanitizeFileName(""))
	require.Len(t, SanitizeFileName(strings.Repeat("a", 300)), maxFileNameRunes)
}

func TestKYCObjectPathPassesDocumentValidation(t *testing.T) {
	require.Equal(t, "a.b.pdf", SanitizeFileName("a..b.pdf"))
	require.Equal(t, "id.card.png", SanitizeFileName("...id....card.png"))

	path := KYCObjectPath("u1", "x1", "a..b.pdf")
	require.NotContains(t, path, "..")
	docs, err := providers.ValidateKYCDocuments("u1", []providers.KYCDocument{{Kind: providers.ValidDocKinds[0], Path: path}}, time.Now())
	require.NoError(t, err)
	require.Len(t, docs, 1)
}
