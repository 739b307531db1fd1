package user

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/require"
)

type fakeClaims struct {
	current map[string]interface{}
	set     map[string]interface{}
}

func (f *fakeClaims) GetUser(_ context.Context, uid string) (*auth.UserRecord, error) {
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: uid}, CustomClaims: f.current}, nil
}

func (f *fakeClaims) SetCustomUserClaims(_ context.Context, _ string, c map[string]interface{}) error {
	f.set = c
	return nil
}

func TestApplyClaimsRemovesNilKeys(t *testing.T) {
	base := map[string]interface{}{"admin": true, "role": "admin"}
	out := ApplyClaims(base, RoleClaims(RoleLawyer))
	require.Equal(t, "lawyer", out["role"])
	_, hasAdmin := out["admin"]
	require.False(t, hasAdmin)
	require.Equal(t, true, base["admin"], "base is not modified")
}

func TestMergeClaimsKeepsUnrelatedClaims(t *testing.T) {
	f := &fakeClaims{current: map[string]interface{}{"verifiedProvider": true}}
	merged, err := MergeClaims(context.Background(), f, "u1", RoleClaims(RoleAdmin))
	require.NoError(t, err)
	require.Equal(t, true, merged["verifiedProvider"])
	require.Equal(t, true, f.set["admin"])
	require.Contains(t, f.set, "claimsUpdatedAt")
}

func TestProfileHasRole(t *testing.T) {
	p := Profile{Role: RoleClient, Roles: []string{RoleLawyer}}
	require.True(t, p.HasRole(RoleClient))
	require.True(t, p.HasRole(RoleLawyer))
	require.False(t, p.HasRole(RoleAdmin))
	require.True(t, IsValidRole("expat"))
	require.False(t, IsValidRole("staff"))
}
