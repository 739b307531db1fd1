package user

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
)

// ClaimsClient is the subset of *auth.Client used to manage custom claims.
type ClaimsClient interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

// MergeClaims applies patch on top of the user's existing custom claims.
// A nil value in patch removes the key.
func MergeClaims(ctx context.Context, c ClaimsClient, uid string, patch map[string]interface{}) (map[string]interface{}, error) {
	rec, err := c.GetUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get auth user: %w", err)
	}
	merged := ApplyClaims(rec.CustomClaims, patch)
	merged["claimsUpdatedAt"] = time.Now().Unix()
	if err := c.SetCustomUserClaims(ctx, uid, merged); err != nil {
		return nil, fmt.Errorf("set custom claims: %w", err)
	}
	return merged, nil
}

// ApplyClaims returns a copy of base with patch applied.
func ApplyClaims(base, patch map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// RoleClaims is the claim set written for a role.
func RoleClaims(role string) map[string]interface{} {
	claims := map[string]interface{}{
		"role":  role,
		"roles": map[string]bool{role: true},
		"admin": nil,
	}
	if role == RoleAdmin {
		claims["admin"] = true
	}
	return claims
}
