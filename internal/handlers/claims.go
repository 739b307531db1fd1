package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sos-expat/backend/internal/domain/user"
	"sos-expat/backend/internal/httpjson"
	"sos-expat/backend/internal/middleware"
	"sos-expat/backend/internal/store"
)

// RoleStore reads and writes users/{uid} roles.
type RoleStore interface {
	Get(ctx context.Context, uid string) (*user.Profile, error)
	SetRole(ctx context.Context, uid, role string) error
}

type Claims struct {
	users  RoleStore
	claims user.ClaimsClient
}

func NewClaims(users RoleStore, claims user.ClaimsClient) *Claims {
	return &Claims{users: users, claims: claims}
}

// Me returns the caller's token identity and users profile when present.
func (h *Claims) Me(w http.ResponseWriter, r *http.Request) {
	au, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	out := map[string]interface{}{
		"uid":     au.UID,
		"email":   au.Email,
		"claims":  au.Claims,
		"isAdmin": middleware.IsAdmin(au.Claims),
	}
	p, err := h.users.Get(r.Context(), au.UID)
	switch {
	case err == nil:
		out["profile"] = p
	case !store.IsNotFound(err):
		log.Printf("claims: load profile uid=%s: %v", au.UID, err)
	}
	httpjson.Write(w, http.StatusOK, out)
}

// SyncMine copies the role stored in users/{uid} into the caller's custom
// claims. The admin role is never granted this way.
func (h *Claims) SyncMine(w http.ResponseWriter, r *http.Request) {
	au, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	p, err := h.users.Get(r.Context(), au.UID)
	if err != nil {
		if store.IsNotFound(err) {
			httpjson.Error(w, http.StatusNotFound, "user profile not found")
			return
		}
		httpjson.Error(w, http.StatusInternalServerError, "failed to load user profile")
		return
	}

	role := p.Role
	if role == "" {
		role = user.RoleClient
	}
	if !user.IsValidRole(role) {
		httpjson.Error(w, http.StatusBadRequest, "unknown role in profile: "+role)
		return
	}
	if role == user.RoleAdmin && !middleware.IsAdmin(au.Claims) {
		httpjson.Error(w, http.StatusForbidden, "the admin role can only be granted by an administrator")
		return
	}

	if _, err := user.MergeClaims(r.Context(), h.claims, au.UID, user.RoleClaims(role)); err != nil {
		log.Printf("claims: sync uid=%s: %v", au.UID, err)
		httpjson.Error(w, http.StatusInternalServerError, "failed to set claims")
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"ok": true, "role": role})
}

// SetRole stores a user's role and mirrors it into custom claims (admin).
func (h *Claims) SetRole(w http.ResponseWriter, r *http.Request) {
	uid := strings.TrimSpace(chi.URLParam(r, "uid"))
	if uid == "" {
		httpjson.Error(w, http.StatusBadRequest, "missing uid")
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := httpjson.Read(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !user.IsValidRole(role) {
		httpjson.Error(w, http.StatusBadRequest, "role must be one of "+strings.Join(user.ValidRoles, ", "))
		return
	}

	if err := h.users.SetRole(r.Context(), uid, role); err != nil {
		log.Printf("claims: set role uid=%s: %v", uid, err)
		httpjson.Error(w, http.StatusInternalServerError, "failed to save role")
		return
	}
	claims, err := user.MergeClaims(r.Context(), h.claims, uid, user.RoleClaims(role))
	if err != nil {
		log.Printf("claims: set claims uid=%s: %v", uid, err)
		httpjson.Error(w, http.StatusInternalServerError, "failed to set claims")
		return
	}
	log.Printf("claims: role uid=%s role=%s by=%s", uid, role, middleware.CallerUID(r.Context()))
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"uid": uid, "role": role, "claims": claims})
}
