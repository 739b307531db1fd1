package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"sos-expat/backend/internal/config"
	"sos-expat/backend/internal/domain/backups"
	"sos-expat/backend/internal/domain/legal"
	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/domain/payments"
	"sos-expat/backend/internal/domain/pricing"
	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/domain/reviews"
	"sos-expat/backend/internal/domain/stats"
	"sos-expat/backend/internal/handlers"
	"sos-expat/backend/internal/middleware"
)

type RouterDeps struct {
	Cfg              config.Config
	Verifier         middleware.TokenVerifier
	PricingSvc       *pricing.Service
	ProvidersSvc     *providers.Service
	PaymentsSvc      *payments.Service
	ReviewsSvc       *reviews.Service
	BackupsSvc       *backups.Service
	LegalSvc         *legal.Service
	NotificationsSvc *notifications.Service
	StatsSvc         *stats.Service
	Claims           *handlers.Claims
	Uploads          *handlers.Uploads
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.Cfg.AllowedOrigins))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	// ===== Stripe Webhook (no auth required) =====
	if d.PaymentsSvc != nil {
		r.Post("/v1/stripe/webhook", d.PaymentsSvc.HandleWebhook)
	}

	// Public routes; a valid token is attached when present.
	r.Group(func(pub chi.Router) {
		pub.Use(middleware.OptionalAuth(d.Verifier))
		mountPublicPricing(pub, d)
		mountPublicProviders(pub, d)
		mountPublicLegal(pub, d)
	})

	// Protected routes
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.Verifier))

		if d.Claims != nil {
			pr.Get("/v1/me", d.Claims.Me)
			pr.Post("/v1/me/sync-claims", d.Claims.SyncMine)
		}
		if d.Uploads != nil {
			pr.Post("/v1/uploads/kyc", d.Uploads.CreateKYCUploadURLs)
		}
		mountNotifications(pr, d)
		mountProviderSelf(pr, d)
		mountPayments(pr, d)
		mountReviews(pr, d)

		pr.Route("/v1/admin", func(ad chi.Router) {
			ad.Use(middleware.RequireAdmin)

			if d.Claims != nil {
				ad.Post("/users/{uid}/role", d.Claims.SetRole)
			}
			mountAdminPricing(ad, d)
			mountAdminProviders(ad, d)
			mountAdminPayments(ad, d)
			mountAdminReviews(ad, d)
			mountAdminBackups(ad, d)
			mountAdminLegal(ad, d)

			if d.StatsSvc != nil {
				ad.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
					out, err := d.StatsSvc.Dashboard(r.Context())
					if err != nil {
						status, msg := mapInternalError(err)
						Fail(w, status, msg)
						return
					}
					WriteJSON(w, 200, out)
				})
			}
		})
	})

	return r
}

// caller returns the authenticated uid and admin flag, if any.
func caller(r *http.Request) (string, bool) {
	au, ok := middleware.GetAuthUser(r.Context())
	if !ok {
		return "", false
	}
	return au.UID, middleware.IsAdmin(au.Claims)
}

func intParam(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// boolParam parses "true"/"false"; anything else is nil.
func boolParam(r *http.Request, name string) *bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil {
		return nil
	}
	return &v
}
