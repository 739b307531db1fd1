package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sos-expat/backend/internal/domain/providers"
)

func mountPublicPricing(pub chi.Router, d RouterDeps) {
	pub.Get("/v1/pricing", func(w http.ResponseWriter, r *http.Request) {
		cfg, err := d.PricingSvc.Get(r.Context())
		if err != nil {
			status, msg := mapPricingError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, cfg)
	})

	pub.Get("/v1/pricing/quote", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		out, err := d.PricingSvc.Quote(r.Context(), q.Get("service"), q.Get("currency"))
		if err != nil {
			status, msg := mapPricingError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})
}

func mountPublicProviders(pub chi.Router, d RouterDeps) {
	pub.Get("/v1/providers/map", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		out, err := d.ProvidersSvc.MapMarkers(r.Context(), q.Get("type"), q.Get("country"))
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"markers": out})
	})

	pub.Get("/v1/providers/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, isAdmin := caller(r)
		p, err := d.ProvidersSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		if !p.VisibleTo(uid, isAdmin) {
			Fail(w, 404, "provider not found")
			return
		}
		out := *p
		if !isAdmin && uid != p.ID {
			out = p.Public()
		}
		WriteJSON(w, 200, out)
	})

	pub.Get("/v1/providers/{id}/reviews", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.ReviewsSvc.ListForProvider(r.Context(), chi.URLParam(r, "id"), intParam(r, "limit", 0))
		if err != nil {
			status, msg := mapReviewsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"reviews": out})
	})
}

func mountPublicLegal(pub chi.Router, d RouterDeps) {
	pub.Get("/v1/legal/{type}", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.LegalSvc.Active(r.Context(), chi.URLParam(r, "type"), r.URL.Query().Get("lang"))
		if err != nil {
			status, msg := mapLegalError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})
}

// providerFilter reads the admin list state from the query string.
func providerFilter(r *http.Request) providers.ListFilter {
	q := r.URL.Query()
	return providers.ListFilter{
		Type:      q.Get("type"),
		Status:    q.Get("status"),
		Country:   q.Get("country"),
		Language:  q.Get("language"),
		KYCStatus: q.Get("kycStatus"),
		Online:    boolParam(r, "online"),
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortDir:   q.Get("sortDir"),
		Limit:     intParam(r, "limit", 0),
		Cursor:    q.Get("cursor"),
	}
}
