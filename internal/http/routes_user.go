package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/domain/payments"
	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/domain/reviews"
	"sos-expat/backend/internal/httpjson"
	"sos-expat/backend/internal/middleware"
)

func mountNotifications(pr chi.Router, d RouterDeps) {
	if d.NotificationsSvc == nil {
		return
	}

	pr.Get("/v1/me/notifications", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		unread := boolParam(r, "unread")
		out, err := d.NotificationsSvc.List(r.Context(), uid, unread != nil && *unread, intParam(r, "limit", 0))
		if err != nil {
			status, msg := mapNotificationsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	pr.Post("/v1/me/notifications/read", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in notifications.MarkReadInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		n, err := d.NotificationsSvc.MarkRead(r.Context(), uid, in)
		if err != nil {
			status, msg := mapNotificationsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"updated": n})
	})
}

func mountProviderSelf(pr chi.Router, d RouterDeps) {
	pr.Patch("/v1/providers/me", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in providers.UpdateOwnInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.ProvidersSvc.UpdateOwn(r.Context(), uid, in)
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	pr.Post("/v1/providers/me/kyc", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in providers.SubmitKYCInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.ProvidersSvc.SubmitKYC(r.Context(), uid, in)
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})
}

func mountPayments(pr chi.Router, d RouterDeps) {
	if d.PaymentsSvc == nil {
		return
	}

	// createPaymentIntent
	pr.Post("/v1/payments/intents", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in payments.CreateIntentInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.PaymentsSvc.CreatePaymentIntent(r.Context(), uid, in)
		if err != nil {
			status, msg := mapPaymentsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 201, out)
	})

	pr.Get("/v1/payments/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, isAdmin := caller(r)
		out, err := d.PaymentsSvc.Get(r.Context(), uid, isAdmin, chi.URLParam(r, "id"))
		if err != nil {
			status, msg := mapPaymentsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	pr.Get("/v1/me/payments", func(w http.ResponseWriter, r *http.Request) {
		au, _ := middleware.GetAuthUser(r.Context())
		asProvider := r.URL.Query().Get("as") == "provider"
		if asProvider && !middleware.IsProvider(au.Claims) {
			Fail(w, 403, "provider role required")
			return
		}
		out, err := d.PaymentsSvc.ListMine(r.Context(), au.UID, asProvider, intParam(r, "limit", 0))
		if err != nil {
			status, msg := mapPaymentsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"payments": out})
	})
}

func mountReviews(pr chi.Router, d RouterDeps) {
	if d.ReviewsSvc == nil {
		return
	}

	pr.Post("/v1/reviews", func(w http.ResponseWriter, r *http.Request) {
		au, _ := middleware.GetAuthUser(r.Context())
		var in reviews.CreateInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		name, _ := au.Claims["name"].(string)
		out, err := d.ReviewsSvc.Create(r.Context(), au.UID, name, in)
		if err != nil {
			status, msg := mapReviewsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 201, out)
	})
}
