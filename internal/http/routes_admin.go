package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sos-expat/backend/internal/domain/backups"
	"sos-expat/backend/internal/domain/legal"
	"sos-expat/backend/internal/domain/payments"
	"sos-expat/backend/internal/domain/pricing"
	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/domain/reviews"
	"sos-expat/backend/internal/httpjson"
)

func mountAdminPricing(ad chi.Router, d RouterDeps) {
	ad.Put("/pricing", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in pricing.Config
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.PricingSvc.Update(r.Context(), uid, in)
		if err != nil {
			status, msg := mapPricingError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Put("/pricing/overrides/{service}/{currency}", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in pricing.Override
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.PricingSvc.SetOverride(r.Context(), uid, chi.URLParam(r, "service"), chi.URLParam(r, "currency"), in)
		if err != nil {
			status, msg := mapPricingError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Delete("/pricing/overrides/{service}/{currency}", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		out, err := d.PricingSvc.ClearOverride(r.Context(), uid, chi.URLParam(r, "service"), chi.URLParam(r, "currency"))
		if err != nil {
			status, msg := mapPricingError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Post("/pricing/migrate", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		dry := boolParam(r, "dryRun")
		out, err := d.PricingSvc.Migrate(r.Context(), uid, dry != nil && *dry)
		if err != nil {
			status, msg := mapPricingError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})
}

func mountAdminProviders(ad chi.Router, d RouterDeps) {
	ad.Get("/providers", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.ProvidersSvc.List(r.Context(), providerFilter(r))
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Get("/providers/export.csv", func(w http.ResponseWriter, r *http.Request) {
		list, err := d.ProvidersSvc.ListAll(r.Context(), providerFilter(r))
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		name := fmt.Sprintf("providers-%s.csv", time.Now().UTC().Format("20060102"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.WriteHeader(200)
		if err := providers.ExportCSV(w, list); err != nil {
			log.Printf("http: csv export aborted: %v", err)
		}
	})

	ad.Patch("/providers/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in providers.SetStatusInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.ProvidersSvc.SetStatus(r.Context(), uid, chi.URLParam(r, "id"), in)
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Delete("/providers/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		if err := d.ProvidersSvc.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"ok": true})
	})

	ad.Get("/kyc/pending", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.ProvidersSvc.PendingKYC(r.Context(), intParam(r, "limit", 0))
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"providers": out})
	})

	ad.Post("/kyc/{uid}/review", func(w http.ResponseWriter, r *http.Request) {
		adminUID, _ := caller(r)
		var in providers.ReviewKYCInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.ProvidersSvc.ReviewKYC(r.Context(), adminUID, chi.URLParam(r, "uid"), in)
		if err != nil {
			status, msg := mapProvidersError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})
}

func mountAdminPayments(ad chi.Router, d RouterDeps) {
	if d.PaymentsSvc == nil {
		return
	}

	ad.Get("/payments", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		out, err := d.PaymentsSvc.List(r.Context(), payments.ListFilter{
			Status:     q.Get("status"),
			ProviderID: q.Get("providerId"),
			ClientID:   q.Get("clientId"),
			Limit:      intParam(r, "limit", 0),
		})
		if err != nil {
			status, msg := mapPaymentsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"payments": out})
	})

	ad.Get("/payments/summary", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.PaymentsSvc.Summary(r.Context())
		if err != nil {
			status, msg := mapPaymentsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Post("/payments/{id}/refund", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in payments.RefundInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.PaymentsSvc.Refund(r.Context(), uid, chi.URLParam(r, "id"), in)
		if err != nil {
			status, msg := mapPaymentsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})
}

func mountAdminReviews(ad chi.Router, d RouterDeps) {
	if d.ReviewsSvc == nil {
		return
	}

	ad.Get("/reviews", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.ReviewsSvc.ListAdmin(r.Context(), r.URL.Query().Get("status"), intParam(r, "limit", 0))
		if err != nil {
			status, msg := mapReviewsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"reviews": out})
	})

	ad.Patch("/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in reviews.ModerateInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.ReviewsSvc.Moderate(r.Context(), uid, chi.URLParam(r, "id"), in)
		if err != nil {
			status, msg := mapReviewsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Delete("/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		if err := d.ReviewsSvc.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
			status, msg := mapReviewsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"ok": true})
	})
}

func mountAdminBackups(ad chi.Router, d RouterDeps) {
	if d.BackupsSvc == nil {
		return
	}

	ad.Get("/backups", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.BackupsSvc.List(r.Context(), intParam(r, "limit", 0))
		if err != nil {
			status, msg := mapBackupsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"backups": out})
	})

	ad.Post("/backups", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in backups.CreateInput
		// The body is optional.
		if err := httpjson.Read(r, &in); err != nil && !errors.Is(err, io.EOF) {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.BackupsSvc.Create(r.Context(), uid, in)
		if err != nil {
			status, msg := mapBackupsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 201, out)
	})

	ad.Get("/backups/{id}", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.BackupsSvc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			status, msg := mapBackupsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Delete("/backups/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		if err := d.BackupsSvc.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
			status, msg := mapBackupsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"ok": true})
	})

	ad.Get("/backups/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		out, err := d.BackupsSvc.DownloadURL(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("collection"))
		if err != nil {
			status, msg := mapBackupsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Post("/backups/{id}/restore", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in backups.RestoreInput
		// The body is optional.
		if err := httpjson.Read(r, &in); err != nil && !errors.Is(err, io.EOF) {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.BackupsSvc.Restore(r.Context(), uid, chi.URLParam(r, "id"), in)
		if err != nil {
			status, msg := mapBackupsError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})
}

func mountAdminLegal(ad chi.Router, d RouterDeps) {
	if d.LegalSvc == nil {
		return
	}

	ad.Get("/legal", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		out, err := d.LegalSvc.List(r.Context(), q.Get("type"), q.Get("lang"))
		if err != nil {
			status, msg := mapLegalError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"documents": out})
	})

	ad.Post("/legal", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in legal.CreateInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.LegalSvc.Create(r.Context(), uid, in)
		if err != nil {
			status, msg := mapLegalError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 201, out)
	})

	ad.Patch("/legal/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		var in legal.UpdateInput
		if err := httpjson.Read(r, &in); err != nil {
			Fail(w, 400, "invalid json")
			return
		}
		out, err := d.LegalSvc.Update(r.Context(), uid, chi.URLParam(r, "id"), in)
		if err != nil {
			status, msg := mapLegalError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})

	ad.Delete("/legal/{id}", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		if err := d.LegalSvc.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
			status, msg := mapLegalError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, map[string]any{"ok": true})
	})

	ad.Post("/legal/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
		uid, _ := caller(r)
		out, err := d.LegalSvc.Publish(r.Context(), uid, chi.URLParam(r, "id"))
		if err != nil {
			status, msg := mapLegalError(err)
			Fail(w, status, msg)
			return
		}
		WriteJSON(w, 200, out)
	})
}
