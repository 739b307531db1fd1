package http

import (
	"log"

	"sos-expat/backend/internal/domain/backups"
	"sos-expat/backend/internal/domain/legal"
	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/domain/payments"
	"sos-expat/backend/internal/domain/pricing"
	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/domain/reviews"
)

// Domain errors carry a user-facing message; anything unclassified is
// logged and reported as a bare internal error.

func mapInternalError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	log.Printf("http: internal error: %v", err)
	return 500, "internal error"
}

func mapPricingError(err error) (int, string) {
	switch {
	case err == nil:
		return 500, "unknown error"
	case pricing.IsErrNotFound(err):
		return 404, err.Error()
	case pricing.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return mapInternalError(err)
	}
}

func mapProvidersError(err error) (int, string) {
	switch {
	case err == nil:
		return 500, "unknown error"
	case providers.IsErrForbidden(err):
		return 403, err.Error()
	case providers.IsErrNotFound(err):
		return 404, err.Error()
	case providers.IsErrBadRequest(err):
		return 400, err.Error()
	case providers.IsErrPrecondition(err):
		return 412, err.Error()
	default:
		return mapInternalError(err)
	}
}

func mapPaymentsError(err error) (int, string) {
	switch {
	case err == nil:
		return 500, "unknown error"
	case payments.IsErrUnauthenticated(err):
		return 401, err.Error()
	case payments.IsErrForbidden(err):
		return 403, err.Error()
	case payments.IsErrNotFound(err):
		return 404, err.Error()
	case payments.IsErrBadRequest(err):
		return 400, err.Error()
	case payments.IsErrPrecondition(err):
		return 412, err.Error()
	default:
		return mapInternalError(err)
	}
}

func mapReviewsError(err error) (int, string) {
	switch {
	case err == nil:
		return 500, "unknown error"
	case reviews.IsErrForbidden(err):
		return 403, err.Error()
	case reviews.IsErrNotFound(err):
		return 404, err.Error()
	case reviews.IsErrBadRequest(err):
		return 400, err.Error()
	case reviews.IsErrPrecondition(err):
		return 412, err.Error()
	default:
		return mapInternalError(err)
	}
}

func mapBackupsError(err error) (int, string) {
	switch {
	case err == nil:
		return 500, "unknown error"
	case backups.IsErrNotFound(err):
		return 404, err.Error()
	case backups.IsErrBadRequest(err):
		return 400, err.Error()
	case backups.IsErrPrecondition(err):
		return 412, err.Error()
	default:
		return mapInternalError(err)
	}
}

func mapLegalError(err error) (int, string) {
	switch {
	case err == nil:
		return 500, "unknown error"
	case legal.IsErrNotFound(err):
		return 404, err.Error()
	case legal.IsErrBadRequest(err):
		return 400, err.Error()
	case legal.IsErrPrecondition(err):
		return 412, err.Error()
	default:
		return mapInternalError(err)
	}
}

func mapNotificationsError(err error) (int, string) {
	switch {
	case err == nil:
		return 500, "unknown error"
	case notifications.IsErrNotFound(err):
		return 404, err.Error()
	case notifications.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return mapInternalError(err)
	}
}
