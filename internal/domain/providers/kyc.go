package providers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/domain/user"
	"sos-expat/backend/internal/store"
)

const maxKYCDocuments = 10

// KYCPrefix is the storage folder a provider may upload KYC files to.
func KYCPrefix(uid string) string {
	return "kyc/" + uid + "/"
}

// ValidateKYCDocuments checks kinds and that every path belongs to uid.
func ValidateKYCDocuments(uid string, docs []KYCDocument, now time.Time) ([]KYCDocument, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: at least one document is required", ErrBadRequest)
	}
	if len(docs) > maxKYCDocuments {
		return nil, fmt.Errorf("%w: at most %d documents", ErrBadRequest, maxKYCDocuments)
	}
	prefix := KYCPrefix(uid)
	out := make([]KYCDocument, 0, len(docs))
	for _, d := range docs {
		d.Kind = strings.ToLower(strings.TrimSpace(d.Kind))
		d.Path = strings.TrimSpace(d.Path)
		if !contains(ValidDocKinds, d.Kind) {
			return nil, fmt.Errorf("%w: unknown document kind %q", ErrBadRequest, d.Kind)
		}
		if !strings.HasPrefix(d.Path, prefix) || strings.Contains(d.Path, "..") || len(d.Path) == len(prefix) {
			return nil, fmt.Errorf("%w: document path must be under %s", ErrForbidden, prefix)
		}
		d.UploadedAt = now
		out = append(out, d)
	}
	return out, nil
}

// SubmitKYC records the provider's documents and queues them for review.
func (s *Service) SubmitKYC(ctx context.Context, uid string, in SubmitKYCInput) (*Provider, error) {
	now := s.now()
	docs, err := ValidateKYCDocuments(uid, in.Documents, now)
	if err != nil {
		return nil, err
	}

	ref := s.col().Doc(uid)
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if store.IsNotFound(err) {
				return fmt.Errorf("%w: provider profile not found", ErrNotFound)
			}
			return err
		}
		p, err := decodeProvider(snap)
		if err != nil {
			return err
		}
		if p.KYCStatus == KYCVerified {
			return fmt.Errorf("%w: identity already verified", ErrPrecondition)
		}
		return tx.Set(ref, map[string]interface{}{
			"kycStatus":          KYCPending,
			"kycDocuments":       docs,
			"kycSubmittedAt":     now,
			"kycRejectionReason": firestore.Delete,
			"updatedAt":          now,
		}, firestore.MergeAll)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("kyc: submitted uid=%s documents=%d", uid, len(docs))
	return s.Get(ctx, uid)
}

// ReviewKYC approves or rejects a pending submission (admin).
func (s *Service) ReviewKYC(ctx context.Context, adminUID, uid string, in ReviewKYCInput) (*Provider, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if !in.Approve && in.Reason == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", ErrBadRequest)
	}

	now := s.now()
	ref := s.col().Doc(uid)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if store.IsNotFound(err) {
				return fmt.Errorf("%w: provider profile not found", ErrNotFound)
			}
			return err
		}
		p, err := decodeProvider(snap)
		if err != nil {
			return err
		}
		if p.KYCStatus != KYCPending {
			return fmt.Errorf("%w: no pending KYC submission (status %q)", ErrPrecondition, p.KYCStatus)
		}
		return tx.Set(ref, KYCDecisionUpdates(in, adminUID, now), firestore.MergeAll)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("kyc: reviewed uid=%s approve=%v by=%s", uid, in.Approve, adminUID)

	if in.Approve && s.claims != nil {
		if _, err := user.MergeClaims(ctx, s.claims, uid, map[string]interface{}{"verifiedProvider": true}); err != nil {
			log.Printf("kyc: claims update failed uid=%s: %v", uid, err)
		}
	}
	if s.notifier != nil {
		msg := notifications.Message{Type: notifications.TypeKYCApproved, Title: "Identity verified", Body: "Your profile is now visible to clients."}
		if !in.Approve {
			msg = notifications.Message{Type: notifications.TypeKYCRejected, Title: "Identity verification rejected", Body: in.Reason}
		}
		if err := s.notifier.Notify(ctx, uid, msg); err != nil {
			log.Printf("kyc: notify failed uid=%s: %v", uid, err)
		}
	}
	return s.Get(ctx, uid)
}

// KYCDecisionUpdates returns the profile fields written for a KYC decision.
func KYCDecisionUpdates(in ReviewKYCInput, adminUID string, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"kycReviewedAt": now,
		"kycReviewedBy": adminUID,
		"updatedAt":     now,
	}
	if in.Approve {
		updates["kycStatus"] = KYCVerified
		updates["isVerified"] = true
		updates["isApproved"] = true
		updates["isVisible"] = true
		updates["status"] = StatusActive
		updates["kycRejectionReason"] = firestore.Delete
	} else {
		updates["kycStatus"] = KYCRejected
		updates["isVerified"] = false
		updates["kycRejectionReason"] = in.Reason
	}
	return updates
}

// PendingKYC is the admin review queue, oldest submission first.
func (s *Service) PendingKYC(ctx context.Context, limit int) ([]Provider, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	docs, err := s.col().Where("kycStatus", "==", KYCPending).
		OrderBy("kycSubmittedAt", firestore.Asc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending kyc: %w", err)
	}
	out := []Provider{}
	for _, doc := range docs {
		p, err := decodeProvider(doc)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
