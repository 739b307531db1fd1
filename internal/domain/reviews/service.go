package reviews

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/domain/payments"
	"sos-expat/backend/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// PaymentChecker confirms a client paid a provider.
type PaymentChecker interface {
	FindSucceeded(ctx context.Context, clientID, providerID, paymentID string) (*payments.Payment, error)
}

type Notifier interface {
	Notify(ctx context.Context, uid string, msg notifications.Message) error
}

type Service struct {
	fs       *firestore.Client
	payments PaymentChecker
	notifier Notifier
	now      func() time.Time
}

func NewService(fs *firestore.Client, pc PaymentChecker) *Service {
	return &Service{fs: fs, payments: pc, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) col() *firestore.CollectionRef {
	return s.fs.Collection(store.ColReviews)
}

// Create stores a pending review for a paid call. The review id is the
// payment id, so a payment can be reviewed once.
func (s *Service) Create(ctx context.Context, uid, clientName string, in CreateInput) (*Review, error) {
	in.Trim()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if s.payments == nil {
		return nil, fmt.Errorf("%w: payments are not enabled", ErrPrecondition)
	}
	pay, err := s.payments.FindSucceeded(ctx, uid, in.ProviderID, in.PaymentID)
	if err != nil {
		switch {
		case payments.IsErrNotFound(err):
			return nil, fmt.Errorf("%w: payment not found", ErrNotFound)
		case payments.IsErrForbidden(err):
			return nil, fmt.Errorf("%w: you can only review your own calls", ErrForbidden)
		case payments.IsErrPrecondition(err):
			return nil, fmt.Errorf("%w: the call has not been paid", ErrPrecondition)
		}
		return nil, err
	}

	now := s.now()
	r := Review{
		ID:          pay.ID,
		ProviderID:  in.ProviderID,
		ClientID:    uid,
		ClientName:  strings.TrimSpace(clientName),
		PaymentID:   pay.ID,
		ServiceType: pay.ServiceType,
		Rating:      in.Rating,
		Comment:     in.Comment,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.col().Doc(r.ID).Create(ctx, r); err != nil {
		if store.IsAlreadyExists(err) {
			return nil, fmt.Errorf("%w: this call was already reviewed", ErrPrecondition)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	log.Printf("reviews: created id=%s provider=%s rating=%d", r.ID, r.ProviderID, r.Rating)
	return &r, nil
}

func decodeReview(doc *firestore.DocumentSnapshot) (Review, error) {
	var r Review
	if err := doc.DataTo(&r); err != nil {
		return r, err
	}
	r.ID = doc.Ref.ID
	return r, nil
}

// Moderate sets the status of a review (admin) and recomputes the
// provider's rating over published reviews in the same transaction.
func (s *Service) Moderate(ctx context.Context, adminUID, id string, in ModerateInput) (*Review, error) {
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: status must be one of %s", ErrBadRequest, strings.Join(ValidStatuses, ", "))
	}

	var out Review
	var publishedNow bool
	err := s.apply(ctx, id, func(r *Review) {
		publishedNow = r.Status != StatusPublished && status == StatusPublished
		now := s.now()
		r.Status = status
		r.ModeratedBy = adminUID
		r.ModeratedAt = &now
		r.UpdatedAt = now
		out = *r
	})
	if err != nil {
		return nil, err
	}
	log.Printf("reviews: moderated id=%s status=%s by=%s", id, status, adminUID)

	if publishedNow && s.notifier != nil {
		err := s.notifier.Notify(ctx, out.ProviderID, notifications.Message{
			Type:  notifications.TypeReviewPublished,
			Title: "New review",
			Body:  fmt.Sprintf("A client rated your call %d/5.", out.Rating),
			Data:  map[string]string{"reviewId": out.ID},
		})
		if err != nil {
			log.Printf("reviews: notify failed provider=%s: %v", out.ProviderID, err)
		}
	}
	return &out, nil
}

// Delete removes a review (admin) and recomputes the provider aggregate.
func (s *Service) Delete(ctx context.Context, adminUID, id string) error {
	err := s.apply(ctx, id, func(r *Review) {
		r.Status = ""
	})
	if err != nil {
		return err
	}
	log.Printf("reviews: deleted id=%s by=%s", id, adminUID)
	return nil
}

// apply loads review id, lets change mutate it and writes it back with the
// provider aggregate. An empty status after change deletes the review.
func (s *Service) apply(ctx context.Context, id string, change func(*Review)) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: review id is required", ErrBadRequest)
	}
	ref := s.col().Doc(id)
	return s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if store.IsNotFound(err) {
				return fmt.Errorf("%w: review not found", ErrNotFound)
			}
			return err
		}
		r, err := decodeReview(snap)
		if err != nil {
			return err
		}

		docs, err := tx.Documents(s.col().
			Where("providerId", "==", r.ProviderID).
			Where("status", "==", StatusPublished)).GetAll()
		if err != nil {
			return err
		}
		published := make([]Review, 0, len(docs))
		for _, d := range docs {
			pr, err := decodeReview(d)
			if err != nil {
				continue
			}
			published = append(published, pr)
		}

		providerRef := s.fs.Collection(store.ColProfiles).Doc(r.ProviderID)
		providerExists := true
		if _, err := tx.Get(providerRef); err != nil {
			if !store.IsNotFound(err) {
				return err
			}
			providerExists = false
		}

		change(&r)
		agg := Recompute(published, r)

		if r.Status == "" {
			if err := tx.Delete(ref); err != nil {
				return err
			}
		} else if err := tx.Set(ref, r); err != nil {
			return err
		}
		// a deleted provider keeps no aggregate
		if !providerExists {
			return nil
		}
		return tx.Update(providerRef, []firestore.Update{
			{Path: "rating", Value: agg.Rating},
			{Path: "reviewCount", Value: agg.ReviewCount},
			{Path: "updatedAt", Value: s.now()},
		})
	})
}

// ListForProvider returns published reviews of a provider, newest first.
func (s *Service) ListForProvider(ctx context.Context, providerID string, limit int) ([]Review, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, fmt.Errorf("%w: providerId is required", ErrBadRequest)
	}
	q := s.col().Where("providerId", "==", providerID).
		Where("status", "==", StatusPublished).
		OrderBy("createdAt", firestore.Desc).
		Limit(clampLimit(limit))
	return s.query(ctx, q)
}

// ListAdmin returns reviews of any status, or of one status, newest first.
func (s *Service) ListAdmin(ctx context.Context, status string, limit int) ([]Review, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	q := s.col().Query
	if status != "" && status != "all" {
		if !validStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, status)
		}
		q = q.Where("status", "==", status)
	}
	return s.query(ctx, q.OrderBy("createdAt", firestore.Desc).Limit(clampLimit(limit)))
}

func (s *Service) query(ctx context.Context, q firestore.Query) ([]Review, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()
	out := []Review{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews: %w", err)
		}
		r, err := decodeReview(doc)
		if err != nil {
			log.Printf("reviews: skip undecodable review id=%s: %v", doc.Ref.ID, err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
