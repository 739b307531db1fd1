package payments

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/paymentintent"
	"github.com/stripe/stripe-go/v78/refund"
	"google.golang.org/api/iterator"

	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/domain/pricing"
	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Config struct {
	SecretKey     string
	WebhookSecret string
}

// Quoter resolves the current price of a service.
type Quoter interface {
	Quote(ctx context.Context, service, currency string) (*pricing.Quote, error)
}

// ProviderSource loads provider profiles.
type ProviderSource interface {
	Get(ctx context.Context, id string) (*providers.Provider, error)
}

type Notifier interface {
	Notify(ctx context.Context, uid string, msg notifications.Message) error
}

type Service struct {
	fs        *firestore.Client
	config    Config
	quotes    Quoter
	providers ProviderSource
	notifier  Notifier

	newIntent func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	newRefund func(*stripe.RefundParams) (*stripe.Refund, error)
	now       func() time.Time
}

func NewService(fs *firestore.Client, cfg Config, quotes Quoter, provs ProviderSource) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{
		fs:        fs,
		config:    cfg,
		quotes:    quotes,
		providers: provs,
		newIntent: paymentintent.New,
		newRefund: refund.New,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) col() *firestore.CollectionRef {
	return s.fs.Collection(store.ColPayments)
}

// CreatePaymentIntent prices a call server-side, opens a Stripe
// PaymentIntent for it and records the pending payment.
func (s *Service) CreatePaymentIntent(ctx context.Context, uid string, input CreateIntentInput) (*CreateIntentResult, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: sign in to pay", ErrUnauthenticated)
	}
	input.Trim()

	if input.ProviderID == "" {
		return nil, fmt.Errorf("%w: providerId is required", ErrBadRequest)
	}
	if _, err := pricing.ParseService(input.ServiceType); err != nil {
		return nil, fmt.Errorf("%w: serviceType must be 'lawyer' or 'expat'", ErrBadRequest)
	}
	if _, err := pricing.ParseCurrency(input.Currency); err != nil {
		return nil, fmt.Errorf("%w: currency must be 'eur' or 'usd'", ErrBadRequest)
	}
	if input.ExpectedAmount != nil && *input.ExpectedAmount <= 0 {
		return nil, fmt.Errorf("%w: expectedAmount must be positive", ErrBadRequest)
	}
	if input.ProviderID == uid {
		return nil, fmt.Errorf("%w: you cannot book yourself", ErrForbidden)
	}

	p, err := s.providers.Get(ctx, input.ProviderID)
	if err != nil {
		if providers.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: provider not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load provider: %w", err)
	}
	if !p.Bookable() {
		return nil, fmt.Errorf("%w: provider is not available for booking", ErrPrecondition)
	}
	if p.Type != "" && p.Type != input.ServiceType {
		return nil, fmt.Errorf("%w: provider offers %s calls, not %s", ErrBadRequest, p.Type, input.ServiceType)
	}

	q, err := s.quotes.Quote(ctx, input.ServiceType, input.Currency)
	if err != nil {
		if pricing.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: no price configured for %s/%s", ErrPrecondition, input.ServiceType, input.Currency)
		}
		return nil, fmt.Errorf("failed to price call: %w", err)
	}
	if err := CheckExpectedAmount(q, input.ExpectedAmount); err != nil {
		return nil, err
	}
	if q.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: price is not payable", ErrPrecondition)
	}

	key := input.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	pi, err := s.newIntent(IntentParams(uid, p, q, key))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	now := s.now()
	payment := NewPayment(pi.ID, uid, p, q)
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if _, err := s.col().Doc(pi.ID).Set(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	log.Printf("payments: intent created id=%s client=%s provider=%s amount=%d %s override=%v",
		pi.ID, uid, p.ID, q.AmountCents, q.Currency, q.OverrideApplied)

	return &CreateIntentResult{PaymentID: pi.ID, ClientSecret: pi.ClientSecret, Quote: q}, nil
}

func (s *Service) load(ctx context.Context, id string) (*Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: payment id is required", ErrBadRequest)
	}
	doc, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: payment not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	var p Payment
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

// Get returns a payment to its client, its provider or an admin.
func (s *Service) Get(ctx context.Context, uid string, isAdmin bool, id string) (*Payment, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && p.ClientID != uid && p.ProviderID != uid {
		return nil, fmt.Errorf("%w: not your payment", ErrForbidden)
	}
	return p, nil
}

// FindSucceeded returns id if it is a succeeded payment of clientID for
// providerID.
func (s *Service) FindSucceeded(ctx context.Context, clientID, providerID, id string) (*Payment, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ClientID != clientID || p.ProviderID != providerID {
		return nil, fmt.Errorf("%w: payment does not belong to this call", ErrForbidden)
	}
	if p.Status != StatusSucceeded {
		return nil, fmt.Errorf("%w: payment is %s", ErrPrecondition, p.Status)
	}
	return p, nil
}

// Refund refunds a succeeded payment in full (admin).
func (s *Service) Refund(ctx context.Context, adminUID, id string, in RefundInput) (*Payment, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusSucceeded {
		return nil, fmt.Errorf("%w: only succeeded payments can be refunded (status %s)", ErrPrecondition, p.Status)
	}

	reason := strings.TrimSpace(in.Reason)
	r, err := s.newRefund(RefundParams(p.ID, adminUID, reason))
	if err != nil {
		return nil, fmt.Errorf("failed to refund payment: %w", err)
	}

	err = s.markRefunded(ctx, p.ID, map[string]interface{}{
		"refundId":       r.ID,
		"refundReason":   reason,
		"refundedBy":     adminUID,
		"refundedAmount": p.TotalAmount,
		"refundedAt":     s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	log.Printf("payments: refunded id=%s refund=%s by=%s", p.ID, r.ID, adminUID)
	return s.load(ctx, p.ID)
}

// List returns payments newest first (admin).
func (s *Service) List(ctx context.Context, f ListFilter) ([]Payment, error) {
	f.Trim()
	q := s.col().Query
	if f.Status != "" {
		if !contains(ValidStatuses, f.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrBadRequest, f.Status)
		}
		q = q.Where("status", "==", f.Status)
	}
	if f.ProviderID != "" {
		q = q.Where("providerId", "==", f.ProviderID)
	}
	if f.ClientID != "" {
		q = q.Where("clientId", "==", f.ClientID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.query(ctx, q.OrderBy("createdAt", firestore.Desc).Limit(limit))
}

// ListMine returns the caller's payments as client or as provider.
func (s *Service) ListMine(ctx context.Context, uid string, asProvider bool, limit int) ([]Payment, error) {
	field := "clientId"
	if asProvider {
		field = "providerId"
	}
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	return s.query(ctx, s.col().Where(field, "==", uid).OrderBy("createdAt", firestore.Desc).Limit(limit))
}

func (s *Service) query(ctx context.Context, q firestore.Query) ([]Payment, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()
	out := []Payment{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list payments: %w", err)
		}
		var p Payment
		if err := doc.DataTo(&p); err != nil {
			log.Printf("payments: skip undecodable payment id=%s: %v", doc.Ref.ID, err)
			continue
		}
		p.ID = doc.Ref.ID
		out = append(out, p)
	}
	return out, nil
}

// Summary totals every payment per currency (admin).
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	q := s.col().Select("currency", "status", "totalAmount", "connectionFeeAmount", "providerAmount", "refundedAmount")
	list, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	sum := Summarize(list)
	return &sum, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
