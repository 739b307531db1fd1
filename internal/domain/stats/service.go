package stats

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"sos-expat/backend/internal/domain/payments"
	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/domain/reviews"
	"sos-expat/backend/internal/store"
)

// PaymentSummarizer totals payments per currency.
type PaymentSummarizer interface {
	Summary(ctx context.Context) (*payments.Summary, error)
}

type Service struct {
	client   *firestore.Client
	payments PaymentSummarizer
	now      func() time.Time
}

// NewService builds the stats service; ps may be nil when payments are
// disabled.
func NewService(client *firestore.Client, ps PaymentSummarizer) *Service {
	return &Service{client: client, payments: ps, now: time.Now}
}

type counter struct {
	name string
	q    firestore.Query
	dst  *int64
}

// Dashboard gathers counts with server-side aggregation queries.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	profiles := s.client.Collection(store.ColProfiles)
	revs := s.client.Collection(store.ColReviews)
	out := &DashboardStats{
		Providers: ProviderStats{ByType: map[string]int64{}},
	}

	var lawyers, expats, approved int64
	now := s.now().UTC()
	firstDayOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	counters := []counter{
		{"users", s.client.Collection(store.ColUsers).Query, &out.Users},
		{"providers", profiles.Query, &out.Providers.Total},
		{"lawyers", profiles.Where("type", "==", providers.TypeLawyer), &lawyers},
		{"expats", profiles.Where("type", "==", providers.TypeExpat), &expats},
		{"online", profiles.Where("isOnline", "==", true), &out.Providers.Online},
		{"banned", profiles.Where("isBanned", "==", true), &out.Providers.Banned},
		{"approved", profiles.Where("isApproved", "==", true), &approved},
		{"kyc pending", profiles.Where("kycStatus", "==", providers.KYCPending), &out.KYC.Pending},
		{"kyc verified", profiles.Where("kycStatus", "==", providers.KYCVerified), &out.KYC.Verified},
		{"kyc rejected", profiles.Where("kycStatus", "==", providers.KYCRejected), &out.KYC.Rejected},
		{"reviews pending", revs.Where("status", "==", reviews.StatusPending), &out.Reviews.Pending},
		{"reviews published", revs.Where("status", "==", reviews.StatusPublished), &out.Reviews.Published},
		{"payments this month", s.client.Collection(store.ColPayments).Where("createdAt", ">=", firstDayOfMonth), &out.Payments.ThisMonth},
	}
	for _, c := range counters {
		n, err := store.Count(ctx, c.q)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.name, err)
		}
		*c.dst = n
	}
	out.Providers.ByType[providers.TypeLawyer] = lawyers
	out.Providers.ByType[providers.TypeExpat] = expats
	out.Providers.ApprovalRate = Rate(approved, out.Providers.Total)

	if s.payments != nil {
		sum, err := s.payments.Summary(ctx)
		if err != nil {
			return nil, err
		}
		out.Payments.Summary = sum
	}
	return out, nil
}

// Rate formats part/total as a percentage with one decimal.
func Rate(part, total int64) string {
	if total <= 0 {
		return "0"
	}
	return fmt.Sprintf("%.1f", float64(part)/float64(total)*100)
}
