package payments

import (
	"strings"
	"time"

	"sos-expat/backend/internal/domain/pricing"
)

const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
	StatusRefunded  = "refunded"
)

var ValidStatuses = []string{StatusPending, StatusSucceeded, StatusFailed, StatusCanceled, StatusRefunded}

// Payment is a payments/{intentId} document. Amounts are in major units.
type Payment struct {
	ID                  string  `firestore:"id" json:"id"`
	ClientID            string  `firestore:"clientId" json:"clientId"`
	ProviderID          string  `firestore:"providerId" json:"providerId"`
	ProviderName        string  `firestore:"providerName,omitempty" json:"providerName,omitempty"`
	ServiceType         string  `firestore:"serviceType" json:"serviceType"`
	Currency            string  `firestore:"currency" json:"currency"`
	TotalAmount         float64 `firestore:"totalAmount" json:"totalAmount"`
	ConnectionFeeAmount float64 `firestore:"connectionFeeAmount" json:"connectionFeeAmount"`
	ProviderAmount      float64 `firestore:"providerAmount" json:"providerAmount"`
	AmountCents         int64   `firestore:"amountCents" json:"amountCents"`
	Duration            int     `firestore:"duration" json:"duration"`
	OverrideApplied     bool    `firestore:"overrideApplied" json:"overrideApplied"`
	OverrideLabel       string  `firestore:"overrideLabel,omitempty" json:"overrideLabel,omitempty"`

	Status         string  `firestore:"status" json:"status"`
	FailureMessage string  `firestore:"failureMessage,omitempty" json:"failureMessage,omitempty"`
	RefundID       string  `firestore:"refundId,omitempty" json:"refundId,omitempty"`
	RefundReason   string  `firestore:"refundReason,omitempty" json:"refundReason,omitempty"`
	RefundedBy     string  `firestore:"refundedBy,omitempty" json:"refundedBy,omitempty"`
	RefundedAmount float64 `firestore:"refundedAmount,omitempty" json:"refundedAmount,omitempty"`

	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt" json:"updatedAt"`
	SucceededAt *time.Time `firestore:"succeededAt,omitempty" json:"succeededAt,omitempty"`
	RefundedAt  *time.Time `firestore:"refundedAt,omitempty" json:"refundedAt,omitempty"`
}

// CreateIntentInput is the body of createPaymentIntent.
type CreateIntentInput struct {
	ProviderID     string   `json:"providerId"`
	ServiceType    string   `json:"serviceType"`
	Currency       string   `json:"currency"`
	ExpectedAmount *float64 `json:"expectedAmount,omitempty"`
	IdempotencyKey string   `json:"idempotencyKey,omitempty"`
}

func (in *CreateIntentInput) Trim() {
	in.ProviderID = strings.TrimSpace(in.ProviderID)
	in.ServiceType = strings.ToLower(strings.TrimSpace(in.ServiceType))
	in.Currency = strings.ToLower(strings.TrimSpace(in.Currency))
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
}

type CreateIntentResult struct {
	PaymentID    string         `json:"paymentId"`
	ClientSecret string         `json:"clientSecret"`
	Quote        *pricing.Quote `json:"quote"`
}

type RefundInput struct {
	Reason string `json:"reason"`
}

// ListFilter narrows the admin payment list.
type ListFilter struct {
	Status     string `json:"status,omitempty"`
	ProviderID string `json:"providerId,omitempty"`
	ClientID   string `json:"clientId,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

func (f *ListFilter) Trim() {
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	f.ProviderID = strings.TrimSpace(f.ProviderID)
	f.ClientID = strings.TrimSpace(f.ClientID)
}

// CurrencySummary aggregates payments of one currency.
type CurrencySummary struct {
	Currency        string  `json:"currency"`
	Count           int     `json:"count"`
	SucceededCount  int     `json:"succeededCount"`
	Gross           float64 `json:"gross"`
	ConnectionFees  float64 `json:"connectionFees"`
	ProviderPayouts float64 `json:"providerPayouts"`
	RefundedCount   int     `json:"refundedCount"`
	Refunded        float64 `json:"refunded"`
}

type Summary struct {
	Currencies []CurrencySummary `json:"currencies"`
	Total      int               `json:"total"`
}
