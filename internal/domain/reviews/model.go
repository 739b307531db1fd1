package reviews

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusHidden    = "hidden"

	maxComment = 2000
)

var ValidStatuses = []string{StatusPending, StatusPublished, StatusHidden}

type Review struct {
	ID          string     `firestore:"id" json:"id"`
	ProviderID  string     `firestore:"providerId" json:"providerId"`
	ClientID    string     `firestore:"clientId" json:"clientId"`
	ClientName  string     `firestore:"clientName,omitempty" json:"clientName,omitempty"`
	PaymentID   string     `firestore:"paymentId" json:"paymentId"`
	ServiceType string     `firestore:"serviceType,omitempty" json:"serviceType,omitempty"`
	Rating      int        `firestore:"rating" json:"rating"`
	Comment     string     `firestore:"comment" json:"comment"`
	Status      string     `firestore:"status" json:"status"`
	ModeratedBy string     `firestore:"moderatedBy,omitempty" json:"moderatedBy,omitempty"`
	ModeratedAt *time.Time `firestore:"moderatedAt,omitempty" json:"moderatedAt,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt" json:"updatedAt"`
}

type CreateInput struct {
	ProviderID string `json:"providerId"`
	PaymentID  string `json:"paymentId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (in *CreateInput) Trim() {
	in.ProviderID = strings.TrimSpace(in.ProviderID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	in.Comment = strings.TrimSpace(in.Comment)
}

// Validate checks a trimmed CreateInput.
func (in CreateInput) Validate() error {
	if in.ProviderID == "" {
		return fmt.Errorf("%w: providerId is required", ErrBadRequest)
	}
	if in.PaymentID == "" {
		return fmt.Errorf("%w: paymentId is required", ErrBadRequest)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrBadRequest)
	}
	if utf8.RuneCountInString(in.Comment) > maxComment {
		return fmt.Errorf("%w: comment is limited to %d characters", ErrBadRequest, maxComment)
	}
	return nil
}

type ModerateInput struct {
	Status string `json:"status"`
}

// Aggregate is the rating summary stored on the provider profile.
type Aggregate struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// ComputeAggregate averages published ratings, rounded to one decimal.
func ComputeAggregate(list []Review) Aggregate {
	sum, n := 0, 0
	for _, r := range list {
		if r.Status != StatusPublished {
			continue
		}
		sum += r.Rating
		n++
	}
	if n == 0 {
		return Aggregate{}
	}
	return Aggregate{Rating: math.Round(float64(sum)/float64(n)*10) / 10, ReviewCount: n}
}

func validStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Recompute returns the provider aggregate after changed is saved, given
// the currently published reviews of that provider. A changed review with
// an empty status is being deleted.
func Recompute(published []Review, changed Review) Aggregate {
	next := make([]Review, 0, len(published)+1)
	for _, r := range published {
		if r.ID != changed.ID {
			next = append(next, r)
		}
	}
	if changed.Status == StatusPublished {
		next = append(next, changed)
	}
	return ComputeAggregate(next)
}
