package providers

import (
	"strings"
	"time"
)

const (
	TypeLawyer = "lawyer"
	TypeExpat  = "expat"

	StatusActive    = "active"
	StatusPending   = "pending"
	StatusSuspended = "suspended"
	StatusBanned    = "banned"

	KYCNotSubmitted = "not_submitted"
	KYCPending      = "pending"
	KYCVerified     = "verified"
	KYCRejected     = "rejected"
)

var (
	ValidTypes     = []string{TypeLawyer, TypeExpat}
	ValidStatuses  = []string{StatusActive, StatusPending, StatusSuspended, StatusBanned}
	ValidKYCStates = []string{KYCNotSubmitted, KYCPending, KYCVerified, KYCRejected}
	ValidDocKinds  = []string{"passport", "id_card", "bar_certificate", "proof_of_address", "diploma", "residence_permit"}
)

// Provider is a sos_profiles document (lawyer or expat helper).
type Provider struct {
	ID                string   `firestore:"-" json:"id"`
	Type              string   `firestore:"type" json:"type"`
	FirstName         string   `firestore:"firstName" json:"firstName"`
	LastName          string   `firestore:"lastName" json:"lastName"`
	FullName          string   `firestore:"fullName,omitempty" json:"fullName,omitempty"`
	Email             string   `firestore:"email,omitempty" json:"email,omitempty"`
	Phone             string   `firestore:"phone,omitempty" json:"phone,omitempty"`
	Country           string   `firestore:"country,omitempty" json:"country,omitempty"`
	City              string   `firestore:"city,omitempty" json:"city,omitempty"`
	Languages         []string `firestore:"languages,omitempty" json:"languages,omitempty"`
	Specialties       []string `firestore:"specialties,omitempty" json:"specialties,omitempty"`
	Description       string   `firestore:"description,omitempty" json:"description,omitempty"`
	YearsOfExperience int      `firestore:"yearsOfExperience,omitempty" json:"yearsOfExperience,omitempty"`

	Rating      float64 `firestore:"rating" json:"rating"`
	ReviewCount int     `firestore:"reviewCount" json:"reviewCount"`

	IsOnline   bool   `firestore:"isOnline" json:"isOnline"`
	IsVisible  bool   `firestore:"isVisible" json:"isVisible"`
	IsApproved bool   `firestore:"isApproved" json:"isApproved"`
	IsBanned   bool   `firestore:"isBanned" json:"isBanned"`
	IsVerified bool   `firestore:"isVerified" json:"isVerified"`
	Status     string `firestore:"status,omitempty" json:"status,omitempty"`

	KYCStatus          string        `firestore:"kycStatus,omitempty" json:"kycStatus,omitempty"`
	KYCDocuments       []KYCDocument `firestore:"kycDocuments,omitempty" json:"kycDocuments,omitempty"`
	KYCRejectionReason string        `firestore:"kycRejectionReason,omitempty" json:"kycRejectionReason,omitempty"`
	KYCSubmittedAt     *time.Time    `firestore:"kycSubmittedAt,omitempty" json:"kycSubmittedAt,omitempty"`
	KYCReviewedAt      *time.Time    `firestore:"kycReviewedAt,omitempty" json:"kycReviewedAt,omitempty"`
	KYCReviewedBy      string        `firestore:"kycReviewedBy,omitempty" json:"kycReviewedBy,omitempty"`

	TotalCalls    int     `firestore:"totalCalls" json:"totalCalls"`
	TotalEarnings float64 `firestore:"totalEarnings" json:"totalEarnings"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

func (p Provider) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Bookable reports whether clients may pay for a call with p.
func (p Provider) Bookable() bool {
	return p.IsApproved && !p.IsBanned && p.Status != StatusSuspended && p.Status != StatusBanned
}

// Public strips contact, KYC and earnings fields for anonymous readers.
func (p Provider) Public() Provider {
	p.Email = ""
	p.Phone = ""
	p.KYCDocuments = nil
	p.KYCRejectionReason = ""
	p.KYCSubmittedAt = nil
	p.KYCReviewedAt = nil
	p.KYCReviewedBy = ""
	p.TotalEarnings = 0
	return p
}

// VisibleTo reports whether uid may read p. Unapproved, hidden or banned
// profiles are only visible to their owner and admins.
func (p Provider) VisibleTo(uid string, isAdmin bool) bool {
	if isAdmin || (uid != "" && uid == p.ID) {
		return true
	}
	return p.IsApproved && p.IsVisible && !p.IsBanned
}

type KYCDocument struct {
	Kind       string    `firestore:"kind" json:"kind"`
	Path       string    `firestore:"path" json:"path"`
	UploadedAt time.Time `firestore:"uploadedAt" json:"uploadedAt"`
}

// ListFilter is the admin provider list state.
type ListFilter struct {
	Type      string `json:"type,omitempty"`
	Status    string `json:"status,omitempty"`
	Country   string `json:"country,omitempty"`
	Language  string `json:"language,omitempty"`
	KYCStatus string `json:"kycStatus,omitempty"`
	Online    *bool  `json:"online,omitempty"`
	Search    string `json:"search,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortDir   string `json:"sortDir,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Cursor    string `json:"cursor,omitempty"`
}

func (f *ListFilter) Trim() {
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	f.Country = strings.TrimSpace(f.Country)
	f.Language = strings.TrimSpace(f.Language)
	f.KYCStatus = strings.ToLower(strings.TrimSpace(f.KYCStatus))
	f.Search = strings.TrimSpace(f.Search)
	f.SortBy = strings.TrimSpace(f.SortBy)
	f.SortDir = strings.ToLower(strings.TrimSpace(f.SortDir))
	f.Cursor = strings.TrimSpace(f.Cursor)
}

type ListResult struct {
	Providers  []Provider `json:"providers"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// UpdateOwnInput is what a provider may change on their own profile.
type UpdateOwnInput struct {
	Description *string   `json:"description,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	City        *string   `json:"city,omitempty"`
	Languages   *[]string `json:"languages,omitempty"`
	Specialties *[]string `json:"specialties,omitempty"`
	IsOnline    *bool     `json:"isOnline,omitempty"`
}

type SubmitKYCInput struct {
	Documents []KYCDocument `json:"documents"`
}

type ReviewKYCInput struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

type SetStatusInput struct {
	Status string `json:"status"`
}

// MapMarker is one provider pin on the discovery map.
type MapMarker struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Country     string   `json:"country"`
	City        string   `json:"city,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"reviewCount"`
	IsOnline    bool     `json:"isOnline"`
	Languages   []string `json:"languages,omitempty"`
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
