package notifications

import (
	"strings"
	"time"
)

const (
	TypePaymentReceived = "payment_received"
	TypeKYCApproved     = "kyc_approved"
	TypeKYCRejected     = "kyc_rejected"
	TypeReviewPublished = "review_published"
)

// Notification is an in-app notification under users/{uid}/notifications.
type Notification struct {
	ID        string            `firestore:"id" json:"id"`
	Title     string            `firestore:"title" json:"title"`
	Body      string            `firestore:"body" json:"body"`
	Type      string            `firestore:"type" json:"type"`
	Data      map[string]string `firestore:"data,omitempty" json:"data,omitempty"`
	Read      bool              `firestore:"read" json:"read"`
	ReadAt    *time.Time        `firestore:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt time.Time         `firestore:"createdAt" json:"createdAt"`
}

// Message is what services hand to Notify.
type Message struct {
	Type  string
	Title string
	Body  string
	Data  map[string]string
}

const maxMarkReadIDs = 100

// MarkReadInput represents input for marking notifications as read
type MarkReadInput struct {
	NotificationID  string   `json:"notificationId,omitempty"`
	NotificationIDs []string `json:"notificationIds,omitempty"`
	MarkAll         bool     `json:"markAll,omitempty"`
}

func (in *MarkReadInput) Trim() {
	in.NotificationID = strings.TrimSpace(in.NotificationID)
	for i := range in.NotificationIDs {
		in.NotificationIDs[i] = strings.TrimSpace(in.NotificationIDs[i])
	}
}

// IDs merges NotificationID and NotificationIDs, dropping blanks and duplicates.
func (in MarkReadInput) IDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range append([]string{in.NotificationID}, in.NotificationIDs...) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ListResult represents the result of listing notifications
type ListResult struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unreadCount"`
}
