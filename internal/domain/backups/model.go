package backups

import (
	"fmt"
	"strings"
	"time"

	"sos-expat/backend/internal/store"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// DefaultCollections are exported when a backup names none.
var DefaultCollections = []string{
	store.ColUsers,
	store.ColProfiles,
	store.ColPayments,
	store.ColReviews,
	store.ColLegalDocuments,
	store.ColAdminConfig,
}

// Backup is a backups/{id} record.
type Backup struct {
	ID          string           `firestore:"id" json:"id"`
	Status      string           `firestore:"status" json:"status"`
	Bucket      string           `firestore:"bucket" json:"bucket"`
	Prefix      string           `firestore:"prefix" json:"prefix"`
	Collections []string         `firestore:"collections" json:"collections"`
	Counts      map[string]int64 `firestore:"counts" json:"counts"`
	Bytes       int64            `firestore:"bytes" json:"bytes"`
	Error       string           `firestore:"error,omitempty" json:"error,omitempty"`
	CreatedBy   string           `firestore:"createdBy" json:"createdBy"`
	StartedAt   time.Time        `firestore:"startedAt" json:"startedAt"`
	FinishedAt  *time.Time       `firestore:"finishedAt,omitempty" json:"finishedAt,omitempty"`
}

func (b Backup) ObjectName(collection string) string {
	return b.Prefix + collection + ".ndjson"
}

func (b Backup) Has(collection string) bool {
	for _, c := range b.Collections {
		if c == collection {
			return true
		}
	}
	return false
}

type CreateInput struct {
	Collections []string `json:"collections,omitempty"`
}

type RestoreInput struct {
	Collections []string `json:"collections,omitempty"`
}

type RestoreResult struct {
	BackupID string           `json:"backupId"`
	Restored map[string]int64 `json:"restored"`
	Failed   int64            `json:"failed"`
}

type DownloadURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResolveCollections validates a requested collection list against
// allowed, deduplicating it. An empty request means all of allowed.
func ResolveCollections(requested, allowed []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), allowed...), nil
	}
	ok := map[string]bool{}
	for _, c := range allowed {
		ok[c] = true
	}
	seen := map[string]bool{}
	out := []string{}
	for _, c := range requested {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		if !ok[c] {
			return nil, fmt.Errorf("%w: collection %q cannot be backed up", ErrBadRequest, c)
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no collections selected", ErrBadRequest)
	}
	return out, nil
}

// NewID returns a sortable backup id.
func NewID(now time.Time, suffix string) string {
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return now.UTC().Format("20060102-150405") + "-" + suffix
}
