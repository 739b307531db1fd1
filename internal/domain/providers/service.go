package providers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/domain/user"
	"sos-expat/backend/internal/store"
	"sos-expat/backend/internal/utils"
)

const (
	maxSearchScan   = 1000
	maxExportRows   = 5000
	maxMapMarkers   = 500
	maxDescription  = 2000
	maxProfileItems = 20
)

// Notifier delivers user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, uid string, msg notifications.Message) error
}

type Service struct {
	client   *firestore.Client
	claims   user.ClaimsClient
	notifier Notifier
	now      func() time.Time
}

func NewService(client *firestore.Client, claims user.ClaimsClient) *Service {
	return &Service{client: client, claims: claims, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) col() *firestore.CollectionRef {
	return s.client.Collection(store.ColProfiles)
}

func decodeProvider(doc *firestore.DocumentSnapshot) (Provider, error) {
	var p Provider
	if err := doc.DataTo(&p); err != nil {
		return p, err
	}
	p.ID = doc.Ref.ID
	return p, nil
}

// Get returns one provider profile.
func (s *Service) Get(ctx context.Context, id string) (*Provider, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: provider id is required", ErrBadRequest)
	}
	doc, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: provider not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	p, err := decodeProvider(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode provider: %w", err)
	}
	return &p, nil
}

// List runs the admin list query. With a search term, pages are scanned
// until the page is full or maxSearchScan documents were read.
func (s *Service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	plan, err := PlanQuery(f)
	if err != nil {
		return nil, err
	}

	var cursor *firestore.DocumentSnapshot
	if plan.Cursor != "" {
		cursor, err = s.col().Doc(plan.Cursor).Get(ctx)
		if err != nil {
			if store.IsNotFound(err) {
				return nil, fmt.Errorf("%w: invalid cursor", ErrBadRequest)
			}
			return nil, fmt.Errorf("failed to load cursor: %w", err)
		}
	}

	out := []Provider{}
	scanned := 0
	nextCursor := ""
	for {
		docs, err := plan.Apply(s.col().Query, cursor, plan.Limit).Documents(ctx).GetAll()
		if err != nil {
			return nil, fmt.Errorf("failed to list providers: %w", err)
		}
		full := false
		for _, doc := range docs {
			cursor = doc
			p, err := decodeProvider(doc)
			if err != nil {
				log.Printf("providers: skip undecodable profile id=%s: %v", doc.Ref.ID, err)
				continue
			}
			if !MatchesSearch(p, f.Search) {
				continue
			}
			out = append(out, p)
			if len(out) == plan.Limit {
				full = true
				break
			}
		}
		scanned += len(docs)

		if len(docs) < plan.Limit && !full {
			break
		}
		if full || f.Search == "" || scanned >= maxSearchScan {
			nextCursor = cursor.Ref.ID
			break
		}
	}

	return &ListResult{Providers: out, NextCursor: nextCursor}, nil
}

// ListAll walks every page of f, for CSV export.
func (s *Service) ListAll(ctx context.Context, f ListFilter) ([]Provider, error) {
	f.Limit = maxListLimit
	f.Cursor = ""
	all := []Provider{}
	for {
		res, err := s.List(ctx, f)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Providers...)
		if res.NextCursor == "" || len(all) >= maxExportRows {
			break
		}
		f.Cursor = res.NextCursor
	}
	if len(all) > maxExportRows {
		all = all[:maxExportRows]
	}
	return all, nil
}

// StatusUpdates returns the fields written when an admin moves a provider
// to status.
func StatusUpdates(status string) (map[string]interface{}, error) {
	switch status {
	case StatusActive:
		return map[string]interface{}{"status": status, "isApproved": true, "isVisible": true, "isBanned": false}, nil
	case StatusPending:
		return map[string]interface{}{"status": status, "isApproved": false, "isVisible": false}, nil
	case StatusSuspended:
		return map[string]interface{}{"status": status, "isVisible": false, "isOnline": false}, nil
	case StatusBanned:
		return map[string]interface{}{"status": status, "isBanned": true, "isVisible": false, "isOnline": false}, nil
	}
	return nil, fmt.Errorf("%w: status must be one of %s", ErrBadRequest, strings.Join(ValidStatuses, ", "))
}

// SetStatus changes the moderation status of a provider (admin).
func (s *Service) SetStatus(ctx context.Context, adminUID, id string, in SetStatusInput) (*Provider, error) {
	updates, err := StatusUpdates(strings.ToLower(strings.TrimSpace(in.Status)))
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	updates["updatedAt"] = s.now()
	updates["statusChangedBy"] = adminUID
	if _, err := s.col().Doc(id).Set(ctx, updates, firestore.MergeAll); err != nil {
		return nil, fmt.Errorf("failed to update provider: %w", err)
	}
	log.Printf("providers: status id=%s status=%v by=%s", id, updates["status"], adminUID)
	return s.Get(ctx, id)
}

// Delete removes a provider profile (admin). The users document is kept.
func (s *Service) Delete(ctx context.Context, adminUID, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if _, err := s.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	log.Printf("providers: deleted id=%s by=%s", id, adminUID)
	return nil
}

// OwnUpdates validates a provider's self-service edit.
func OwnUpdates(in UpdateOwnInput) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if in.Description != nil {
		updates["description"] = utils.TrimMax(*in.Description, maxDescription)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.City != nil {
		updates["city"] = strings.TrimSpace(*in.City)
	}
	if in.Languages != nil {
		langs, err := cleanList(*in.Languages, "languages")
		if err != nil {
			return nil, err
		}
		updates["languages"] = langs
	}
	if in.Specialties != nil {
		specs, err := cleanList(*in.Specialties, "specialties")
		if err != nil {
			return nil, err
		}
		updates["specialties"] = specs
	}
	if in.IsOnline != nil {
		updates["isOnline"] = *in.IsOnline
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrBadRequest)
	}
	return updates, nil
}

func cleanList(in []string, name string) ([]string, error) {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) > maxProfileItems {
		return nil, fmt.Errorf("%w: at most %d %s", ErrBadRequest, maxProfileItems, name)
	}
	return out, nil
}

// UpdateOwn applies a provider's edit to their own profile.
func (s *Service) UpdateOwn(ctx context.Context, uid string, in UpdateOwnInput) (*Provider, error) {
	updates, err := OwnUpdates(in)
	if err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if online, ok := updates["isOnline"].(bool); ok && online && !p.Bookable() {
		return nil, fmt.Errorf("%w: profile is not approved", ErrPrecondition)
	}
	updates["updatedAt"] = s.now()
	if _, err := s.col().Doc(uid).Set(ctx, updates, firestore.MergeAll); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.Get(ctx, uid)
}

// MapMarkers returns pins for visible, approved, non-banned providers.
// Providers with an unknown country are left off the map.
func (s *Service) MapMarkers(ctx context.Context, typ, country string) ([]MapMarker, error) {
	q := s.col().Where("isVisible", "==", true).
		Where("isApproved", "==", true).
		Where("isBanned", "==", false)

	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ != "" {
		if !contains(ValidTypes, typ) {
			return nil, fmt.Errorf("%w: unknown type %q", ErrBadRequest, typ)
		}
		q = q.Where("type", "==", typ)
	}
	country = strings.TrimSpace(country)
	if country != "" {
		q = q.Where("country", "==", country)
	}

	iter := q.Limit(maxMapMarkers).Documents(ctx)
	defer iter.Stop()
	markers := []MapMarker{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load providers: %w", err)
		}
		p, err := decodeProvider(doc)
		if err != nil {
			continue
		}
		if m, ok := ToMarker(p); ok {
			markers = append(markers, m)
		}
	}
	return markers, nil
}
