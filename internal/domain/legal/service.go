package legal

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"sos-expat/backend/internal/store"
)

type Service struct {
	fs  *firestore.Client
	now func() time.Time
}

func NewService(fs *firestore.Client) *Service {
	return &Service{fs: fs, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) col() *firestore.CollectionRef {
	return s.fs.Collection(store.ColLegalDocuments)
}

func decodeDocument(doc *firestore.DocumentSnapshot) (Document, error) {
	var d Document
	if err := doc.DataTo(&d); err != nil {
		return d, err
	}
	d.ID = doc.Ref.ID
	return d, nil
}

// Create stores a new inactive draft.
func (s *Service) Create(ctx context.Context, adminUID string, in CreateInput) (*Document, error) {
	in.Trim()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	ref := s.col().NewDoc()
	d := Document{
		ID:        ref.ID,
		Type:      in.Type,
		Language:  in.Language,
		Title:     in.Title,
		Content:   in.Content,
		Version:   in.Version,
		CreatedBy: adminUID,
		UpdatedBy: adminUID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := ref.Set(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create legal document: %w", err)
	}
	log.Printf("legal: created id=%s type=%s lang=%s by=%s", d.ID, d.Type, d.Language, adminUID)
	return &d, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrBadRequest)
	}
	doc, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: legal document not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get legal document: %w", err)
	}
	d, err := decodeDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode legal document: %w", err)
	}
	return &d, nil
}

// Update edits title, content or version. An active document stays active.
func (s *Service) Update(ctx context.Context, adminUID, id string, in UpdateInput) (*Document, error) {
	in.Trim()
	updates, err := in.Updates()
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	updates["updatedAt"] = s.now()
	updates["updatedBy"] = adminUID
	if _, err := s.col().Doc(id).Set(ctx, updates, firestore.MergeAll); err != nil {
		return nil, fmt.Errorf("failed to update legal document: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes an inactive document.
func (s *Service) Delete(ctx context.Context, adminUID, id string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.IsActive {
		return fmt.Errorf("%w: publish another version before deleting the active one", ErrPrecondition)
	}
	if _, err := s.col().Doc(d.ID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete legal document: %w", err)
	}
	log.Printf("legal: deleted id=%s by=%s", d.ID, adminUID)
	return nil
}

// List returns documents filtered by type and language, newest first.
func (s *Service) List(ctx context.Context, typ, lang string) ([]Document, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	lang = strings.ToLower(strings.TrimSpace(lang))
	q := s.col().Query
	if typ != "" {
		if err := ValidateType(typ); err != nil {
			return nil, err
		}
		q = q.Where("type", "==", typ)
	}
	if lang != "" {
		if err := ValidateLanguage(lang); err != nil {
			return nil, err
		}
		q = q.Where("language", "==", lang)
	}
	iter := q.OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	out := []Document{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list legal documents: %w", err)
		}
		d, err := decodeDocument(doc)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Publish makes id the active document of its type and language and
// deactivates the previous one in the same transaction.
func (s *Service) Publish(ctx context.Context, adminUID, id string) (*Document, error) {
	ref := s.col().Doc(strings.TrimSpace(id))
	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if store.IsNotFound(err) {
				return fmt.Errorf("%w: legal document not found", ErrNotFound)
			}
			return err
		}
		d, err := decodeDocument(snap)
		if err != nil {
			return err
		}
		if strings.TrimSpace(d.Content) == "" {
			return fmt.Errorf("%w: cannot publish an empty document", ErrPrecondition)
		}

		active, err := tx.Documents(s.col().
			Where("type", "==", d.Type).
			Where("language", "==", d.Language).
			Where("isActive", "==", true)).GetAll()
		if err != nil {
			return err
		}

		now := s.now()
		for _, a := range active {
			if a.Ref.ID == d.ID {
				continue
			}
			if err := tx.Update(a.Ref, []firestore.Update{
				{Path: "isActive", Value: false},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "isActive", Value: true},
			{Path: "publishedAt", Value: now},
			{Path: "publishedBy", Value: adminUID},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("legal: published id=%s by=%s", id, adminUID)
	return s.Get(ctx, id)
}

// Active returns the published document of typ in lang, falling back to
// English.
func (s *Service) Active(ctx context.Context, typ, lang string) (*Document, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if err := ValidateType(typ); err != nil {
		return nil, err
	}
	for _, l := range LanguageCandidates(lang) {
		docs, err := s.col().
			Where("type", "==", typ).
			Where("language", "==", l).
			Where("isActive", "==", true).
			Limit(1).Documents(ctx).GetAll()
		if err != nil {
			return nil, fmt.Errorf("failed to load legal document: %w", err)
		}
		if len(docs) > 0 {
			d, err := decodeDocument(docs[0])
			if err != nil {
				return nil, fmt.Errorf("failed to decode legal document: %w", err)
			}
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: no published %s document", ErrNotFound, typ)
}
