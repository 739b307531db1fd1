package user

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"sos-expat/backend/internal/store"
)

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) Get(ctx context.Context, uid string) (*Profile, error) {
	doc, err := r.fs.Collection(store.ColUsers).Doc(uid).Get(ctx)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		p.UID = uid
	}
	return &p, nil
}

func (r *Repo) SetRole(ctx context.Context, uid, role string) error {
	_, err := r.fs.Collection(store.ColUsers).Doc(uid).Set(ctx, map[string]any{
		"uid":       uid,
		"role":      role,
		"updatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	return err
}

// FCMTokens returns the push tokens registered by the front-end for uid.
func (r *Repo) FCMTokens(ctx context.Context, uid string) ([]string, error) {
	p, err := r.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return p.FCMTokens, nil
}
