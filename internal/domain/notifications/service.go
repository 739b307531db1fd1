package notifications

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/iterator"

	"sos-expat/backend/internal/store"
)

// Pusher is the subset of *messaging.Client used for FCM delivery.
type Pusher interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// TokenSource returns the FCM tokens of a user.
type TokenSource interface {
	FCMTokens(ctx context.Context, uid string) ([]string, error)
}

type Service struct {
	client *firestore.Client
	pusher Pusher
	tokens TokenSource
}

func NewService(client *firestore.Client, pusher Pusher, tokens TokenSource) *Service {
	return &Service{client: client, pusher: pusher, tokens: tokens}
}

func (s *Service) notificationsCol(uid string) *firestore.CollectionRef {
	return s.client.Collection(store.ColUsers).Doc(uid).Collection("notifications")
}

// Notify stores an in-app notification and pushes it to the user's devices.
// Push failures are logged, not returned.
func (s *Service) Notify(ctx context.Context, uid string, msg Message) error {
	uid = strings.TrimSpace(uid)
	if uid == "" || strings.TrimSpace(msg.Title) == "" {
		return fmt.Errorf("%w: uid and title are required", ErrBadRequest)
	}

	ref := s.notificationsCol(uid).NewDoc()
	n := Notification{
		ID:        ref.ID,
		Title:     msg.Title,
		Body:      msg.Body,
		Type:      msg.Type,
		Data:      msg.Data,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := ref.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.push(ctx, uid, n)
	return nil
}

func (s *Service) push(ctx context.Context, uid string, n Notification) {
	if s.pusher == nil || s.tokens == nil {
		return
	}
	tokens, err := s.tokens.FCMTokens(ctx, uid)
	if err != nil || len(tokens) == 0 {
		return
	}
	resp, err := s.pusher.SendEachForMulticast(ctx, BuildPush(tokens, n))
	if err != nil {
		log.Printf("notifications: push failed uid=%s: %v", uid, err)
		return
	}
	if resp.FailureCount > 0 {
		log.Printf("notifications: push partial failure uid=%s failed=%d", uid, resp.FailureCount)
	}
}

// BuildPush converts an in-app notification into an FCM multicast message.
func BuildPush(tokens []string, n Notification) *messaging.MulticastMessage {
	data := map[string]string{"type": n.Type, "notificationId": n.ID}
	for k, v := range n.Data {
		data[k] = v
	}
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
	}
}

// List returns the user's latest notifications and the unread count.
func (s *Service) List(ctx context.Context, uid string, unreadOnly bool, limit int) (*ListResult, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrBadRequest)
	}

	query := s.notificationsCol(uid).Query
	if unreadOnly {
		query = query.Where("read", "==", false)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query = query.OrderBy("createdAt", firestore.Desc).Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()
	notifications := []Notification{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get notifications: %w", err)
		}
		var n Notification
		if err := doc.DataTo(&n); err != nil {
			continue
		}
		n.ID = doc.Ref.ID
		notifications = append(notifications, n)
	}

	unread, err := store.Count(ctx, s.notificationsCol(uid).Query.Where("read", "==", false))
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &ListResult{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead marks the listed notifications, or all unread ones, as read.
// Unknown ids are skipped and not counted.
func (s *Service) MarkRead(ctx context.Context, uid string, input MarkReadInput) (int, error) {
	uid = strings.TrimSpace(uid)
	input.Trim()
	if uid == "" {
		return 0, fmt.Errorf("%w: uid is required", ErrBadRequest)
	}
	ids := input.IDs()
	if !input.MarkAll && len(ids) == 0 {
		return 0, fmt.Errorf("%w: notificationIds or markAll is required", ErrBadRequest)
	}
	if len(ids) > maxMarkReadIDs {
		return 0, fmt.Errorf("%w: at most %d notification ids", ErrBadRequest, maxMarkReadIDs)
	}

	now := time.Now().UTC()
	updates := []firestore.Update{
		{Path: "read", Value: true},
		{Path: "readAt", Value: now},
	}

	if input.MarkAll {
		iter := s.notificationsCol(uid).Query.Where("read", "==", false).Documents(ctx)
		defer iter.Stop()
		bw := s.client.BulkWriter(ctx)
		count := 0
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				bw.End()
				return 0, fmt.Errorf("failed to get notifications: %w", err)
			}
			if _, err := bw.Update(doc.Ref, updates); err != nil {
				bw.End()
				return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
			}
			count++
		}
		bw.End()
		return count, nil
	}

	count := 0
	for _, id := range ids {
		_, err := s.notificationsCol(uid).Doc(id).Update(ctx, updates)
		if store.IsNotFound(err) {
			log.Printf("notifications: mark read skipped unknown notification %s for %s", id, uid)
			continue
		}
		if err != nil {
			return count, fmt.Errorf("failed to mark notification as read: %w", err)
		}
		count++
	}
	return count, nil
}
