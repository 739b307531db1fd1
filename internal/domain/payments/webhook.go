package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"cloud.google.com/go/firestore"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"sos-expat/backend/internal/domain/notifications"
	"sos-expat/backend/internal/store"
)

const maxWebhookBytes = int64(65536)

var handledEvents = map[string]bool{
	"payment_intent.succeeded":      true,
	"payment_intent.payment_failed": true,
	"payment_intent.canceled":       true,
	"charge.refunded":               true,
}

// HandleWebhook processes incoming Stripe webhooks
func (s *Service) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("webhook: error reading request body: %v", err)
		http.Error(w, "Error reading request body", http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, s.config.WebhookSecret)
	if err != nil {
		log.Printf("webhook: signature verification failed: %v", err)
		http.Error(w, "Webhook signature verification failed", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	log.Printf("webhook: received event type=%s id=%s", event.Type, event.ID)

	if !handledEvents[string(event.Type)] {
		log.Printf("webhook: unhandled event type: %s", event.Type)
		writeReceived(w)
		return
	}

	first, err := s.claimEvent(ctx, event)
	if err != nil {
		log.Printf("webhook: failed to record event id=%s: %v", event.ID, err)
		http.Error(w, "Error recording event", http.StatusInternalServerError)
		return
	}
	if !first {
		log.Printf("webhook: duplicate event id=%s ignored", event.ID)
		writeReceived(w)
		return
	}

	if err := s.processEvent(ctx, event); err != nil {
		log.Printf("webhook: error handling %s id=%s: %v", event.Type, event.ID, err)
		// let Stripe retry
		s.releaseEvent(ctx, event.ID)
		http.Error(w, "Error handling event", http.StatusInternalServerError)
		return
	}
	writeReceived(w)
}

func writeReceived(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"received": true}`))
}

// claimEvent records event once; false means it was already processed.
func (s *Service) claimEvent(ctx context.Context, event stripe.Event) (bool, error) {
	_, err := s.fs.Collection(store.ColStripeEvents).Doc(event.ID).Create(ctx, map[string]interface{}{
		"type":       string(event.Type),
		"livemode":   event.Livemode,
		"receivedAt": s.now(),
	})
	if err != nil {
		if store.IsAlreadyExists(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) releaseEvent(ctx context.Context, id string) {
	if _, err := s.fs.Collection(store.ColStripeEvents).Doc(id).Delete(ctx); err != nil {
		log.Printf("webhook: failed to release event id=%s: %v", id, err)
	}
}

func (s *Service) processEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("parse payment intent: %w", err)
		}
		return s.handleSucceeded(ctx, &pi)

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("parse payment intent: %w", err)
		}
		msg := ""
		if pi.LastPaymentError != nil {
			msg = pi.LastPaymentError.Msg
		}
		return s.setStatus(ctx, pi.ID, StatusFailed, map[string]interface{}{"failureMessage": msg})

	case "payment_intent.canceled":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return fmt.Errorf("parse payment intent: %w", err)
		}
		return s.setStatus(ctx, pi.ID, StatusCanceled, nil)

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return fmt.Errorf("parse charge: %w", err)
		}
		return s.handleRefunded(ctx, &ch)
	}
	return nil
}

// setStatus moves a payment to status if the transition is allowed.
func (s *Service) setStatus(ctx context.Context, id, status string, extra map[string]interface{}) error {
	ref := s.col().Doc(id)
	return s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if store.IsNotFound(err) {
				log.Printf("webhook: no payment for intent=%s", id)
				return nil
			}
			return err
		}
		from, _ := snap.Data()["status"].(string)
		if !CanTransition(from, status) {
			log.Printf("webhook: ignore %s -> %s for payment=%s", from, status, id)
			return nil
		}
		updates := map[string]interface{}{"status": status, "updatedAt": s.now()}
		for k, v := range extra {
			updates[k] = v
		}
		return tx.Set(ref, updates, firestore.MergeAll)
	})
}

// handleSucceeded marks the payment succeeded and credits the provider's
// call count and earnings in the same transaction. A payment record that
// does not exist yet is an error so the event is released and retried.
func (s *Service) handleSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	ref := s.col().Doc(pi.ID)
	var paid *Payment
	err := s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		paid = nil
		snap, err := tx.Get(ref)
		if err != nil {
			if store.IsNotFound(err) {
				return fmt.Errorf("%w: no payment for intent %s", ErrNotFound, pi.ID)
			}
			return err
		}
		var p Payment
		if err := snap.DataTo(&p); err != nil {
			return err
		}
		p.ID = snap.Ref.ID
		if !CanTransition(p.Status, StatusSucceeded) {
			log.Printf("webhook: ignore %s -> succeeded for payment=%s", p.Status, p.ID)
			return nil
		}
		if pi.Amount != 0 && pi.Amount != p.AmountCents {
			log.Printf("webhook: amount mismatch payment=%s stored=%d stripe=%d", p.ID, p.AmountCents, pi.Amount)
		}
		providerRef, err := s.existingProvider(tx, p.ProviderID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.Set(ref, map[string]interface{}{
			"status":      StatusSucceeded,
			"succeededAt": now,
			"updatedAt":   now,
		}, firestore.MergeAll); err != nil {
			return err
		}
		if providerRef != nil {
			if err := tx.Update(providerRef, ProviderTotals(p, 1, now)); err != nil {
				return err
			}
		}
		paid = &p
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark payment succeeded: %w", err)
	}
	if paid == nil {
		return nil
	}

	log.Printf("webhook: payment succeeded id=%s provider=%s amount=%d %s", paid.ID, paid.ProviderID, paid.AmountCents, paid.Currency)
	if s.notifier != nil {
		err := s.notifier.Notify(ctx, paid.ProviderID, notifications.Message{
			Type:  notifications.TypePaymentReceived,
			Title: "New paid call",
			Body:  fmt.Sprintf("A client paid %.2f %s for a %d min call.", paid.TotalAmount, paid.Currency, paid.Duration),
			Data:  map[string]string{"paymentId": paid.ID, "clientId": paid.ClientID},
		})
		if err != nil {
			log.Printf("webhook: notify failed provider=%s: %v", paid.ProviderID, err)
		}
	}
	return nil
}

// existingProvider reads the provider inside tx and returns nil when the
// profile was deleted, so counters never recreate it.
func (s *Service) existingProvider(tx *firestore.Transaction, providerID string) (*firestore.DocumentRef, error) {
	if providerID == "" {
		return nil, nil
	}
	ref := s.fs.Collection(store.ColProfiles).Doc(providerID)
	if _, err := tx.Get(ref); err != nil {
		if store.IsNotFound(err) {
			log.Printf("payments: provider %s no longer exists, totals not updated", providerID)
			return nil, nil
		}
		return nil, err
	}
	return ref, nil
}

// markRefunded moves payment id to refunded with updates and takes the
// call back out of the provider's totals. Calling it again on a refunded
// payment only writes updates.
func (s *Service) markRefunded(ctx context.Context, id string, updates map[string]interface{}) error {
	ref := s.col().Doc(id)
	return s.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if store.IsNotFound(err) {
				log.Printf("payments: no payment for intent=%s", id)
				return nil
			}
			return err
		}
		var p Payment
		if err := snap.DataTo(&p); err != nil {
			return err
		}
		transition := CanTransition(p.Status, StatusRefunded)
		if !transition && p.Status != StatusRefunded {
			log.Printf("payments: ignore %s -> refunded for payment=%s", p.Status, id)
			return nil
		}
		var providerRef *firestore.DocumentRef
		if transition {
			if providerRef, err = s.existingProvider(tx, p.ProviderID); err != nil {
				return err
			}
		}

		now := s.now()
		out := map[string]interface{}{"status": StatusRefunded, "updatedAt": now}
		for k, v := range updates {
			out[k] = v
		}
		if err := tx.Set(ref, out, firestore.MergeAll); err != nil {
			return err
		}
		if providerRef != nil {
			return tx.Update(providerRef, ProviderTotals(p, -1, now))
		}
		return nil
	})
}

func (s *Service) handleRefunded(ctx context.Context, ch *stripe.Charge) error {
	if ch.PaymentIntent == nil || ch.PaymentIntent.ID == "" {
		return nil
	}
	refunded := float64(ch.AmountRefunded) / 100
	if !ch.Refunded {
		// partial refund: keep the payment succeeded
		_, err := s.col().Doc(ch.PaymentIntent.ID).Update(ctx, []firestore.Update{
			{Path: "refundedAmount", Value: refunded},
			{Path: "updatedAt", Value: s.now()},
		})
		if err != nil && !store.IsNotFound(err) {
			return err
		}
		return nil
	}
	return s.markRefunded(ctx, ch.PaymentIntent.ID, map[string]interface{}{
		"refundedAmount": refunded,
		"refundedAt":     s.now(),
	})
}
