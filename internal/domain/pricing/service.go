package pricing

import (
	"context"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"

	"sos-expat/backend/internal/store"
)

const (
	configCollection = store.ColAdminConfig
	pricingDocID     = "pricing"
	legacyDocID      = "pricing_legacy"
)

type Service struct {
	client   *firestore.Client
	defaults Config
	now      func() time.Time
}

func NewService(client *firestore.Client, defaults Config) *Service {
	return &Service{client: client, defaults: defaults, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) doc() *firestore.DocumentRef {
	return s.client.Collection(configCollection).Doc(pricingDocID)
}

// Get returns the hydrated pricing config, falling back to defaults when the
// document does not exist yet.
func (s *Service) Get(ctx context.Context) (*Config, error) {
	snap, err := s.doc().Get(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			cfg := Hydrate(Config{}, s.defaults)
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to load pricing: %w", err)
	}
	var cfg Config
	if err := snap.DataTo(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode pricing: %w", err)
	}
	out := Hydrate(cfg, s.defaults)
	return &out, nil
}

// Update replaces standard prices and overrides (admin).
func (s *Service) Update(ctx context.Context, adminUID string, in Config) (*Config, error) {
	if err := ValidateSubmitted(in); err != nil {
		return nil, err
	}
	cfg := Hydrate(in, s.defaults)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return s.save(ctx, adminUID, cfg)
}

// SetOverride sets or replaces one promotional override (admin).
func (s *Service) SetOverride(ctx context.Context, adminUID, service, currency string, o Override) (*Config, error) {
	service, err := ParseService(service)
	if err != nil {
		return nil, err
	}
	currency, err = ParseCurrency(currency)
	if err != nil {
		return nil, err
	}
	if err := ValidateOverride(&o); err != nil {
		return nil, err
	}
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	cfg.SetOverride(service, currency, &o)
	return s.save(ctx, adminUID, Hydrate(*cfg, s.defaults))
}

// ClearOverride removes the override of service/currency (admin).
func (s *Service) ClearOverride(ctx context.Context, adminUID, service, currency string) (*Config, error) {
	service, err := ParseService(service)
	if err != nil {
		return nil, err
	}
	currency, err = ParseCurrency(currency)
	if err != nil {
		return nil, err
	}
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	cfg.SetOverride(service, currency, nil)
	return s.save(ctx, adminUID, *cfg)
}

// Quote returns the price a client pays now for service/currency.
func (s *Service) Quote(ctx context.Context, service, currency string) (*Quote, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	return ComputeQuote(*cfg, service, currency, s.now())
}

type MigrationResult struct {
	Migrated bool    `json:"migrated"`
	DryRun   bool    `json:"dryRun"`
	Config   *Config `json:"config,omitempty"`
}

// Migrate converts a legacy flat pricing document to the nested shape. The
// legacy document is copied to admin_config/pricing_legacy first.
func (s *Service) Migrate(ctx context.Context, adminUID string, dryRun bool) (*MigrationResult, error) {
	var raw map[string]interface{}
	snap, err := s.doc().Get(ctx)
	switch {
	case err == nil:
		raw = snap.Data()
	case store.IsNotFound(err):
		raw = nil
	default:
		return nil, fmt.Errorf("failed to load pricing: %w", err)
	}

	cfg, migrated, err := MigrateLegacy(raw, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	res := &MigrationResult{Migrated: migrated, DryRun: dryRun}
	if !migrated {
		return res, nil
	}
	res.Config = &cfg
	if dryRun {
		return res, nil
	}

	if raw != nil {
		backup := map[string]interface{}{
			"data":       raw,
			"migratedAt": s.now(),
			"migratedBy": adminUID,
		}
		if _, err := s.client.Collection(configCollection).Doc(legacyDocID).Set(ctx, backup); err != nil {
			return nil, fmt.Errorf("failed to keep legacy pricing: %w", err)
		}
	}
	saved, err := s.save(ctx, adminUID, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("pricing: migrated legacy document by=%s", adminUID)
	res.Config = saved
	return res, nil
}

func (s *Service) save(ctx context.Context, adminUID string, cfg Config) (*Config, error) {
	cfg.UpdatedAt = s.now()
	cfg.UpdatedBy = adminUID
	if _, err := s.doc().Set(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save pricing: %w", err)
	}
	return &cfg, nil
}
