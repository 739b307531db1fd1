package pricing

import (
	"fmt"
	"strings"
	"time"
)

const (
	ServiceLawyer = "lawyer"
	ServiceExpat  = "expat"

	CurrencyEUR = "eur"
	CurrencyUSD = "usd"

	StrikeTargetsDefault = "default"
)

var (
	ValidServices   = []string{ServiceLawyer, ServiceExpat}
	ValidCurrencies = []string{CurrencyEUR, CurrencyUSD}
)

// ServicePrice is the standard price of one service in one currency.
// Amounts are in major units (euros, dollars).
type ServicePrice struct {
	TotalAmount         float64 `firestore:"totalAmount" json:"totalAmount" yaml:"totalAmount"`
	ConnectionFeeAmount float64 `firestore:"connectionFeeAmount" json:"connectionFeeAmount" yaml:"connectionFeeAmount"`
	ProviderAmount      float64 `firestore:"providerAmount" json:"providerAmount" yaml:"-"`
	Duration            int     `firestore:"duration" json:"duration" yaml:"duration"`
	Currency            string  `firestore:"currency" json:"currency" yaml:"-"`
}

// Override is a time-boxed promotional price for a service/currency pair.
type Override struct {
	Enabled             bool       `firestore:"enabled" json:"enabled"`
	StartsAt            *time.Time `firestore:"startsAt,omitempty" json:"startsAt,omitempty"`
	EndsAt              *time.Time `firestore:"endsAt,omitempty" json:"endsAt,omitempty"`
	TotalAmount         float64    `firestore:"totalAmount" json:"totalAmount"`
	ConnectionFeeAmount float64    `firestore:"connectionFeeAmount" json:"connectionFeeAmount"`
	ProviderAmount      float64    `firestore:"providerAmount" json:"providerAmount"`
	Label               string     `firestore:"label" json:"label"`
	StrikeTargets       string     `firestore:"strikeTargets" json:"strikeTargets"`
	Stackable           *bool      `firestore:"stackable,omitempty" json:"stackable,omitempty"`
}

// ActiveAt reports whether the override applies at t. A missing bound is open.
func (o *Override) ActiveAt(t time.Time) bool {
	if o == nil || !o.Enabled {
		return false
	}
	if o.StartsAt != nil && t.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && !t.Before(*o.EndsAt) {
		return false
	}
	return true
}

type OverrideSettings struct {
	StackableDefault bool `firestore:"stackableDefault" json:"stackableDefault"`
}

type Overrides struct {
	Settings OverrideSettings     `firestore:"settings" json:"settings"`
	Lawyer   map[string]*Override `firestore:"lawyer,omitempty" json:"lawyer,omitempty"`
	Expat    map[string]*Override `firestore:"expat,omitempty" json:"expat,omitempty"`
}

// Config is the admin_config/pricing document.
type Config struct {
	Lawyer    map[string]ServicePrice `firestore:"lawyer" json:"lawyer" yaml:"lawyer"`
	Expat     map[string]ServicePrice `firestore:"expat" json:"expat" yaml:"expat"`
	Overrides Overrides               `firestore:"overrides" json:"overrides" yaml:"-"`
	UpdatedAt time.Time               `firestore:"updatedAt,omitempty" json:"updatedAt,omitempty" yaml:"-"`
	UpdatedBy string                  `firestore:"updatedBy,omitempty" json:"updatedBy,omitempty" yaml:"-"`
}

func (c *Config) prices(service string) map[string]ServicePrice {
	switch service {
	case ServiceLawyer:
		if c.Lawyer == nil {
			c.Lawyer = map[string]ServicePrice{}
		}
		return c.Lawyer
	case ServiceExpat:
		if c.Expat == nil {
			c.Expat = map[string]ServicePrice{}
		}
		return c.Expat
	}
	return nil
}

func (c *Config) overrides(service string) map[string]*Override {
	switch service {
	case ServiceLawyer:
		if c.Overrides.Lawyer == nil {
			c.Overrides.Lawyer = map[string]*Override{}
		}
		return c.Overrides.Lawyer
	case ServiceExpat:
		if c.Overrides.Expat == nil {
			c.Overrides.Expat = map[string]*Override{}
		}
		return c.Overrides.Expat
	}
	return nil
}

// Price returns the standard price for service/currency.
func (c *Config) Price(service, currency string) (ServicePrice, bool) {
	p, ok := c.prices(service)[currency]
	return p, ok
}

// OverrideFor returns the override for service/currency, or nil.
func (c *Config) OverrideFor(service, currency string) *Override {
	return c.overrides(service)[currency]
}

func (c *Config) SetPrice(service, currency string, p ServicePrice) {
	c.prices(service)[currency] = p
}

func (c *Config) SetOverride(service, currency string, o *Override) {
	m := c.overrides(service)
	if o == nil {
		delete(m, currency)
		return
	}
	m[currency] = o
}

// Quote is the effective price a client pays for one call.
type Quote struct {
	ServiceType         string  `json:"serviceType"`
	Currency            string  `json:"currency"`
	TotalAmount         float64 `json:"totalAmount"`
	ConnectionFeeAmount float64 `json:"connectionFeeAmount"`
	ProviderAmount      float64 `json:"providerAmount"`
	AmountCents         int64   `json:"amountCents"`
	Duration            int     `json:"duration"`
	OverrideApplied     bool    `json:"overrideApplied"`
	OverrideLabel       string  `json:"overrideLabel,omitempty"`
	StandardTotal       float64 `json:"standardTotal"`
}

// ParseService normalizes and validates a service type.
func ParseService(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range ValidServices {
		if v == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: serviceType must be 'lawyer' or 'expat'", ErrBadRequest)
}

// ParseCurrency normalizes and validates a currency code.
func ParseCurrency(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range ValidCurrencies {
		if v == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: currency must be 'eur' or 'usd'", ErrBadRequest)
}
