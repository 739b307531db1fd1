package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectID                    string
	Port                         string
	AllowedOrigins               []string
	StorageBucket                string
	BackupBucket                 string
	StripeSecretKey              string
	StripeWebhookSecret          string
	SignedURLServiceAccountEmail string
	PricingDefaultsFile          string
}

func Load() Config {
	// .env is a local convenience; real env vars always win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	// FIREBASE_PROJECT_ID or GOOGLE_CLOUD_PROJECT
	projectID := getenv("FIREBASE_PROJECT_ID", "")
	if projectID == "" {
		projectID = getenv("GOOGLE_CLOUD_PROJECT", "")
	}

	port := getenv("PORT", "8080")
	origins := getenv("ALLOWED_ORIGINS", "http://localhost:3000")
	storageBucket := getenv("FIREBASE_STORAGE_BUCKET", "")
	if storageBucket == "" && projectID != "" {
		storageBucket = projectID + ".appspot.com"
	}
	backupBucket := getenv("BACKUP_BUCKET", storageBucket)

	return Config{
		ProjectID:                    projectID,
		Port:                         port,
		AllowedOrigins:               splitList(origins),
		StorageBucket:                storageBucket,
		BackupBucket:                 backupBucket,
		StripeSecretKey:              getenv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:          getenv("STRIPE_WEBHOOK_SECRET", ""),
		SignedURLServiceAccountEmail: getenv("SIGNED_URL_SERVICE_ACCOUNT_EMAIL", ""),
		PricingDefaultsFile:          getenv("PRICING_DEFAULTS_FILE", ""),
	}
}

// StripeEnabled reports whether payment routes should be mounted.
func (c Config) StripeEnabled() bool {
	return c.StripeSecretKey != ""
}

func splitList(s string) []string {
	out := []string{}
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
