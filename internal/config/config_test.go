package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsBucketsFromProject(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "sos-test")
	t.Setenv("FIREBASE_STORAGE_BUCKET", "")
	t.Setenv("BACKUP_BUCKET", "")
	t.Setenv("STRIPE_SECRET_KEY", "")

	cfg := Load()
	require.Equal(t, "sos-test", cfg.ProjectID)
	require.Equal(t, "sos-test.appspot.com", cfg.StorageBucket)
	require.Equal(t, "sos-test.appspot.com", cfg.BackupBucket)
	require.False(t, cfg.StripeEnabled())
}

func TestLoadSplitsOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	cfg := Load()
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadBackupBucketOverride(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "p1")
	t.Setenv("BACKUP_BUCKET", "p1-backups")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	cfg := Load()
	require.Equal(t, "p1-backups", cfg.BackupBucket)
	require.True(t, cfg.StripeEnabled())
}
