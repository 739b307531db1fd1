package firebase

import (
	"context"
	"fmt"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

const (
	defaultSignedURLTTL = 15 * time.Minute
	maxSignedURLTTL     = time.Hour
)

// URLSigner issues V4 signed URLs through the IAM SignBlob API, so the service
// does not need a private key on disk.
type URLSigner struct {
	iam   *credentials.IamCredentialsClient
	email string
}

func NewURLSigner(iam *credentials.IamCredentialsClient, serviceAccountEmail string) *URLSigner {
	return &URLSigner{iam: iam, email: serviceAccountEmail}
}

// SignedURL returns a URL for method on bucket/object and its expiry.
// A ttl outside (0, 1h] falls back to 15 minutes.
func (s *URLSigner) SignedURL(ctx context.Context, bucket, object, method, contentType string, ttl time.Duration) (string, time.Time, error) {
	if s == nil || s.iam == nil {
		return "", time.Time{}, fmt.Errorf("IAM credentials client not available")
	}
	if bucket == "" {
		return "", time.Time{}, fmt.Errorf("storage bucket is not set")
	}
	if s.email == "" {
		return "", time.Time{}, fmt.Errorf("SIGNED_URL_SERVICE_ACCOUNT_EMAIL is not set")
	}
	exp := time.Now().Add(ClampTTL(ttl))

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         method,
		Expires:        exp,
		GoogleAccessID: s.email,
		SignBytes: func(b []byte) ([]byte, error) {
			resp, err := s.iam.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.email),
				Payload: b,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}
	if method == "PUT" {
		opts.ContentType = contentType
		if opts.ContentType == "" {
			opts.ContentType = "application/octet-stream"
		}
	}

	url, err := storage.SignedURL(bucket, object, opts)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign url (check service account + permissions): %w", err)
	}
	return url, exp, nil
}

func ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > maxSignedURLTTL {
		return defaultSignedURLTTL
	}
	return ttl
}
