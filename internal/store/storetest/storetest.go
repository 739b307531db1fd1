// Package storetest connects tests to the Firestore emulator.
package storetest

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

// NewClient returns a client on a fresh emulator project, or skips t when
// FIRESTORE_EMULATOR_HOST is not set.
func NewClient(t testing.TB) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "test-"+uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("firestore emulator: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Put writes data to collection/id and fails t on error.
func Put(t testing.TB, client *firestore.Client, collection, id string, data interface{}) {
	t.Helper()
	if _, err := client.Collection(collection).Doc(id).Set(context.Background(), data); err != nil {
		t.Fatalf("put %s/%s: %v", collection, id, err)
	}
}

// Data reads collection/id; nil means the document does not exist.
func Data(t testing.TB, client *firestore.Client, collection, id string) map[string]interface{} {
	t.Helper()
	snap, err := client.Collection(collection).Doc(id).Get(context.Background())
	if err != nil {
		if !snap.Exists() {
			return nil
		}
		t.Fatalf("get %s/%s: %v", collection, id, err)
	}
	return snap.Data()
}
