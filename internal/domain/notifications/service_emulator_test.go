package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sos-expat/backend/internal/store/storetest"
)

func TestMarkReadSkipsUnknownIDsWithoutCreatingDocuments(t *testing.T) {
	client := storetest.NewClient(t)
	ctx := context.Background()
	col := "users/u1/notifications"
	now := time.Now().UTC()
	storetest.Put(t, client, col, "n1", Notification{ID: "n1", Title: "a", Type: TypePaymentReceived, CreatedAt: now})
	storetest.Put(t, client, col, "n2", Notification{ID: "n2", Title: "b", Type: TypeKYCApproved, CreatedAt: now})

	s := NewService(client, nil, nil)

	n, err := s.MarkRead(ctx, "u1", MarkReadInput{NotificationID: "ghost"})
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Nil(t, storetest.Data(t, client, col, "ghost"))

	n, err = s.MarkRead(ctx, "u1", MarkReadInput{NotificationIDs: []string{"n1", "ghost"}})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, true, storetest.Data(t, client, col, "n1")["read"])
	require.Equal(t, false, storetest.Data(t, client, col, "n2")["read"])
	require.Nil(t, storetest.Data(t, client, col, "ghost"))

	n, err = s.MarkRead(ctx, "u1", MarkReadInput{MarkAll: true})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, true, storetest.Data(t, client, col, "n2")["read"])
}
