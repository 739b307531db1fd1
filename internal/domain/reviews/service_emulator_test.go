package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sos-expat/backend/internal/store"
	"sos-expat/backend/internal/store/storetest"
)

func putReview(t *testing.T, s *Service, id, providerID, status string, rating int) {
	t.Helper()
	now := time.Now().UTC()
	storetest.Put(t, s.fs, store.ColReviews, id, Review{
		ID: id, ProviderID: providerID, ClientID: "c-" + id, PaymentID: id,
		Rating: rating, Status: status, CreatedAt: now, UpdatedAt: now,
	})
}

func TestModerateAndDeleteRecomputeProviderAggregate(t *testing.T) {
	fs := storetest.NewClient(t)
	s := NewService(fs, nil)
	ctx := context.Background()

	storetest.Put(t, fs, store.ColProfiles, "p1", map[string]interface{}{"type": "lawyer", "rating": 0.0, "reviewCount": int64(0)})
	putReview(t, s, "r1", "p1", StatusPublished, 5)
	putReview(t, s, "r2", "p1", StatusPublished, 3)
	putReview(t, s, "r3", "p1", StatusPending, 1)

	_, err := s.Moderate(ctx, "a1", "r3", ModerateInput{Status: StatusPublished})
	require.NoError(t, err)
	prov := storetest.Data(t, fs, store.ColProfiles, "p1")
	require.InDelta(t, 3.0, prov["rating"], 0.001)
	require.EqualValues(t, 3, prov["reviewCount"])

	require.NoError(t, s.Delete(ctx, "a1", "r1"))
	require.Nil(t, storetest.Data(t, fs, store.ColReviews, "r1"))
	prov = storetest.Data(t, fs, store.ColProfiles, "p1")
	require.InDelta(t, 2.0, prov["rating"], 0.001)
	require.EqualValues(t, 2, prov["reviewCount"])

	_, err = s.Moderate(ctx, "a1", "r2", ModerateInput{Status: StatusHidden})
	require.NoError(t, err)
	prov = storetest.Data(t, fs, store.ColProfiles, "p1")
	require.InDelta(t, 1.0, prov["rating"], 0.001)
	require.EqualValues(t, 1, prov["reviewCount"])
}

func TestModerateDoesNotRecreateDeletedProvider(t *testing.T) {
	fs := storetest.NewClient(t)
	s := NewService(fs, nil)

	putReview(t, s, "r9", "gone", StatusPending, 4)
	out, err := s.Moderate(context.Background(), "a1", "r9", ModerateInput{Status: StatusPublished})
	require.NoError(t, err)
	require.Equal(t, StatusPublished, out.Status)
	require.Nil(t, storetest.Data(t, fs, store.ColProfiles, "gone"))
}

func TestCreateWithoutPaymentsIsPrecondition(t *testing.T) {
	s := NewService(nil, nil)
	_, err := s.Create(context.Background(), "c1", "Client", CreateInput{ProviderID: "p1", PaymentID: "pi_1", Rating: 5})
	require.True(t, IsErrPrecondition(err))
}
