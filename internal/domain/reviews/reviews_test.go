package reviews

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sos-expat/backend/internal/domain/payments"
)

func TestCreateInputValidate(t *testing.T) {
	ok := CreateInput{ProviderID: "p1", PaymentID: "pi_1", Rating: 5, Comment: "Très utile"}
	require.NoError(t, ok.Validate())

	cases := []CreateInput{
		{PaymentID: "pi_1", Rating: 5},
		{ProviderID: "p1", Rating: 5},
		{ProviderID: "p1", PaymentID: "pi_1", Rating: 0},
		{ProviderID: "p1", PaymentID: "pi_1", Rating: 6},
		{ProviderID: "p1", PaymentID: "pi_1", Rating: 3, Comment: strings.Repeat("é", maxComment+1)},
	}
	for _, in := range cases {
		require.True(t, IsErrBadRequest(in.Validate()), "%+v", in)
	}

	long := CreateInput{ProviderID: "p1", PaymentID: "pi_1", Rating: 3, Comment: strings.Repeat("é", maxComment)}
	require.NoError(t, long.Validate())
}

func TestComputeAggregate(t *testing.T) {
	require.Equal(t, Aggregate{}, ComputeAggregate(nil))

	agg := ComputeAggregate([]Review{
		{Rating: 5, Status: StatusPublished},
		{Rating: 4, Status: StatusPublished},
		{Rating: 4, Status: StatusPublished},
		{Rating: 1, Status: StatusHidden},
		{Rating: 1, Status: StatusPending},
	})
	require.Equal(t, 3, agg.ReviewCount)
	require.Equal(t, 4.3, agg.Rating)
}

func TestRecompute(t *testing.T) {
	published := []Review{
		{ID: "a", Rating: 5, Status: StatusPublished},
		{ID: "b", Rating: 3, Status: StatusPublished},
	}

	agg := Recompute(published, Review{ID: "c", Rating: 1, Status: StatusPublished})
	require.Equal(t, Aggregate{Rating: 3, ReviewCount: 3}, agg)

	agg = Recompute(published, Review{ID: "b", Rating: 3, Status: StatusHidden})
	require.Equal(t, Aggregate{Rating: 5, ReviewCount: 1}, agg)

	agg = Recompute(published, Review{ID: "a", Rating: 5, Status: ""})
	require.Equal(t, Aggregate{Rating: 3, ReviewCount: 1}, agg)

	agg = Recompute(published, Review{ID: "a", Rating: 5, Status: StatusPublished})
	require.Equal(t, Aggregate{Rating: 4, ReviewCount: 2}, agg)
}

type fakePayments struct {
	err error
}

func (f fakePayments) FindSucceeded(context.Context, string, string, string) (*payments.Payment, error) {
	return nil, f.err
}

func TestCreateMapsPaymentErrors(t *testing.T) {
	in := CreateInput{ProviderID: "p1", PaymentID: "pi_1", Rating: 4}
	cases := []struct {
		err   error
		check func(error) bool
	}{
		{payments.ErrNotFound, IsErrNotFound},
		{payments.ErrForbidden, IsErrForbidden},
		{payments.ErrPrecondition, IsErrPrecondition},
	}
	for _, tc := range cases {
		s := NewService(nil, fakePayments{err: tc.err})
		_, err := s.Create(context.Background(), "c1", "Client", in)
		require.True(t, tc.check(err), "%v", err)
	}
}

func TestModerateRejectsUnknownStatus(t *testing.T) {
	s := NewService(nil, fakePayments{})
	_, err := s.Moderate(context.Background(), "admin", "r1", ModerateInput{Status: "deleted"})
	require.True(t, IsErrBadRequest(err))
}
