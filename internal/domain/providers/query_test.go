package providers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanQueryDefaults(t *testing.T) {
	p, err := PlanQuery(ListFilter{})
	require.NoError(t, err)
	require.Empty(t, p.Clauses)
	require.Equal(t, "createdAt", p.OrderField)
	require.True(t, p.Desc)
	require.Equal(t, defaultListLimit, p.Limit)
}

func TestPlanQueryAppendsClausesInOrder(t *testing.T) {
	online := true
	p, err := PlanQuery(ListFilter{
		Type:      " Lawyer ",
		Status:    "active",
		Country:   "France",
		Language:  "fr",
		KYCStatus: "PENDING",
		Online:    &online,
		SortBy:    "rating",
		SortDir:   "asc",
		Limit:     1000,
		Cursor:    "abc",
	})
	require.NoError(t, err)
	require.Equal(t, []Clause{
		{"type", "==", "lawyer"},
		{"status", "==", "active"},
		{"country", "==", "France"},
		{"languages", "array-contains", "fr"},
		{"kycStatus", "==", "pending"},
		{"isOnline", "==", true},
	}, p.Clauses)
	require.Equal(t, "rating", p.OrderField)
	require.False(t, p.Desc)
	require.Equal(t, maxListLimit, p.Limit)
	require.Equal(t, "abc", p.Cursor)
}

func TestPlanQueryStatusAllIsNoFilter(t *testing.T) {
	p, err := PlanQuery(ListFilter{Status: "all"})
	require.NoError(t, err)
	require.Empty(t, p.Clauses)
}

func TestPlanQueryLastNameSortsAscendingByDefault(t *testing.T) {
	p, err := PlanQuery(ListFilter{SortBy: "lastName"})
	require.NoError(t, err)
	require.False(t, p.Desc)

	p, err = PlanQuery(ListFilter{SortBy: "lastName", SortDir: "desc"})
	require.NoError(t, err)
	require.True(t, p.Desc)
}

func TestPlanQueryRejectsUnknownValues(t *testing.T) {
	cases := []ListFilter{
		{Type: "notary"},
		{Status: "deleted"},
		{KYCStatus: "maybe"},
		{SortBy: "email"},
		{SortDir: "up"},
	}
	for _, f := range cases {
		_, err := PlanQuery(f)
		require.True(t, IsErrBadRequest(err), "%+v", f)
	}
}
