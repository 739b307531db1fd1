package notifications

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPushMergesData(t *testing.T) {
	msg := BuildPush([]string{"t1", "t2"}, Notification{
		ID:    "n1",
		Type:  TypePaymentReceived,
		Title: "New call booked",
		Body:  "49.00 EUR",
		Data:  map[string]string{"paymentId": "pi_1"},
	})
	require.Equal(t, []string{"t1", "t2"}, msg.Tokens)
	require.Equal(t, "New call booked", msg.Notification.Title)
	require.Equal(t, map[string]string{
		"type":           TypePaymentReceived,
		"notificationId": "n1",
		"paymentId":      "pi_1",
	}, msg.Data)
}

func TestMarkReadInputTrim(t *testing.T) {
	in := MarkReadInput{NotificationID: "  abc "}
	in.Trim()
	require.Equal(t, "abc", in.NotificationID)
}

func TestMarkReadInputIDsMergesAndDedupes(t *testing.T) {
	in := MarkReadInput{NotificationID: " a ", NotificationIDs: []string{"b", "a", " ", "b", "c"}}
	in.Trim()
	require.Equal(t, []string{"a", "b", "c"}, in.IDs())
	require.Empty(t, MarkReadInput{}.IDs())
}

func TestMarkReadRequiresTarget(t *testing.T) {
	s := NewService(nil, nil, nil)
	_, err := s.MarkRead(context.Background(), "u1", MarkReadInput{NotificationIDs: []string{" "}})
	require.True(t, IsErrBadRequest(err))
	_, err = s.MarkRead(context.Background(), " ", MarkReadInput{MarkAll: true})
	require.True(t, IsErrBadRequest(err))

	many := make([]string, maxMarkReadIDs+1)
	for i := range many {
		many[i] = fmt.Sprintf("n%d", i)
	}
	_, err = s.MarkRead(context.Background(), "u1", MarkReadInput{NotificationIDs: many})
	require.True(t, IsErrBadRequest(err))
}
