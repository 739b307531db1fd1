package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusHelpers(t *testing.T) {
	require.True(t, IsNotFound(status.Error(codes.NotFound, "missing")))
	require.False(t, IsNotFound(errors.New("boom")))
	require.True(t, IsAlreadyExists(status.Error(codes.AlreadyExists, "dup")))
	require.False(t, IsAlreadyExists(nil))
}
