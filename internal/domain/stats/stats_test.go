package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	require.Equal(t, "0", Rate(0, 0))
	require.Equal(t, "0", Rate(3, -1))
	require.Equal(t, "50.0", Rate(1, 2))
	require.Equal(t, "33.3", Rate(1, 3))
	require.Equal(t, "100.0", Rate(7, 7))
}
