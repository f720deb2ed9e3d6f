package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePRNumbers(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		numbers, err := parsePRNumbers([]string{"12", "7", "103"})
		require.NoError(t, err)
		require.Equal(t, []int{12, 7, 103}, numbers)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, args := range [][]string{
			{"abc"},
			{"0"},
			{"-3"},
			{"1", ""},
		} {
			_, err := parsePRNumbers(args)
			require.Error(t, err, "args %v", args)
		}
	})

	t.Run("empty args yield empty slice", func(t *testing.T) {
		numbers, err := parsePRNumbers(nil)
		require.NoError(t, err)
		require.Empty(t, numbers)
	})
}

func TestShortSHA(t *testing.T) {
	require.Equal(t, "abcd1234", shortSHA("abcd1234deadbeef"))
	require.Equal(t, "abc", shortSHA("abc"))
	require.Equal(t, "no sha", shortSHA(""))
}
