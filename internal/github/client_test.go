package github

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRepo(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		repo, err := ParseRepo("octo/example")
		require.NoError(t, err)
		require.Equal(t, Repo{Owner: "octo", Name: "example"}, repo)
		require.Equal(t, "octo/example", repo.String())
	})

	t.Run("invalid", func(t *testing.T) {
		for _, input := range []string{"", "octo", "octo/", "/example", "a/b/c"} {
			_, err := ParseRepo(input)
			require.Error(t, err, "input %q", input)
		}
	})
}
