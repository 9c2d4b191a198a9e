package prefs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandedRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	got, err := LoadExpanded()
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, SaveExpanded(map[string]bool{"p2": true, "p1": true, "p3": false}))
	got, err = LoadExpanded()
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"p1": true, "p2": true}, got)
}
