package fontcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Len(t, c.Families, 10)
	require.Len(t, c.Colors, 5)
	require.Equal(t, "Kaushan Script", c.Default())
	require.True(t, c.Allowed("Pacifico"))
	require.False(t, c.Allowed("Comic Sans"))
}

func TestLoadCatalogMissingPathFallsBack(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	require.Equal(t, DefaultCatalog(), c)

	c, err = LoadCatalog(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultCatalog(), c)
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
families = ["Great Vibes", "Allura"]
colors = ["#112233"]
`), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Great Vibes", "Allura"}, c.Families)
	require.Equal(t, []string{"#112233"}, c.Colors)
	require.Equal(t, "Great Vibes", c.Default())
}

func TestLoadCatalogPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(`families = ["Allura"]`), 0644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Equal(t, []string{"Allura"}, c.Families)
	require.Equal(t, DefaultCatalog().Colors, c.Colors)
}

func TestLoadCatalogBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte("families = [unterminated"), 0644))

	_, err := LoadCatalog(path)
	require.Error(t, err)
}
