package fontcache

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Catalog is the enumerated set of signature font families offered to users
// plus the preset color palette. It loads from a TOML file so deployments
// can ship their own font set without a rebuild.
type Catalog struct {
	Families []string `toml:"families"`
	Colors   []string `toml:"colors"`
}

// DefaultCatalog returns the built-in calligraphic families and palette.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Families: []string{
			"Kaushan Script",
			"Great Vibes",
			"Sacramento",
			"Pacifico",
			"Satisfy",
			"Dancing Script",
			"Parisienne",
			"Calligraffitti",
			"Herr Von Muellerhoff",
			"Allura",
		},
		Colors: []string{"#000000", "#1D4ED8", "#DC2626", "#065F46", "#7C3AED"},
	}
}

// LoadCatalog reads a catalog file, falling back to the defaults when the
// path is empty or the file does not exist.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultCatalog(), nil
	}

	var c Catalog
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("failed to parse font catalog %s: %w", path, err)
	}
	if len(c.Families) == 0 {
		c.Families = DefaultCatalog().Families
	}
	if len(c.Colors) == 0 {
		c.Colors = DefaultCatalog().Colors
	}
	return &c, nil
}

// Allowed reports whether family is part of the catalog.
func (c *Catalog) Allowed(family string) bool {
	for _, f := range c.Families {
		if f == family {
			return true
		}
	}
	return false
}

// Default returns the first catalog family, used when a typed signature
// arrives without an explicit font.
func (c *Catalog) Default() string {
	if len(c.Families) > 0 {
		return c.Families[0]
	}
	return FallbackFontName
}
