package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scannerYAML = `
areas:
  - name: "Sea Point"
    boundaries:
      lat: [-33.95, -33.90]
      lng: [18.35, 18.40]
    search_terms:
      - "Sea Point"
      - "Three Anchor Bay"
    price_ranges:
      apartment:
        min: 1200
        max: 5000
    monthly_price_ranges:
      apartment:
        min: 6000
        max: 60000
    rental_path: "sea-point/cape-town/western-cape/11021"
  - name: "Green Point"
validation:
  price:
    min: 150
    max: 60000
`

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScannerFile(t *testing.T) {
	sf, err := LoadScannerFile(writeTempYAML(t, scannerYAML))
	require.NoError(t, err)
	require.Len(t, sf.Areas, 2)

	sea := sf.Areas[0]
	assert.Equal(t, "Sea Point", sea.Name)
	assert.Equal(t, [2]float64{-33.95, -33.90}, sea.Boundaries.Lat)
	assert.Equal(t, [2]float64{18.35, 18.40}, sea.Boundaries.Lng)
	assert.Equal(t, "Sea Point", sea.SearchTerm())
	assert.Equal(t, "sea-point/cape-town/western-cape/11021", sea.RentalPath)
	assert.Equal(t, 10, sea.MinListings, "minimum defaults when omitted")

	green := sf.Areas[1]
	assert.Equal(t, "Green Point", green.SearchTerm(), "falls back to the area name")
	assert.Empty(t, green.RentalPath)

	assert.Equal(t, PriceRange{Min: 150, Max: 60000}, sf.Validation.Price)
}

func TestLoadScannerFileRejectsBadInput(t *testing.T) {
	_, err := LoadScannerFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadScannerFile(writeTempYAML(t, "areas: []\n"))
	assert.Error(t, err, "empty catalogue is a configuration error")

	_, err = LoadScannerFile(writeTempYAML(t, "areas:\n  - boundaries: {}\n"))
	assert.Error(t, err, "nameless area is a configuration error")
}

func TestPriceRangeSelection(t *testing.T) {
	sf, err := LoadScannerFile(writeTempYAML(t, scannerYAML))
	require.NoError(t, err)

	sea := sf.Areas[0]
	assert.Equal(t, PriceRange{Min: 1200, Max: 5000}, sea.PriceRange("apartment", false, sf.Validation.Price))
	assert.Equal(t, PriceRange{Min: 6000, Max: 60000}, sea.PriceRange("apartment", true, sf.Validation.Price),
		"monthly records use the monthly band, not the nightly one")
	assert.Equal(t, PriceRange{Min: 150, Max: 60000}, sea.PriceRange("villa", false, sf.Validation.Price),
		"unconfigured type uses the global band")
	assert.Equal(t, PriceRange{Min: 150, Max: 60000}, sea.PriceRange("villa", true, sf.Validation.Price),
		"unconfigured monthly type also falls back to the global band")
}
