package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ScannerFile is the YAML document holding the area catalogue and the
// validation rules shared by all areas.
type ScannerFile struct {
	Areas      []AreaConfig     `yaml:"areas"`
	Validation ValidationConfig `yaml:"validation"`
}

// AreaConfig describes one geographic market scope scanned as a unit.
// PriceRanges bounds nightly short-stay rates; MonthlyPriceRanges bounds
// long-term monthly rents, which sit an order of magnitude higher.
type AreaConfig struct {
	Name               string                `yaml:"name"`
	Boundaries         Boundaries            `yaml:"boundaries"`
	SearchTerms        []string              `yaml:"search_terms"`
	PropertyTypes      []string              `yaml:"property_types"`
	Amenities          []string              `yaml:"amenities"`
	PriceRanges        map[string]PriceRange `yaml:"price_ranges"`
	MonthlyPriceRanges map[string]PriceRange `yaml:"monthly_price_ranges"`
	RentalPath         string                `yaml:"rental_path"` // long-term portal URL path segment
	MinListings        int                   `yaml:"min_listings"`
}

// Boundaries is the lat/lng bounding box of an area.
type Boundaries struct {
	Lat [2]float64 `yaml:"lat"`
	Lng [2]float64 `yaml:"lng"`
}

// PriceRange is the acceptable price band for one property type.
type PriceRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ValidationConfig carries the record-level validation rules.
type ValidationConfig struct {
	Price          PriceRange `yaml:"price"`
	RequiredFields []string   `yaml:"required_fields"`
	StringFields   []string   `yaml:"string_fields"`
	NumericFields  []string   `yaml:"numeric_fields"`
}

// PriceRange returns the configured band for the property type and pricing
// basis, falling back to the global validation band when the area has no
// per-type range for that basis.
func (a *AreaConfig) PriceRange(propertyType string, monthly bool, fallback PriceRange) PriceRange {
	ranges := a.PriceRanges
	if monthly {
		ranges = a.MonthlyPriceRanges
	}
	if r, ok := ranges[propertyType]; ok {
		return r
	}
	return fallback
}

// SearchTerm returns the primary search term for the area.
func (a *AreaConfig) SearchTerm() string {
	if len(a.SearchTerms) > 0 {
		return a.SearchTerms[0]
	}
	return a.Name
}

// LoadScannerFile parses the YAML scanner configuration at path.
func LoadScannerFile(path string) (*ScannerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scanner config: read %q: %w", path, err)
	}

	sf := &ScannerFile{}
	if err := yaml.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("scanner config: parse %q: %w", path, err)
	}

	if len(sf.Areas) == 0 {
		return nil, fmt.Errorf("scanner config: no areas defined in %q", path)
	}
	for i := range sf.Areas {
		a := &sf.Areas[i]
		if a.Name == "" {
			return nil, fmt.Errorf("scanner config: area %d has no name", i)
		}
		if a.MinListings == 0 {
			a.MinListings = 10
		}
	}
	if sf.Validation.Price.Max == 0 {
		sf.Validation.Price = PriceRange{Min: 100, Max: 50000}
	}
	return sf, nil
}
