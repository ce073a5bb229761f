package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-scanner/config"
	"market-scanner/models"
)

func testArea() config.AreaConfig {
	return config.AreaConfig{
		Name:        "Sea Point",
		SearchTerms: []string{"Sea Point"},
		PriceRanges: map[string]config.PriceRange{
			"apartment": {Min: 1200, Max: 5000},
			"penthouse": {Min: 2500, Max: 10000},
		},
		MonthlyPriceRanges: map[string]config.PriceRange{
			"apartment": {Min: 6000, Max: 60000},
			"penthouse": {Min: 15000, Max: 150000},
		},
		MinListings: 10,
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"R 2,500", 2500, true},
		{"R2500", 2500, true},
		{"R 2,500.00 per night", 2500, true},
		{"R 15,000 p/m", 15000, true},
		{"R 15 000 per month", 15000, true},
		{"1,234.56 ZAR", 1234.56, true},
		{"12 500", 12500, true},
		{"3,500", 3500, true},
		{"", 0, false},
		{"price on application", 0, false},
		{"POA", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "ParsePrice(%q) ok", tt.raw)
		assert.Equal(t, tt.want, got, "ParsePrice(%q) value", tt.raw)
	}
}

func TestDetectPropertyType(t *testing.T) {
	tests := []struct {
		title string
		want  models.PropertyType
	}{
		{"Luxury Apartment", models.TypeApartment},
		{"Sea Point Penthouse", models.TypePenthouse},
		{"Cozy Studio", models.TypeStudio},
		{"Beachfront Villa with Pool", models.TypeVilla},
		{"Victorian House in Oranjezicht", models.TypeHouse},
		{"Modern Condo", models.TypeApartment},
		{"2 Bed Flat", models.TypeApartment},
		{"Sunny retreat near the promenade", models.TypeApartment}, // area default
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectPropertyType(tt.title), "title %q", tt.title)
	}
}

func TestDeriveExternalID(t *testing.T) {
	tests := []struct {
		platform models.Platform
		url      string
		want     string
	}{
		{models.PlatformAirbnb, "https://www.airbnb.com/rooms/12345?src=search", "airbnb_12345"},
		{models.PlatformBooking, "https://www.booking.com/hotel/za/sea-point-villa.html", "booking_sea-point-villa"},
		{models.PlatformProperty24, "https://www.property24.com/to-rent/sea-point/cape-town/western-cape/11021/115674321", "property24_115674321"},
		{models.PlatformAirbnb, "", ""},
		{models.PlatformAirbnb, "https://www.airbnb.com/experiences/99", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveExternalID(tt.platform, tt.url), "url %q", tt.url)
	}
}

func TestNormalizeShortStayListing(t *testing.T) {
	n := NewNormalizer(testArea())

	raw := &models.RawListing{
		Title:       "2 Bedroom Sea View Apartment",
		RawPrice:    "R 2,500 per night",
		URL:         "https://www.airbnb.com/rooms/12345",
		Rating:      "4.85 out of 5",
		ReviewCount: "132 reviews",
		Details:     "2 bedroom 1 bath sleeps 4 wifi pool balcony sea view",
		Platform:    models.PlatformAirbnb,
		ScrapedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	l := n.Normalize(raw)

	assert.Equal(t, "Sea Point", l.Area)
	assert.Equal(t, models.TypeApartment, l.PropertyType)
	assert.Equal(t, "airbnb_12345", l.ExternalID)
	assert.Equal(t, models.PlatformAirbnb, l.Platform)
	assert.Equal(t, 2500.0, l.CurrentPrice)
	assert.Equal(t, models.PriceNightly, l.PriceType, "price type comes from the platform, not the text")
	assert.Equal(t, 2, l.Bedrooms)
	assert.Equal(t, 1, l.Bathrooms)
	assert.Equal(t, 4, l.MaxGuests)
	assert.Equal(t, 4.85, l.Rating)
	assert.Equal(t, 132, l.ReviewCount)
	assert.Contains(t, l.Amenities, "wifi")
	assert.Contains(t, l.Amenities, "pool")
	assert.Contains(t, l.Amenities, "balcony")
	assert.Contains(t, l.Amenities, "ocean view")
}

func TestNormalizeLongTermListing(t *testing.T) {
	n := NewNormalizer(testArea())

	raw := &models.RawListing{
		Title:     "3 Bedroom Penthouse to rent",
		RawPrice:  "R 45,000 p/m",
		URL:       "https://www.property24.com/to-rent/sea-point/cape-town/western-cape/11021/998877",
		Details:   "3 bedrooms 2 bathrooms furnished parking elevator",
		Platform:  models.PlatformProperty24,
		ScrapedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	l := n.Normalize(raw)

	assert.Equal(t, models.TypePenthouse, l.PropertyType)
	assert.Equal(t, "property24_998877", l.ExternalID)
	assert.Equal(t, 45000.0, l.CurrentPrice)
	assert.Equal(t, models.PriceMonthly, l.PriceType, "long-term portal records are always monthly")
	assert.Equal(t, 3, l.Bedrooms)
	assert.Equal(t, 2, l.Bathrooms)
	assert.Zero(t, l.MaxGuests)
	assert.Zero(t, l.Rating)
	assert.Contains(t, l.Amenities, "furnished")
	assert.Contains(t, l.Amenities, "parking")
	assert.Contains(t, l.Amenities, "elevator")
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(testArea())

	raw := &models.RawListing{
		Title:       "Cozy Studio with  pool  and pool table",
		RawPrice:    "R 1,800",
		URL:         "https://www.airbnb.com/rooms/777",
		Rating:      "4.5",
		ReviewCount: "20",
		Details:     "studio sleeps 2 wifi pool",
		Platform:    models.PlatformAirbnb,
		ScrapedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	first := n.Normalize(raw)
	second := n.Normalize(raw)

	require.Equal(t, first, second, "structurally identical input must normalize identically")

	// No amenity duplication even when a keyword appears twice.
	count := 0
	for _, a := range first.Amenities {
		if a == "pool" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNormalizeUnparsablePrice(t *testing.T) {
	n := NewNormalizer(testArea())

	raw := &models.RawListing{
		Title:    "Apartment with no advertised price",
		RawPrice: "Contact agent",
		URL:      "https://www.airbnb.com/rooms/1",
		Platform: models.PlatformAirbnb,
	}

	l := n.Normalize(raw)
	assert.Zero(t, l.CurrentPrice, "unparsable price must stay absent, not fabricated")
}
