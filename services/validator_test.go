package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-scanner/config"
	"market-scanner/models"
)

func testRules() config.ValidationConfig {
	return config.ValidationConfig{
		Price: config.PriceRange{Min: 100, Max: 50000},
	}
}

func validShortStay() *models.Listing {
	return &models.Listing{
		Area:         "Sea Point",
		PropertyType: models.TypeApartment,
		ExternalID:   "airbnb_12345",
		Platform:     models.PlatformAirbnb,
		Title:        "2 Bedroom Sea View Apartment",
		CurrentPrice: 2500,
		PriceType:    models.PriceNightly,
		URL:          "https://www.airbnb.com/rooms/12345",
		MaxGuests:    4,
		Rating:       4.85,
		ReviewCount:  132,
	}
}

func validLongTerm() *models.Listing {
	return &models.Listing{
		Area:         "Sea Point",
		PropertyType: models.TypeApartment,
		ExternalID:   "property24_998877",
		Platform:     models.PlatformProperty24,
		Title:        "2 Bedroom Apartment to rent",
		CurrentPrice: 14500,
		PriceType:    models.PriceMonthly,
		URL:          "https://www.property24.com/to-rent/sea-point/cape-town/western-cape/11021/998877",
	}
}

func TestValidateAcceptsCompleteRecords(t *testing.T) {
	v := NewValidator(testArea(), testRules(), zerolog.Nop())

	assert.True(t, v.Validate(validShortStay()))
	assert.True(t, v.Validate(validLongTerm()))
}

func TestValidateRejectsMissingBaseFields(t *testing.T) {
	v := NewValidator(testArea(), testRules(), zerolog.Nop())

	mutations := map[string]func(*models.Listing){
		"title":       func(l *models.Listing) { l.Title = "" },
		"platform":    func(l *models.Listing) { l.Platform = "" },
		"price":       func(l *models.Listing) { l.CurrentPrice = 0 },
		"price type":  func(l *models.Listing) { l.PriceType = "" },
		"external id": func(l *models.Listing) { l.ExternalID = "" },
	}

	for name, mutate := range mutations {
		l := validShortStay()
		mutate(l)
		assert.False(t, v.Validate(l), "missing %s must reject", name)
	}
}

func TestValidateShortStayRequirements(t *testing.T) {
	v := NewValidator(testArea(), testRules(), zerolog.Nop())

	noURL := validShortStay()
	noURL.URL = ""
	assert.False(t, v.Validate(noURL))

	noRating := validShortStay()
	noRating.Rating = 0
	assert.False(t, v.Validate(noRating))

	noGuests := validShortStay()
	noGuests.MaxGuests = 0
	assert.False(t, v.Validate(noGuests))

	// Long-term portals carry none of those fields and still pass.
	bare := validLongTerm()
	bare.Rating = 0
	bare.MaxGuests = 0
	assert.True(t, v.Validate(bare))
}

func TestValidatePriceBands(t *testing.T) {
	v := NewValidator(testArea(), testRules(), zerolog.Nop())

	// Area-specific band for apartments is 1200..5000.
	tooLow := validShortStay()
	tooLow.CurrentPrice = 900
	assert.False(t, v.Validate(tooLow))

	tooHigh := validShortStay()
	tooHigh.CurrentPrice = 7000
	assert.False(t, v.Validate(tooHigh))

	// A penthouse at the same price passes through its wider band.
	penthouse := validShortStay()
	penthouse.PropertyType = models.TypePenthouse
	penthouse.CurrentPrice = 7000
	assert.True(t, v.Validate(penthouse))

	// Unconfigured property types fall back to the global band.
	villa := validShortStay()
	villa.PropertyType = models.TypeVilla
	villa.CurrentPrice = 30000
	assert.True(t, v.Validate(villa))
}

func TestValidateMonthlyPriceBands(t *testing.T) {
	v := NewValidator(testArea(), testRules(), zerolog.Nop())

	// A typical monthly rent sits far above the nightly ceiling and must
	// be judged against the monthly band, not the nightly one.
	rent := validLongTerm()
	rent.CurrentPrice = 15000
	assert.True(t, v.Validate(rent))

	tooLow := validLongTerm()
	tooLow.CurrentPrice = 4000
	assert.False(t, v.Validate(tooLow))

	tooHigh := validLongTerm()
	tooHigh.CurrentPrice = 70000
	assert.False(t, v.Validate(tooHigh))

	// A nightly record at monthly magnitude is still rejected.
	inflated := validShortStay()
	inflated.CurrentPrice = 15000
	assert.False(t, v.Validate(inflated))
}

// The shipped area catalogue must let realistic long-term rents through
// end to end: a rental-portal record normalized from the portal's own
// price text survives validation under configs/scanner.yaml as checked in.
func TestShippedConfigAcceptsMonthlyListings(t *testing.T) {
	sf, err := config.LoadScannerFile("../configs/scanner.yaml")
	require.NoError(t, err)
	area := sf.Areas[0]

	n := NewNormalizer(area)
	v := NewValidator(area, sf.Validation, zerolog.Nop())

	raw := &models.RawListing{
		Title:     "2 Bedroom Apartment to Rent in Sea Point",
		RawPrice:  "R 15 000 per month",
		URL:       "https://www.property24.com/to-rent/sea-point/cape-town/western-cape/11021/115674321",
		Details:   "2 bedrooms 1 bathroom parking",
		Platform:  models.PlatformProperty24,
		ScrapedAt: time.Now(),
	}

	l := n.Normalize(raw)
	assert.Equal(t, 15000.0, l.CurrentPrice)
	assert.Equal(t, models.PriceMonthly, l.PriceType)
	assert.True(t, v.Validate(l), "monthly listings must survive validation under the shipped area config")

	penthouse := n.Normalize(&models.RawListing{
		Title:     "3 Bedroom Penthouse to rent",
		RawPrice:  "R 45,000 p/m",
		URL:       "https://www.property24.com/to-rent/sea-point/cape-town/western-cape/11021/998877",
		Platform:  models.PlatformProperty24,
		ScrapedAt: time.Now(),
	})
	assert.True(t, v.Validate(penthouse))
}
