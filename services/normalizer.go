package services

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"market-scanner/config"
	"market-scanner/models"
)

// pricePatterns is tried most-specific first: monthly-suffixed currency
// amount, currency-prefixed, currency-suffixed, space-grouped thousands,
// bare grouped number.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)R\s*(\d+(?:[,\s]\d{3})*(?:\.\d+)?)\s*(?:p/m|per\s*month|pm\b|/\s*month)`),
	regexp.MustCompile(`(?i)R\s*(\d+(?:,\d{3})*(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d+)?)\s*(?:ZAR|R\b)`),
	regexp.MustCompile(`(\d{1,3}(?:\s\d{3})+(?:\.\d+)?)`),
	regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d+)?)`),
}

// propertyTypeKeywords is an ordered keyword cascade over the title.
// "penthouse" must precede "house", which it contains as a substring.
var propertyTypeKeywords = []struct {
	keyword string
	ptype   models.PropertyType
}{
	{"penthouse", models.TypePenthouse},
	{"house", models.TypeHouse},
	{"apartment", models.TypeApartment},
	{"studio", models.TypeStudio},
	{"villa", models.TypeVilla},
	{"condo", models.TypeApartment},
	{"flat", models.TypeApartment},
}

var (
	bedroomPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*(?:bedrooms?|beds?)\b`),
		regexp.MustCompile(`(?i)(\d+)\s*br\b`),
		regexp.MustCompile(`(?i)(\d+)br\b`),
	}
	bathroomPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)\s*(?:bathrooms?|baths?)\b`),
		regexp.MustCompile(`(?i)(\d+)\s*ba\b`),
		regexp.MustCompile(`(?i)(\d+)ba\b`),
	}
	guestPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)sleeps\s*(\d+)`),
		regexp.MustCompile(`(?i)(\d+)\s*guests?\b`),
		regexp.MustCompile(`(?i)(\d+)\s*people\b`),
		regexp.MustCompile(`(?i)accommodates\s*(\d+)`),
	}

	ratingPattern = regexp.MustCompile(`(\d{1,2}(?:\.\d{1,2})?)\b`)
	intPattern    = regexp.MustCompile(`(\d+)`)
)

// amenityDictionary maps fixed keyword patterns over the detail blob into a
// deduplicated tag set. Each tag can appear at most once by construction.
var amenityDictionary = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	{"pool", regexp.MustCompile(`(?i)\bpool\b`)},
	{"wifi", regexp.MustCompile(`(?i)wi-?fi|internet`)},
	{"parking", regexp.MustCompile(`(?i)parking|garage`)},
	{"ocean view", regexp.MustCompile(`(?i)(?:sea|ocean)\s*view`)},
	{"balcony", regexp.MustCompile(`(?i)balcony|patio|terrace`)},
	{"gym", regexp.MustCompile(`(?i)gym|fitness`)},
	{"beach access", regexp.MustCompile(`(?i)\bbeach\b`)},
	{"air conditioning", regexp.MustCompile(`(?i)air.?con\b|aircon|climate control`)},
	{"security", regexp.MustCompile(`(?i)security|24.?hr|guard`)},
	{"furnished", regexp.MustCompile(`(?i)furnished`)},
	{"laundry", regexp.MustCompile(`(?i)washing.?machine|laundry`)},
	{"elevator", regexp.MustCompile(`(?i)elevator|\blift\b`)},
}

var (
	airbnbIDPattern  = regexp.MustCompile(`/rooms/(\d+)`)
	bookingIDPattern = regexp.MustCompile(`/hotel/(?:[a-z]{2}/)?([^/.?#]+)`)
)

// Normalizer maps raw platform-shaped records to the canonical Listing
// schema. Normalization is deterministic and pure: no I/O, no clock reads.
type Normalizer struct {
	area config.AreaConfig
}

// NewNormalizer creates a Normalizer for the given area.
func NewNormalizer(area config.AreaConfig) *Normalizer {
	return &Normalizer{area: area}
}

// Normalize converts a raw record into a canonical Listing. Fields that
// cannot be parsed stay at their zero value; the Validator decides whether
// the record survives.
func (n *Normalizer) Normalize(raw *models.RawListing) *models.Listing {
	title := normalizeText(raw.Title)
	blob := title + " " + normalizeText(raw.Details)

	price, _ := ParsePrice(raw.RawPrice)

	return &models.Listing{
		Area:         n.area.Name,
		PropertyType: DetectPropertyType(title),
		ExternalID:   DeriveExternalID(raw.Platform, raw.URL),
		Platform:     raw.Platform,
		Title:        title,
		CurrentPrice: price,
		PriceType:    raw.Platform.PriceType(),
		URL:          raw.URL,
		Bedrooms:     firstNumber(blob, bedroomPatterns),
		Bathrooms:    firstNumber(blob, bathroomPatterns),
		MaxGuests:    firstNumber(blob, guestPatterns),
		Rating:       parseRating(raw.Rating),
		ReviewCount:  parseCount(raw.ReviewCount),
		Amenities:    ExtractAmenities(blob),
		ScanDate:     raw.ScrapedAt,
	}
}

// ParsePrice extracts a numeric price from raw text, trying the pattern
// cascade from most-specific to least. Returns false when nothing parses.
func ParsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	normalized := strings.Join(strings.Fields(raw), " ")

	for _, pattern := range pricePatterns {
		m := pattern.FindStringSubmatch(normalized)
		if len(m) < 2 {
			continue
		}
		cleaned := strings.NewReplacer(",", "", " ", "").Replace(m[1])
		val, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			continue
		}
		return val, true
	}
	return 0, false
}

// DetectPropertyType runs the keyword cascade over the title, defaulting to
// apartment for the configured areas.
func DetectPropertyType(title string) models.PropertyType {
	lower := strings.ToLower(title)
	for _, kw := range propertyTypeKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.ptype
		}
	}
	return models.TypeApartment
}

// DeriveExternalID produces the platform-namespaced identity key from a
// detail URL. Returns "" when no stable id can be derived.
func DeriveExternalID(platform models.Platform, detailURL string) string {
	if detailURL == "" {
		return ""
	}

	switch platform {
	case models.PlatformAirbnb:
		if m := airbnbIDPattern.FindStringSubmatch(detailURL); len(m) == 2 {
			return "airbnb_" + m[1]
		}
	case models.PlatformBooking:
		if m := bookingIDPattern.FindStringSubmatch(detailURL); len(m) == 2 {
			return "booking_" + m[1]
		}
	case models.PlatformProperty24:
		if u, err := url.Parse(detailURL); err == nil {
			segments := strings.Split(strings.Trim(u.Path, "/"), "/")
			if last := segments[len(segments)-1]; last != "" {
				return "property24_" + last
			}
		}
	}
	return ""
}

// ExtractAmenities maps the fixed keyword dictionary over the blob.
func ExtractAmenities(blob string) []string {
	amenities := make([]string, 0, 4)
	for _, entry := range amenityDictionary {
		if entry.pattern.MatchString(blob) {
			amenities = append(amenities, entry.tag)
		}
	}
	return amenities
}

func firstNumber(blob string, patterns []*regexp.Regexp) int {
	for _, pattern := range patterns {
		m := pattern.FindStringSubmatch(blob)
		if len(m) < 2 {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n
		}
	}
	return 0
}

// parseRating accepts both the Airbnb 5-point and Booking.com 10-point
// scales; anything outside [0, 10] is treated as unparsed.
func parseRating(raw string) float64 {
	m := ratingPattern.FindStringSubmatch(raw)
	if len(m) < 2 {
		return 0
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil || val < 0 || val > 10 {
		return 0
	}
	return val
}

func parseCount(raw string) int {
	m := intPattern.FindStringSubmatch(strings.ReplaceAll(raw, ",", ""))
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// normalizeText strips leading/trailing whitespace and collapses internal
// whitespace runs.
func normalizeText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
