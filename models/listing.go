package models

import "time"

// Platform identifies the source site a listing was scraped from.
type Platform string

const (
	PlatformAirbnb     Platform = "airbnb"
	PlatformBooking    Platform = "booking.com"
	PlatformProperty24 Platform = "property24"
)

// IsShortStay reports whether the platform lists nightly short-stay rentals.
// Short-stay records must carry url, rating and max guests.
func (p Platform) IsShortStay() bool {
	return p == PlatformAirbnb || p == PlatformBooking
}

// PriceType returns the pricing basis for the platform. The basis is fixed
// per platform and never inferred from listing text.
func (p Platform) PriceType() PriceType {
	if p == PlatformProperty24 {
		return PriceMonthly
	}
	return PriceNightly
}

// PriceType is the pricing basis of a listing.
type PriceType string

const (
	PriceNightly PriceType = "nightly"
	PriceMonthly PriceType = "monthly"
)

// PropertyType is the canonical dwelling category.
type PropertyType string

const (
	TypeApartment PropertyType = "apartment"
	TypeHouse     PropertyType = "house"
	TypePenthouse PropertyType = "penthouse"
	TypeStudio    PropertyType = "studio"
	TypeVilla     PropertyType = "villa"
)

// RawListing holds unprocessed scraped data directly from the browser.
// It is platform-shaped and discarded after normalization.
type RawListing struct {
	Title       string
	RawPrice    string
	URL         string
	Rating      string
	ReviewCount string
	Details     string // free-text blob, source of bedroom/bathroom/guest/amenity heuristics
	Platform    Platform
	ScrapedAt   time.Time
}

// Listing is the canonical, validated record handed to the persistence
// gateway. (Platform, ExternalID) uniquely identifies a listing.
type Listing struct {
	Area         string       `json:"area"`
	PropertyType PropertyType `json:"property_type"`
	ExternalID   string       `json:"external_id"`
	Platform     Platform     `json:"platform"`
	Title        string       `json:"title"`
	CurrentPrice float64      `json:"current_price"`
	PriceType    PriceType    `json:"price_type"`
	URL          string       `json:"url,omitempty"`
	Bedrooms     int          `json:"bedrooms,omitempty"`
	Bathrooms    int          `json:"bathrooms,omitempty"`
	MaxGuests    int          `json:"max_guests,omitempty"`
	Rating       float64      `json:"rating,omitempty"`
	ReviewCount  int          `json:"review_count,omitempty"`
	Amenities    []string     `json:"amenities"`
	ScanDate     time.Time    `json:"scan_date"`
}

// IdentityKey returns the batch-unique identity of the listing.
func (l *Listing) IdentityKey() string {
	return string(l.Platform) + "|" + l.ExternalID
}
