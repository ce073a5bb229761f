package services

import (
	"github.com/rs/zerolog"

	"market-scanner/config"
	"market-scanner/models"
)

// Validator gates normalized listings before persistence. Validate never
// returns an error: a record either passes or is rejected with a logged
// snapshot.
type Validator struct {
	area  config.AreaConfig
	rules config.ValidationConfig
	log   zerolog.Logger
}

// NewValidator creates a Validator for the given area and rule set.
func NewValidator(area config.AreaConfig, rules config.ValidationConfig, log zerolog.Logger) *Validator {
	return &Validator{area: area, rules: rules, log: log}
}

// Validate reports whether the listing satisfies the required-field and
// numeric-range invariants.
func (v *Validator) Validate(l *models.Listing) bool {
	// Base required fields for every platform.
	if l.Title == "" {
		return v.reject(l, "missing title")
	}
	if l.Platform == "" {
		return v.reject(l, "missing platform")
	}
	if l.CurrentPrice <= 0 {
		return v.reject(l, "missing or unparsed price")
	}
	if l.PriceType == "" {
		return v.reject(l, "missing price type")
	}
	if l.ExternalID == "" {
		return v.reject(l, "missing external id")
	}

	// Short-stay platforms must carry url, rating and guest capacity.
	if l.Platform.IsShortStay() {
		if l.URL == "" {
			return v.reject(l, "short-stay record missing url")
		}
		if l.Rating <= 0 {
			return v.reject(l, "short-stay record missing rating")
		}
		if l.MaxGuests <= 0 {
			return v.reject(l, "short-stay record missing max guests")
		}
	}

	band := v.area.PriceRange(string(l.PropertyType), l.PriceType == models.PriceMonthly, v.rules.Price)
	if l.CurrentPrice < band.Min || l.CurrentPrice > band.Max {
		return v.reject(l, "price outside configured range")
	}

	return true
}

func (v *Validator) reject(l *models.Listing, reason string) bool {
	v.log.Warn().
		Str("reason", reason).
		Str("platform", string(l.Platform)).
		Str("external_id", l.ExternalID).
		Str("title", l.Title).
		Float64("price", l.CurrentPrice).
		Str("price_type", string(l.PriceType)).
		Msg("listing rejected")
	return false
}
