package services

import "market-scanner/models"

// Dedupe collapses a batch to one record per (platform, external_id),
// retaining the first occurrence and preserving input order.
func Dedupe(listings []*models.Listing) []*models.Listing {
	seen := make(map[string]struct{}, len(listings))
	result := make([]*models.Listing, 0, len(listings))

	for _, l := range listings {
		key := l.IdentityKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, l)
	}

	return result
}
