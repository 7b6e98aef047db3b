package catalog

import (
	"strings"

	"ai-salesbot-be/pkg/store"
)

// Product is an immutable catalog record. Instances are created at catalog
// load time and replaced wholesale on reload, never mutated in place.
type Product struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	URL            string   `json:"url"`
	StorageOptions []string `json:"storage_options"`
	Brand          string   `json:"brand"`
	Features       []string `json:"features"`
	DeviceCost     *float64 `json:"device_cost"`
}

// DeriveBrand maps a product name to its brand via fixed keyword rules.
// The stored brand field is ignored; the brand is always recomputed at
// load time.
func DeriveBrand(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "iphone") || strings.Contains(n, "apple"):
		return "Apple"
	case strings.Contains(n, "samsung") || strings.Contains(n, "galaxy"):
		return "Samsung"
	case strings.Contains(n, "google") || strings.Contains(n, "pixel"):
		return "Google"
	case strings.Contains(n, "oneplus"):
		return "OnePlus"
	default:
		return "Unknown"
	}
}

// SearchableText is the text used for embedding and keyword matching.
func (p Product) SearchableText() string {
	return p.Name + " " + p.Brand + " " + p.Description + " " + strings.Join(p.Features, " ")
}

// Summary converts the product to the recommendation shape exposed on the
// chat surface.
func (p Product) Summary() store.Recommendation {
	return store.Recommendation{
		Name:           p.Name,
		Description:    p.Description,
		URL:            p.URL,
		StorageOptions: p.StorageOptions,
		Brand:          p.Brand,
	}
}
