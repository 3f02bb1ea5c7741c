package offer

// Offer is one sports program entry from the index page, enriched with
// metadata scraped from its detail page. DetailLink is the natural key.
type Offer struct {
	Name        string
	DetailLink  string
	ImageURL    *string
	Description *string
}
