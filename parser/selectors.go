package parser

// Selectors pins the extractor to the wishlist site's current markup. This
// is a deliberate external coupling: when the site's class names drift, the
// fix is a one-line change here (or an override in the YAML config), not a
// parser rewrite.
type Selectors struct {
	// Card matches one book card container on a listing page.
	Card string `yaml:"card"`
	// ProductPathMarker identifies anchors pointing at a book detail page.
	ProductPathMarker string `yaml:"product_path_marker"`
	// TitleLabel is the in-card text element tried when no anchor carries a
	// title attribute.
	TitleLabel string `yaml:"title_label"`
	// AuthorLabels are tried in order; the first non-empty text wins.
	AuthorLabels []string `yaml:"author_labels"`
	// PriceLabel matches the bold price text within a card.
	PriceLabel string `yaml:"price_label"`
	// AvailabilityPositive is tried before AvailabilityNegative.
	AvailabilityPositive string `yaml:"availability_positive"`
	AvailabilityNegative string `yaml:"availability_negative"`
	// ImageAttr is the primary image source attribute; ImageLazyAttr is the
	// lazy-load fallback.
	ImageAttr     string `yaml:"image_attr"`
	ImageLazyAttr string `yaml:"image_lazy_attr"`
}

// DefaultSelectors matches the wishlist site's markup as of the last drift.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:                 "div.card",
		ProductPathMarker:    "/product/",
		TitleLabel:           ".card-title",
		AuthorLabels:         []string{".text-muted.text-truncate", ".card-text.text-muted"},
		PriceLabel:           ".fw-bold",
		AvailabilityPositive: ".text-success",
		AvailabilityNegative: ".text-danger",
		ImageAttr:            "src",
		ImageLazyAttr:        "data-src",
	}
}

// OrDefaults fills any unset selector from DefaultSelectors, so a partial
// YAML override only has to name the selectors that drifted.
func (s Selectors) OrDefaults() Selectors {
	def := DefaultSelectors()
	if s.Card == "" {
		s.Card = def.Card
	}
	if s.ProductPathMarker == "" {
		s.ProductPathMarker = def.ProductPathMarker
	}
	if s.TitleLabel == "" {
		s.TitleLabel = def.TitleLabel
	}
	if len(s.AuthorLabels) == 0 {
		s.AuthorLabels = def.AuthorLabels
	}
	if s.PriceLabel == "" {
		s.PriceLabel = def.PriceLabel
	}
	if s.AvailabilityPositive == "" {
		s.AvailabilityPositive = def.AvailabilityPositive
	}
	if s.AvailabilityNegative == "" {
		s.AvailabilityNegative = def.AvailabilityNegative
	}
	if s.ImageAttr == "" {
		s.ImageAttr = def.ImageAttr
	}
	if s.ImageLazyAttr == "" {
		s.ImageLazyAttr = def.ImageLazyAttr
	}
	return s
}
