// Package parser turns raw listing-page markup into BookRecords.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"wishlist-backend/models"

	"github.com/PuerkitoBio/goquery"
)

// Parser extracts book records from one page of wishlist markup. Parsing is
// a pure function of (markup, pageIndex); the parser holds only immutable
// configuration.
type Parser struct {
	origin string
	sel    Selectors
}

// NewParser builds a parser for the given site origin (scheme + host, no
// trailing slash) and selector set.
func NewParser(origin string, sel Selectors) *Parser {
	return &Parser{
		origin: strings.TrimSuffix(origin, "/"),
		sel:    sel.OrDefaults(),
	}
}

// fieldStrategy is one step of an ordered fallback chain: a pure extraction
// over a single card. Chains are evaluated in order and the first non-empty
// result wins.
type fieldStrategy func(card *goquery.Selection) string

// Parse extracts zero or more records from the markup, in document order.
// Cards without a resolvable title are skipped; they are expected
// (decorative and placeholder cards) and not an error.
func (p *Parser) Parse(markup string, pageIndex int) []*models.BookRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var records []*models.BookRecord
	doc.Find(p.sel.Card).Each(func(index int, card *goquery.Selection) {
		if record := p.extractCard(card, pageIndex, index); record != nil {
			records = append(records, record)
		}
	})
	return records
}

func (p *Parser) extractCard(card *goquery.Selection, pageIndex, index int) *models.BookRecord {
	detailHref := card.Find(p.productAnchorSelector()).First().AttrOr("href", "")

	title := firstOf(card,
		func(c *goquery.Selection) string {
			return c.Find(p.productAnchorSelector()).First().AttrOr("title", "")
		},
		func(c *goquery.Selection) string {
			return c.Find("a[title]").First().AttrOr("title", "")
		},
		func(c *goquery.Selection) string {
			return c.Find(p.sel.TitleLabel).First().Text()
		},
		func(c *goquery.Selection) string {
			return c.Find("img").First().AttrOr("alt", "")
		},
	)
	if title == "" {
		return nil
	}

	authorChain := make([]fieldStrategy, 0, len(p.sel.AuthorLabels))
	for _, label := range p.sel.AuthorLabels {
		label := label
		authorChain = append(authorChain, func(c *goquery.Selection) string {
			return c.Find(label).First().Text()
		})
	}
	author := firstOf(card, authorChain...)
	if author == "" {
		author = models.UnknownAuthor
	}

	cover := firstOf(card,
		func(c *goquery.Selection) string {
			return c.Find("img").First().AttrOr(p.sel.ImageAttr, "")
		},
		func(c *goquery.Selection) string {
			return c.Find("img").First().AttrOr(p.sel.ImageLazyAttr, "")
		},
	)

	availability := firstOf(card,
		func(c *goquery.Selection) string {
			return c.Find(p.sel.AvailabilityPositive).First().Text()
		},
		func(c *goquery.Selection) string {
			return c.Find(p.sel.AvailabilityNegative).First().Text()
		},
	)

	detailURL := p.absoluteURL(detailHref)

	return &models.BookRecord{
		ID:           recordID(pageIndex, index, detailURL),
		Title:        title,
		Author:       author,
		CoverImage:   p.absoluteURL(cover),
		Price:        firstOf(card, func(c *goquery.Selection) string { return c.Find(p.sel.PriceLabel).First().Text() }),
		Availability: availability,
		URL:          detailURL,
	}
}

func (p *Parser) productAnchorSelector() string {
	return fmt.Sprintf("a[href*=%q]", p.sel.ProductPathMarker)
}

// firstOf evaluates the fallback chain in order and returns the first
// non-empty trimmed result.
func firstOf(card *goquery.Selection, chain ...fieldStrategy) string {
	for _, strategy := range chain {
		if value := cleanText(strategy(card)); value != "" {
			return value
		}
	}
	return ""
}

// absoluteURL rewrites a relative path against the site origin. Absolute
// URLs pass through unchanged.
func (p *Parser) absoluteURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return p.origin + "/" + strings.TrimPrefix(raw, "/")
}

// recordID synthesizes a deterministic id from page index, in-page position,
// and the last path segment of the detail URL. The (page, index) pair keeps
// ids unique even when the same book appears on two pages.
func recordID(pageIndex, index int, detailURL string) string {
	return fmt.Sprintf("page:%d:index:%d:slug:%s", pageIndex, index, slugFromURL(detailURL))
}

func slugFromURL(raw string) string {
	if raw == "" {
		return "nourl"
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "nourl"
	}
	trimmed := strings.Trim(parsed.Path, "/")
	if trimmed == "" {
		return "nourl"
	}
	segments := strings.Split(trimmed, "/")
	return segments[len(segments)-1]
}

// cleanText trims a value and collapses internal whitespace runs, which
// goquery's Text() tends to carry over from indented markup.
func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
