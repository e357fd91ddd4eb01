package crawler

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/siteporter/siteporter/internal/model"
)

// Extractor pulls links and images out of rendered HTML.
//
// Design decision: We use goquery rather than walking the node tree by hand
// because navigation detection is configured as CSS selectors ("nav a",
// ".navbar a", ...), and goquery evaluates those directly against the
// document. Anchors matched by a navigation selector are flagged so the
// scheduler can prefer them: navigation structure is a more reliable signal
// of important pages than in-body links.
type Extractor struct {
	// navSelectors are the CSS selectors whose anchors count as navigation.
	navSelectors []string
}

// NewExtractor creates an Extractor with the given navigation selectors.
func NewExtractor(navSelectors []string) *Extractor {
	return &Extractor{navSelectors: navSelectors}
}

// Extract parses the page's raw HTML and fills in its Links and Images.
// Relative URLs are resolved against the page URL; javascript:, mailto:,
// tel:, data: and bare fragment hrefs are skipped. Text and attribute
// values are whitespace-normalized.
func (e *Extractor) Extract(page *model.Page) error {
	base, err := url.Parse(page.URL)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Raw))
	if err != nil {
		return err
	}

	if page.Title == "" {
		page.Title = normalizeWhitespace(doc.Find("title").First().Text())
	}

	// Collect the anchor nodes under navigation selectors and footers so
	// the full anchor pass below can flag them.
	navNodes := make(map[*html.Node]bool)
	for _, selector := range e.navSelectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			for _, node := range sel.Nodes {
				navNodes[node] = true
			}
		})
	}
	footerNodes := make(map[*html.Node]bool)
	doc.Find("footer a").Each(func(_ int, sel *goquery.Selection) {
		for _, node := range sel.Nodes {
			footerNodes[node] = true
		}
	})

	page.Links = page.Links[:0]
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := resolveURL(base, href)
		if resolved == "" {
			return
		}

		link := model.Link{
			Href: resolved,
			Text: normalizeWhitespace(sel.Text()),
		}
		for _, node := range sel.Nodes {
			if navNodes[node] {
				link.IsNavigation = true
			}
			if footerNodes[node] {
				link.IsFooter = true
			}
		}
		page.Links = append(page.Links, link)
	})

	page.Images = page.Images[:0]
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		resolved := resolveURL(base, src)
		if resolved == "" {
			return
		}

		alt, _ := sel.Attr("alt")
		title, _ := sel.Attr("title")
		width, _ := sel.Attr("width")
		height, _ := sel.Attr("height")
		page.Images = append(page.Images, model.Image{
			Source: resolved,
			Alt:    normalizeWhitespace(alt),
			Title:  normalizeWhitespace(title),
			Width:  strings.TrimSpace(width),
			Height: strings.TrimSpace(height),
		})
	})

	return nil
}

// resolveURL resolves an href against the page base URL. Pseudo-protocol
// and fragment-only hrefs resolve to the empty string.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// normalizeWhitespace collapses runs of whitespace to single spaces and
// trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
