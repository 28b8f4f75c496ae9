package feed

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// URL substrings marking site furniture rather than article imagery.
// "uploads" overrides the block: CMS media libraries routinely carry
// these words inside upload paths of real article images.
var blockedImageMarkers = []string{"logo", "icon", "avatar", "placeholder", "pixel"}

func blockedImageURL(imageURL string) bool {
	lower := strings.ToLower(imageURL)
	if strings.Contains(lower, "uploads") {
		return false
	}

	for _, marker := range blockedImageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	return false
}

// ImageScanner mines an article page for its lead image.
type ImageScanner struct{}

func NewImageScanner() *ImageScanner {
	return &ImageScanner{}
}

// Run returns the first acceptable image URL found in the page, resolved
// against pageURL, or an empty string. Strategies run from most to least
// specific; candidates hitting the blocked-URL markers are skipped.
func (s *ImageScanner) Run(pageHTML, pageURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	strategies := []func(*goquery.Document) string{
		featuredImage,
		twitterImage,
		openGraphImage,
		structuredDataImage,
		firstContentImage,
	}

	for _, strategy := range strategies {
		candidate := strings.TrimSpace(strategy(doc))
		if candidate == "" || blockedImageURL(candidate) {
			continue
		}
		return resolveAgainst(pageURL, candidate)
	}

	return ""
}

func featuredImage(doc *goquery.Document) string {
	selectors := []string{
		"img.wp-post-image",
		".featured-image img",
		`img[class*="featured"]`,
	}

	for _, selector := range selectors {
		if src, ok := doc.Find(selector).First().Attr("src"); ok && src != "" {
			return src
		}
	}

	return ""
}

func twitterImage(doc *goquery.Document) string {
	for _, selector := range []string{`meta[name="twitter:image"]`, `meta[name="twitter:image:src"]`} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}

func openGraphImage(doc *goquery.Document) string {
	for _, selector := range []string{`meta[property="og:image"]`, `meta[property="og:image:secure_url"]`} {
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}

// structuredDataImage reads the image property out of JSON-LD blocks,
// accepting the string, array and object forms schema.org allows, with
// itemprop markup as a fallback.
func structuredDataImage(doc *goquery.Document) string {
	var found string

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return true
		}
		if img := ldImage(data); img != "" {
			found = img
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	if src, ok := doc.Find(`img[itemprop="image"]`).First().Attr("src"); ok && src != "" {
		return src
	}
	if content, ok := doc.Find(`meta[itemprop="image"]`).First().Attr("content"); ok && content != "" {
		return content
	}

	return ""
}

func ldImage(data any) string {
	switch v := data.(type) {
	case map[string]any:
		if img, ok := v["image"]; ok {
			if s := ldImageValue(img); s != "" {
				return s
			}
		}
		if graph, ok := v["@graph"]; ok {
			return ldImage(graph)
		}
	case []any:
		for _, entry := range v {
			if s := ldImage(entry); s != "" {
				return s
			}
		}
	}
	return ""
}

func ldImageValue(img any) string {
	switch v := img.(type) {
	case string:
		return v
	case []any:
		for _, entry := range v {
			if s := ldImageValue(entry); s != "" {
				return s
			}
		}
	case map[string]any:
		if u, ok := v["url"].(string); ok {
			return u
		}
	}
	return ""
}

func firstContentImage(doc *goquery.Document) string {
	var found string

	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") || blockedImageURL(src) {
			return true
		}
		found = src
		return false
	})

	return found
}
