package feed

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Reaperrhs/RSS-Feed-Generator/app/extract"
)

const enrichBatchSize = 3

// PageFetcher retrieves a page body, empty string on failure.
type PageFetcher interface {
	Run(ctx context.Context, pageURL string) string
}

// Enricher turns raw extracted items into feed-ready ones: absolute
// links, vetted images, defaulted descriptions and dates.
type Enricher struct {
	fetcher PageFetcher
	scanner *ImageScanner
}

func NewEnricher(fetcher PageFetcher) *Enricher {
	return &Enricher{
		fetcher: fetcher,
		scanner: NewImageScanner(),
	}
}

// Run enriches items in batches of three. Items inside a batch run
// concurrently, batches run one after another to keep the request
// footprint on the source site flat. A failure on one item never
// affects the others.
func (e *Enricher) Run(ctx context.Context, rawItems []extract.RawItem, sourceURL string) []Item {
	items := make([]Item, len(rawItems))

	for start := 0; start < len(rawItems); start += enrichBatchSize {
		end := min(start+enrichBatchSize, len(rawItems))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				items[idx] = e.enrichItem(ctx, rawItems[idx], sourceURL)
			}(i)
		}
		wg.Wait()
	}

	return items
}

func (e *Enricher) enrichItem(ctx context.Context, raw extract.RawItem, sourceURL string) Item {
	item := Item{
		Title:       raw.Title,
		Link:        raw.Link,
		Description: raw.Description,
		PubDate:     raw.PubDate,
	}

	if item.Link != "" {
		item.Link = resolveAgainst(sourceURL, item.Link)
	}

	image := raw.Image
	if image != "" {
		image = resolveAgainst(sourceURL, image)
		if blockedImageURL(image) {
			slog.Debug("Discarded blocked item image", "url", item.Link, "image", image)
			image = ""
		}
	}

	if image == "" && item.Link != "" {
		image = e.discoverImage(ctx, item.Link)
	}
	item.ImageURL = image

	if item.Description == "" {
		item.Description = item.Title
	}
	if item.PubDate == "" {
		item.PubDate = time.Now().Format(time.RFC1123Z)
	}

	if item.Link != "" {
		item.GUID = item.Link
	} else {
		item.GUID = item.Title
	}

	return item
}

// discoverImage fetches the article page itself and scans it for a lead
// image. The fetch shares the fetcher's fallback chain, and any failure
// simply leaves the item imageless.
func (e *Enricher) discoverImage(ctx context.Context, articleURL string) string {
	body := e.fetcher.Run(ctx, articleURL)
	if body == "" {
		return ""
	}
	return e.scanner.Run(body, articleURL)
}

// resolveAgainst resolves ref against baseURL. When either side does not
// parse the original reference is kept, matching the rule that a bad URL
// is better than a lost one.
func resolveAgainst(baseURL, ref string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}

	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}

	return base.ResolveReference(parsed).String()
}
