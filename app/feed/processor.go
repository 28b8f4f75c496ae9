package feed

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/Reaperrhs/RSS-Feed-Generator/app/extract"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/fetch"
)

// Refined article content shorter than this has usually lost the item
// listing (index pages reduce badly under readability extraction), so
// the full page is used instead.
const minRefinedChars = 2048

// ExtractionClient asks a model to extract feed data from page content.
type ExtractionClient interface {
	Run(ctx context.Context, pageURL, content string) (string, error)
}

// Processor runs the full generation pipeline: fetch, refine, sanitize,
// extract, decode, enrich, serialize.
type Processor struct {
	fetcher          PageFetcher
	contentExtractor *fetch.ContentExtractor
	sanitizer        *fetch.Sanitizer
	client           ExtractionClient
	decoder          *extract.Decoder
	enricher         *Enricher
	generator        *Generator
}

func NewProcessor(fetcher PageFetcher, client ExtractionClient) *Processor {
	return &Processor{
		fetcher:          fetcher,
		contentExtractor: fetch.NewContentExtractor(),
		sanitizer:        fetch.NewSanitizer(),
		client:           client,
		decoder:          extract.NewDecoder(),
		enricher:         NewEnricher(fetcher),
		generator:        NewGenerator(),
	}
}

// Run generates a feed for pageURL and returns the channel together with
// its serialized XML. An unreachable page returns ErrUnreachable before
// any model call; extraction and decode failures are wrapped and
// propagated.
func (p *Processor) Run(ctx context.Context, pageURL string) (*Channel, string, error) {
	started := time.Now()

	content := p.fetcher.Run(ctx, pageURL)
	if content == "" {
		return nil, "", ErrUnreachable
	}

	if refined, err := p.contentExtractor.Run(content, pageURL); err == nil && len(refined) >= minRefinedChars {
		content = refined
	}

	sanitized := p.sanitizer.Run(content)

	rawResponse, err := p.client.Run(ctx, pageURL, sanitized)
	if err != nil {
		return nil, "", fmt.Errorf("failed to extract feed data: %w", err)
	}

	extraction, err := p.decoder.Run(rawResponse)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode extraction response: %w", err)
	}

	channel := &Channel{
		Title:         cmp.Or(extraction.Title, fallbackTitle(pageURL)),
		Link:          pageURL,
		Description:   extraction.Description,
		LastBuildDate: time.Now().Format(time.RFC1123Z),
	}
	channel.Items = p.enricher.Run(ctx, extraction.Items, pageURL)

	xmlContent := NormalizeXMLDeclaration(p.generator.Run(channel))

	slog.Info("Feed generated",
		"url", pageURL,
		"items", len(channel.Items),
		"duration", time.Since(started).Round(time.Millisecond))

	return channel, xmlContent, nil
}

// UnavailableFeed serializes the channel served when a source page
// cannot be fetched. The failure is stated in the feed itself so
// subscribers see what happened instead of fabricated items.
func (p *Processor) UnavailableFeed(pageURL string) string {
	channel := &Channel{
		Title:         fmt.Sprintf("Feed Unavailable - %s", pageURL),
		Link:          pageURL,
		Description:   fmt.Sprintf("The page at %s could not be fetched. The site may be blocking automated access or may be temporarily down.", pageURL),
		LastBuildDate: time.Now().Format(time.RFC1123Z),
	}

	return NormalizeXMLDeclaration(p.generator.Run(channel))
}

func fallbackTitle(pageURL string) string {
	if parsed, err := url.Parse(pageURL); err == nil && parsed.Host != "" {
		return fmt.Sprintf("Feed for %s", parsed.Host)
	}
	return "Generated Feed"
}
