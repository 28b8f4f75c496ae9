package feed

import (
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const (
	defaultFeedTitle       = "Untitled Feed"
	defaultFeedLink        = "#"
	defaultFeedDescription = "No description available"
)

var imgSrcRe = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses feed XML into a channel. Malformed XML and documents
// without a channel element return a ParseError; missing channel fields
// fall back to placeholders so a parsed channel is always renderable.
func (p *Parser) Run(xmlContent string) (*Channel, error) {
	if err := p.validate(xmlContent); err != nil {
		return nil, err
	}

	parsed, err := p.gofeedParser.ParseString(xmlContent)
	if err != nil {
		return nil, &ParseError{Reason: "feed could not be parsed", err: err}
	}

	channel := &Channel{
		Title:       cmp.Or(decodeText(parsed.Title), defaultFeedTitle),
		Link:        cmp.Or(strings.TrimSpace(parsed.Link), defaultFeedLink),
		Description: cmp.Or(decodeText(parsed.Description), defaultFeedDescription),
	}

	if parsed.UpdatedParsed != nil {
		channel.LastBuildDate = parsed.UpdatedParsed.Format(time.RFC1123Z)
	} else if parsed.Updated != "" {
		channel.LastBuildDate = parsed.Updated
	}

	for _, item := range parsed.Items {
		channel.Items = append(channel.Items, p.normalizeItem(item))
	}

	return channel, nil
}

// validate walks the raw token stream before handing the document to
// gofeed, which papers over structural problems this service must
// reject. HTML entities are tolerated since real-world feeds carry them.
func (p *Parser) validate(xmlContent string) error {
	decoder := xml.NewDecoder(strings.NewReader(xmlContent))
	decoder.Entity = xml.HTMLEntity

	hasChannel := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ParseError{Reason: fmt.Sprintf("malformed XML: %v", err), err: err}
		}
		if start, ok := token.(xml.StartElement); ok && start.Name.Local == "channel" {
			hasChannel = true
		}
	}

	if !hasChannel {
		return &ParseError{Reason: "document has no channel element"}
	}

	return nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        strings.TrimSpace(cmp.Or(item.GUID, item.Link)),
		Title:       decodeText(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: decodeText(item.Description),
	}

	if item.PublishedParsed != nil {
		normalized.PubDate = item.PublishedParsed.Format(time.RFC1123Z)
	} else {
		normalized.PubDate = item.Published
	}

	normalized.ImageURL = p.itemImage(item)

	return normalized
}

// itemImage recovers an item's image from the places generated and
// third-party feeds put one: the enclosure, a media extension element,
// or an img tag inside the description markup.
func (p *Parser) itemImage(item *gofeed.Item) string {
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil && item.Enclosures[0].URL != "" {
		return item.Enclosures[0].URL
	}

	if url := mediaExtensionURL(item.Extensions); url != "" {
		return url
	}

	if match := imgSrcRe.FindStringSubmatch(item.Description); len(match) > 1 {
		return match[1]
	}

	return ""
}

// mediaExtensionURL digs media content and thumbnail elements out of the
// extension tree by local name. The media prefix is preferred but any
// prefix is accepted, tolerating feeds that use one without declaring
// its namespace.
func mediaExtensionURL(extensions ext.Extensions) string {
	if mediaExt, ok := extensions["media"]; ok {
		if url := extensionImageURL(mediaExt); url != "" {
			return url
		}
	}

	for _, extMap := range extensions {
		if url := extensionImageURL(extMap); url != "" {
			return url
		}
	}

	return ""
}

func extensionImageURL(extMap map[string][]ext.Extension) string {
	for _, name := range []string{"content", "thumbnail"} {
		for _, e := range extMap[name] {
			if url := e.Attrs["url"]; url != "" {
				return url
			}
		}
	}
	return ""
}

// decodeText trims and resolves HTML entities, which survive in text
// fields when a source double-encoded them. Links are excluded: legacy
// entity forms without semicolons would mangle query strings.
func decodeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}
