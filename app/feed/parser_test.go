package feed

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRSS(t *testing.T) {
	parser := NewParser()

	xmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Blog</title>
    <link>https://example.com</link>
    <description>Posts from Example</description>
    <lastBuildDate>Mon, 03 Jul 2023 10:00:00 +0000</lastBuildDate>
    <item>
      <guid isPermaLink="true">https://example.com/post1</guid>
      <title>First Post</title>
      <link>https://example.com/post1</link>
      <description>The first post</description>
      <pubDate>Mon, 03 Jul 2023 10:00:00 +0000</pubDate>
    </item>
    <item>
      <guid isPermaLink="true">https://example.com/post2</guid>
      <title>Second Post</title>
      <link>https://example.com/post2</link>
      <description>The second post</description>
      <pubDate>Sun, 02 Jul 2023 09:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

	channel, err := parser.Run(xmlContent)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Title != "Example Blog" {
		t.Errorf("Expected title 'Example Blog', got '%s'", channel.Title)
	}
	if channel.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got '%s'", channel.Link)
	}
	if channel.Description != "Posts from Example" {
		t.Errorf("Expected description 'Posts from Example', got '%s'", channel.Description)
	}
	if channel.LastBuildDate == "" {
		t.Error("Expected lastBuildDate to be set")
	}

	if len(channel.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(channel.Items))
	}

	// Document order must be preserved
	if channel.Items[0].Title != "First Post" {
		t.Errorf("Expected first item 'First Post', got '%s'", channel.Items[0].Title)
	}
	if channel.Items[1].Title != "Second Post" {
		t.Errorf("Expected second item 'Second Post', got '%s'", channel.Items[1].Title)
	}
	if channel.Items[0].GUID != "https://example.com/post1" {
		t.Errorf("Expected first item GUID kept, got '%s'", channel.Items[0].GUID)
	}
	if channel.Items[0].PubDate != "Mon, 03 Jul 2023 10:00:00 +0000" {
		t.Errorf("Expected first item pubDate normalized, got '%s'", channel.Items[0].PubDate)
	}
}

func TestParseMalformedXML(t *testing.T) {
	parser := NewParser()

	_, err := parser.Run("<rss><channel><title>Broken")
	if err == nil {
		t.Fatal("Expected an error for malformed XML")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %T: %v", err, err)
	}
}

func TestParseNotXMLAtAll(t *testing.T) {
	parser := NewParser()

	_, err := parser.Run("this is just text, not a feed")
	if err == nil {
		t.Fatal("Expected an error for non-XML input")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %T: %v", err, err)
	}
}

func TestParseMissingChannel(t *testing.T) {
	parser := NewParser()

	_, err := parser.Run(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"></rss>`)
	if err == nil {
		t.Fatal("Expected an error for a document without a channel element")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected ParseError, got %T: %v", err, err)
	}
	if !strings.Contains(parseErr.Reason, "channel") {
		t.Errorf("Expected reason to mention the channel element, got '%s'", parseErr.Reason)
	}
}

func TestParsePlaceholderDefaults(t *testing.T) {
	parser := NewParser()

	xmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <item>
      <title>Orphan Item</title>
    </item>
  </channel>
</rss>`

	channel, err := parser.Run(xmlContent)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Title != "Untitled Feed" {
		t.Errorf("Expected placeholder title 'Untitled Feed', got '%s'", channel.Title)
	}
	if channel.Link != "#" {
		t.Errorf("Expected placeholder link '#', got '%s'", channel.Link)
	}
	if channel.Description != "No description available" {
		t.Errorf("Expected placeholder description, got '%s'", channel.Description)
	}
	if len(channel.Items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(channel.Items))
	}
}

func TestParseItemImageFromEnclosure(t *testing.T) {
	parser := NewParser()

	xmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Enclosure Feed</title>
    <item>
      <title>With Enclosure</title>
      <enclosure url="https://example.com/images/cover.jpg" length="0" type="image/jpeg" />
    </item>
  </channel>
</rss>`

	channel, err := parser.Run(xmlContent)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Items[0].ImageURL != "https://example.com/images/cover.jpg" {
		t.Errorf("Expected image from enclosure, got '%s'", channel.Items[0].ImageURL)
	}
}

func TestParseItemImageFromMediaContent(t *testing.T) {
	parser := NewParser()

	xmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Media Feed</title>
    <item>
      <title>With Media</title>
      <media:content url="https://example.com/uploads/pic.jpg" medium="image" type="image/jpeg" />
    </item>
  </channel>
</rss>`

	channel, err := parser.Run(xmlContent)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Items[0].ImageURL != "https://example.com/uploads/pic.jpg" {
		t.Errorf("Expected image from media:content, got '%s'", channel.Items[0].ImageURL)
	}
}

func TestParseItemImageFromMediaThumbnail(t *testing.T) {
	parser := NewParser()

	xmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Thumbnail Feed</title>
    <item>
      <title>With Thumbnail</title>
      <media:thumbnail url="https://example.com/uploads/thumb.jpg" />
    </item>
  </channel>
</rss>`

	channel, err := parser.Run(xmlContent)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Items[0].ImageURL != "https://example.com/uploads/thumb.jpg" {
		t.Errorf("Expected image from media:thumbnail, got '%s'", channel.Items[0].ImageURL)
	}
}

func TestParseItemImageFromDescriptionMarkup(t *testing.T) {
	parser := NewParser()

	xmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Markup Feed</title>
    <item>
      <title>With Inline Image</title>
      <description><![CDATA[<p>Intro text</p><img src="https://example.com/uploads/inline.jpg" alt="" /><p>More text</p>]]></description>
    </item>
  </channel>
</rss>`

	channel, err := parser.Run(xmlContent)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Items[0].ImageURL != "https://example.com/uploads/inline.jpg" {
		t.Errorf("Expected image mined from description markup, got '%s'", channel.Items[0].ImageURL)
	}
}

func TestParseDecodesEntities(t *testing.T) {
	parser := NewParser()

	xmlContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tom &amp;amp; Jerry</title>
    <link>https://example.com</link>
    <description>Cartoons &amp; more</description>
    <item>
      <title>Episode &amp;quot;One&amp;quot;</title>
    </item>
  </channel>
</rss>`

	channel, err := parser.Run(xmlContent)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Title != "Tom & Jerry" {
		t.Errorf("Expected double-encoded entities decoded in title, got '%s'", channel.Title)
	}
	if channel.Description != "Cartoons & more" {
		t.Errorf("Expected description entities decoded, got '%s'", channel.Description)
	}
	if channel.Items[0].Title != `Episode "One"` {
		t.Errorf("Expected item title entities decoded, got '%s'", channel.Items[0].Title)
	}
}

func TestParseRoundTrip(t *testing.T) {
	generator := NewGenerator()
	parser := NewParser()

	original := &Channel{
		Title:         `Breaking <News> & "Updates"`,
		Link:          "https://example.com/news",
		Description:   "All the <b>latest</b> stories",
		LastBuildDate: "Mon, 03 Jul 2023 10:00:00 +0000",
		Items: []Item{
			{
				GUID:        "https://example.com/news/1",
				Title:       "Story <One> & Two",
				Link:        "https://example.com/news/1",
				Description: `With <em>markup</em> & "entities"`,
				PubDate:     "Mon, 03 Jul 2023 10:00:00 +0000",
				ImageURL:    "https://example.com/uploads/story1.jpg",
			},
			{
				GUID:        "https://example.com/news/2",
				Title:       "Plain Story",
				Link:        "https://example.com/news/2",
				Description: "Nothing special",
				PubDate:     "Sun, 02 Jul 2023 09:00:00 +0000",
			},
		},
	}

	parsed, err := parser.Run(generator.Run(original))
	if err != nil {
		t.Fatalf("Expected generated XML to parse, got: %v", err)
	}

	if parsed.Title != original.Title {
		t.Errorf("Title not preserved: expected '%s', got '%s'", original.Title, parsed.Title)
	}
	if parsed.Link != original.Link {
		t.Errorf("Link not preserved: expected '%s', got '%s'", original.Link, parsed.Link)
	}
	if parsed.Description != original.Description {
		t.Errorf("Description not preserved: expected '%s', got '%s'", original.Description, parsed.Description)
	}

	if len(parsed.Items) != len(original.Items) {
		t.Fatalf("Expected %d items, got %d", len(original.Items), len(parsed.Items))
	}

	for i, item := range parsed.Items {
		if item.Title != original.Items[i].Title {
			t.Errorf("Item %d title not preserved: expected '%s', got '%s'", i, original.Items[i].Title, item.Title)
		}
		if item.Link != original.Items[i].Link {
			t.Errorf("Item %d link not preserved: expected '%s', got '%s'", i, original.Items[i].Link, item.Link)
		}
		if item.Description != original.Items[i].Description {
			t.Errorf("Item %d description not preserved: expected '%s', got '%s'", i, original.Items[i].Description, item.Description)
		}
		if item.PubDate != original.Items[i].PubDate {
			t.Errorf("Item %d pubDate not preserved: expected '%s', got '%s'", i, original.Items[i].PubDate, item.PubDate)
		}
		if item.ImageURL != original.Items[i].ImageURL {
			t.Errorf("Item %d image not preserved: expected '%s', got '%s'", i, original.Items[i].ImageURL, item.ImageURL)
		}
	}
}
