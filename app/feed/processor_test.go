package feed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Reaperrhs/RSS-Feed-Generator/app/extract"
)

type stubExtractionClient struct {
	response    string
	err         error
	lastURL     string
	lastContent string
}

func (s *stubExtractionClient) Run(_ context.Context, pageURL, content string) (string, error) {
	s.lastURL = pageURL
	s.lastContent = content
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

const listingPage = `<html><head><title>Example News</title></head><body>
<ul>
<li><a href="/s1">Story One</a></li>
<li><a href="/s2">Story Two</a></li>
</ul>
</body></html>`

func TestProcessor_Run_Unreachable(t *testing.T) {
	processor := NewProcessor(&stubPageFetcher{}, &stubExtractionClient{})

	channel, xmlContent, err := processor.Run(context.Background(), "https://example.com")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Expected ErrUnreachable, got %v", err)
	}
	if channel != nil {
		t.Error("Expected nil channel on unreachable page")
	}
	if xmlContent != "" {
		t.Error("Expected empty XML on unreachable page")
	}
}

func TestProcessor_Run_Success(t *testing.T) {
	fetcher := &stubPageFetcher{body: listingPage}
	client := &stubExtractionClient{
		response: `{"title":"Example News","description":"Top stories","items":[` +
			`{"title":"Story One","link":"https://example.com/s1","description":"First","pubDate":"Mon, 03 Jul 2023 10:00:00 +0000","image":"https://example.com/uploads/s1.jpg"},` +
			`{"title":"Story Two","link":"/s2","description":"","pubDate":"","image":""}]}`,
	}
	processor := NewProcessor(fetcher, client)

	channel, xmlContent, err := processor.Run(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Title != "Example News" {
		t.Errorf("Expected channel title 'Example News', got '%s'", channel.Title)
	}
	if channel.Link != "https://example.com" {
		t.Errorf("Expected channel link to be the page URL, got '%s'", channel.Link)
	}
	if channel.Description != "Top stories" {
		t.Errorf("Expected channel description 'Top stories', got '%s'", channel.Description)
	}
	if channel.LastBuildDate == "" {
		t.Error("Expected lastBuildDate to be set")
	}

	if len(channel.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(channel.Items))
	}
	if channel.Items[0].ImageURL != "https://example.com/uploads/s1.jpg" {
		t.Errorf("Expected first item image kept, got '%s'", channel.Items[0].ImageURL)
	}
	if channel.Items[1].Link != "https://example.com/s2" {
		t.Errorf("Expected second item link resolved, got '%s'", channel.Items[1].Link)
	}
	if channel.Items[1].Description != "Story Two" {
		t.Errorf("Expected second item description defaulted to title, got '%s'", channel.Items[1].Description)
	}

	if !strings.HasPrefix(xmlContent, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("Expected XML declaration at the start of the output")
	}
	if !strings.Contains(xmlContent, "<title>Example News</title>") {
		t.Error("Expected channel title in XML output")
	}
	if !strings.Contains(xmlContent, "Story One") {
		t.Error("Expected first item in XML output")
	}

	if client.lastURL != "https://example.com" {
		t.Errorf("Expected extraction client to receive the page URL, got '%s'", client.lastURL)
	}
	if !strings.Contains(client.lastContent, "Story One") {
		t.Error("Expected extraction client to receive the page content")
	}
}

func TestProcessor_Run_ExtractionErrorPropagated(t *testing.T) {
	fetcher := &stubPageFetcher{body: listingPage}
	client := &stubExtractionClient{
		err: &extract.ExtractionError{StatusCode: 429, Message: "rate limited"},
	}
	processor := NewProcessor(fetcher, client)

	_, _, err := processor.Run(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("Expected an error")
	}

	var extractionErr *extract.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("Expected ExtractionError in the chain, got %T: %v", err, err)
	}
	if extractionErr.StatusCode != 429 {
		t.Errorf("Expected status 429, got %d", extractionErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "failed to extract feed data") {
		t.Errorf("Expected wrapped error message, got '%s'", err.Error())
	}
}

func TestProcessor_Run_DecodeErrorPropagated(t *testing.T) {
	fetcher := &stubPageFetcher{body: listingPage}
	client := &stubExtractionClient{
		response: "I could not find any feed items on this page.",
	}
	processor := NewProcessor(fetcher, client)

	_, _, err := processor.Run(context.Background(), "https://example.com")
	if err == nil {
		t.Fatal("Expected an error")
	}

	var decodeErr *extract.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodeError in the chain, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "failed to decode extraction response") {
		t.Errorf("Expected wrapped error message, got '%s'", err.Error())
	}
}

func TestProcessor_Run_FallbackTitle(t *testing.T) {
	fetcher := &stubPageFetcher{body: listingPage}
	client := &stubExtractionClient{
		response: `{"title":"","description":"No title came back","items":[]}`,
	}
	processor := NewProcessor(fetcher, client)

	channel, _, err := processor.Run(context.Background(), "https://example.com/blog")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if channel.Title != "Feed for example.com" {
		t.Errorf("Expected fallback title, got '%s'", channel.Title)
	}
}

func TestProcessor_UnavailableFeed(t *testing.T) {
	processor := NewProcessor(&stubPageFetcher{}, &stubExtractionClient{})

	xmlContent := processor.UnavailableFeed("https://example.com")

	if !strings.HasPrefix(xmlContent, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("Expected XML declaration at the start of the output")
	}
	if !strings.Contains(xmlContent, "Feed Unavailable - https://example.com") {
		t.Error("Expected unavailable marker title in XML output")
	}

	channel, err := NewParser().Run(xmlContent)
	if err != nil {
		t.Fatalf("Expected generated XML to parse, got: %v", err)
	}
	if len(channel.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(channel.Items))
	}
	if !strings.Contains(channel.Description, "could not be fetched") {
		t.Errorf("Expected explanatory description, got '%s'", channel.Description)
	}
}

func TestFallbackTitle(t *testing.T) {
	tests := []struct {
		name     string
		pageURL  string
		expected string
	}{
		{"host extracted", "https://example.com/blog", "Feed for example.com"},
		{"host with port", "https://example.com:8080/blog", "Feed for example.com:8080"},
		{"no host", "not-a-url", "Generated Feed"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := fallbackTitle(test.pageURL)
			if result != test.expected {
				t.Errorf("Expected '%s', got '%s'", test.expected, result)
			}
		})
	}
}
