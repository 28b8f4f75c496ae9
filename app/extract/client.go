package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a precise extraction engine that turns web page content " +
	"into structured feed data. You only report what is present in the supplied " +
	"content and you respond with JSON only."

// Client asks an OpenAI-compatible endpoint to extract feed data from
// page content. The response is raw model output; decoding and repair
// happen in Decoder.
type Client struct {
	api    *openai.Client
	apiKey string
	model  string
}

func NewClient(apiKey, model, baseURL string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		api:    openai.NewClientWithConfig(config),
		apiKey: apiKey,
		model:  model,
	}
}

// Run submits page content for extraction and returns the raw model
// output. Returns ErrMissingAPIKey before any network call when no key
// is configured, or an ExtractionError when the endpoint fails.
func (c *Client) Run(ctx context.Context, pageURL, content string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(pageURL, content)},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &ExtractionError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, err: err}
		}
		return "", &ExtractionError{Message: err.Error(), err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &ExtractionError{Message: "response contained no choices"}
	}

	output := resp.Choices[0].Message.Content
	slog.Debug("Extraction completed",
		"url", pageURL,
		"model", c.model,
		"response_length", len(output))

	return output, nil
}

func buildPrompt(pageURL, content string) string {
	return fmt.Sprintf(`Extract the syndication feed data from the following web page content.

Page URL: %s

Rules:
- Report only articles, posts or entries actually present in the content. Never invent items.
- Keep every link exactly as it appears in the content, including relative links.
- For each item pick the image that illustrates the item itself (featured or article image). Never use site logos, icons, avatars or placeholder graphics.
- Use an empty string for any field the content does not provide.

Respond with a single JSON object and nothing else, in this exact shape:
{"title": "feed title", "description": "feed description", "items": [{"title": "", "link": "", "description": "", "pubDate": "", "image": ""}]}

Page content:
%s`, pageURL, content)
}
