package fetch

import (
	"regexp"
	"strings"
)

// Content passed to the extraction model is capped at this many
// characters to keep prompts inside context limits.
const maxContentChars = 100000

var (
	scriptRe     = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Sanitizer prepares fetched page content for the extraction model.
// It is pure: same input, same output, no failure mode.
type Sanitizer struct{}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Run strips script and style blocks, collapses whitespace runs into
// single spaces, and truncates the result. Markup is otherwise kept:
// tags and attributes carry link and image information the extraction
// model needs.
func (s *Sanitizer) Run(content string) string {
	cleaned := scriptRe.ReplaceAllString(content, " ")
	cleaned = styleRe.ReplaceAllString(cleaned, " ")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > maxContentChars {
		cleaned = cleaned[:maxContentChars]
	}

	return cleaned
}
