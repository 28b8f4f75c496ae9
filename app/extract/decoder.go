package extract

import (
	"encoding/json"
	"log/slog"
	"strings"
)

const excerptLength = 120

// Decoder turns raw model output into a RawExtraction. Model output is
// JSON in the happy case but regularly arrives fenced, truncated or with
// stray bytes, so decoding walks an ordered chain of repairs, each
// applied on top of the previous one, parsing after every step.
type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

type repair struct {
	name string
	fn   func(string) string
}

var repairs = []repair{
	{"strip code fences", stripCodeFences},
	{"strip control characters", stripControlChars},
	{"escape invalid unicode sequences", escapeInvalidUnicode},
	{"close truncated structures", closeTruncated},
	{"extract object substring", extractObject},
}

// Run parses raw model output, repairing it step by step until a parse
// succeeds. When every strategy fails it returns a DecodeError carrying
// an excerpt of the original text.
func (d *Decoder) Run(raw string) (*RawExtraction, error) {
	candidate := raw

	if env, ok := tryParse(candidate); ok {
		return env.toExtraction(), nil
	}

	for _, r := range repairs {
		candidate = r.fn(candidate)
		if env, ok := tryParse(candidate); ok {
			slog.Debug("Response decoded after repair", "strategy", r.name)
			return env.toExtraction(), nil
		}
	}

	return nil, &DecodeError{Excerpt: excerpt(raw)}
}

func tryParse(s string) (*rawEnvelope, bool) {
	var env rawEnvelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, false
	}
	return &env, true
}

func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 {
			return -1
		}
		return r
	}, s)
}

// escapeInvalidUnicode rewrites \u sequences that are not followed by
// four hex digits into literal backslash-u text, which models emit when
// they cut an escape short.
func escapeInvalidUnicode(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == 'u' && !hexRunFollows(s, i+2) {
			b.WriteString(`\\u`)
			i++
			continue
		}
		b.WriteByte(s[i])
	}

	return b.String()
}

func hexRunFollows(s string, start int) bool {
	if start+4 > len(s) {
		return false
	}
	for i := start; i < start+4; i++ {
		c := s[i]
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHex {
			return false
		}
	}
	return true
}

// closeTruncated balances a JSON document cut off mid-stream: it closes
// a dangling string literal, drops a trailing comma or completes a
// trailing colon, then closes unclosed braces and brackets in stack
// order. Already-balanced input passes through unchanged.
func closeTruncated(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return s
	}

	repaired := s
	if inString {
		if escaped {
			repaired = repaired[:len(repaired)-1]
		}
		repaired += `"`
	}

	repaired = strings.TrimRight(repaired, " \t\n\r")
	if strings.HasSuffix(repaired, ",") {
		repaired = strings.TrimSuffix(repaired, ",")
	} else if strings.HasSuffix(repaired, ":") {
		repaired += "null"
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			repaired += "}"
		} else {
			repaired += "]"
		}
	}

	return repaired
}

// extractObject slices the substring between the first opening brace and
// the last closing brace, discarding prose around the object, and
// rebalances the result.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return s
	}
	return closeTruncated(s[start : end+1])
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > excerptLength {
		return s[:excerptLength] + "..."
	}
	return s
}
