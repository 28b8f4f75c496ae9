package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strings"
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`

var xmlDeclRe = regexp.MustCompile(`^<\?xml[^?]*\?>`)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run serializes a channel into an RSS 2.0 document. Descriptions are
// CDATA-wrapped so embedded HTML survives, everything else is escaped.
// Item images are emitted twice, as a plain enclosure and as
// media:content, because feed readers disagree on which one they honor.
func (g *Generator) Run(channel *Channel) string {
	var buf bytes.Buffer

	buf.WriteString(xmlDeclaration)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	description := channel.Description
	if description == "" {
		description = fmt.Sprintf("Feed generated from %s", channel.Link)
	}
	g.writeCDATAElement(&buf, "description", description, 4)
	g.writeElement(&buf, "lastBuildDate", channel.LastBuildDate, 4)

	for _, item := range channel.Items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(item.GUID)))
		xml.EscapeText(buf, []byte(stripInvalidXMLChars(item.GUID)))
		buf.WriteString("</guid>\n")
	}

	if item.Title != "" {
		g.writeElement(buf, "title", item.Title, 6)
	}

	if item.Link != "" {
		g.writeElement(buf, "link", item.Link, 6)
	}

	g.writeCDATAElement(buf, "description", cmp.Or(item.Description, item.Title), 6)

	if item.PubDate != "" {
		g.writeElement(buf, "pubDate", item.PubDate, 6)
	}

	if item.ImageURL != "" {
		// length is a placeholder: measuring every image would cost a
		// request per item and readers ignore the attribute anyway
		imageURL := html.EscapeString(stripInvalidXMLChars(item.ImageURL))
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"image/jpeg\" />\n", imageURL))
		buf.WriteString(fmt.Sprintf("      <media:content url=\"%s\" medium=\"image\" type=\"image/jpeg\" />\n", imageURL))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(stripInvalidXMLChars(content)))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// writeCDATAElement wraps content in a CDATA section. A literal "]]>"
// inside the content would terminate the section early, so it is split
// across two sections.
func (g *Generator) writeCDATAElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	cleaned := stripInvalidXMLChars(content)
	cleaned = strings.ReplaceAll(cleaned, "]]>", "]]]]><![CDATA[>")

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString("><![CDATA[")
	buf.WriteString(cleaned)
	buf.WriteString("]]></")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) isURL(s string) bool {
	return (len(s) > 7 && s[:7] == "http://") || (len(s) > 8 && s[:8] == "https://")
}

// stripInvalidXMLChars removes code points XML 1.0 does not allow in
// character data. They show up when page content carries stray control
// bytes and would make the whole document unparseable.
func stripInvalidXMLChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0x09 || r == 0x0A || r == 0x0D ||
			(r >= 0x20 && r <= 0xD7FF) ||
			(r >= 0xE000 && r <= 0xFFFD) ||
			(r >= 0x10000 && r <= 0x10FFFF) {
			return r
		}
		return -1
	}, s)
}

// NormalizeXMLDeclaration forces the document to start with a version
// 1.0 declaration. Upstream sources sometimes stamp version="2.0" on the
// XML declaration, confusing it with the RSS version, and strict parsers
// reject the whole document for it.
func NormalizeXMLDeclaration(doc string) string {
	trimmed := strings.TrimLeft(doc, " \t\r\n")

	if loc := xmlDeclRe.FindStringIndex(trimmed); loc != nil {
		return xmlDeclaration + trimmed[loc[1]:]
	}

	return xmlDeclaration + "\n" + trimmed
}
