// Package ingestion converts raw message bodies into normalized plain text
// suitable for extraction: markup stripping, noise removal and a size
// ceiling chosen to stay under the enhancer's input limit.
package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	blankLinesRe   = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	trailingWSRe   = regexp.MustCompile(`[ \t]+\n`)
	looksLikeHTML  = regexp.MustCompile(`(?i)<\s*(html|body|div|p|br|table|span|a)\b`)
	blockSelectors = "p, div, li, tr, h1, h2, h3, h4, h5, h6, ul, ol, table"
)

// HTMLToText converts an HTML email body to plain text, preserving the line
// breaks that demarcate logical fields. Plain-text input passes through with
// only whitespace normalization. Conversion is best-effort: on parse failure
// the raw input is returned.
func HTMLToText(raw string) string {
	if raw == "" {
		return ""
	}
	if !looksLikeHTML.MatchString(raw) {
		return normalizeWhitespace(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return normalizeWhitespace(raw)
	}

	doc.Find("script, style, head, meta, link").Remove()

	// Keep link targets: registration URLs usually hide behind anchor text.
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		switch {
		case href == "" || strings.HasPrefix(href, "mailto:"):
			// leave as-is
		case text != "" && text != href:
			s.SetText(fmt.Sprintf("%s (%s)", text, href))
		default:
			s.SetText(href)
		}
	})

	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return normalizeWhitespace(doc.Text())
}

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	text = trailingWSRe.ReplaceAllString(text, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
