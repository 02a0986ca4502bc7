package markdown

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

const extensions = blackfriday.CommonExtensions |
	blackfriday.HardLineBreak |
	blackfriday.AutoHeadingIDs |
	blackfriday.Autolink

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Render converts post markdown into sanitized HTML.
func Render(src string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.UseXHTML,
	})
	unsafe := blackfriday.Run([]byte(src), blackfriday.WithExtensions(extensions), blackfriday.WithRenderer(renderer))
	return string(ugc.SanitizeBytes(unsafe))
}

// Excerpt renders src, strips every tag and truncates the text to max runes.
func Excerpt(src string, max int) string {
	text := strict.Sanitize(Render(src))
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return strings.TrimSpace(string(runes[:max])) + "…"
	}
	return text
}
