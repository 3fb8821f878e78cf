package parsing

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Used for generating the final HTML of an article body.
var ArticleMarkdown = goldmark.New(
	goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
)

// Used for generating plain-text excerpts on the index pages.
var PlaintextMarkdown = goldmark.New(
	goldmark.WithRenderer(plaintextRenderer{}),
)

// Tags an article body may contain once rendered. Everything else is dropped,
// keeping its text.
var AllowedArticleTags = []string{
	"p", "br", "ul", "li", "ol", "strong", "b", "i", "em",
	"h1", "h2", "h3", "h4", "h5", "h6",
}

var articlePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedArticleTags...)
	return p
}()

var stripPolicy = bluemonday.StrictPolicy()

var angleBrackets = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Removes every HTML tag from user input, leaving plain text. Entities are
// decoded so the text is stored the way the user typed it; templates escape
// it again on output. If decoding would produce markup (the user typed
// "&lt;b&gt;"), the angle brackets stay encoded so the result never contains
// a tag.
func StripHTML(s string) string {
	stripped := stripPolicy.Sanitize(s)
	text := html.UnescapeString(stripped)
	if stripPolicy.Sanitize(text) != stripped {
		text = angleBrackets.Replace(text)
	}
	return text
}

// Renders a stored article body from markdown to sanitized HTML.
func RenderArticleBody(body string) template.HTML {
	var buf bytes.Buffer
	if err := ArticleMarkdown.Convert([]byte(body), &buf); err != nil {
		panic(err)
	}

	return template.HTML(articlePolicy.SanitizeBytes(buf.Bytes()))
}

// Returns at most maxRunes characters of the body's text, without markup.
func Excerpt(body string, maxRunes int) string {
	var buf bytes.Buffer
	if err := PlaintextMarkdown.Convert([]byte(body), &buf); err != nil {
		panic(err)
	}

	text := strings.Join(strings.Fields(buf.String()), " ")
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
