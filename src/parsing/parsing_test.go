package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello", StripHTML("<b>Hello</b>"))
	assert.Equal(t, "", StripHTML("<script>alert(1)</script>"))
	assert.Equal(t, "Tom & Jerry", StripHTML("Tom & Jerry"))
	assert.Equal(t, "click", StripHTML(`<a href="javascript:alert(1)">click</a>`))
	assert.Equal(t, "plain text", StripHTML("plain text"))
	assert.Equal(t, "a < b > c", StripHTML("a < b > c"))

	t.Run("encoded tags stay encoded", func(t *testing.T) {
		assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", StripHTML("&lt;b&gt;hi&lt;/b&gt;"))
		assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", StripHTML("&lt;script&gt;alert(1)&lt;/script&gt;"))
		assert.Equal(t, "Tom & &lt;b&gt;", StripHTML("Tom &amp; &lt;b&gt;"))
		assert.Equal(t, "&lt;i&gt;", StripHTML("<b>&lt;i&gt;</b>"))
	})
	t.Run("stripping twice changes nothing", func(t *testing.T) {
		for _, in := range []string{"&lt;b&gt;hi&lt;/b&gt;", "a < b", "<p>x</p>", "&amp;lt;b&amp;gt;"} {
			once := StripHTML(in)
			assert.Equal(t, once, StripHTML(once), in)
		}
	})
}

func TestRenderArticleBody(t *testing.T) {
	t.Run("allowed markup", func(t *testing.T) {
		html := string(RenderArticleBody("# Title\n\nSome **bold** and *italic* text.\n\n- one\n- two\n\n1. first"))
		t.Log(html)
		assert.Contains(t, html, "<h1>Title</h1>")
		assert.Contains(t, html, "<strong>bold</strong>")
		assert.Contains(t, html, "<em>italic</em>")
		assert.Contains(t, html, "<ul>")
		assert.Contains(t, html, "<li>one</li>")
		assert.Contains(t, html, "<ol>")
	})
	t.Run("line breaks", func(t *testing.T) {
		html := string(RenderArticleBody("first line\nsecond line"))
		assert.Contains(t, html, "<br")
	})
	t.Run("disallowed markup keeps text", func(t *testing.T) {
		html := string(RenderArticleBody("[a link](https://example.com) and `code`\n\n![img](x.png)"))
		t.Log(html)
		assert.NotContains(t, html, "<a")
		assert.NotContains(t, html, "<code")
		assert.NotContains(t, html, "<img")
		assert.Contains(t, html, "a link")
		assert.Contains(t, html, "code")
	})
	t.Run("raw html never survives", func(t *testing.T) {
		html := string(RenderArticleBody("<script>alert(1)</script>\n\n<div onclick=\"x\">hi</div>"))
		t.Log(html)
		assert.NotContains(t, html, "<script")
		assert.NotContains(t, html, "<div")
		assert.NotContains(t, html, "onclick")
	})
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "Title Some bold text.", Excerpt("# Title\n\nSome **bold** text.", 100))

	long := strings.Repeat("word ", 50)
	excerpt := Excerpt(long, 20)
	assert.True(t, strings.HasSuffix(excerpt, "…"))
	assert.LessOrEqual(t, len([]rune(excerpt)), 21)
}
