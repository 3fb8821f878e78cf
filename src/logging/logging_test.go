package logging

import (
	"bytes"
	"context"
	"testing"

	color "git.inkwell.blog/inkwell/inkwell/src/ansicolor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPrettyWriter(t *testing.T) {
	color.Disable()

	var buf bytes.Buffer
	w := &PrettyZerologWriter{out: &buf, wd: "/srv/inkwell"}

	logger := zerolog.New(w)
	logger.Info().Str("article", "Hello").Msg("created article")

	out := buf.String()
	assert.Contains(t, out, "INFO: created article")
	assert.Contains(t, out, "Fields:")
	assert.Contains(t, out, `article: "Hello"`)

	t.Run("request id is shortened", func(t *testing.T) {
		buf.Reset()
		logger.Info().Str(RequestIDFieldName, "3f2a9c1e-0000-4000-8000-000000000000").Msg("viewed article")
		assert.Contains(t, buf.String(), "INFO: viewed article [3f2a9c1e]")
		assert.NotContains(t, buf.String(), "Fields:")
	})
	t.Run("fields and stack", func(t *testing.T) {
		buf.Reset()
		_, err := w.Write([]byte(`{"level":"error","message":"failed","likes":3,"tags":["a"],"stack":[{"file":"/srv/inkwell/src/blogdata/likes.go","function":"git.inkwell.blog/inkwell/inkwell/src/blogdata.LikeArticle","line":42}]}`))
		assert.Nil(t, err)
		out := buf.String()
		assert.Contains(t, out, "likes: 3\n")
		assert.Contains(t, out, "tags: [")
		assert.Contains(t, out, "src/blogdata.LikeArticle (./src/blogdata/likes.go:42)")
	})
	t.Run("non-json input passes through", func(t *testing.T) {
		buf.Reset()
		n, err := w.Write([]byte("plain text"))
		assert.Nil(t, err)
		assert.Equal(t, len("plain text"), n)
		assert.Equal(t, "plain text", buf.String())
	})
}

func TestContextLogger(t *testing.T) {
	assert.Equal(t, GlobalLogger(), ExtractLogger(context.Background()))

	logger := zerolog.Nop()
	ctx := AttachLoggerToContext(&logger, context.Background())
	assert.Equal(t, &logger, ExtractLogger(ctx))
}
