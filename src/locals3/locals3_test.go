package locals3

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketKey(t *testing.T) {
	cases := []struct {
		path, bucket, key string
	}{
		{"/pictures", "pictures", ""},
		{"/pictures/", "pictures", ""},
		{"/pictures/logo/logo.jpg", "pictures", "logo~logo.jpg"},
		{"/pictures/../etc/passwd", "pictures", "_~etc~passwd"},
	}
	for _, c := range cases {
		r := httptest.NewRequest(http.MethodGet, c.path, nil)
		bucket, key := bucketKey(r)
		assert.Equal(t, c.bucket, bucket, c.path)
		assert.Equal(t, c.key, key, c.path)
	}
}

func TestServer(t *testing.T) {
	h := NewHandler(t.TempDir())
	do := func(method, path, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(method, path, strings.NewReader(body))
		if method == http.MethodPut {
			r.Header.Set("Content-Type", "image/png")
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	res := do(http.MethodPut, "/pictures/articles/1.jpg", "data")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, res.Body.String(), "<Code>NoSuchBucket</Code>")

	assert.Equal(t, http.StatusOK, do(http.MethodPut, "/pictures", "").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodPut, "/pictures/articles/1.jpg", "data").Code)

	res = do(http.MethodGet, "/pictures/articles/1.jpg", "")
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "data", res.Body.String())
	assert.Equal(t, "image/png", res.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, "/pictures/articles/1.jpg", "").Code)
	res = do(http.MethodGet, "/pictures/articles/1.jpg", "")
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Contains(t, res.Body.String(), "<Code>NoSuchKey</Code>")
}
