package website

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"git.inkwell.blog/inkwell/inkwell/src/assets"
	"git.inkwell.blog/inkwell/inkwell/src/auth"
	"git.inkwell.blog/inkwell/inkwell/src/blogdata"
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/testdb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPictures struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (m *memPictures) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	content, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = content
	m.types[*in.Key] = *in.ContentType
	return &s3.PutObjectOutput{}, nil
}

func (m *memPictures) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.objects[*in.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey"}
	}
	contentType := m.types[*in.Key]
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(content)),
		ContentType:   &contentType,
		ContentLength: int64(len(content)),
	}, nil
}

func (m *memPictures) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memPictures) CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	return &s3.CreateBucketOutput{}, nil
}

// A client with its own cookies that does not follow redirects.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, base string) *browser {
	jar, err := cookiejar.New(nil)
	require.Nil(t, err)
	return &browser{
		t:    t,
		base: base,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type page struct {
	Status   int
	Location string
	Body     string
	Header   http.Header
}

func (b *browser) do(req *http.Request) page {
	b.t.Helper()
	res, err := b.client.Do(req)
	require.Nil(b.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.Nil(b.t, err)
	return page{
		Status:   res.StatusCode,
		Location: res.Header.Get("Location"),
		Body:     string(body),
		Header:   res.Header,
	}
}

func (b *browser) get(path string) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.Nil(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) page {
	b.t.Helper()
	res, err := b.client.PostForm(b.base+path, form)
	require.Nil(b.t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.Nil(b.t, err)
	return page{
		Status:   res.StatusCode,
		Location: res.Header.Get("Location"),
		Body:     string(body),
		Header:   res.Header,
	}
}

func (b *browser) upload(path, field string, content []byte) page {
	b.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "picture.png")
	require.Nil(b.t, err)
	_, err = part.Write(content)
	require.Nil(b.t, err)
	require.Nil(b.t, w.Close())

	req, err := http.NewRequest(http.MethodPost, b.base+path, &body)
	require.Nil(b.t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return b.do(req)
}

func (b *browser) register(username, email, password string) page {
	b.t.Helper()
	return b.post("/register", url.Values{
		"email":    {email},
		"username": {username},
		"password": {password},
	})
}

func assertRedirectTo(t *testing.T, p page, path string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, p.Status)
	assert.Regexp(t, regexp.QuoteMeta(path)+"$", p.Location)
}

var reArticleID = regexp.MustCompile(`/upload-picture/(\d+)$`)

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	conn := testdb.Pool(t)

	pictures := &memPictures{objects: map[string][]byte{}, types: map[string]string{}}
	defer assets.SetObjectStore(pictures)()

	srv := httptest.NewServer(NewWebsiteRoutes(conn, nil))
	defer srv.Close()
	blogurl.SetGlobalBaseUrl(srv.URL)
	defer blogurl.SetGlobalBaseUrl(config.Config.BaseUrl)

	admin := newBrowser(t, srv.URL)
	alice := newBrowser(t, srv.URL)
	bob := newBrowser(t, srv.URL)

	assertRedirectTo(t, admin.register("admin", "admin@x.com", "adminpw"), "/admin")
	assertRedirectTo(t, bob.register("bob", "b@x.com", "secret2"), "/dashboard")

	var articleID int

	t.Run("registration logs in", func(t *testing.T) {
		p := alice.register("alice", "a@x.com", "secret1")
		assertRedirectTo(t, p, "/dashboard")

		var sessionCookie *http.Cookie
		for _, cookie := range (&http.Response{Header: p.Header}).Cookies() {
			if cookie.Name == auth.SessionCookieName {
				sessionCookie = cookie
			}
		}
		if assert.NotNil(t, sessionCookie) {
			assert.True(t, sessionCookie.HttpOnly)
			assert.Equal(t, http.SameSiteStrictMode, sessionCookie.SameSite)
			assert.Equal(t, 86400, sessionCookie.MaxAge)
		}

		assert.Equal(t, http.StatusOK, alice.get("/dashboard").Status)
	})
	t.Run("duplicate username", func(t *testing.T) {
		p := newBrowser(t, srv.URL).register("ALICE", "other@x.com", "secret1")
		assert.Equal(t, http.StatusOK, p.Status)
		assert.Contains(t, p.Body, "already taken")

		users, err := blogdata.FetchUsers(ctx, conn)
		require.Nil(t, err)
		assert.Len(t, users, 3)
	})
	t.Run("invalid registration re-renders the form", func(t *testing.T) {
		p := newBrowser(t, srv.URL).register("x", "", "1")
		assert.Equal(t, http.StatusOK, p.Status)
		assert.Contains(t, p.Body, "Email must not be empty.")
		assert.Contains(t, p.Body, "Username must be 3 to 20 letters or digits.")
	})
	t.Run("non-writers cannot write", func(t *testing.T) {
		assertRedirectTo(t, alice.get("/create-article"), "/")
		assertRedirectTo(t, alice.post("/create-article", url.Values{"title": {"Hello"}, "body": {"World"}}), "/")
	})
	t.Run("only the admin manages writers", func(t *testing.T) {
		assertRedirectTo(t, alice.post("/add-writer", url.Values{"username": {"alice"}}), "/")
		assertRedirectTo(t, admin.post("/add-writer", url.Values{"username": {"alice"}}), "/admin")

		isWriter, err := blogdata.IsWriter(ctx, conn, "alice")
		require.Nil(t, err)
		assert.True(t, isWriter)

		p := admin.post("/add-writer", url.Values{"username": {"nobody"}})
		assert.Equal(t, http.StatusOK, p.Status)
		assert.Contains(t, p.Body, "There is no writer or user called nobody.")
	})
	t.Run("writer creates article", func(t *testing.T) {
		p := alice.post("/create-article", url.Values{"title": {"Hello"}, "body": {"World"}})
		require.Equal(t, http.StatusSeeOther, p.Status)
		match := reArticleID.FindStringSubmatch(p.Location)
		require.NotNil(t, match, "unexpected redirect %s", p.Location)
		articleID, _ = strconv.Atoi(match[1])

		index := alice.get("/")
		assert.Equal(t, http.StatusOK, index.Status)
		assert.Contains(t, index.Body, "Hello")
		assert.Contains(t, index.Body, "Article published.")
	})
	t.Run("invalid article re-renders the form", func(t *testing.T) {
		p := alice.post("/create-article", url.Values{"title": {"<b></b>"}, "body": {""}})
		assert.Equal(t, http.StatusOK, p.Status)
		assert.Contains(t, p.Body, "Title must not be empty.")
	})
	t.Run("author edits article", func(t *testing.T) {
		articlePath := "/article/" + strconv.Itoa(articleID)
		p := alice.post("/edit-article/"+strconv.Itoa(articleID), url.Values{"title": {"Hello2"}, "body": {"World"}})
		assertRedirectTo(t, p, articlePath)

		view := bob.get(articlePath)
		assert.Equal(t, http.StatusOK, view.Status)
		assert.Contains(t, view.Body, "Hello2")
		assert.NotContains(t, view.Body, "Delete")
	})
	t.Run("other writers cannot edit or delete", func(t *testing.T) {
		assertRedirectTo(t, admin.post("/add-writer", url.Values{"username": {"bob"}}), "/admin")

		id := strconv.Itoa(articleID)
		assertRedirectTo(t, bob.get("/edit-article/"+id), "/")
		assertRedirectTo(t, bob.post("/edit-article/"+id, url.Values{"title": {"Mine"}, "body": {"Now"}}), "/")
		assertRedirectTo(t, bob.post("/delete-article/"+id, nil), "/")

		article, err := blogdata.FetchArticle(ctx, conn, articleID)
		require.Nil(t, err)
		assert.Equal(t, "Hello2", article.Article.Title)
	})
	t.Run("likes toggle", func(t *testing.T) {
		likePath := "/like-article/" + strconv.Itoa(articleID)

		assertRedirectTo(t, newBrowser(t, srv.URL).post(likePath, nil), "/account")

		assertRedirectTo(t, bob.post(likePath, nil), "/article/"+strconv.Itoa(articleID))
		article, err := blogdata.FetchArticle(ctx, conn, articleID)
		require.Nil(t, err)
		assert.Equal(t, 1, article.Article.Likes)

		bob.post(likePath, nil)
		article, err = blogdata.FetchArticle(ctx, conn, articleID)
		require.Nil(t, err)
		assert.Equal(t, 0, article.Article.Likes)

		assertRedirectTo(t, bob.post("/like-article/999999", nil), "/")
	})
	t.Run("article picture", func(t *testing.T) {
		var img bytes.Buffer
		require.Nil(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 2, 2))))

		id := strconv.Itoa(articleID)
		assertRedirectTo(t, bob.upload("/upload-picture/"+id, "picture", img.Bytes()), "/")

		p := alice.upload("/upload-picture/"+id, "picture", []byte("not a picture"))
		assert.Equal(t, http.StatusOK, p.Status)
		assert.Contains(t, p.Body, "not a picture we can show")

		assertRedirectTo(t, alice.upload("/upload-picture/"+id, "picture", img.Bytes()), "/article/"+id)

		picture := bob.get("/pictures/articles/" + id + ".jpg")
		assert.Equal(t, http.StatusOK, picture.Status)
		assert.Equal(t, "image/png", picture.Header.Get("Content-Type"))
		assert.Equal(t, img.String(), picture.Body)

		assert.Equal(t, http.StatusNotFound, bob.get("/pictures/logo/logo.jpg").Status)
	})
	t.Run("admin visual name", func(t *testing.T) {
		dashboard := admin.get("/admin").Body
		assert.Contains(t, dashboard, "Pick a public name below.")
		assert.NotContains(t, dashboard, "Request timings")

		assertRedirectTo(t, bob.post("/admin-visual-name", url.Values{"name": {"Bob"}}), "/")
		assertRedirectTo(t, admin.post("/admin-visual-name", url.Values{"name": {"The Editor"}}), "/admin")
		assert.NotContains(t, admin.get("/admin").Body, "Pick a public name below.")

		contact := bob.get("/contact")
		assert.Contains(t, contact.Body, "The Editor")
		assert.Contains(t, contact.Body, "admin@x.com")
	})
	t.Run("index pages", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, bob.get("/oldest?page=1").Status)
		assertRedirectTo(t, bob.get("/oldest?page=2"), "/oldest")
		assertRedirectTo(t, bob.get("/?page=nope"), "/")
	})
	t.Run("wishes", func(t *testing.T) {
		anon := newBrowser(t, srv.URL)
		assertRedirectTo(t, anon.post("/article-wish", url.Values{"wish": {"More about Go"}}), "/")

		assertRedirectTo(t, anon.get("/article-wishes"), "/account")
		wishes := alice.get("/article-wishes")
		assert.Equal(t, http.StatusOK, wishes.Status)
		assert.Contains(t, wishes.Body, "More about Go")
	})
	t.Run("author deletes article", func(t *testing.T) {
		id := strconv.Itoa(articleID)
		assertRedirectTo(t, alice.post("/delete-article/"+id, nil), "/")

		assertRedirectTo(t, bob.get("/article/"+id), "/")
		_, hasPicture := pictures.objects["articles/"+id+".jpg"]
		assert.False(t, hasPicture)
	})
	t.Run("bad session is anonymous", func(t *testing.T) {
		anon := newBrowser(t, srv.URL)
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/dashboard", nil)
		require.Nil(t, err)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "not.a.token"})
		assertRedirectTo(t, anon.do(req), "/account")
	})
	t.Run("logout", func(t *testing.T) {
		assertRedirectTo(t, alice.get("/logout"), "/account")
		assertRedirectTo(t, alice.get("/dashboard"), "/account")

		failed := alice.post("/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusOK, failed.Status)
		assert.Contains(t, failed.Body, "Incorrect username or password.")

		assertRedirectTo(t, alice.post("/login", url.Values{"username": {"Alice"}, "password": {"secret1"}}), "/dashboard")
		assert.Equal(t, http.StatusOK, alice.get("/dashboard").Status)
	})
	t.Run("static files and 404", func(t *testing.T) {
		css := bob.get("/public/style.css")
		assert.Equal(t, http.StatusOK, css.Status)
		assert.Contains(t, css.Body, "body")

		assert.Equal(t, http.StatusNotFound, bob.get("/no/such/page").Status)
	})
}
