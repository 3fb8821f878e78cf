package templates

import (
	"html/template"
	"time"
)

type BaseData struct {
	Title      string
	CurrentUrl string
	Notices    []Notice

	SiteName string
	LogoUrl  string

	User     *User
	CanWrite bool

	Header Header
	Footer Footer
}

func (bd *BaseData) AddImmediateNotice(class, content string) {
	bd.Notices = append(bd.Notices, Notice{
		Class:   class,
		Content: template.HTML(template.HTMLEscapeString(content)),
	})
}

type Header struct {
	HomepageUrl    string
	OldestUrl      string
	MostPopularUrl string

	CreateArticleUrl string
	ArticleWishUrl   string
	ArticleWishesUrl string

	AccountUrl   string
	DashboardUrl string
	AdminUrl     string
	LogoutUrl    string
}

type Footer struct {
	ContactUrl        string
	DataProtectionUrl string
	SecurityInfoUrl   string
}

type Notice struct {
	Content template.HTML
	Class   string
}

type User struct {
	ID         int
	Username   string
	Email      string
	IsAdmin    bool
	DateJoined time.Time
}

type Article struct {
	ID        int
	Title     string
	Excerpt   string
	Body      template.HTML
	Likes     int
	CreatedAt time.Time

	Author     User
	AuthorName string // the admin's visual name when the admin wrote it

	Url              string
	PictureUrl       string
	LikeUrl          string
	EditUrl          string
	DeleteUrl        string
	UploadPictureUrl string

	CanEdit bool
	Liked   bool
}

type Writer struct {
	Username  string
	DateAdded time.Time
}

type Wish struct {
	Wish      string
	Email     string
	HasEmail  bool
	CreatedAt time.Time
}

// The contents of a submitted form, plus anything wrong with it.
type Form struct {
	Values map[string]string
	Errors []string
}

func (f Form) Get(name string) string {
	return f.Values[name]
}
