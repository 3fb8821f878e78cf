package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"sort"
	"strings"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/utils"
	"github.com/Masterminds/sprig"
)

const (
	Dayish   = time.Hour * 24
	Weekish  = Dayish * 7
	Monthish = Dayish * 30
	Yearish  = Dayish * 365
)

//go:embed src
var embeddedTemplateFs embed.FS
var embeddedTemplates map[string]*template.Template

//go:embed public
var embeddedPublicFs embed.FS

func getTemplatesFromFS(templateFS fs.ReadDirFS) (map[string]*template.Template, map[string]error) {
	templates := make(map[string]*template.Template)
	errs := make(map[string]error)

	files := utils.Must1(templateFS.ReadDir("src"))
	for _, f := range files {
		if !strings.HasSuffix(f.Name(), ".html") {
			continue
		}

		t := template.New(f.Name())
		t = t.Funcs(sprig.FuncMap())
		t = t.Funcs(InkwellTemplateFuncs)
		t, err := t.ParseFS(templateFS,
			"src/layouts/*",
			"src/include/*",
			"src/"+f.Name(),
		)
		if err != nil {
			errs[f.Name()] = err
			continue
		}

		templates[f.Name()] = t
	}

	return templates, errs
}

func Init() {
	var errs map[string]error
	type errEntry struct {
		name string
		err  error
	}

	embeddedTemplates, errs = getTemplatesFromFS(embeddedTemplateFs)
	if len(errs) > 0 {
		var errsList []errEntry
		for filename, err := range errs {
			errsList = append(errsList, errEntry{filename, err})
		}
		sort.Slice(errsList, func(i, j int) bool {
			return strings.Compare(errsList[i].name, errsList[j].name) < 0
		})
		for _, err := range errsList {
			logging.Error().Str("filename", err.name).Err(err.err).Msg("Failed to parse template")
		}
		panic("Failed to parse templates; see above")
	}
}

func GetTemplate(name string) *template.Template {
	var templates map[string]*template.Template
	if config.Config.DevConfig.LiveTemplates {
		var errs map[string]error
		templates, errs = getTemplatesFromFS(utils.DirFS("src/templates").(fs.ReadDirFS))
		if errs[name] != nil {
			panic(oops.New(errs[name], "Error in template %s", name))
		}
	} else {
		if embeddedTemplates == nil {
			Init()
		}
		templates = embeddedTemplates
	}

	template, hasTemplate := templates[name]
	if !hasTemplate {
		panic(oops.New(nil, "Template not found: %s", name))
	}
	return template
}

// Static files served under /public. Read from disk when live templates are on.
func PublicFS() fs.FS {
	if config.Config.DevConfig.LiveTemplates {
		return utils.DirFS("src/templates/public")
	}
	return utils.Must1(fs.Sub(embeddedPublicFs, "public"))
}

var InkwellTemplateFuncs = template.FuncMap{
	"absolutedate": func(t time.Time) string {
		return t.UTC().Format("January 2, 2006, 3:04pm")
	},
	"absoluteshortdate": func(t time.Time) string {
		return t.UTC().Format("January 2, 2006")
	},
	"rfc3339": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
	"relativedate": RelativeDate,
	"static": func(filepath string) string {
		return blogurl.BuildPublic(filepath)
	},
	"timehtml": func(formatted string, t time.Time) template.HTML {
		iso := t.UTC().Format(time.RFC3339)
		return template.HTML(fmt.Sprintf(`<time datetime="%s">%s</time>`, iso, template.HTMLEscapeString(formatted)))
	},
	"pluralize": func(n int, singular, plural string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, singular)
		}
		return fmt.Sprintf("%d %s", n, plural)
	},
}

// Months and years are approximate.
func RelativeDate(t time.Time) string {
	str := func(primary int, primaryName string, secondary int, secondaryName string) string {
		result := fmt.Sprintf("%d %s", primary, primaryName)
		if primary != 1 {
			result += "s"
		}
		if secondary > 0 {
			result += fmt.Sprintf(", %d %s", secondary, secondaryName)

			if secondary != 1 {
				result += "s"
			}
		}

		return result + " ago"
	}

	delta := time.Since(t)

	if delta < time.Minute {
		return "Less than a minute ago"
	} else if delta < time.Hour {
		return str(int(delta.Minutes()), "minute", 0, "")
	} else if delta < Dayish {
		return str(int(delta/time.Hour), "hour", int((delta%time.Hour)/time.Minute), "minute")
	} else if delta < Weekish {
		return str(int(delta/Dayish), "day", int((delta%Dayish)/time.Hour), "hour")
	} else if delta < Monthish {
		return str(int(delta/Weekish), "week", int((delta%Weekish)/Dayish), "day")
	} else if delta < Yearish {
		return str(int(delta/Monthish), "month", int((delta%Monthish)/Weekish), "week")
	} else {
		return str(int(delta/Yearish), "year", int((delta%Yearish)/Monthish), "month")
	}
}
