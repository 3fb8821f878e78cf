package blogurl

import (
	"net/url"

	"git.inkwell.blog/inkwell/inkwell/src/config"
)

const StaticPath = "/public"

var baseUrl = config.Config.BaseUrl

// Only intended for tests, which need URLs on a known host.
func SetGlobalBaseUrl(u string) {
	baseUrl = u
}

type Q struct {
	Name  string
	Value string
}

func Url(path string, query []Q) string {
	result := baseUrl + "/" + trim(path)
	if q := encodeQuery(query); q != "" {
		result += "?" + q
	}
	return result
}

func trim(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}

func encodeQuery(query []Q) string {
	result := url.Values{}
	for _, q := range query {
		result.Set(q.Name, q.Value)
	}
	return result.Encode()
}
