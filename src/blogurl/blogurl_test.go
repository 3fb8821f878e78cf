package blogurl

import (
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUrl(t *testing.T) {
	defer SetGlobalBaseUrl(baseUrl)
	SetGlobalBaseUrl("http://inkwell.test")

	t.Run("no query", func(t *testing.T) {
		result := Url("/test/foo", nil)
		assert.Equal(t, "http://inkwell.test/test/foo", result)
	})
	t.Run("yes query", func(t *testing.T) {
		result := Url("/test/foo", []Q{{"bar", "baz"}, {"zig??", "zig & zag!!"}})
		assert.Equal(t, "http://inkwell.test/test/foo?bar=baz&zig%3F%3F=zig+%26+zag%21%21", result)
	})
}

func TestIndexPages(t *testing.T) {
	AssertRegexMatch(t, BuildHomepage(), RegexHomepage, nil)
	AssertRegexMatch(t, BuildOldest(), RegexOldest, nil)
	AssertRegexMatch(t, BuildMostPopular(), RegexMostPopular, nil)
}

func TestArticleUrls(t *testing.T) {
	params := map[string]string{"articleid": "123"}
	AssertRegexMatch(t, BuildArticle(123), RegexArticle, copyParams(params))
	AssertRegexMatch(t, BuildLikeArticle(123), RegexLikeArticle, copyParams(params))
	AssertRegexMatch(t, BuildEditArticle(123), RegexEditArticle, copyParams(params))
	AssertRegexMatch(t, BuildDeleteArticle(123), RegexDeleteArticle, copyParams(params))
	AssertRegexMatch(t, BuildUploadPicture(123), RegexUploadPicture, copyParams(params))
	AssertRegexMatch(t, BuildArticlePicture(123), RegexArticlePicture, copyParams(params))
	AssertRegexMatch(t, BuildCreateArticle(), RegexCreateArticle, nil)
	AssertRegexMatch(t, BuildArticleWish(), RegexArticleWish, nil)
	AssertRegexMatch(t, BuildArticleWishes(), RegexArticleWishes, nil)

	assert.Nil(t, RegexArticle.FindStringSubmatch("/article/abc"))
	assert.Nil(t, RegexArticlePicture.FindStringSubmatch("/pictures/articles/1.png"))
}

func TestAccountUrls(t *testing.T) {
	AssertRegexMatch(t, BuildAccount(), RegexAccount, nil)
	AssertRegexMatch(t, BuildLogin(), RegexLogin, nil)
	AssertRegexMatch(t, BuildRegister(), RegexRegister, nil)
	AssertRegexMatch(t, BuildLogout(), RegexLogout, nil)
	AssertRegexMatch(t, BuildDashboard(), RegexDashboard, nil)
	AssertRegexMatch(t, BuildChangeEmail(), RegexChangeEmail, nil)
	AssertRegexMatch(t, BuildChangePassword(), RegexChangePassword, nil)
}

func TestAdminUrls(t *testing.T) {
	AssertRegexMatch(t, BuildAdmin(), RegexAdmin, nil)
	AssertRegexMatch(t, BuildAdminWriters(), RegexAdminWriters, nil)
	AssertRegexMatch(t, BuildAdminUsers(), RegexAdminUsers, nil)
	AssertRegexMatch(t, BuildAddWriter(), RegexAddWriter, nil)
	AssertRegexMatch(t, BuildRemoveWriter(), RegexRemoveWriter, nil)
	AssertRegexMatch(t, BuildAdminVisualName(), RegexAdminVisualName, nil)
	AssertRegexMatch(t, BuildUploadLogo(), RegexUploadLogo, nil)
	AssertRegexMatch(t, BuildLogoPicture(), RegexLogoPicture, nil)
}

func TestStaticPages(t *testing.T) {
	AssertRegexMatch(t, BuildContact(), RegexContact, nil)
	AssertRegexMatch(t, BuildDataProtection(), RegexDataProtection, nil)
	AssertRegexMatch(t, BuildSecurityInfo(), RegexSecurityInfo, nil)
}

func TestPublic(t *testing.T) {
	AssertRegexMatch(t, BuildPublic("test"), RegexPublic, nil)
	AssertRegexMatch(t, BuildPublic("/test"), RegexPublic, nil)
	AssertRegexMatch(t, BuildPublic("/test/"), RegexPublic, nil)
	AssertRegexMatch(t, BuildPublic("/test/thing/image.png"), RegexPublic, nil)
	assert.Panics(t, func() { BuildPublic("") })
	assert.Panics(t, func() { BuildPublic("/") })
	assert.Panics(t, func() { BuildPublic("/thing//image.png") })
	assert.Panics(t, func() { BuildPublic("/thing/ /image.png") })
}

func copyParams(params map[string]string) map[string]string {
	result := make(map[string]string, len(params))
	for k, v := range params {
		result[k] = v
	}
	return result
}

func AssertRegexMatch(t *testing.T, fullUrl string, regex *regexp.Regexp, paramsToVerify map[string]string) {
	t.Helper()

	parsed, err := url.Parse(fullUrl)
	ok := assert.Nilf(t, err, "Full url could not be parsed: %s", fullUrl)
	if !ok {
		return
	}

	requestPath := parsed.Path
	if len(requestPath) == 0 {
		requestPath = "/"
	}
	match := regex.FindStringSubmatch(requestPath)
	assert.NotNilf(t, match, "Url did not match regex: [%s] vs [%s]", requestPath, regex.String())

	if paramsToVerify != nil {
		subexpNames := regex.SubexpNames()
		for i, matchedValue := range match {
			paramName := subexpNames[i]
			expectedValue, ok := paramsToVerify[paramName]
			if ok {
				assert.Equalf(t, expectedValue, matchedValue, "Param mismatch for [%s]", paramName)
				delete(paramsToVerify, paramName)
			}
		}
		if len(paramsToVerify) > 0 {
			unmatchedParams := make([]string, 0, len(paramsToVerify))
			for paramName := range paramsToVerify {
				unmatchedParams = append(unmatchedParams, paramName)
			}
			assert.Fail(t, "Expected match groups not found", unmatchedParams)
		}
	}
}
