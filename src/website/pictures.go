package website

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"git.inkwell.blog/inkwell/inkwell/src/assets"
	"git.inkwell.blog/inkwell/inkwell/src/blogurl"
	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/templates"
)

func LogoPicture(c *RequestContext) ResponseData {
	return servePicture(c, assets.PictureLogo, 0)
}

func ArticlePicture(c *RequestContext) ResponseData {
	articleID, ok := c.IntParam("articleid")
	if !ok {
		return FourOhFour(c)
	}
	return servePicture(c, assets.PictureArticle, articleID)
}

func servePicture(c *RequestContext, kind assets.PictureKind, articleID int) ResponseData {
	picture, err := assets.FetchPicture(c, kind, articleID)
	if errors.Is(err, assets.ErrNoPicture) {
		return FourOhFour(c)
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	}
	defer picture.Body.Close()

	var res ResponseData
	res.Header().Set("Content-Type", picture.ContentType)
	res.Header().Set("Cache-Control", "no-cache")
	if _, err := io.Copy(&res, picture.Body); err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, oops.New(err, "failed to read picture"))
	}
	return res
}

type UploadPictureTemplateData struct {
	templates.BaseData
	Errors            []string
	CurrentPictureUrl string
	SubmitUrl         string
	FieldName         string
	BackUrl           string
}

func UploadArticlePicture(c *RequestContext) ResponseData {
	return renderArticlePictureForm(c, nil)
}

func renderArticlePictureForm(c *RequestContext, errs []string) ResponseData {
	var res ResponseData
	res.MustWriteTemplate("upload_picture.html", UploadPictureTemplateData{
		BaseData:          getBaseData(c, "Picture for "+c.CurrentArticle.Title),
		Errors:            errs,
		CurrentPictureUrl: blogurl.BuildArticlePicture(c.CurrentArticle.ID),
		SubmitUrl:         blogurl.BuildUploadPicture(c.CurrentArticle.ID),
		FieldName:         "picture",
		BackUrl:           blogurl.BuildArticle(c.CurrentArticle.ID),
	}, c.Perf)
	return res
}

func UploadArticlePictureSubmit(c *RequestContext) ResponseData {
	content, problem, err := readPictureUpload(c, "picture")
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	} else if problem != "" {
		return renderArticlePictureForm(c, []string{problem})
	}

	err = assets.UploadPicture(c, assets.PictureArticle, c.CurrentArticle.ID, content)
	if errors.Is(err, assets.ErrInvalidPicture) {
		return renderArticlePictureForm(c, []string{"That file is not a picture we can show."})
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, NewSafeError(err, "Your picture could not be stored. Please try again later."))
	}

	res := c.Redirect(blogurl.BuildArticle(c.CurrentArticle.ID), http.StatusSeeOther)
	res.AddFutureNotice("success", "Picture uploaded.")
	return res
}

func UploadLogo(c *RequestContext) ResponseData {
	return renderLogoForm(c, nil)
}

func renderLogoForm(c *RequestContext, errs []string) ResponseData {
	var res ResponseData
	res.MustWriteTemplate("upload_picture.html", UploadPictureTemplateData{
		BaseData:          getBaseData(c, "Site logo"),
		Errors:            errs,
		CurrentPictureUrl: blogurl.BuildLogoPicture(),
		SubmitUrl:         blogurl.BuildUploadLogo(),
		FieldName:         "logo",
		BackUrl:           blogurl.BuildAdmin(),
	}, c.Perf)
	return res
}

func UploadLogoSubmit(c *RequestContext) ResponseData {
	content, problem, err := readPictureUpload(c, "logo")
	if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, err)
	} else if problem != "" {
		return renderLogoForm(c, []string{problem})
	}

	err = assets.UploadPicture(c, assets.PictureLogo, 0, content)
	if errors.Is(err, assets.ErrInvalidPicture) {
		return renderLogoForm(c, []string{"That file is not a picture we can show."})
	} else if err != nil {
		return c.ErrorResponse(http.StatusInternalServerError, NewSafeError(err, "The logo could not be stored. Please try again later."))
	}

	res := c.Redirect(blogurl.BuildAdmin(), http.StatusSeeOther)
	res.AddFutureNotice("success", "Logo updated.")
	return res
}

// Reads a single uploaded file. problem is a message for the user when the
// upload is missing or too large; err is for everything else.
func readPictureUpload(c *RequestContext, field string) (content []byte, problem string, err error) {
	maxBytes := config.Config.Pictures.MaxUploadBytes
	c.Req.Body = http.MaxBytesReader(c.Res, c.Req.Body, maxBytes+1024*1024)

	if err := c.Req.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "Pictures may be at most " + strconv.FormatInt(maxBytes/1024/1024, 10) + " MB.", nil
		}
		return nil, "Please choose a picture to upload.", nil
	}

	file, header, err := c.Req.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "Please choose a picture to upload.", nil
	} else if err != nil {
		return nil, "", oops.New(err, "failed to read uploaded file")
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, "Pictures may be at most " + strconv.FormatInt(maxBytes/1024/1024, 10) + " MB.", nil
	}

	content, err = io.ReadAll(file)
	if err != nil {
		return nil, "", oops.New(err, "failed to read uploaded file")
	}
	return content, "", nil
}
