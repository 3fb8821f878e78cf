package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	_ "golang.org/x/image/webp"
)

// The subset of the S3 client used for pictures.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

var client ObjectStore

func init() {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				config.Config.Pictures.Key,
				config.Config.Pictures.Secret,
				"",
			),
		),
		awsconfig.WithRegion(config.Config.Pictures.Region),
		awsconfig.WithEndpointResolver(aws.EndpointResolverFunc(func(service, region string) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL: config.Config.Pictures.Endpoint,
			}, nil
		})),
	)
	if err != nil {
		panic(err)
	}
	client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

// Swaps the object store, returning a function that restores the old one.
// Only intended for tests.
func SetObjectStore(store ObjectStore) (restore func()) {
	old := client
	client = store
	return func() { client = old }
}

type PictureKind int

const (
	PictureLogo PictureKind = iota + 1
	PictureArticle
)

var (
	ErrInvalidPicture = errors.New("not a supported image")
	ErrNoPicture      = errors.New("no such picture")
)

/*
Returns the storage key for a picture. The site logo always lives at
logo/logo.jpg; article pictures are named after their article, so an
article id is required for PictureArticle and ignored otherwise.
*/
func PictureKey(kind PictureKind, articleID int) string {
	switch kind {
	case PictureLogo:
		return "logo/logo.jpg"
	case PictureArticle:
		if articleID <= 0 {
			panic(oops.New(nil, "article pictures need an article id, got %d", articleID))
		}
		return fmt.Sprintf("articles/%d.jpg", articleID)
	default:
		panic(oops.New(nil, "unknown picture kind %d", kind))
	}
}

// Checks that content is an image in a format browsers can show, and returns
// its MIME type.
func DetectPictureType(content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrInvalidPicture
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return "", ErrInvalidPicture
	}
	return "image/" + format, nil
}

/*
Stores a picture, replacing any previous picture with the same key. Returns
ErrInvalidPicture if the content is not an image. The bucket is created on
first use.
*/
func UploadPicture(ctx context.Context, kind PictureKind, articleID int, content []byte) error {
	contentType, err := DetectPictureType(content)
	if err != nil {
		return err
	}
	key := PictureKey(kind, articleID)

	upload := func() error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &config.Config.Pictures.Bucket,
			Key:         &key,
			Body:        bytes.NewReader(content),
			ACL:         types.ObjectCannedACLPublicRead,
			ContentType: &contentType,
		})
		return err
	}

	err = upload()
	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) && apiError.ErrorCode() == "NoSuchBucket" {
			_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
				Bucket: &config.Config.Pictures.Bucket,
			})
			if err != nil {
				return oops.New(err, "failed to create pictures bucket")
			}

			err = upload()
			if err != nil {
				return oops.New(err, "failed to upload picture")
			}
		} else {
			return oops.New(err, "failed to upload picture")
		}
	}

	logging.ExtractLogger(ctx).Info().Str("key", key).Int("bytes", len(content)).Msg("stored picture")
	return nil
}

type Picture struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// The caller must close the picture's Body. Returns ErrNoPicture if nothing
// has been uploaded under the key.
func FetchPicture(ctx context.Context, kind PictureKind, articleID int) (*Picture, error) {
	key := PictureKey(kind, articleID)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &config.Config.Pictures.Bucket,
		Key:    &key,
	})
	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) {
			switch apiError.ErrorCode() {
			case "NoSuchKey", "NoSuchBucket", "NotFound":
				return nil, ErrNoPicture
			}
		}
		return nil, oops.New(err, "failed to fetch picture %s", key)
	}

	contentType := "image/jpeg"
	if out.ContentType != nil && *out.ContentType != "" {
		contentType = *out.ContentType
	}
	return &Picture{
		Body:        out.Body,
		ContentType: contentType,
		Size:        out.ContentLength,
	}, nil
}

// Removing a picture that was never uploaded is not an error.
func DeleteArticlePicture(ctx context.Context, articleID int) error {
	key := PictureKey(PictureArticle, articleID)
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &config.Config.Pictures.Bucket,
		Key:    &key,
	})
	if err != nil {
		var apiError smithy.APIError
		if errors.As(err, &apiError) && (apiError.ErrorCode() == "NoSuchKey" || apiError.ErrorCode() == "NoSuchBucket") {
			return nil
		}
		return oops.New(err, "failed to delete picture %s", key)
	}
	return nil
}
