/*
Package locals3 is a tiny S3 stand-in for local development. It understands
just enough of the protocol for picture uploads: creating buckets and putting,
getting and deleting objects, all stored as plain files.
*/
package locals3

import (
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/logging"
	"git.inkwell.blog/inkwell/inkwell/src/website"
	"github.com/spf13/cobra"
)

func init() {
	var addr string
	s3Command := &cobra.Command{
		Use:   "locals3 [storage folder]",
		Short: "Run a local s3 server that stores in the filesystem",
		Run: func(cmd *cobra.Command, args []string) {
			targetFolder := config.Config.DevConfig.LocalS3Dir
			if len(args) > 0 {
				targetFolder = args[0]
			}
			err := os.MkdirAll(targetFolder, fs.ModePerm)
			if err != nil {
				panic(err)
			}

			logging.Info().Str("addr", addr).Str("folder", targetFolder).Msg("serving local s3")
			err = http.ListenAndServe(addr, NewHandler(targetFolder))
			if err != nil {
				logging.Fatal().Err(err).Msg("local s3 server failed")
			}
		},
	}
	s3Command.Flags().StringVar(&addr, "addr", ":9003", "Address to listen on")

	website.WebsiteCommand.AddCommand(s3Command)
}

type server struct {
	root string
}

func NewHandler(root string) http.Handler {
	return &server{root: root}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key := bucketKey(r)
	logging.Debug().Str("method", r.Method).Str("bucket", bucket).Str("key", key).Msg("local s3 request")

	if bucket == "" {
		writeError(w, http.StatusBadRequest, "InvalidBucketName")
		return
	}
	bucketDir := filepath.Join(s.root, bucket)

	if key == "" {
		switch r.Method {
		case http.MethodPut:
			if err := os.MkdirAll(bucketDir, fs.ModePerm); err != nil {
				writeError(w, http.StatusInternalServerError, "InternalError")
				return
			}
			w.Header().Set("Location", "/"+bucket)
			w.WriteHeader(http.StatusOK)
		default:
			writeError(w, http.StatusNotImplemented, "NotImplemented")
		}
		return
	}

	if _, err := os.Stat(bucketDir); err != nil {
		writeError(w, http.StatusNotFound, "NoSuchBucket")
		return
	}
	objectPath := filepath.Join(bucketDir, key)
	metaPath := objectPath + ".content-type"

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "IncompleteBody")
			return
		}
		err = os.WriteFile(objectPath, body, 0644)
		if err == nil {
			err = os.WriteFile(metaPath, []byte(r.Header.Get("Content-Type")), 0644)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "InternalError")
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		content, err := os.ReadFile(objectPath)
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "NoSuchKey")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "InternalError")
			return
		}
		if contentType, err := os.ReadFile(metaPath); err == nil && len(contentType) > 0 {
			w.Header().Set("Content-Type", string(contentType))
		}
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(content)
		}
	case http.MethodDelete:
		os.Remove(objectPath)
		os.Remove(metaPath)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusNotImplemented, "NotImplemented")
	}
}

type errorResponse struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	xml.NewEncoder(w).Encode(errorResponse{Code: code, Message: code})
}

// Keys are flattened into one file per object, with slashes replaced by "~".
func bucketKey(r *http.Request) (string, string) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	slashIdx := strings.IndexByte(path, '/')
	if slashIdx == -1 {
		return path, ""
	}
	key := strings.ReplaceAll(path[slashIdx+1:], "/", "~")
	key = strings.ReplaceAll(key, "..", "_")
	return path[:slashIdx], key
}
