// Package uploads stores user-supplied files such as package images.
package uploads

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/uploads/"

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("upload not found")

// ErrInvalidName is returned for names that could escape the upload root.
var ErrInvalidName = errors.New("invalid upload name")

// Store persists uploaded files.
type Store interface {
	// Save writes r under name and returns the public URL of the file.
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	// Open returns the content of a previously saved file.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// FileName derives the stored name for an uploaded file. The result is
// prefixed with the upload time in unix milliseconds so that repeated
// uploads of the same file do not collide.
func FileName(original string, now time.Time) string {
	// Browsers on some platforms send the full client path.
	if i := strings.LastIndexAny(original, `/\`); i >= 0 {
		original = original[i+1:]
	}
	if original == "" {
		original = "file"
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + unsafeChars.ReplaceAllString(original, "_")
}

// URL returns the public URL for a stored name.
func URL(name string) string {
	return URLPrefix + name
}

// validName rejects anything that is not a single path element.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
