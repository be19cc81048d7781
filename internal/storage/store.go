package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var ErrNotConfigured = errors.New("storage: object storage not configured")

type Object struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	URL         string `json:"url,omitempty"`
}

type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (*Object, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey builds "<prefix>/<yyyy>/<mm>/<ulid><ext>" so keys sort by time.
func NewKey(prefix, ext string, now time.Time) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(
		prefix,
		fmt.Sprintf("%04d/%02d", now.Year(), int(now.Month())),
		strings.ToLower(ulid.Make().String())+ext,
	)
}
