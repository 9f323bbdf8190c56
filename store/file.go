package store

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type File struct {
	Name        string
	MediaType   string
	ContentSize int
	io.Reader
}

func (f File) ContentType() string {
	if f.MediaType == "" {
		return "application/octet-stream"
	}
	return f.MediaType
}

func (f File) Len() int {
	return f.ContentSize
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

const (
	ThumbnailPrefix = "thumbnails/"
	ImagePrefix     = "emoticons/"
)

func ThumbnailKey(packId string) string {
	return ThumbnailPrefix + packId + "_thumbnail"
}

func ImageKey(packId string, index int) string {
	return fmt.Sprintf("%s%s_%d", ImagePrefix, packId, index)
}

// PackIdFromKey extracts the pack id from a thumbnail or image key.
func PackIdFromKey(key string) (packId string, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(key, ThumbnailPrefix):
		rest = strings.TrimPrefix(key, ThumbnailPrefix)
	case strings.HasPrefix(key, ImagePrefix):
		rest = strings.TrimPrefix(key, ImagePrefix)
	default:
		return "", false
	}
	idx := strings.LastIndexByte(rest, '_')
	if idx <= 0 {
		return "", false
	}
	return rest[:idx], true
}
