// Package storage keeps uploaded images on local disk and hands out the
// public URLs they are served from.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	// DefaultMaxBytes is the upload limit applied when none is configured.
	DefaultMaxBytes = 5 << 20

	// URLPrefix is the path the upload directory is mounted on.
	URLPrefix = "/uploads/"
)

var (
	ErrEmpty    = errors.New("file is empty")
	ErrTooLarge = errors.New("file exceeds the upload limit")
	ErrNotImage = errors.New("only image uploads are accepted")
)

// Object is a stored upload.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type ImageStore struct {
	dir      string
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

// NewImageStore stores under dir and builds URLs as
// publicURL + URLPrefix + key.
func NewImageStore(dir, publicURL string, maxBytes int64) (*ImageStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{
		dir:      dir,
		baseURL:  strings.TrimRight(publicURL, "/") + URLPrefix,
		maxBytes: maxBytes,
		now:      time.Now,
	}, nil
}

func (s *ImageStore) Dir() string { return s.dir }

func (s *ImageStore) MaxBytes() int64 { return s.maxBytes }

// Save checks r is an image within the size limit and writes it to
// <owner>/<unix-millis>-<suffix>.<ext>.
func (s *ImageStore) Save(owner uuid.UUID, r io.Reader) (*Object, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: got %s", ErrNotImage, mt.String())
	}

	key, err := s.write(owner, strconv.FormatInt(s.now().UnixMilli(), 10), mt.Extension(), data)
	if err != nil {
		return nil, err
	}

	return &Object{
		Key:         key,
		URL:         s.baseURL + key,
		ContentType: mt.String(),
		Size:        int64(len(data)),
	}, nil
}

const writeAttempts = 3

// write creates the object without ever replacing an existing file. The
// random suffix keeps uploads from the same millisecond apart.
func (s *ImageStore) write(owner uuid.UUID, stamp, ext string, data []byte) (string, error) {
	dir := filepath.Join(s.dir, owner.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create owner dir: %w", err)
	}

	for i := 0; i < writeAttempts; i++ {
		name := stamp + "-" + uuid.NewString()[:8] + ext
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("write upload: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("write upload: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("write upload: %w", err)
		}
		return path.Join(owner.String(), name), nil
	}
	return "", fmt.Errorf("write upload: no free name for %s", stamp)
}
