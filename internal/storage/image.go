// Package storage saves uploaded doctor images on local disk.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	doctorsDir = "doctors"
	sniffLen   = 3072
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("only image files are allowed")
)

var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageStore writes images under <root>/doctors and returns paths relative
// to the public prefix the directory is served under.
type ImageStore struct {
	root     string
	prefix   string
	maxBytes int64
	now      func() time.Time
}

func NewImageStore(root, publicPrefix string, maxBytes int64) (*ImageStore, error) {
	if err := os.MkdirAll(filepath.Join(root, doctorsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ImageStore{
		root:     root,
		prefix:   strings.Trim(publicPrefix, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}, nil
}

// MaxBytes is the largest accepted upload.
func (s *ImageStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates the extension of filename and the sniffed content of r,
// then stores the image under a generated name. It returns a path such as
// "uploads/doctors/1700000000000-123456789.png".
func (s *ImageStore) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := allowedTypes[ext]
	if !ok {
		return "", ErrUnsupportedType
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if !mimetype.Detect(head).Is(want) {
		return "", ErrUnsupportedType
	}

	name := fmt.Sprintf("%d-%d%s", s.now().UnixMilli(), rand.Int63n(1e9), ext)
	dst := filepath.Join(s.root, doctorsDir, name)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	written, err := io.Copy(f, io.LimitReader(body, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return path.Join(s.prefix, doctorsDir, name), nil
}
