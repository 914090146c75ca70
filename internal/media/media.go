// Package media stores uploaded images on the local filesystem under a
// configured root and maps them to public URLs.
package media

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrUnsupportedType = errors.New("only jpg/png allowed")
	ErrInvalidContent  = errors.New("file content is not a jpeg or png image")
	ErrTypeMismatch    = errors.New("file extension does not match its content")
	ErrTooLarge        = errors.New("file exceeds upload limit")
)

// SniffLen is how many leading bytes Detect needs.
const SniffLen = 512

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

type Store struct {
	Root      string
	URLPrefix string
	MaxBytes  int64
}

func NewStore(root, urlPrefix string, maxBytes int64) *Store {
	return &Store{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/"), MaxBytes: maxBytes}
}

// Ext returns the canonical extension (".jpg" or ".png") for filename.
func Ext(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return ".jpg", nil
	case ".png":
		return ".png", nil
	}
	return "", ErrUnsupportedType
}

// Detect classifies header by its leading signature bytes.
func Detect(header []byte) (string, error) {
	switch ct := http.DetectContentType(header); ct {
	case MIMEJPEG, MIMEPNG:
		return ct, nil
	}
	return "", ErrInvalidContent
}

// Check validates filename and the sniffed header against each other and
// returns the canonical extension and content type.
func Check(filename string, header []byte) (ext, contentType string, err error) {
	if ext, err = Ext(filename); err != nil {
		return "", "", err
	}
	if contentType, err = Detect(header); err != nil {
		return "", "", err
	}
	if (contentType == MIMEJPEG) != (ext == ".jpg") {
		return "", "", ErrTypeMismatch
	}
	return ext, contentType, nil
}

// RelPath lays files out by upload day: images/YYYY/MM/DD/<id><ext>.
func RelPath(at time.Time, id, ext string) string {
	at = at.UTC()
	return path.Join("images", at.Format("2006"), at.Format("01"), at.Format("02"), id+ext)
}

func (s *Store) URL(rel string) string { return s.URLPrefix + "/" + strings.TrimLeft(rel, "/") }

func (s *Store) abs(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("media: invalid path %q", rel)
	}
	return filepath.Join(s.Root, clean), nil
}

// Save streams r into rel. At most MaxBytes are accepted; anything beyond
// fails with ErrTooLarge and the partial file is removed.
func (s *Store) Save(r io.Reader, rel string) (int64, error) {
	dst, err := s.abs(rel)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("media: mkdir: %w", err)
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("media: create: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.MaxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return n, err
		}
		return n, fmt.Errorf("media: write: %w", err)
	}
	return n, nil
}

// Remove deletes files by relative path. Missing files are ignored; the
// first other failure is returned after every path has been attempted.
func (s *Store) Remove(rels ...string) error {
	var first error
	for _, rel := range rels {
		dst, err := s.abs(rel)
		if err == nil {
			err = os.Remove(dst)
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) && first == nil {
			first = err
		}
	}
	return first
}
