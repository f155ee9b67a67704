package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ikkim/foodgram-backend/pkg/util"
)

// LocalStorage writes images under dir; the router serves dir at urlPrefix.
type LocalStorage struct {
	dir       string
	urlPrefix string
}

func NewLocalStorage(dir, urlPrefix string) *LocalStorage {
	return &LocalStorage{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *LocalStorage) Dir() string       { return s.dir }
func (s *LocalStorage) URLPrefix() string { return s.urlPrefix }

func (s *LocalStorage) Save(_ context.Context, key string, img *util.DecodedImage) (string, error) {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.dir, clean)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return s.urlPrefix + filepath.ToSlash(clean), nil
}

// KeyFromURL returns the key of an image served under the URL prefix.
func (s *LocalStorage) KeyFromURL(url string) (string, bool) {
	return keyUnder(url, s.urlPrefix+"/")
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path := filepath.Join(s.dir, filepath.Clean("/"+key))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func keyUnder(url, prefix string) (string, bool) {
	key, ok := strings.CutPrefix(url, prefix)
	if !ok || key == "" || strings.Contains(key, "..") || strings.ContainsAny(key, "?#") {
		return "", false
	}
	return key, true
}
