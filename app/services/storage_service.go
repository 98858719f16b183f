package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/amirphl/orochi-partners/config"
)

var (
	ErrInvalidObjectKey = errors.New("invalid object key")
	ErrObjectTooLarge   = errors.New("object exceeds size limit")
	ErrInvalidSource    = errors.New("invalid object source")
)

// StoredObject describes an object written to storage
type StoredObject struct {
	Key string
	URL string
}

// StorageService stores program assets and resolves them back to bytes
type StorageService interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (*StoredObject, error)
	// Fetch resolves a data URI or a stored object URL to its bytes. Other URLs
	// are rejected with ErrInvalidSource and never dialed.
	Fetch(ctx context.Context, source string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	IsStored(rawURL string) bool
	KeyFromURL(rawURL string) (string, bool)
}

// LocalStorageService keeps objects on the local disk under RootDir and
// serves them from PublicBaseURL
type LocalStorageService struct {
	rootDir       string
	publicBaseURL string
	maxBytes      int64
}

// NewLocalStorageService creates a disk backed storage service
func NewLocalStorageService(cfg config.StorageConfig) *LocalStorageService {
	maxBytes := cfg.MaxLogoBytes
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &LocalStorageService{
		rootDir:       cfg.RootDir,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:      maxBytes,
	}
}

func (s *LocalStorageService) Upload(ctx context.Context, key string, body []byte, contentType string) (*StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.objectPath(key)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > s.maxBytes {
		return nil, ErrObjectTooLarge
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create object directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp object: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to store object: %w", err)
	}

	return &StoredObject{Key: key, URL: s.publicBaseURL + "/" + key}, nil
}

func (s *LocalStorageService) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return nil, ErrInvalidSource
	case strings.HasPrefix(source, "data:"):
		return s.decodeDataURI(source)
	case s.IsStored(source):
		key, _ := s.KeyFromURL(source)
		path, err := s.objectPath(key)
		if err != nil {
			return nil, err
		}
		return s.readLimited(ctx, path)
	default:
		return nil, ErrInvalidSource
	}
}

func (s *LocalStorageService) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.objectPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *LocalStorageService) IsStored(rawURL string) bool {
	_, ok := s.KeyFromURL(rawURL)
	return ok
}

func (s *LocalStorageService) KeyFromURL(rawURL string) (string, bool) {
	if s.publicBaseURL == "" {
		return "", false
	}
	key, ok := strings.CutPrefix(rawURL, s.publicBaseURL+"/")
	if !ok || key == "" {
		return "", false
	}
	if _, err := s.objectPath(key); err != nil {
		return "", false
	}
	return key, true
}

func (s *LocalStorageService) objectPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidObjectKey
	}
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidObjectKey
	}
	return filepath.Join(s.rootDir, filepath.FromSlash(cleaned)), nil
}

func (s *LocalStorageService) decodeDataURI(source string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(source, "data:"), ",")
	if !ok {
		return nil, ErrInvalidSource
	}
	if !strings.HasSuffix(meta, ";base64") {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, ErrInvalidSource
		}
		return s.limit([]byte(unescaped))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	return s.limit(data)
}

func (s *LocalStorageService) readLimited(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	defer f.Close()
	return s.readAll(f)
}

func (s *LocalStorageService) readAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if n > s.maxBytes {
		return nil, ErrObjectTooLarge
	}
	return buf.Bytes(), nil
}

func (s *LocalStorageService) limit(data []byte) ([]byte, error) {
	if int64(len(data)) > s.maxBytes {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}
