package fileserve

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage manages finished download artifacts in a single directory and
// maps them to public download URLs.
type FileStorage struct {
	dir          string
	publicPrefix string
}

// NewFileStorage creates a FileStorage over dir. publicPrefix is the URL
// path under which files are served, e.g. "/api/v1/downloads".
func NewFileStorage(dir, publicPrefix string) *FileStorage {
	return &FileStorage{dir: dir, publicPrefix: strings.TrimRight(publicPrefix, "/")}
}

// Resolve maps a requested filename to an absolute path inside the storage
// directory, rejecting traversal attempts and absent files.
func (s *FileStorage) Resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("not a file: %q", filename)
	}
	return path, nil
}

// FileExists checks whether a file exists in the storage directory.
func (s *FileStorage) FileExists(filename string) bool {
	_, err := s.Resolve(filename)
	return err == nil
}

// FileSize returns the size of the file in bytes.
func (s *FileStorage) FileSize(filename string) (int64, error) {
	path, err := s.Resolve(filename)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// PublicURL builds the download URL for a file path produced by the
// extraction engine. The file must live inside the storage directory.
func (s *FileStorage) PublicURL(filePath string) (string, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	dirAbs, err := filepath.Abs(s.dir)
	if err != nil {
		return "", err
	}
	if filepath.Dir(abs) != dirAbs {
		return "", fmt.Errorf("file %q is outside the download directory", filePath)
	}

	return s.publicPrefix + "/" + url.PathEscape(filepath.Base(abs)), nil
}
