package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeUploadName strips any directory part from a client supplied file
// name and replaces whitespace runs with "_".
func SanitizeUploadName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" || name == "." || name == "/" || name == ".." {
		return "image"
	}
	return name
}

// DiskImageStore writes uploads into a local directory served under /uploads.
type DiskImageStore struct {
	dir string
	now func() time.Time
}

// NewDiskImageStore creates the uploads directory if it does not exist.
func NewDiskImageStore(dir string) (*DiskImageStore, error) {
	if dir == "" {
		return nil, errors.New("uploads directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &DiskImageStore{dir: dir, now: time.Now}, nil
}

// Dir returns the directory images are written to.
func (s *DiskImageStore) Dir() string {
	return s.dir
}

// Save stores the image as <unix-ms>-<sanitized original name>. O_EXCL keeps
// two uploads of the same name in the same millisecond from overwriting each other.
func (s *DiskImageStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	base := SanitizeUploadName(originalName)
	stamp := s.now().UnixMilli()

	for attempt := 0; attempt < 100; attempt++ {
		filename := fmt.Sprintf("%d-%s", stamp+int64(attempt), base)
		f, err := os.OpenFile(filepath.Join(s.dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create image file: %w", err)
		}

		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("failed to write image file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("failed to close image file: %w", err)
		}
		return filename, nil
	}
	return "", fmt.Errorf("failed to find a free file name for %q", base)
}
