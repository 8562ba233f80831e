package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// MaxFileSize is the attachment size cap (5MB), matching the intake form.
const MaxFileSize = 5 << 20

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// IsPDF checks an attachment both by declared media type and filename
// suffix. Non-conforming files must be rejected before any storage or
// network transmission is attempted.
func IsPDF(mediaType, filename string) bool {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "application/pdf", "application/x-pdf":
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// SanitizeFilename replaces everything outside [a-zA-Z0-9.-] with '_'.
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(filepath.Base(name), "_")
}

// DiskStore persists uploaded cédulas under a single directory with
// timestamped, sanitized names.
type DiskStore struct {
	dir string
}

// NewDiskStore ensures dir exists and returns a store over it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes data under a collision-avoiding name and returns the stored
// file name.
func (s *DiskStore) Save(originalName string, data []byte) (string, error) {
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}
	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), SanitizeFilename(originalName))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return name, nil
}
