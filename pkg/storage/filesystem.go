package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AttachmentStore persists uploaded case and medical documents on disk.
// Files for each record kind live under their own subdirectory so that
// disciplinary and infirmary uploads never collide.
type AttachmentStore struct {
	baseDir string
}

// NewAttachmentStore ensures the base directory exists and returns a handle.
func NewAttachmentStore(baseDir string) (*AttachmentStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &AttachmentStore{baseDir: baseDir}, nil
}

// Save copies an uploaded file into the kind subdirectory under a
// collision-resistant name and returns the relative path.
func (s *AttachmentStore) Save(kind string, header *multipart.FileHeader) (string, string, error) {
	dir := filepath.Join(s.baseDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("prepare upload directory: %w", err)
	}

	stored := uniqueName(header.Filename)
	path := filepath.Join(dir, stored)

	src, err := header.Open()
	if err != nil {
		return "", "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close() //nolint:errcheck

	dst, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close() //nolint:errcheck

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(path)
		return "", "", fmt.Errorf("write upload file: %w", err)
	}

	return stored, filepath.ToSlash(filepath.Join(kind, stored)), nil
}

// Open returns a read-only handle to a stored attachment.
func (s *AttachmentStore) Open(relPath string) (*os.File, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	return file, nil
}

// Delete removes a stored attachment if present.
func (s *AttachmentStore) Delete(relPath string) error {
	path, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

// DeleteAll removes every path in the list, keeping going past failures.
// Used to clean up staged files when the owning database write fails.
func (s *AttachmentStore) DeleteAll(relPaths []string) {
	for _, p := range relPaths {
		_ = s.Delete(p)
	}
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *AttachmentStore) Path(relPath string) string {
	path, err := s.resolve(relPath)
	if err != nil {
		return ""
	}
	return path
}

func (s *AttachmentStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("invalid attachment path %q", relPath)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}

func uniqueName(original string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("%s-%s%s", base, uuid.NewString(), ext)
}
