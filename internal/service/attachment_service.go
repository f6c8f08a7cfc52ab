package service

import (
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/pkg/config"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/storage"
)

var extensionMIMEs = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// AttachmentService validates and stages uploaded files for the record
// services. Staged files live under a per-record-kind subdirectory and are
// removed again when the owning database write fails.
type AttachmentService struct {
	store    *storage.AttachmentStore
	maxSize  int64
	maxFiles int
	allowed  map[string]bool
	logger   *zap.Logger
}

// NewAttachmentService constructs the attachment service.
func NewAttachmentService(store *storage.AttachmentStore, cfg config.UploadsConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]bool, len(cfg.AllowedMIMEs))
	for _, mime := range cfg.AllowedMIMEs {
		allowed[mime] = true
	}
	return &AttachmentService{
		store:    store,
		maxSize:  cfg.MaxFileSizeBytes,
		maxFiles: cfg.MaxFilesPerSave,
		allowed:  allowed,
		logger:   logger,
	}
}

// MaxFiles returns the per-save upload limit.
func (s *AttachmentService) MaxFiles() int {
	return s.maxFiles
}

// Validate checks the upload set against the count, size, and type limits
// without touching disk.
func (s *AttachmentService) Validate(files []*multipart.FileHeader, maxFiles int) error {
	if maxFiles <= 0 {
		maxFiles = s.maxFiles
	}
	if len(files) > maxFiles {
		return appErrors.Clone(appErrors.ErrTooManyFiles, "Maximum 5 files allowed")
	}
	for _, header := range files {
		if header.Size > s.maxSize {
			return appErrors.Clone(appErrors.ErrUploadTooLarge, "File size must be less than 10MB")
		}
		if !s.typeAllowed(header) {
			return appErrors.Clone(appErrors.ErrUnsupportedFile, "Only PDF and DOCX files are allowed")
		}
	}
	return nil
}

// Stage validates and writes the upload set to disk, returning attachment
// metadata ready for the record's attachments column. On any failure the
// already staged files are removed.
func (s *AttachmentService) Stage(kind string, files []*multipart.FileHeader, maxFiles int) ([]models.Attachment, error) {
	if err := s.Validate(files, maxFiles); err != nil {
		return nil, err
	}

	attachments := make([]models.Attachment, 0, len(files))
	staged := make([]string, 0, len(files))
	for _, header := range files {
		stored, relPath, err := s.store.Save(kind, header)
		if err != nil {
			s.store.DeleteAll(staged)
			return nil, appErrors.Wrap(err, "UPLOAD_FAILED", 500, "failed to store uploaded file")
		}
		staged = append(staged, relPath)
		attachments = append(attachments, models.Attachment{
			Filename:     stored,
			OriginalName: header.Filename,
			MimeType:     s.contentType(header),
			Size:         header.Size,
			Path:         relPath,
		})
	}
	return attachments, nil
}

// Discard removes staged files after a failed database write.
func (s *AttachmentService) Discard(attachments []models.Attachment) {
	relPaths := make([]string, 0, len(attachments))
	for _, attachment := range attachments {
		relPaths = append(relPaths, attachment.Path)
	}
	s.store.DeleteAll(relPaths)
}

// Open returns the stored file for streaming. A missing file surfaces
// os.ErrNotExist so handlers can report it distinctly from a missing
// attachment row.
func (s *AttachmentService) Open(relPath string) (*os.File, error) {
	return s.store.Open(relPath)
}

// Delete removes one stored file from disk.
func (s *AttachmentService) Delete(relPath string) error {
	return s.store.Delete(relPath)
}

// DeleteNamed removes the files whose stored filenames appear in the
// record's attachment list. Deletion requests carry bare filenames, so each
// one is resolved to its stored path first; unknown names are skipped.
func (s *AttachmentService) DeleteNamed(existing models.AttachmentList, filenames []string) {
	for _, filename := range filenames {
		target, ok := existing.Find(filename)
		if !ok {
			continue
		}
		if err := s.store.Delete(target.Path); err != nil {
			s.logger.Warn("stale attachment cleanup failed",
				zap.String("path", target.Path), zap.Error(err))
		}
	}
}

func (s *AttachmentService) typeAllowed(header *multipart.FileHeader) bool {
	return s.allowed[s.contentType(header)]
}

// contentType trusts the declared type when set, falling back to the
// extension since some browsers omit it for DOCX.
func (s *AttachmentService) contentType(header *multipart.FileHeader) string {
	declared := header.Header.Get("Content-Type")
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return extensionMIMEs[strings.ToLower(filepath.Ext(header.Filename))]
}
