package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/models"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

const attachmentsField = "attachments"

// formFiles returns the uploaded attachments of a multipart save. A request
// without a multipart body is a valid save with no files.
func formFiles(c *gin.Context) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[attachmentsField]
}

// keptAttachments parses the existingAttachments JSON field minus the
// filenames queued in filesToDelete.
func keptAttachments(c *gin.Context) (models.AttachmentList, []string, error) {
	deletions := c.PostFormArray("filesToDelete")

	raw := c.PostForm("existingAttachments")
	if raw == "" {
		return nil, deletions, nil
	}

	var existing models.AttachmentList
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "Invalid existing attachments payload")
	}

	kept := make(models.AttachmentList, 0, len(existing))
	for _, attachment := range existing {
		if contains(deletions, attachment.Filename) {
			continue
		}
		kept = append(kept, attachment)
	}
	return kept, deletions, nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func optionalForm(c *gin.Context, field string) *string {
	if value, ok := c.GetPostForm(field); ok && value != "" {
		return &value
	}
	return nil
}

// serveAttachment streams one stored file as a download.
func serveAttachment(c *gin.Context, attachments models.AttachmentList, filename string, open func(relPath string) (io.ReadCloser, error)) {
	if len(attachments) == 0 {
		response.JSON(c, http.StatusNotFound, gin.H{"error": "No attachments found"})
		return
	}
	file, ok := attachments.Find(filename)
	if !ok {
		response.JSON(c, http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	reader, err := open(file.Path)
	if err != nil {
		response.JSON(c, http.StatusNotFound, gin.H{"error": "File not found on server"})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", file.MimeType)
	c.Header("Content-Disposition", `attachment; filename="`+file.OriginalName+`"`)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, reader)
}
