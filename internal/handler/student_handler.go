package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/models"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

type studentService interface {
	SearchByID(ctx context.Context, query string) ([]models.Student, error)
}

// StudentHandler exposes the roster search endpoint backing the record forms'
// student autocomplete.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the student handler.
func NewStudentHandler(service studentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// Search matches students by ID-number prefix. Queries shorter than three
// characters return an empty result instead of an error.
func (h *StudentHandler) Search(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "student service not configured"))
		return
	}
	students, err := h.service.SearchByID(c.Request.Context(), c.Query("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	response.OK(c, gin.H{
		"success":  true,
		"students": students,
		"count":    len(students),
	})
}
