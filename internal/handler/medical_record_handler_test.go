package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccmr-api/internal/service"
)

func classificationContext(t *testing.T, fields map[string][]string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = multipartRequest(t, http.MethodPost, "/medical-records", fields)
	return c
}

func TestFileClassificationsJSONArray(t *testing.T) {
	c := classificationContext(t, map[string][]string{
		"fileClassifications": {`[{"filename":"xray.pdf","isMedical":true,"isPsychological":false},{"filename":"assessment.docx","isMedical":false,"isPsychological":true}]`},
	})

	classifications := fileClassifications(c)

	require.Len(t, classifications, 2)
	require.Equal(t, service.FileClassification{Filename: "xray.pdf", IsMedical: true}, classifications[0])
	require.Equal(t, service.FileClassification{Filename: "assessment.docx", IsPsychological: true}, classifications[1])
}

func TestFileClassificationsRepeatedObjects(t *testing.T) {
	c := classificationContext(t, map[string][]string{
		"fileClassifications": {
			`{"filename":"xray.pdf","isMedical":true}`,
			`not json`,
			`{"filename":"assessment.docx","isPsychological":true}`,
		},
	})

	classifications := fileClassifications(c)

	require.Len(t, classifications, 2)
	require.Equal(t, "xray.pdf", classifications[0].Filename)
	require.Equal(t, "assessment.docx", classifications[1].Filename)
}
