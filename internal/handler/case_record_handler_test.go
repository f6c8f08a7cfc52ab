package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
)

type fakeCaseRecordSrv struct {
	records    []models.CaseRecord
	saveResult *service.CaseSaveResult
	saveErr    error
	lastParams service.CaseRecordParams
	lastKept   models.AttachmentList
	lastDel    []string
}

func (f *fakeCaseRecordSrv) List(context.Context) ([]models.CaseRecord, error) {
	return f.records, nil
}

func (f *fakeCaseRecordSrv) ListReferred(context.Context) ([]models.CaseRecord, error) {
	return f.records, nil
}

func (f *fakeCaseRecordSrv) Search(context.Context, string, bool) ([]models.CaseRecord, error) {
	return f.records, nil
}

func (f *fakeCaseRecordSrv) GetByID(context.Context, int64) (*models.CaseRecord, error) {
	return nil, nil
}

func (f *fakeCaseRecordSrv) ListByStudent(context.Context, string, bool) ([]models.CaseRecord, error) {
	return f.records, nil
}

func (f *fakeCaseRecordSrv) Create(_ context.Context, params service.CaseRecordParams, _ []*multipart.FileHeader) (*service.CaseSaveResult, error) {
	f.lastParams = params
	return f.saveResult, f.saveErr
}

func (f *fakeCaseRecordSrv) Update(_ context.Context, _ int64, params service.CaseRecordParams, _ []*multipart.FileHeader, kept models.AttachmentList, deletions []string) (*service.CaseSaveResult, error) {
	f.lastParams = params
	f.lastKept = kept
	f.lastDel = deletions
	return f.saveResult, f.saveErr
}

func (f *fakeCaseRecordSrv) Attachments(context.Context, int64) (models.AttachmentList, error) {
	return nil, nil
}

func (f *fakeCaseRecordSrv) DeleteAttachment(context.Context, int64, string) error {
	return nil
}

func multipartRequest(t *testing.T, method, target string, fields map[string][]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, values := range fields {
		for _, value := range values {
			require.NoError(t, writer.WriteField(field, value))
		}
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestCaseRecordHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeCaseRecordSrv{saveResult: &service.CaseSaveResult{CaseID: 7, AffectedRows: 1, FileCount: 0}}
	handler := NewCaseRecordHandler(srv, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartRequest(t, http.MethodPost, "/case-records", map[string][]string{
		"studentId":      {"2023-00123"},
		"studentName":    {"Juan Dela Cruz"},
		"violationLevel": {"Major"},
		"status":         {"Ongoing"},
		"referredToGCO":  {"Yes"},
	})

	handler.Create(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2023-00123", srv.lastParams.StudentID)
	require.Equal(t, models.ViolationMajor, srv.lastParams.ViolationLevel)
	require.Equal(t, "Yes", srv.lastParams.ReferredToGCO)
	require.Nil(t, srv.lastParams.SchoolYearSemester)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Case record added successfully", body["message"])
	require.Equal(t, float64(7), body["caseId"])
}

func TestCaseRecordHandlerUpdateFiltersDeletedAttachments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeCaseRecordSrv{saveResult: &service.CaseSaveResult{CaseID: 7, AffectedRows: 1}}
	handler := NewCaseRecordHandler(srv, nil)

	existing := `[{"filename":"a.pdf","originalname":"a.pdf","mimetype":"application/pdf","size":10,"path":"case-records/a.pdf"},` +
		`{"filename":"b.pdf","originalname":"b.pdf","mimetype":"application/pdf","size":10,"path":"case-records/b.pdf"}]`

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = multipartRequest(t, http.MethodPut, "/case-records/7", map[string][]string{
		"studentId":           {"2023-00123"},
		"studentName":         {"Juan Dela Cruz"},
		"violationLevel":      {"Minor"},
		"status":              {"Resolved"},
		"referredToGCO":       {"No"},
		"existingAttachments": {existing},
		"filesToDelete":       {"a.pdf"},
	})
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, srv.lastKept, 1)
	require.Equal(t, "b.pdf", srv.lastKept[0].Filename)
	require.Equal(t, []string{"a.pdf"}, srv.lastDel)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Case record updated successfully", body["message"])
}

func TestCaseRecordHandlerSearchRequiresQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCaseRecordHandler(&fakeCaseRecordSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/case-records/search", nil)

	handler.Search(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Search query is required", body["error"])
}

func TestCaseRecordHandlerListEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCaseRecordHandler(&fakeCaseRecordSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/case-records", nil)

	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"records":[],"count":0}`, rec.Body.String())
}
