package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

type fakeReferralSrv struct {
	pending    *service.PendingReferrals
	pendingErr error
	caseResult *models.ConfirmResult
	caseErr    error
	medResult  *models.ConfirmResult
	medErr     error
	lastID     int64
}

func (f *fakeReferralSrv) ListPending(context.Context) (*service.PendingReferrals, error) {
	return f.pending, f.pendingErr
}

func (f *fakeReferralSrv) ConfirmCase(_ context.Context, id int64) (*models.ConfirmResult, error) {
	f.lastID = id
	return f.caseResult, f.caseErr
}

func (f *fakeReferralSrv) ConfirmMedical(_ context.Context, id int64) (*models.ConfirmResult, error) {
	f.lastID = id
	return f.medResult, f.medErr
}

func confirmContext(t *testing.T, id string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/pending-referrals/case-record/"+id+"/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: id}}
	return c, rec
}

func TestReferralHandlerListPending(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReferralHandler(&fakeReferralSrv{pending: &service.PendingReferrals{
		Referrals: []models.PendingReferral{
			{RecordID: 1, RecordType: models.RefCaseRecord},
			{RecordID: 2, RecordType: models.RefMedicalRecord},
		},
		CaseCount:    1,
		MedicalCount: 1,
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/pending-referrals", nil)

	handler.ListPending(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.JSONEq(t, `true`, string(body["success"]))
	require.JSONEq(t, `2`, string(body["count"]))
	require.JSONEq(t, `1`, string(body["caseRecordCount"]))
	require.JSONEq(t, `1`, string(body["medicalRecordCount"]))
}

func TestReferralHandlerConfirmCaseSuccess(t *testing.T) {
	srv := &fakeReferralSrv{caseResult: &models.ConfirmResult{
		Message:            "Case record referral confirmed and counseling record created successfully",
		CounselingRecordID: 15,
	}}
	handler := NewReferralHandler(srv)

	c, rec := confirmContext(t, "7")
	handler.ConfirmCase(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(7), srv.lastID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(15), body["counselingRecordId"])
	require.NotContains(t, body, "warning")
}

func TestReferralHandlerConfirmCaseWithWarning(t *testing.T) {
	handler := NewReferralHandler(&fakeReferralSrv{caseResult: &models.ConfirmResult{
		Message: "Case record referral confirmed successfully, but failed to create counseling record",
		Warning: "insert failed",
	}})

	c, rec := confirmContext(t, "7")
	handler.ConfirmCase(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["success"])
	require.Equal(t, "insert failed", body["warning"])
	require.NotContains(t, body, "counselingRecordId")
}

func TestReferralHandlerConfirmMedicalAlreadyProcessed(t *testing.T) {
	handler := NewReferralHandler(&fakeReferralSrv{
		medErr: appErrors.Clone(appErrors.ErrAlreadyProcessed, "Medical record referral not found or already processed"),
	})

	c, rec := confirmContext(t, "9")
	handler.ConfirmMedical(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["success"])
	require.Equal(t, "Medical record referral not found or already processed", body["message"])
}

func TestReferralHandlerConfirmRejectsBadID(t *testing.T) {
	handler := NewReferralHandler(&fakeReferralSrv{})

	c, rec := confirmContext(t, "not-a-number")
	handler.ConfirmCase(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
