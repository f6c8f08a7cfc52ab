package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

type fakeNotificationSrv struct {
	notifications []models.Notification
	certificates  []models.Notification
	markReadErr   error
	affected      int64
	unread        *service.UnreadCount
	lastReceiver  models.Department
	lastID        int64
}

func (f *fakeNotificationSrv) ListForReceiver(_ context.Context, receiver models.Department) ([]models.Notification, error) {
	f.lastReceiver = receiver
	return f.notifications, nil
}

func (f *fakeNotificationSrv) ListOPDCertificates(_ context.Context, receiver models.Department) ([]models.Notification, error) {
	f.lastReceiver = receiver
	return f.certificates, nil
}

func (f *fakeNotificationSrv) MarkRead(_ context.Context, id int64) error {
	f.lastID = id
	return f.markReadErr
}

func (f *fakeNotificationSrv) MarkAllRead(_ context.Context, receiver models.Department) (int64, error) {
	f.lastReceiver = receiver
	return f.affected, nil
}

func (f *fakeNotificationSrv) CountUnread(_ context.Context, receiver models.Department) (*service.UnreadCount, error) {
	f.lastReceiver = receiver
	return f.unread, nil
}

func notificationContext(t *testing.T, method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, rec
}

func TestNotificationHandlerListRequiresReceiver(t *testing.T) {
	handler := NewNotificationHandler(&fakeNotificationSrv{})

	c, rec := notificationContext(t, http.MethodGet, "/notifications")
	handler.List(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Receiver parameter is required", body["error"])
}

func TestNotificationHandlerList(t *testing.T) {
	srv := &fakeNotificationSrv{notifications: []models.Notification{
		{ID: 1, Sender: models.DepartmentOPD, Receiver: models.DepartmentGCO},
		{ID: 2, Sender: models.DepartmentINF, Receiver: models.DepartmentGCO},
	}}
	handler := NewNotificationHandler(srv)

	c, rec := notificationContext(t, http.MethodGet, "/notifications?receiver=GCO")
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.DepartmentGCO, srv.lastReceiver)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(2), body["count"])
}

func TestNotificationHandlerMarkReadNotFound(t *testing.T) {
	handler := NewNotificationHandler(&fakeNotificationSrv{
		markReadErr: appErrors.Clone(appErrors.ErrNotFound, "Notification not found"),
	})

	c, rec := notificationContext(t, http.MethodPut, "/notifications/99/read")
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	handler.MarkRead(c)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Notification not found", body["message"])
}

func TestNotificationHandlerMarkAllRead(t *testing.T) {
	handler := NewNotificationHandler(&fakeNotificationSrv{affected: 3})

	c, rec := notificationContext(t, http.MethodPut, "/notifications/mark-all-read?receiver=OPD")
	handler.MarkAllRead(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "3 notifications marked as read", body["message"])
	require.Equal(t, float64(3), body["affectedRows"])
}

func TestNotificationHandlerMarkAllReadJSONBody(t *testing.T) {
	srv := &fakeNotificationSrv{affected: 2}
	handler := NewNotificationHandler(srv)

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/notifications/mark-all-read",
		strings.NewReader(`{"receiver":"GCO"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	handler.MarkAllRead(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.DepartmentGCO, srv.lastReceiver)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2 notifications marked as read", body["message"])
}

func TestNotificationHandlerMarkAllReadRequiresReceiver(t *testing.T) {
	handler := NewNotificationHandler(&fakeNotificationSrv{})

	c, rec := notificationContext(t, http.MethodPut, "/notifications/mark-all-read")
	handler.MarkAllRead(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Receiver parameter is required", body["error"])
}

func TestNotificationHandlerUnreadCount(t *testing.T) {
	handler := NewNotificationHandler(&fakeNotificationSrv{unread: &service.UnreadCount{
		Total:           4,
		OPDCertificates: 1,
		Breakdown: []models.UnreadGroup{
			{Count: 3, Type: models.NotificationReferral},
			{Count: 1, Type: models.NotificationOPDCertificate, OPDCertificateCount: 1},
		},
	}})

	c, rec := notificationContext(t, http.MethodGet, "/notifications/unread-count?receiver=OPD")
	handler.UnreadCount(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(4), body["total"])
	require.Equal(t, float64(1), body["opdCertificates"])
	breakdown, ok := body["breakdown"].([]interface{})
	require.True(t, ok)
	require.Len(t, breakdown, 2)
}
