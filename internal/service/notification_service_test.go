package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/repository"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

type stubNotificationStore struct {
	created      []repository.NotificationInput
	notifs       []models.Notification
	markReadErr  error
	allReadCount int64
	breakdown    []models.UnreadGroup
	breakdownHit int
}

func (s *stubNotificationStore) Create(ctx context.Context, input repository.NotificationInput) (int64, error) {
	s.created = append(s.created, input)
	return int64(len(s.created)), nil
}

func (s *stubNotificationStore) ListByReceiver(ctx context.Context, receiver models.Department) ([]models.Notification, error) {
	return s.notifs, nil
}

func (s *stubNotificationStore) ListOPDCertificates(ctx context.Context, receiver models.Department) ([]models.Notification, error) {
	return s.notifs, nil
}

func (s *stubNotificationStore) MarkRead(ctx context.Context, id int64) error {
	return s.markReadErr
}

func (s *stubNotificationStore) MarkAllRead(ctx context.Context, receiver models.Department) (int64, error) {
	return s.allReadCount, nil
}

func (s *stubNotificationStore) UnreadBreakdown(ctx context.Context, receiver models.Department) ([]models.UnreadGroup, error) {
	s.breakdownHit++
	return s.breakdown, nil
}

type stubCache struct {
	values  map[string][]byte
	deleted []string
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string][]byte{}}
}

func (s *stubCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = raw
	return nil
}

func (s *stubCache) DeleteByPattern(ctx context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	s.values = map[string][]byte{}
	return nil
}

func TestNotificationServiceMarkReadNotFound(t *testing.T) {
	store := &stubNotificationStore{markReadErr: sql.ErrNoRows}
	svc := NewNotificationService(store, nil, time.Minute, zap.NewNop())

	err := svc.MarkRead(context.Background(), 404)
	appErr := appErrors.FromError(err)
	require.Equal(t, 404, appErr.Status)
	require.Equal(t, "Notification not found", appErr.Message)
}

func TestNotificationServiceMarkAllReadInvalidatesCache(t *testing.T) {
	store := &stubNotificationStore{allReadCount: 3}
	cache := newStubCache()
	svc := NewNotificationService(store, cache, time.Minute, zap.NewNop())

	affected, err := svc.MarkAllRead(context.Background(), models.DepartmentGCO)
	require.NoError(t, err)
	require.Equal(t, int64(3), affected)
	require.NotEmpty(t, cache.deleted)
}

func TestNotificationServiceCountUnreadAggregatesAndCaches(t *testing.T) {
	store := &stubNotificationStore{breakdown: []models.UnreadGroup{
		{Count: 2, Type: models.NotificationReferral},
		{Count: 1, Type: models.NotificationOPDCertificate, OPDCertificateCount: 1},
	}}
	cache := newStubCache()
	svc := NewNotificationService(store, cache, time.Minute, zap.NewNop())

	count, err := svc.CountUnread(context.Background(), models.DepartmentOPD)
	require.NoError(t, err)
	require.Equal(t, 3, count.Total)
	require.Equal(t, 1, count.OPDCertificates)
	require.Len(t, count.Breakdown, 2)

	// cached, so the store is not hit again
	_, err = svc.CountUnread(context.Background(), models.DepartmentOPD)
	require.NoError(t, err)
	require.Equal(t, 1, store.breakdownHit)
}

func TestNotificationServicePublishDropsUnreadCache(t *testing.T) {
	store := &stubNotificationStore{}
	cache := newStubCache()
	svc := NewNotificationService(store, cache, time.Minute, zap.NewNop())

	_, err := svc.CountUnread(context.Background(), models.DepartmentGCO)
	require.NoError(t, err)

	recordID := int64(5)
	recordType := models.RefCaseRecord
	require.NoError(t, svc.Publish(context.Background(), repository.NotificationInput{
		Sender:            models.DepartmentOPD,
		Receiver:          models.DepartmentGCO,
		Type:              models.NotificationReferral,
		Message:           "New case referral for Juan Dela Cruz (2023-00123) - Major violation",
		RelatedRecordID:   &recordID,
		RelatedRecordType: &recordType,
	}))

	require.Len(t, store.created, 1)
	require.Empty(t, cache.values)

	_, err = svc.CountUnread(context.Background(), models.DepartmentGCO)
	require.NoError(t, err)
	require.Equal(t, 2, store.breakdownHit)
}
