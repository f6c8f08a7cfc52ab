package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/repository"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
)

const unreadCachePrefix = "notifications:unread:"

type notificationStore interface {
	Create(ctx context.Context, input repository.NotificationInput) (int64, error)
	ListByReceiver(ctx context.Context, receiver models.Department) ([]models.Notification, error)
	ListOPDCertificates(ctx context.Context, receiver models.Department) ([]models.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, receiver models.Department) (int64, error)
	UnreadBreakdown(ctx context.Context, receiver models.Department) ([]models.UnreadGroup, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// UnreadCount is the per-office unread summary served to badge polling.
type UnreadCount struct {
	Total           int                  `json:"total"`
	OPDCertificates int                  `json:"opdCertificates"`
	Breakdown       []models.UnreadGroup `json:"breakdown"`
}

// NotificationService owns in-app notifications and their unread counters.
// The unread summary is cached briefly since the front end polls it.
type NotificationService struct {
	repo   notificationStore
	cache  cacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(repo notificationStore, cache cacheStore, ttl time.Duration, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Publish persists a notification and drops the receiver's cached unread
// summary so the next poll sees it.
func (s *NotificationService) Publish(ctx context.Context, input repository.NotificationInput) error {
	if _, err := s.repo.Create(ctx, input); err != nil {
		return err
	}
	s.invalidateUnread(ctx)
	return nil
}

// ListForReceiver returns an office's notifications, newest first.
func (s *NotificationService) ListForReceiver(ctx context.Context, receiver models.Department) ([]models.Notification, error) {
	notifications, err := s.repo.ListByReceiver(ctx, receiver)
	if err != nil {
		return nil, appErrors.Wrap(err, "NOTIFICATIONS_FAILED", 500, "failed to fetch notifications")
	}
	return notifications, nil
}

// ListOPDCertificates returns an office's OPD medical certificate
// notifications.
func (s *NotificationService) ListOPDCertificates(ctx context.Context, receiver models.Department) ([]models.Notification, error) {
	notifications, err := s.repo.ListOPDCertificates(ctx, receiver)
	if err != nil {
		return nil, appErrors.Wrap(err, "NOTIFICATIONS_FAILED", 500, "failed to fetch certificate notifications")
	}
	return notifications, nil
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Notification not found")
		}
		return appErrors.Wrap(err, "NOTIFICATION_UPDATE_FAILED", 500, "failed to mark notification as read")
	}
	s.invalidateUnread(ctx)
	return nil
}

// MarkAllRead flags an office's unread notifications as read and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, receiver models.Department) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, receiver)
	if err != nil {
		return 0, appErrors.Wrap(err, "NOTIFICATION_UPDATE_FAILED", 500, "failed to mark notifications as read")
	}
	s.invalidateUnread(ctx)
	return affected, nil
}

// CountUnread returns the receiver's unread summary, served from cache when
// fresh.
func (s *NotificationService) CountUnread(ctx context.Context, receiver models.Department) (*UnreadCount, error) {
	key := unreadCachePrefix + string(receiver)
	if s.cache != nil {
		var cached UnreadCount
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("unread count cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	groups, err := s.repo.UnreadBreakdown(ctx, receiver)
	if err != nil {
		return nil, appErrors.Wrap(err, "NOTIFICATIONS_FAILED", 500, "failed to count unread notifications")
	}

	count := &UnreadCount{Breakdown: groups}
	for _, group := range groups {
		count.Total += group.Count
		count.OPDCertificates += group.OPDCertificateCount
	}
	if count.Breakdown == nil {
		count.Breakdown = []models.UnreadGroup{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, s.ttl); err != nil {
			s.logger.Warn("unread count cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return count, nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("%s*", unreadCachePrefix)); err != nil {
		s.logger.Warn("unread count cache invalidation failed", zap.Error(err))
	}
}
