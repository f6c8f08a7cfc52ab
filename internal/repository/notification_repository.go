package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ccmr-api/internal/models"
)

const notificationColumns = `n_id, n_sender, n_receiver, n_type, n_message, n_is_read,
       n_created_at, n_related_record_id, n_related_record_type`

// NotificationRepository persists cross-office notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// NotificationInput carries the persisted columns of a new notification.
type NotificationInput struct {
	Sender            models.Department
	Receiver          models.Department
	Type              models.NotificationType
	Message           string
	RelatedRecordID   *int64
	RelatedRecordType *models.RecordRefType
}

// Create inserts an unread notification and returns its identifier.
func (r *NotificationRepository) Create(ctx context.Context, input NotificationInput) (int64, error) {
	const query = `INSERT INTO tbl_notifications
	(n_sender, n_receiver, n_type, n_message, n_is_read, n_related_record_id, n_related_record_type)
	VALUES ($1, $2, $3, $4, 'No', $5, $6)
	RETURNING n_id`

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		input.Sender, input.Receiver, input.Type, input.Message,
		input.RelatedRecordID, input.RelatedRecordType,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create notification: %w", err)
	}
	return id, nil
}

// ListByReceiver returns an office's notifications, newest first.
func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiver models.Department) ([]models.Notification, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_notifications WHERE n_receiver = $1 ORDER BY n_created_at DESC", notificationColumns)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, receiver); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// ListOPDCertificates returns an office's OPD medical certificate
// notifications, newest first.
func (r *NotificationRepository) ListOPDCertificates(ctx context.Context, receiver models.Department) ([]models.Notification, error) {
	query := fmt.Sprintf("SELECT %s FROM tbl_notifications WHERE n_receiver = $1 AND n_type = 'OPD Medical Certificate' ORDER BY n_created_at DESC", notificationColumns)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, receiver); err != nil {
		return nil, fmt.Errorf("list certificate notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags one notification as read. Returns sql.ErrNoRows when the
// notification does not exist.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "UPDATE tbl_notifications SET n_is_read = 'Yes' WHERE n_id = $1", id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check notification read rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags an office's unread notifications as read and returns
// how many rows changed.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, receiver models.Department) (int64, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE tbl_notifications SET n_is_read = 'Yes' WHERE n_receiver = $1 AND n_is_read = 'No'", receiver)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check mark all read rows: %w", err)
	}
	return rows, nil
}

// UnreadBreakdown returns the unread counts for an office grouped by type.
func (r *NotificationRepository) UnreadBreakdown(ctx context.Context, receiver models.Department) ([]models.UnreadGroup, error) {
	const query = `SELECT COUNT(*) AS count, n_type,
       SUM(CASE WHEN n_type = 'OPD Medical Certificate' THEN 1 ELSE 0 END) AS opd_certificate_count
FROM tbl_notifications
WHERE n_receiver = $1 AND n_is_read = 'No'
GROUP BY n_type`

	var groups []models.UnreadGroup
	if err := r.db.SelectContext(ctx, &groups, query, receiver); err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}
	return groups, nil
}
