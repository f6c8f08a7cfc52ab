package models

import "time"

// RecordRef is the tagged reference a notification keeps to the record that
// produced it. It is resolved by the type tag, never a foreign key.
type RecordRef struct {
	ID   int64         `json:"id"`
	Type RecordRefType `json:"type"`
}

// Notification is an in-app message addressed to an office.
// Read state moves only from No to Yes.
type Notification struct {
	ID                int64            `db:"n_id" json:"n_id"`
	Sender            Department       `db:"n_sender" json:"n_sender"`
	Receiver          Department       `db:"n_receiver" json:"n_receiver"`
	Type              NotificationType `db:"n_type" json:"n_type"`
	Message           string           `db:"n_message" json:"n_message"`
	IsRead            YesNo            `db:"n_is_read" json:"n_is_read"`
	CreatedAt         time.Time        `db:"n_created_at" json:"n_created_at"`
	RelatedRecordID   *int64           `db:"n_related_record_id" json:"n_related_record_id"`
	RelatedRecordType *RecordRefType   `db:"n_related_record_type" json:"n_related_record_type"`
}

// RelatedRecord returns the tagged back-reference when both columns are set.
func (n *Notification) RelatedRecord() (RecordRef, bool) {
	if n.RelatedRecordID == nil || n.RelatedRecordType == nil {
		return RecordRef{}, false
	}
	return RecordRef{ID: *n.RelatedRecordID, Type: *n.RelatedRecordType}, true
}

// UnreadGroup is one row of the per-type unread breakdown.
type UnreadGroup struct {
	Count               int              `db:"count" json:"count"`
	Type                NotificationType `db:"n_type" json:"n_type"`
	OPDCertificateCount int              `db:"opd_certificate_count" json:"opd_certificate_count"`
}
