package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Attachment describes one uploaded document stored inline in the owning
// record's attachments column. Medical record attachments additionally carry
// a per-file medical/psychological classification.
type Attachment struct {
	Filename        string `json:"filename"`
	OriginalName    string `json:"originalname"`
	MimeType        string `json:"mimetype"`
	Size            int64  `json:"size"`
	Path            string `json:"path"`
	IsMedical       *bool  `json:"isMedical,omitempty"`
	IsPsychological *bool  `json:"isPsychological,omitempty"`
}

// AttachmentList is the JSON array column holding attachment metadata.
// A NULL column round-trips as an empty list; an empty list persists as NULL
// to match what the legacy writers stored.
type AttachmentList []Attachment

// Value implements driver.Valuer.
func (l AttachmentList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal([]Attachment(l))
	if err != nil {
		return nil, fmt.Errorf("marshal attachments: %w", err)
	}
	return raw, nil
}

// Scan implements sql.Scanner.
func (l *AttachmentList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported attachments source type %T", src)
	}

	if len(raw) == 0 {
		*l = nil
		return nil
	}

	var list []Attachment
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("unmarshal attachments: %w", err)
	}
	*l = list
	return nil
}

// MarshalJSON renders a nil list as [] so API consumers always see an array.
func (l AttachmentList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Attachment(l))
}

// Find returns the attachment with the given stored filename.
func (l AttachmentList) Find(filename string) (Attachment, bool) {
	for _, att := range l {
		if att.Filename == filename {
			return att, true
		}
	}
	return Attachment{}, false
}

// Without returns a copy of the list with the named file removed.
func (l AttachmentList) Without(filename string) AttachmentList {
	if len(l) == 0 {
		return nil
	}
	out := make(AttachmentList, 0, len(l))
	for _, att := range l {
		if att.Filename != filename {
			out = append(out, att)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
