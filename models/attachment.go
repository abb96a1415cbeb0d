package models

import "time"

// Attachment is a file uploaded against a (module, period) pair.
type Attachment struct {
	AttachmentID int       `gorm:"primaryKey;column:attachment_id" json:"attachment_id"`
	ModuleID     int       `gorm:"column:module_id;not null;index:idx_form_attachments_module_period,priority:1" json:"module_id"`
	Period       string    `gorm:"column:period;size:7;not null;index:idx_form_attachments_module_period,priority:2" json:"period"`
	OriginalName string    `gorm:"column:original_name;size:255" json:"original_name"`
	StoredPath   string    `gorm:"column:stored_path;size:512" json:"-"`
	FileSize     int64     `gorm:"column:file_size" json:"file_size"`
	MimeType     string    `gorm:"column:mime_type;size:128" json:"mime_type"`
	UploadedBy   int       `gorm:"column:uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Attachment) TableName() string {
	return "form_attachments"
}

func (a *Attachment) IsValidDocumentType() bool {
	validTypes := []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"image/jpeg",
		"image/png",
		"text/csv",
	}
	for _, validType := range validTypes {
		if a.MimeType == validType {
			return true
		}
	}
	return false
}

func (a *Attachment) GetFileSizeInMB() float64 {
	return float64(a.FileSize) / (1024 * 1024)
}
