package models

import (
	"time"

	"gorm.io/gorm"
)

type Document struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	UserID         string         `gorm:"not null;index" json:"user_id"`
	FileName       string         `gorm:"not null" json:"file_name"`
	OriginalName   string         `json:"original_name"`
	GCSPath        string         `gorm:"not null" json:"gcs_path"`
	FileURL        string         `json:"file_url"`
	FileSize       int64          `json:"file_size"`
	MimeType       string         `json:"mime_type"`
	SignedFileName string         `json:"signed_file_name,omitempty"`
	SignedGCSPath  string         `json:"signed_gcs_path,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Signatures []Signature `gorm:"foreignKey:DocumentID" json:"signatures,omitempty"`
}

func (Document) TableName() string {
	return "documents"
}
