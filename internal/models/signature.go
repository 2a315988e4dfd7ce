package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Signature kinds. Drawn signatures carry their own kind end-to-end instead
// of being stored as "upload" with a side-channel marker; drawn and upload
// differ only in how the image bytes were produced.
const (
	SignatureTyped  = "typed"
	SignatureUpload = "upload"
	SignatureDrawn  = "drawn"
)

// Default footprint of a freshly placed signature, in page-local units.
const (
	DefaultSignatureWidth  = 160.0
	DefaultSignatureHeight = 64.0
)

// Signature is one placement of a signature on a single page of a document.
// X and Y are page-local top-left coordinates, stored independent of any
// viewport zoom or container layout.
type Signature struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	DocumentID   string         `gorm:"not null;index" json:"documentId"`
	PageNumber   int            `gorm:"not null;default:1" json:"page_number"`
	X            float64        `gorm:"not null" json:"x"`
	Y            float64        `gorm:"not null" json:"y"`
	Width        float64        `json:"width"`
	Height       float64        `json:"height"`
	Type         string         `gorm:"type:varchar(16);not null" json:"type"`
	Name         string         `json:"name"`
	Font         string         `json:"font"`
	Color        string         `gorm:"type:varchar(20)" json:"color"`
	SignatureURL string         `json:"signature_url"`
	Locked       bool           `json:"locked"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Document Document `gorm:"foreignKey:DocumentID" json:"-"`
}

func (Signature) TableName() string {
	return "signatures"
}

// ValidationError reports a placement that is missing required fields for
// its kind. It is raised before any persistence round-trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid signature: %s %s", e.Field, e.Reason)
}

// Validate checks the kind-dependent field requirements: typed signatures
// need name, font and color; image-backed signatures need a stored asset URL.
func (s *Signature) Validate() error {
	if s.PageNumber < 1 {
		return &ValidationError{Field: "page_number", Reason: "must be >= 1"}
	}

	switch s.Type {
	case SignatureTyped:
		if strings.TrimSpace(s.Name) == "" {
			return &ValidationError{Field: "name", Reason: "is required for typed signatures"}
		}
		if s.Font == "" {
			return &ValidationError{Field: "font", Reason: "is required for typed signatures"}
		}
		if s.Color == "" {
			return &ValidationError{Field: "color", Reason: "is required for typed signatures"}
		}
	case SignatureUpload, SignatureDrawn:
		if s.SignatureURL == "" {
			return &ValidationError{Field: "signature_url", Reason: "is required for image signatures"}
		}
	default:
		return &ValidationError{Field: "type", Reason: "must be typed, upload or drawn"}
	}

	return nil
}

// ApplyDefaults fills the standard footprint for placements created without
// explicit dimensions.
func (s *Signature) ApplyDefaults() {
	if s.Width <= 0 {
		s.Width = DefaultSignatureWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultSignatureHeight
	}
	if s.PageNumber == 0 {
		s.PageNumber = 1
	}
}
