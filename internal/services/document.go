package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"signhub/internal"
	"signhub/internal/models"
	"signhub/internal/storage"

	"github.com/google/uuid"
)

type DocumentService struct {
	gcsClient storage.ObjectStore
	converter *ConvertService
}

func NewDocumentService(gcsClient storage.ObjectStore, converter *ConvertService) *DocumentService {
	return &DocumentService{
		gcsClient: gcsClient,
		converter: converter,
	}
}

// Upload stores a new source document for a user. PDFs are stored as is;
// DOCX uploads are converted to PDF first so the rest of the pipeline only
// ever sees PDFs.
func (s *DocumentService) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, userID string) (*models.Document, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	fileName := header.Filename
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".pdf":
		// stored directly
	case ".docx":
		if s.converter == nil {
			return nil, fmt.Errorf("docx uploads are not enabled")
		}
		data, err = s.converter.ConvertDocxToPDF(ctx, data, header.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to convert document: %w", err)
		}
		fileName = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename)) + ".pdf"
	default:
		return nil, fmt.Errorf("unsupported file type %s", filepath.Ext(header.Filename))
	}

	documentID := uuid.New().String()
	objectName := storage.DocumentObjectName(documentID, fileName)

	result, err := s.gcsClient.UploadFile(ctx, bytes.NewReader(data), objectName, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to upload to GCS: %w", err)
	}

	doc := &models.Document{
		ID:           documentID,
		UserID:       userID,
		FileName:     fileName,
		OriginalName: header.Filename,
		GCSPath:      objectName,
		FileURL:      result.PublicURL,
		FileSize:     result.Size,
		MimeType:     "application/pdf",
	}

	if err := internal.DB.Create(doc).Error; err != nil {
		s.gcsClient.DeleteFile(ctx, objectName)
		return nil, &PersistenceError{Op: "saving document metadata", Err: err}
	}

	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	if err := internal.DB.First(&doc, "id = ?", documentID).Error; err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}
	return &doc, nil
}

func (s *DocumentService) ListByUser(userID string) ([]models.Document, error) {
	var docs []models.Document
	if err := internal.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, &PersistenceError{Op: "listing documents", Err: err}
	}
	return docs, nil
}

// ListTrash returns a user's soft-deleted documents.
func (s *DocumentService) ListTrash(userID string) ([]models.Document, error) {
	var docs []models.Document
	err := internal.DB.Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL", userID).
		Order("deleted_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, &PersistenceError{Op: "listing trash", Err: err}
	}
	return docs, nil
}

func (s *DocumentService) SoftDelete(ctx context.Context, documentID string) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if err := internal.DB.Delete(doc).Error; err != nil {
		return &PersistenceError{Op: "deleting document", Err: err}
	}
	return nil
}

func (s *DocumentService) Restore(ctx context.Context, documentID string) error {
	result := internal.DB.Unscoped().
		Model(&models.Document{}).
		Where("id = ?", documentID).
		Update("deleted_at", nil)
	if result.Error != nil {
		return &PersistenceError{Op: "restoring document", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("document not found: %s", documentID)
	}
	return nil
}

// PermanentDelete removes the document's stored files and its placements
// for good. Storage failures are logged but do not keep the rows around.
func (s *DocumentService) PermanentDelete(ctx context.Context, documentID string) error {
	var doc models.Document
	if err := internal.DB.Unscoped().First(&doc, "id = ?", documentID).Error; err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	if doc.GCSPath != "" {
		if err := s.gcsClient.DeleteFile(ctx, doc.GCSPath); err != nil {
			fmt.Printf("Warning: failed to delete GCS file %s: %v\n", doc.GCSPath, err)
		}
	}
	if doc.SignedGCSPath != "" {
		if err := s.gcsClient.DeleteFile(ctx, doc.SignedGCSPath); err != nil {
			fmt.Printf("Warning: failed to delete GCS file %s: %v\n", doc.SignedGCSPath, err)
		}
	}

	if err := internal.DB.Unscoped().Where("document_id = ?", documentID).Delete(&models.Signature{}).Error; err != nil {
		return &PersistenceError{Op: "deleting placements", Err: err}
	}
	if err := internal.DB.Unscoped().Delete(&doc).Error; err != nil {
		return &PersistenceError{Op: "deleting document", Err: err}
	}
	return nil
}

// GetReader streams the stored source PDF.
func (s *DocumentService) GetReader(ctx context.Context, documentID string) (io.ReadCloser, string, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, "", err
	}

	reader, err := s.gcsClient.ReadFile(ctx, doc.GCSPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document from GCS: %w", err)
	}

	return reader, doc.FileName, nil
}

// RecordSigned stores the name and object path of the latest finalized PDF
// on the document row.
func (s *DocumentService) RecordSigned(ctx context.Context, documentID, fileName, gcsPath string) error {
	err := internal.DB.Model(&models.Document{}).
		Where("id = ?", documentID).
		Updates(map[string]interface{}{
			"signed_file_name": fileName,
			"signed_gcs_path":  gcsPath,
		}).Error
	if err != nil {
		return &PersistenceError{Op: "recording signed file", Err: err}
	}
	return nil
}
