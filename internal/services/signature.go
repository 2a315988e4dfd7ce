package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"signhub/internal"
	"signhub/internal/fontcache"
	"signhub/internal/models"
	"signhub/internal/placement"
	"signhub/internal/storage"

	"github.com/google/uuid"
)

// SignatureService persists signature placements. It implements
// placement.Repository for the in-memory store.
type SignatureService struct {
	gcsClient storage.ObjectStore
	catalog   *fontcache.Catalog
}

func NewSignatureService(gcsClient storage.ObjectStore, catalog *fontcache.Catalog) *SignatureService {
	return &SignatureService{
		gcsClient: gcsClient,
		catalog:   catalog,
	}
}

func (s *SignatureService) List(ctx context.Context, documentID string) ([]models.Signature, error) {
	var sigs []models.Signature
	if err := internal.DB.Where("document_id = ?", documentID).Order("created_at ASC").Find(&sigs).Error; err != nil {
		return nil, &PersistenceError{Op: "listing signatures", Err: err}
	}
	return sigs, nil
}

func (s *SignatureService) Get(ctx context.Context, id string) (*models.Signature, error) {
	var sig models.Signature
	if err := internal.DB.First(&sig, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("signature not found: %w", err)
	}
	return &sig, nil
}

// Create validates and persists a new placement. Typed placements must use
// a catalog font family.
func (s *SignatureService) Create(ctx context.Context, sig *models.Signature) (*models.Signature, error) {
	sig.ApplyDefaults()
	if err := sig.Validate(); err != nil {
		return nil, err
	}
	if sig.Type == models.SignatureTyped && !s.catalog.Allowed(sig.Font) {
		return nil, &models.ValidationError{Field: "font", Reason: fmt.Sprintf("%q is not an available signature font", sig.Font)}
	}

	sig.ID = uuid.New().String()
	if err := internal.DB.Create(sig).Error; err != nil {
		return nil, &PersistenceError{Op: "saving signature", Err: err}
	}
	return sig, nil
}

// CreateFromImage uploads the signature raster to object storage, then
// persists the placement pointing at it. Used for both drawn and uploaded
// signature images.
func (s *SignatureService) CreateFromImage(ctx context.Context, file multipart.File, header *multipart.FileHeader, sig *models.Signature) (*models.Signature, error) {
	objectName := storage.SignatureObjectName(sig.DocumentID, header.Filename)

	result, err := s.gcsClient.UploadFile(ctx, file, objectName, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to upload signature image: %w", err)
	}

	sig.SignatureURL = result.PublicURL
	if sig.Type == "" || sig.Type == models.SignatureTyped {
		sig.Type = models.SignatureUpload
	}

	saved, err := s.Create(ctx, sig)
	if err != nil {
		s.gcsClient.DeleteFile(ctx, objectName)
		return nil, err
	}
	return saved, nil
}

// Update applies content edits (name, font, color, kind, lock state) and
// returns the fresh record.
func (s *SignatureService) Update(ctx context.Context, id string, updates map[string]interface{}) (*models.Signature, error) {
	allowed := map[string]bool{
		"name": true, "font": true, "color": true, "type": true,
		"signature_url": true, "locked": true,
		"x": true, "y": true, "width": true, "height": true,
	}
	fields := make(map[string]interface{})
	for k, v := range updates {
		if allowed[k] {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return s.Get(ctx, id)
	}

	result := internal.DB.Model(&models.Signature{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, &PersistenceError{Op: "updating signature", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("signature not found: %s", id)
	}
	return s.Get(ctx, id)
}

// UpdateRect persists a position/size change coming off a drag or resize.
func (s *SignatureService) UpdateRect(ctx context.Context, id string, upd placement.RectUpdate) error {
	fields := map[string]interface{}{
		"x": upd.X,
		"y": upd.Y,
	}
	if upd.Width != nil {
		fields["width"] = *upd.Width
	}
	if upd.Height != nil {
		fields["height"] = *upd.Height
	}

	result := internal.DB.Model(&models.Signature{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return &PersistenceError{Op: "updating signature position", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("signature not found: %s", id)
	}
	return nil
}

func (s *SignatureService) Delete(ctx context.Context, id string) error {
	result := internal.DB.Where("id = ?", id).Delete(&models.Signature{})
	if result.Error != nil {
		return &PersistenceError{Op: "deleting signature", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("signature not found: %s", id)
	}
	return nil
}
