package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"signhub/internal/composer"
	"signhub/internal/models"
	"signhub/internal/placement"
	"signhub/internal/storage"
)

// Mode selects what happens to the composited bytes.
type Mode string

const (
	// ModePersist stores the finalized PDF remotely and hands the bytes
	// back for a local save.
	ModePersist Mode = "persist"
	// ModePreview returns bytes meant to be opened inline, nothing stored.
	ModePreview Mode = "preview"
	// ModeBlob returns raw bytes for an embedded viewer.
	ModeBlob Mode = "blob"
)

// DocumentFinder is the document access the orchestrator needs.
type DocumentFinder interface {
	Get(ctx context.Context, id string) (*models.Document, error)
	RecordSigned(ctx context.Context, id, fileName, gcsPath string) error
}

// FinalizeResult carries the composited document plus the outcome of the
// optional remote store. UploadErr being set means persistence failed but
// the bytes are still good for local delivery.
type FinalizeResult struct {
	FileName  string
	Bytes     []byte
	Uploaded  bool
	UploadErr error
}

// FinalizeService sequences fetch-original, composite, and result routing.
type FinalizeService struct {
	docs       DocumentFinder
	placements placement.Repository
	composer   *composer.Composer
	store      storage.ObjectStore
	client     *http.Client
}

func NewFinalizeService(docs DocumentFinder, placements placement.Repository, comp *composer.Composer, store storage.ObjectStore, client *http.Client) *FinalizeService {
	if client == nil {
		client = http.DefaultClient
	}
	return &FinalizeService{
		docs:       docs,
		placements: placements,
		composer:   comp,
		store:      store,
		client:     client,
	}
}

// Finalize produces the signed PDF for a document. Failure to fetch or
// parse the original aborts; failure to persist in ModePersist degrades to
// local-only delivery, reported through FinalizeResult.UploadErr.
func (s *FinalizeService) Finalize(ctx context.Context, documentID string, mode Mode) (*FinalizeResult, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	original, err := s.fetchOriginal(ctx, doc)
	if err != nil {
		return nil, err
	}

	sigs, err := s.placements.List(ctx, documentID)
	if err != nil {
		return nil, err
	}

	composed, err := s.composer.Compose(ctx, original, sigs)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize PDF: %w", err)
	}

	result := &FinalizeResult{
		FileName: fmt.Sprintf("signed-%d.pdf", time.Now().UnixMilli()),
		Bytes:    composed,
	}

	if mode == ModePreview || mode == ModeBlob {
		return result, nil
	}

	objectName := storage.SignedObjectName(doc.ID, result.FileName)
	if _, err := s.store.UploadFile(ctx, bytes.NewReader(composed), objectName, "application/pdf"); err != nil {
		// The user's completed work is never lost to a storage failure.
		result.UploadErr = &UploadError{Err: err}
		return result, nil
	}
	result.Uploaded = true

	if err := s.docs.RecordSigned(ctx, doc.ID, result.FileName, objectName); err != nil {
		log.Printf("failed to record signed file for document %s: %v", doc.ID, err)
	}

	return result, nil
}

// fetchOriginal prefers the stored object; documents referenced only by URL
// are fetched over HTTP. Either failure aborts the whole finalize.
func (s *FinalizeService) fetchOriginal(ctx context.Context, doc *models.Document) ([]byte, error) {
	if doc.GCSPath != "" {
		rc, err := s.store.ReadFile(ctx, doc.GCSPath)
		if err == nil {
			defer rc.Close()
			data, readErr := io.ReadAll(rc)
			if readErr == nil {
				return data, nil
			}
			err = readErr
		}
		if doc.FileURL == "" {
			return nil, fmt.Errorf("failed to fetch original PDF: %w", err)
		}
	}

	if doc.FileURL == "" {
		return nil, fmt.Errorf("document %s has no stored file", doc.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.FileURL, nil)
	if err != nil {
		return nil, &composer.FetchError{URL: doc.FileURL, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &composer.FetchError{URL: doc.FileURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &composer.FetchError{URL: doc.FileURL, Status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
