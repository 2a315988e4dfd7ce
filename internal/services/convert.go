package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
)

// ConvertService turns office documents into PDFs through Gotenberg, so
// users can upload a .docx and still sign a PDF.
type ConvertService struct {
	client  *gotenberg.Client
	timeout time.Duration
}

func NewConvertService(gotenbergURL string, timeoutStr string) (*ConvertService, error) {
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		fmt.Printf("Warning: failed to parse timeout '%s', using default 30s: %v\n", timeoutStr, err)
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &ConvertService{
		client:  client,
		timeout: timeout,
	}, nil
}

// ConvertDocxToPDF converts docx bytes to PDF bytes, retrying transient
// conversion failures with linear backoff.
func (s *ConvertService) ConvertDocxToPDF(ctx context.Context, docx []byte, filename string) ([]byte, error) {
	const maxRetries = 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		convertCtx, cancel := context.WithTimeout(ctx, s.timeout)

		doc, err := document.FromReader(filename, bytes.NewReader(docx))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create document from reader: %w", err)
		}

		req := gotenberg.NewLibreOfficeRequest(doc)

		resp, err := s.client.Send(convertCtx, req)
		if err == nil {
			pdf, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			cancel()
			if readErr != nil {
				return nil, fmt.Errorf("failed to read converted document: %w", readErr)
			}
			return pdf, nil
		}
		cancel()

		lastErr = err
		fmt.Printf("PDF conversion attempt %d/%d failed: %v\n", attempt, maxRetries, err)

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to convert document after %d attempts: %w", maxRetries, lastErr)
}
