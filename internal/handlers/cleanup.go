package handlers

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCleanupService removes stale scratch files left behind by compositing
// and font installs. Font files themselves are kept; only temp artifacts go.
type FileCleanupService struct {
	workDir string
	fontDir string
	maxAge  time.Duration
	ticker  *time.Ticker
	done    chan bool
}

func NewFileCleanupService(workDir, fontDir string, maxAge time.Duration) *FileCleanupService {
	return &FileCleanupService{
		workDir: workDir,
		fontDir: fontDir,
		maxAge:  maxAge,
		done:    make(chan bool),
	}
}

func (fcs *FileCleanupService) Start() {
	fcs.ticker = time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-fcs.done:
				return
			case <-fcs.ticker.C:
				fcs.cleanupOldFiles()
			}
		}
	}()
	log.Println("File cleanup service started")
}

func (fcs *FileCleanupService) Stop() {
	if fcs.ticker != nil {
		fcs.ticker.Stop()
	}
	fcs.done <- true
	log.Println("File cleanup service stopped")
}

func (fcs *FileCleanupService) cleanupOldFiles() {
	fcs.cleanupDirectory(fcs.workDir, func(string) bool { return true })
	fcs.cleanupDirectory(fcs.fontDir, func(path string) bool {
		// partial downloads and editor droppings, never installed fonts
		return !strings.HasSuffix(path, ".ttf")
	})
}

func (fcs *FileCleanupService) cleanupDirectory(dir string, eligible func(string) bool) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && eligible(path) && time.Since(info.ModTime()) > fcs.maxAge {
			log.Printf("Cleaning up old file: %s", path)
			return os.Remove(path)
		}

		return nil
	})

	if err != nil {
		log.Printf("Error during cleanup of %s: %v", dir, err)
	}
}
