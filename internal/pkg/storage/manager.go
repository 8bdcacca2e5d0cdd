package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/internal/pkg/constants"
	"github.com/trocalar/TrocaLar/internal/pkg/env"
)

// Manager handles photo files on the local disk. Originals can additionally
// be pushed to S3 by the job queue; the local tree stays the serving source.
type Manager struct {
	basePath  string
	publicURL string
}

// FileOperation represents a file operation result
type FileOperation struct {
	Success  bool          `json:"success"`
	FilePath string        `json:"file_path"`
	Size     int64         `json:"size"`
	Duration time.Duration `json:"duration"`
	Error    error         `json:"error,omitempty"`
}

// NewManager creates a storage manager from STORAGE_PATH and PUBLIC_DOMAIN.
func NewManager() *Manager {
	return &Manager{
		basePath:  env.GetEnv("STORAGE_PATH", "./uploads"),
		publicURL: strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/"),
	}
}

// PhotoKey builds the relative path of an original photo.
// Layout: photos/YYYY/MM/UUID.ext
func PhotoKey(photoUUID, ext string, t time.Time) string {
	return fmt.Sprintf("photos/%04d/%02d/%s%s", t.Year(), int(t.Month()), photoUUID, strings.ToLower(ext))
}

// VariantKey builds the relative path of a generated thumbnail.
func VariantKey(photoUUID, variant string, t time.Time) string {
	return fmt.Sprintf("photos/%04d/%02d/%s_%s.jpg", t.Year(), int(t.Month()), photoUUID, variant)
}

// SaveFile writes the reader's content below the storage root.
func (m *Manager) SaveFile(data io.Reader, relativePath string) (*FileOperation, error) {
	startTime := time.Now()

	operation := &FileOperation{}
	fullPath := filepath.Join(m.basePath, relativePath)
	operation.FilePath = fullPath

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		operation.Error = fmt.Errorf("failed to create directory %s: %w", dir, err)
		operation.Duration = time.Since(startTime)
		return operation, operation.Error
	}

	file, err := os.Create(fullPath)
	if err != nil {
		operation.Error = fmt.Errorf("failed to create file %s: %w", fullPath, err)
		operation.Duration = time.Since(startTime)
		return operation, operation.Error
	}
	defer file.Close()

	bytesWritten, err := io.Copy(file, data)
	if err != nil {
		operation.Error = fmt.Errorf("failed to write file %s: %w", fullPath, err)
		operation.Duration = time.Since(startTime)
		// Clean up partial file
		os.Remove(fullPath)
		return operation, operation.Error
	}

	operation.Success = true
	operation.Size = bytesWritten
	operation.Duration = time.Since(startTime)

	log.Debugf("[Storage] Saved %s (%d bytes) in %v", relativePath, bytesWritten, operation.Duration)

	return operation, nil
}

// DeleteFile removes a file below the storage root. A missing file counts as
// success.
func (m *Manager) DeleteFile(relativePath string) (*FileOperation, error) {
	startTime := time.Now()

	operation := &FileOperation{}
	fullPath := filepath.Join(m.basePath, relativePath)
	operation.FilePath = fullPath

	fileInfo, err := os.Stat(fullPath)
	if err == nil {
		operation.Size = fileInfo.Size()
	}

	if err := os.Remove(fullPath); err != nil {
		if !os.IsNotExist(err) {
			operation.Error = fmt.Errorf("failed to delete file %s: %w", fullPath, err)
			operation.Duration = time.Since(startTime)
			return operation, operation.Error
		}
	}

	operation.Success = true
	operation.Duration = time.Since(startTime)

	log.Debugf("[Storage] Deleted %s in %v", relativePath, operation.Duration)

	return operation, nil
}

// FilePath returns the absolute path of a stored file.
func (m *Manager) FilePath(relativePath string) string {
	return filepath.Join(m.basePath, relativePath)
}

// PublicURL returns the URL clients use to fetch a stored file.
func (m *Manager) PublicURL(relativePath string) string {
	return m.publicURL + constants.UploadsRoute + "/" + filepath.ToSlash(relativePath)
}

// BasePath returns the storage root, e.g. for static file serving setup.
func (m *Manager) BasePath() string {
	return m.basePath
}
