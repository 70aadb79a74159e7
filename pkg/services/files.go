package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nexora-ai/nexora/pkg/config"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/store"
)

// Allowed upload types, keyed by MIME with their accepted extensions.
var (
	documentTypes = map[string][]string{
		"application/pdf":    {".pdf"},
		"text/plain":         {".txt"},
		"application/json":   {".json"},
		"text/csv":           {".csv"},
		"application/msword": {".doc"},
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {".docx"},
	}
	imageTypes = map[string][]string{
		"image/jpeg": {".jpg", ".jpeg"},
		"image/png":  {".png"},
		"image/gif":  {".gif"},
		"image/webp": {".webp"},
	}
)

// FileService implements upload validation and owner-scoped file access.
type FileService struct {
	store  *store.Store
	limits config.UploadConfig
	logger *slog.Logger
}

// NewFileService creates the file service.
func NewFileService(st *store.Store, limits config.UploadConfig, logger *slog.Logger) *FileService {
	return &FileService{store: st, limits: limits, logger: logger.With("component", "file_service")}
}

func validateUpload(filename, contentType string, size, maxBytes int64, allowed map[string][]string) error {
	if size > maxBytes {
		return NewValidationError("file", fmt.Sprintf("exceeds the %d MiB limit", maxBytes>>20))
	}
	exts, ok := allowed[contentType]
	if !ok {
		return NewValidationError("file", fmt.Sprintf("type %q is not allowed", contentType))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return nil
		}
	}
	return NewValidationError("file", fmt.Sprintf("extension %q does not match type %q", ext, contentType))
}

// UploadDocument validates and stores a document upload.
func (s *FileService) UploadDocument(ctx context.Context, userID, filename, contentType string, data []byte) (*models.Document, error) {
	if err := validateUpload(filename, contentType, int64(len(data)), s.limits.MaxDocumentBytes, documentTypes); err != nil {
		return nil, err
	}
	doc := &models.Document{UserID: userID, Filename: filename, ContentType: contentType, Data: data}
	id, err := s.store.Files.CreateDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	s.logger.Info("document uploaded", "document_id", id, "user_id", userID, "bytes", len(data))
	return doc, nil
}

// UploadImage validates and stores an image upload.
func (s *FileService) UploadImage(ctx context.Context, userID, filename, contentType string, data []byte) (*models.Image, error) {
	if err := validateUpload(filename, contentType, int64(len(data)), s.limits.MaxImageBytes, imageTypes); err != nil {
		return nil, err
	}
	img := &models.Image{UserID: userID, Filename: filename, ContentType: contentType, Data: data}
	id, err := s.store.Files.CreateImage(ctx, img)
	if err != nil {
		return nil, err
	}
	img.ID = id
	s.logger.Info("image uploaded", "image_id", id, "user_id", userID, "bytes", len(data))
	return img, nil
}

// GetDocument returns a document the caller owns.
func (s *FileService) GetDocument(ctx context.Context, user *models.User, id int64) (*models.Document, error) {
	doc, err := s.store.Files.GetDocument(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if doc.UserID != user.ID && !user.IsAdmin {
		return nil, ErrNotFound
	}
	return doc, nil
}

// GetImage returns an image the caller owns.
func (s *FileService) GetImage(ctx context.Context, user *models.User, id int64) (*models.Image, error) {
	img, err := s.store.Files.GetImage(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if img.UserID != user.ID && !user.IsAdmin {
		return nil, ErrNotFound
	}
	return img, nil
}

// ListDocuments returns the caller's documents without payloads, optionally
// restricted to those bound to one course.
func (s *FileService) ListDocuments(ctx context.Context, userID string, courseID *int64) ([]*models.Document, error) {
	if courseID != nil {
		return s.store.Files.ListDocumentsByCourse(ctx, userID, *courseID)
	}
	return s.store.Files.ListDocumentsByUser(ctx, userID)
}

// ListImages returns the caller's images without payloads.
func (s *FileService) ListImages(ctx context.Context, userID string) ([]*models.Image, error) {
	return s.store.Files.ListImagesByUser(ctx, userID)
}

// DeleteDocument removes a document the caller owns.
func (s *FileService) DeleteDocument(ctx context.Context, user *models.User, id int64) error {
	if _, err := s.GetDocument(ctx, user, id); err != nil {
		return err
	}
	return s.store.Files.DeleteDocument(ctx, id)
}

// DeleteImage removes an image the caller owns.
func (s *FileService) DeleteImage(ctx context.Context, user *models.User, id int64) error {
	if _, err := s.GetImage(ctx, user, id); err != nil {
		return err
	}
	return s.store.Files.DeleteImage(ctx, id)
}
