package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexora-ai/nexora/pkg/models"
)

// FileStore persists uploaded documents and images as BYTEA rows.
type FileStore struct {
	db *sql.DB
}

// CreateDocument inserts an uploaded document and returns its id.
func (s *FileStore) CreateDocument(ctx context.Context, d *models.Document) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (user_id, course_id, filename, content_type, file_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		d.UserID, d.CourseID, d.Filename, d.ContentType, d.Data).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

// GetDocument returns a document including its payload, or sql.ErrNoRows.
func (s *FileStore) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	var d models.Document
	var courseID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, filename, content_type, file_data, created_at
		FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.UserID, &courseID, &d.Filename, &d.ContentType, &d.Data, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if courseID.Valid {
		d.CourseID = &courseID.Int64
	}
	return &d, nil
}

// ListDocumentsByUser returns the user's documents without payloads.
func (s *FileStore) ListDocumentsByUser(ctx context.Context, userID string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, course_id, filename, content_type, created_at
		FROM documents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var d models.Document
		var courseID sql.NullInt64
		if err := rows.Scan(&d.ID, &d.UserID, &courseID, &d.Filename, &d.ContentType, &d.CreatedAt); err != nil {
			return nil, err
		}
		if courseID.Valid {
			d.CourseID = &courseID.Int64
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

// BindDocuments attaches the given documents to a course.
func (s *FileStore) BindDocuments(ctx context.Context, courseID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE documents SET course_id = $1 WHERE id = $2`, courseID, id); err != nil {
			return fmt.Errorf("failed to bind document %d: %w", id, err)
		}
	}
	return nil
}

// DeleteDocument removes an uploaded document.
func (s *FileStore) DeleteDocument(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// CreateImage inserts an uploaded image and returns its id.
func (s *FileStore) CreateImage(ctx context.Context, img *models.Image) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO images (user_id, course_id, filename, content_type, file_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		img.UserID, img.CourseID, img.Filename, img.ContentType, img.Data).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create image: %w", err)
	}
	return id, nil
}

// GetImage returns an image including its payload, or sql.ErrNoRows.
func (s *FileStore) GetImage(ctx context.Context, id int64) (*models.Image, error) {
	var img models.Image
	var courseID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, course_id, filename, content_type, file_data, created_at
		FROM images WHERE id = $1`, id).
		Scan(&img.ID, &img.UserID, &courseID, &img.Filename, &img.ContentType, &img.Data, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	if courseID.Valid {
		img.CourseID = &courseID.Int64
	}
	return &img, nil
}

// ListImagesByUser returns the user's images without payloads.
func (s *FileStore) ListImagesByUser(ctx context.Context, userID string) ([]*models.Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, course_id, filename, content_type, created_at
		FROM images WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var images []*models.Image
	for rows.Next() {
		var img models.Image
		var courseID sql.NullInt64
		if err := rows.Scan(&img.ID, &img.UserID, &courseID, &img.Filename, &img.ContentType, &img.CreatedAt); err != nil {
			return nil, err
		}
		if courseID.Valid {
			img.CourseID = &courseID.Int64
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

// BindImages attaches the given images to a course.
func (s *FileStore) BindImages(ctx context.Context, courseID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE images SET course_id = $1 WHERE id = $2`, courseID, id); err != nil {
			return fmt.Errorf("failed to bind image %d: %w", id, err)
		}
	}
	return nil
}

// DeleteImage removes an uploaded image.
func (s *FileStore) DeleteImage(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// ListDocumentsByCourse returns the user's documents bound to a course,
// without payloads.
func (s *FileStore) ListDocumentsByCourse(ctx context.Context, userID string, courseID int64) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, course_id, filename, content_type, created_at
		FROM documents WHERE user_id = $1 AND course_id = $2 ORDER BY id`, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var d models.Document
		var cid sql.NullInt64
		if err := rows.Scan(&d.ID, &d.UserID, &cid, &d.Filename, &d.ContentType, &d.CreatedAt); err != nil {
			return nil, err
		}
		if cid.Valid {
			d.CourseID = &cid.Int64
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}
