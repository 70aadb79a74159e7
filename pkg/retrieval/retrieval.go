// Package retrieval bridges uploaded documents and chapter generation: it
// ingests document paragraphs into a per-course vector collection and pulls
// the most relevant chunks back out as context for each chapter.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nexora-ai/nexora/pkg/ingest"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/vector"
)

// Per-chapter retrieval depth: two chunks for the caption, three per
// content bullet.
const (
	captionTopK = 2
	bulletTopK  = 3
)

// Embedder is the embedding dependency, satisfied by vector.Embedder.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// Service ingests documents and retrieves chapter context.
type Service struct {
	index            *vector.Index
	embedder         Embedder
	collectionPrefix string
	logger           *slog.Logger
}

// NewService creates a retrieval service over the given index and embedder.
func NewService(index *vector.Index, embedder Embedder, collectionPrefix string, logger *slog.Logger) *Service {
	return &Service{
		index:            index,
		embedder:         embedder,
		collectionPrefix: collectionPrefix,
		logger:           logger.With("component", "retrieval"),
	}
}

// Collection returns the per-course collection name.
func (s *Service) Collection(courseID int64) string {
	return fmt.Sprintf("%s%d", s.collectionPrefix, courseID)
}

// IngestDocument splits a PDF document into paragraphs, embeds them and
// upserts them into the course collection. Content ids are derived from the
// document id and position, so re-ingesting replaces rather than duplicates.
func (s *Service) IngestDocument(ctx context.Context, courseID int64, doc *models.Document) (int, error) {
	pages, err := ingest.ExtractPages(doc.Data)
	if err != nil {
		return 0, fmt.Errorf("failed to extract %q: %w", doc.Filename, err)
	}
	paragraphs := ingest.SplitDocument(pages)
	if len(paragraphs) == 0 {
		s.logger.Warn("document yielded no paragraphs", "document_id", doc.ID, "filename", doc.Filename)
		return 0, nil
	}
	if err := s.ingestParagraphs(ctx, courseID, doc, paragraphs); err != nil {
		return 0, err
	}
	s.logger.Info("document ingested",
		"document_id", doc.ID, "filename", doc.Filename,
		"pages", len(pages), "paragraphs", len(paragraphs))
	return len(paragraphs), nil
}

func (s *Service) ingestParagraphs(ctx context.Context, courseID int64, doc *models.Document, paragraphs []ingest.Paragraph) error {
	texts := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		texts[i] = p.Text
	}
	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %q: %w", doc.Filename, err)
	}

	collection := s.Collection(courseID)
	for i, p := range paragraphs {
		chunk := vector.Chunk{
			ContentID: fmt.Sprintf("doc_%d_page_%d_para_%d", doc.ID, p.Page, p.ParagraphIndex),
			Text:      p.Text,
			Metadata: map[string]any{
				"type":            "pdf_paragraph",
				"course":          courseID,
				"document":        doc.ID,
				"filename":        doc.Filename,
				"page":            p.Page,
				"paragraph_index": p.ParagraphIndex,
				"word_count":      p.WordCount,
			},
		}
		if err := s.index.Upsert(ctx, collection, chunk, embeddings[i]); err != nil {
			return err
		}
	}
	return nil
}

// HasContext reports whether the course collection holds any chunks.
func (s *Service) HasContext(ctx context.Context, courseID int64) (bool, error) {
	n, err := s.index.Count(ctx, s.Collection(courseID))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// QueryContext returns the top-k chunk texts for a free-text query against
// the course collection.
func (s *Service) QueryContext(ctx context.Context, courseID int64, query string, k int) ([]string, error) {
	embedding, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed retrieval query: %w", err)
	}
	hits, err := s.index.Query(ctx, s.Collection(courseID), embedding, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	return texts, nil
}

// ChapterContext retrieves the context chunks for one planned chapter: the
// caption query and one query per content bullet, deduplicated by chunk
// text, in retrieval order.
func (s *Service) ChapterContext(ctx context.Context, courseID int64, plan models.ChapterPlan) ([]string, error) {
	collection := s.Collection(courseID)

	queries := []retrievalQuery{{text: plan.Caption, k: captionTopK}}
	for _, bullet := range plan.Content {
		queries = append(queries, retrievalQuery{text: bullet, k: bulletTopK})
	}

	seen := make(map[string]struct{})
	var chunks []string
	for _, q := range queries {
		embedding, err := s.embedder.EmbedOne(ctx, q.text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed retrieval query: %w", err)
		}
		hits, err := s.index.Query(ctx, collection, embedding, q.k)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if _, dup := seen[h.Text]; dup {
				continue
			}
			seen[h.Text] = struct{}{}
			chunks = append(chunks, h.Text)
		}
	}
	return chunks, nil
}

// DropCourse removes the course's collection after synthesis finishes or the
// course is deleted.
func (s *Service) DropCourse(ctx context.Context, courseID int64) error {
	return s.index.DropCollection(ctx, s.Collection(courseID))
}

type retrievalQuery struct {
	text string
	k    int
}
