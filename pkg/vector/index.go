// Package vector implements the embedded vector index used for
// retrieval-augmented chapter generation. Chunks live in a local SQLite
// database; similarity search runs through the sqlite-vec extension's
// cosine distance function.
package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

// Chunk is one stored unit of document text with its embedding metadata.
type Chunk struct {
	ContentID string
	Text      string
	Metadata  map[string]any
}

// Hit is one similarity search result. Similarity is 1 - cosine distance.
type Hit struct {
	ContentID  string
	Text       string
	Metadata   map[string]any
	Similarity float64
}

// Index is a collection-partitioned vector store. Collections are cheap
// labels; dropping one deletes its rows and nothing else.
type Index struct {
	db         *sql.DB
	dimensions int
}

// Open opens (or creates) the index database at path.
func Open(path string, dimensions int) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY,
			collection TEXT NOT NULL,
			content_id TEXT NOT NULL,
			text TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			embedding BLOB NOT NULL,
			UNIQUE(collection, content_id)
		);
		CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize vector schema: %w", err)
	}
	return &Index{db: db, dimensions: dimensions}, nil
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Upsert stores a chunk with its embedding, replacing any chunk with the
// same content id in the collection. Re-ingesting a document is therefore
// idempotent.
func (ix *Index) Upsert(ctx context.Context, collection string, chunk Chunk, embedding []float32) error {
	if len(embedding) != ix.dimensions {
		return fmt.Errorf("embedding has %d dimensions, index expects %d", len(embedding), ix.dimensions)
	}
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode chunk metadata: %w", err)
	}
	_, err = ix.db.ExecContext(ctx, `
		INSERT INTO chunks (collection, content_id, text, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, content_id) DO UPDATE SET
			text = excluded.text,
			metadata = excluded.metadata,
			embedding = excluded.embedding`,
		collection, chunk.ContentID, chunk.Text, string(metadata), encodeEmbedding(embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks in the collection by cosine distance.
func (ix *Index) Query(ctx context.Context, collection string, embedding []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := ix.db.QueryContext(ctx, `
		SELECT content_id, text, metadata,
		       vec_distance_cosine(embedding, ?) AS distance
		FROM chunks
		WHERE collection = ?
		ORDER BY distance ASC
		LIMIT ?`,
		encodeEmbedding(embedding), collection, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var metadata string
		var distance float64
		if err := rows.Scan(&h.ContentID, &h.Text, &metadata, &distance); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metadata), &h.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
		}
		h.Similarity = 1 - distance
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Count returns the number of chunks in a collection.
func (ix *Index) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := ix.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// DropCollection removes every chunk in a collection.
func (ix *Index) DropCollection(ctx context.Context, collection string) error {
	_, err := ix.db.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, collection)
	if err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// encodeEmbedding packs a float32 slice into the little-endian blob layout
// sqlite-vec expects.
func encodeEmbedding(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
