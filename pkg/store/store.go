// Package store implements the persistence layer as raw SQL over the shared
// database handle. Each entity gets its own store type; Store bundles them so
// services take a single dependency.
package store

import "database/sql"

// Store bundles the per-entity stores over one database handle.
type Store struct {
	Users     *UserStore
	Courses   *CourseStore
	Chapters  *ChapterStore
	Questions *QuestionStore
	Files     *FileStore
	Notes     *NoteStore
	Chats     *ChatStore
	Usage     *UsageStore
	Search    *SearchStore

	db *sql.DB
}

// New creates a Store over db.
func New(db *sql.DB) *Store {
	return &Store{
		Users:     &UserStore{db: db},
		Courses:   &CourseStore{db: db},
		Chapters:  &ChapterStore{db: db},
		Questions: &QuestionStore{db: db},
		Files:     &FileStore{db: db},
		Notes:     &NoteStore{db: db},
		Chats:     &ChatStore{db: db},
		Usage:     &UsageStore{db: db},
		Search:    &SearchStore{db: db},
		db:        db,
	}
}

// DB exposes the underlying handle for cross-store transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}
