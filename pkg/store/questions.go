package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexora-ai/nexora/pkg/models"
)

// QuestionStore persists practice questions.
type QuestionStore struct {
	db *sql.DB
}

const questionColumns = `id, chapter_id, type, question, answer_a, answer_b, answer_c, answer_d,
	correct_answer, explanation, users_answer, points, feedback`

func scanQuestion(row interface{ Scan(...any) error }) (*models.PracticeQuestion, error) {
	var q models.PracticeQuestion
	var a, b, c, d, explanation, usersAnswer, feedback sql.NullString
	var points sql.NullInt64
	err := row.Scan(&q.ID, &q.ChapterID, &q.Type, &q.Question, &a, &b, &c, &d,
		&q.CorrectAnswer, &explanation, &usersAnswer, &points, &feedback)
	if err != nil {
		return nil, err
	}
	q.AnswerA, q.AnswerB, q.AnswerC, q.AnswerD = a.String, b.String, c.String, d.String
	q.Explanation = explanation.String
	if usersAnswer.Valid {
		q.UsersAnswer = &usersAnswer.String
	}
	if points.Valid {
		p := int(points.Int64)
		q.Points = &p
	}
	if feedback.Valid {
		q.Feedback = &feedback.String
	}
	return &q, nil
}

// Create inserts a question row and returns its id.
func (s *QuestionStore) Create(ctx context.Context, q *models.PracticeQuestion) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO practice_questions (chapter_id, type, question, answer_a, answer_b, answer_c, answer_d, correct_answer, explanation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		q.ChapterID, q.Type, q.Question,
		nullString(q.AnswerA), nullString(q.AnswerB), nullString(q.AnswerC), nullString(q.AnswerD),
		q.CorrectAnswer, nullString(q.Explanation)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create question: %w", err)
	}
	return id, nil
}

// GetByID returns a question, or sql.ErrNoRows.
func (s *QuestionStore) GetByID(ctx context.Context, id int64) (*models.PracticeQuestion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM practice_questions WHERE id = $1`, id)
	return scanQuestion(row)
}

// ListByChapter returns the chapter's questions in insertion order.
func (s *QuestionStore) ListByChapter(ctx context.Context, chapterID int64) ([]*models.PracticeQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM practice_questions WHERE chapter_id = $1 ORDER BY id`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []*models.PracticeQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SaveUserAnswer stores the user's answer without grading it.
func (s *QuestionStore) SaveUserAnswer(ctx context.Context, id int64, answer string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE practice_questions SET users_answer = $1 WHERE id = $2`, answer, id)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// SaveAnswer stores the user's answer together with the grading result.
func (s *QuestionStore) SaveAnswer(ctx context.Context, id int64, answer string, points int, feedback string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE practice_questions SET users_answer = $1, points = $2, feedback = $3 WHERE id = $4`,
		answer, points, nullString(feedback), id)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}
