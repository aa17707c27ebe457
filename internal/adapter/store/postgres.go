// Package store implements quiz persistence lookups over Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edulens/quizcover/internal/domain"
	"github.com/edulens/quizcover/internal/port"
)

// PostgresStore handles the relational reads the coverage engine needs. Quiz
// module metadata and extracted content live in jsonb columns.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool and verifies connectivity.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetQuiz retrieves a quiz with its selected modules and extracted content.
func (s *PostgresStore) GetQuiz(ctx context.Context, quizID uuid.UUID) (*domain.Quiz, error) {
	query := `SELECT id, title, selected_modules, extracted_content, created_at, updated_at
	          FROM quizzes WHERE id = $1`

	var (
		quiz             domain.Quiz
		selectedModules  []byte
		extractedContent []byte
	)
	err := s.db.QueryRowContext(ctx, query, quizID).Scan(
		&quiz.ID, &quiz.Title, &selectedModules, &extractedContent,
		&quiz.CreatedAt, &quiz.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	if len(selectedModules) > 0 {
		if err := json.Unmarshal(selectedModules, &quiz.SelectedModules); err != nil {
			return nil, fmt.Errorf("decode selected_modules: %w", err)
		}
	}
	if len(extractedContent) > 0 {
		if err := json.Unmarshal(extractedContent, &quiz.ExtractedContent); err != nil {
			return nil, fmt.Errorf("decode extracted_content: %w", err)
		}
	}
	return &quiz, nil
}

// GetModuleQuestions returns all non-deleted questions for one module.
func (s *PostgresStore) GetModuleQuestions(ctx context.Context, quizID uuid.UUID, moduleID string) ([]domain.Question, error) {
	query := `SELECT id, quiz_id, module_id, question_type, question_data, created_at
	          FROM questions
	          WHERE quiz_id = $1 AND module_id = $2 AND deleted = FALSE
	          ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, quizID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("get module questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q    domain.Question
			data []byte
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.ModuleID, &q.Type, &data, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &q.Data); err != nil {
				return nil, fmt.Errorf("decode question_data: %w", err)
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountQuestionsByModule returns non-deleted question counts grouped by module.
func (s *PostgresStore) CountQuestionsByModule(ctx context.Context, quizID uuid.UUID) (map[string]int, error) {
	query := `SELECT module_id, COUNT(*)
	          FROM questions
	          WHERE quiz_id = $1 AND deleted = FALSE AND module_id <> ''
	          GROUP BY module_id`

	rows, err := s.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("count questions by module: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			moduleID string
			n        int
		)
		if err := rows.Scan(&moduleID, &n); err != nil {
			return nil, fmt.Errorf("scan question count: %w", err)
		}
		counts[moduleID] = n
	}
	return counts, rows.Err()
}
