package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/edulens/quizcover/internal/domain"
)

// QuizStore is the read-side view of quiz persistence the coverage engine
// needs. The rest of the quiz lifecycle (generation, export, sharing) lives
// elsewhere.
type QuizStore interface {
	// GetQuiz returns the quiz with its selected modules and extracted
	// content, or ErrQuizNotFound.
	GetQuiz(ctx context.Context, quizID uuid.UUID) (*domain.Quiz, error)

	// GetModuleQuestions returns all non-deleted questions generated for one
	// module of a quiz, in creation order.
	GetModuleQuestions(ctx context.Context, quizID uuid.UUID, moduleID string) ([]domain.Question, error)

	// CountQuestionsByModule returns non-deleted question counts grouped by
	// module id.
	CountQuestionsByModule(ctx context.Context, quizID uuid.UUID) (map[string]int, error)
}
