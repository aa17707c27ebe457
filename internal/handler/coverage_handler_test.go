package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulens/quizcover/internal/domain"
	"github.com/edulens/quizcover/internal/port"
	"github.com/edulens/quizcover/internal/service"
)

type fakeStore struct {
	quiz      *domain.Quiz
	quizErr   error
	questions []domain.Question
	counts    map[string]int
}

func (f *fakeStore) GetQuiz(_ context.Context, _ uuid.UUID) (*domain.Quiz, error) {
	if f.quizErr != nil {
		return nil, f.quizErr
	}
	return f.quiz, nil
}

func (f *fakeStore) GetModuleQuestions(_ context.Context, _ uuid.UUID, _ string) ([]domain.Question, error) {
	return f.questions, nil
}

func (f *fakeStore) CountQuestionsByModule(_ context.Context, _ uuid.UUID) (map[string]int, error) {
	return f.counts, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) ModelName() string { return "fake-embedding" }

func (fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func newTestApp(store port.QuizStore) *fiber.App {
	app := fiber.New()
	api := app.Group("/api/v1")
	NewCoverageHandler(service.NewCoverageService(store, fakeEmbedder{})).Register(api)
	return app
}

func TestListModulesInvalidQuizID(t *testing.T) {
	app := newTestApp(&fakeStore{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/coverage/not-a-uuid/modules", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListModulesQuizNotFound(t *testing.T) {
	app := newTestApp(&fakeStore{quizErr: port.ErrQuizNotFound})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/coverage/"+uuid.NewString()+"/modules", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "quiz not found", body["error"])
}

func TestListModulesInternalErrorIsGeneric(t *testing.T) {
	app := newTestApp(&fakeStore{quizErr: errors.New("connection refused to db-host:5432")})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/coverage/"+uuid.NewString()+"/modules", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "failed to list modules for coverage analysis", body["error"])
	assert.NotContains(t, body["error"], "db-host")
}

func TestListModulesSuccess(t *testing.T) {
	quiz := &domain.Quiz{
		ID:              uuid.New(),
		SelectedModules: map[string]domain.ModuleInfo{"mod-1": {Name: "Introduction"}},
		ExtractedContent: map[string]domain.PageList{
			"mod-1": {{Title: "Page", Content: "Extracted text lives here."}},
		},
	}
	app := newTestApp(&fakeStore{quiz: quiz, counts: map[string]int{"mod-1": 2}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/coverage/"+quiz.ID.String()+"/modules", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body domain.ModuleListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Modules, 1)
	assert.Equal(t, "Introduction", body.Modules[0].ModuleName)
	assert.Equal(t, 2, body.Modules[0].QuestionCount)
	assert.True(t, body.Modules[0].HasContent)
}

func TestGetModuleCoverageValidationErrors(t *testing.T) {
	quiz := &domain.Quiz{
		ID:              uuid.New(),
		SelectedModules: map[string]domain.ModuleInfo{"mod-1": {Name: "Introduction"}},
		ExtractedContent: map[string]domain.PageList{
			"mod-1": {{Title: "Page", Content: "A sentence long enough to analyze."}},
		},
	}

	t.Run("module not in extracted content", func(t *testing.T) {
		app := newTestApp(&fakeStore{quiz: quiz})
		resp, err := app.Test(httptest.NewRequest(http.MethodGet,
			"/api/v1/coverage/"+quiz.ID.String()+"/modules/mod-404", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("no questions", func(t *testing.T) {
		app := newTestApp(&fakeStore{quiz: quiz})
		resp, err := app.Test(httptest.NewRequest(http.MethodGet,
			"/api/v1/coverage/"+quiz.ID.String()+"/modules/mod-1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetModuleCoverageSuccess(t *testing.T) {
	quiz := &domain.Quiz{
		ID:              uuid.New(),
		SelectedModules: map[string]domain.ModuleInfo{"mod-1": {Name: "Introduction"}},
		ExtractedContent: map[string]domain.PageList{
			"mod-1": {{Title: "Page", Content: "This is a test sentence. Another sentence here."}},
		},
	}
	question := domain.Question{
		ID:   uuid.New(),
		Type: domain.QuestionTypeMultipleChoice,
		Data: map[string]any{"question_text": "What is a test?"},
	}
	app := newTestApp(&fakeStore{quiz: quiz, questions: []domain.Question{question}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/api/v1/coverage/"+quiz.ID.String()+"/modules/mod-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body domain.ModuleCoverageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, quiz.ID, body.QuizID)
	assert.Equal(t, 2, body.Module.TotalSentences)
	require.Len(t, body.QuestionMappings, 1)
	assert.Equal(t, question.ID, body.QuestionMappings[0].QuestionID)
	assert.NotEmpty(t, body.ComputedAt)
	assert.GreaterOrEqual(t, body.Module.OverallCoveragePercentage, 0.0)
	assert.LessOrEqual(t, body.Module.OverallCoveragePercentage, 100.0)
}
