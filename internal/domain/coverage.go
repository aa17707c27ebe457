package domain

import "github.com/google/uuid"

// CoverageLevel is the qualitative bucket derived from a similarity score.
type CoverageLevel string

const (
	CoverageNone   CoverageLevel = "none"
	CoverageLow    CoverageLevel = "low"
	CoverageMedium CoverageLevel = "medium"
	CoverageHigh   CoverageLevel = "high"
)

// SentenceCoverage annotates a single content sentence with how well the
// question set covers it.
type SentenceCoverage struct {
	SentenceIndex         int           `json:"sentence_index"`
	Text                  string        `json:"text"`
	StartChar             int           `json:"start_char"`
	EndChar               int           `json:"end_char"`
	CoverageScore         float64       `json:"coverage_score"`
	CoverageLevel         CoverageLevel `json:"coverage_level"`
	MatchedQuestions      []uuid.UUID   `json:"matched_questions"`
	TopQuestionSimilarity *float64      `json:"top_question_similarity,omitempty"`
}

// AnnotatedPage is one module page with its sentence-level annotations.
type AnnotatedPage struct {
	Title           string                `json:"title"`
	Sentences       []SentenceCoverage    `json:"sentences"`
	WordCount       int                   `json:"word_count"`
	CoverageSummary map[CoverageLevel]int `json:"coverage_summary"`
}

// ModuleCoverage is the aggregate coverage picture for one module.
type ModuleCoverage struct {
	ModuleID                  string          `json:"module_id"`
	ModuleName                string          `json:"module_name"`
	Pages                     []AnnotatedPage `json:"pages"`
	OverallCoveragePercentage float64         `json:"overall_coverage_percentage"`
	TotalSentences            int             `json:"total_sentences"`
	CoveredSentences          int             `json:"covered_sentences"`
	GapCount                  int             `json:"gap_count"`
}

// QuestionMapping links a question to the sentences it best matches, capped
// so broad questions cannot claim arbitrarily many.
type QuestionMapping struct {
	QuestionID            uuid.UUID    `json:"question_id"`
	QuestionText          string       `json:"question_text"`
	QuestionType          QuestionType `json:"question_type"`
	BestMatchingSentences []int        `json:"best_matching_sentences"`
	BestSimilarityScore   float64      `json:"best_similarity_score"`
}

// CoverageStatistics summarizes a module's coverage in a few numbers.
type CoverageStatistics struct {
	TotalSentences      int     `json:"total_sentences"`
	CoveredSentences    int     `json:"covered_sentences"`
	CoveragePercentage  float64 `json:"coverage_percentage"`
	TotalQuestions      int     `json:"total_questions"`
	LargestGapSentences int     `json:"largest_gap_sentences"`
}

// ModuleCoverageResponse is the full payload returned by a coverage
// computation. It is assembled per request and never persisted.
type ModuleCoverageResponse struct {
	QuizID           uuid.UUID          `json:"quiz_id"`
	Module           ModuleCoverage     `json:"module"`
	QuestionMappings []QuestionMapping  `json:"question_mappings"`
	Statistics       CoverageStatistics `json:"statistics"`
	ComputedAt       string             `json:"computed_at"`
}

// ModuleListItem summarizes one module available for coverage analysis.
type ModuleListItem struct {
	ModuleID      string `json:"module_id"`
	ModuleName    string `json:"module_name"`
	QuestionCount int    `json:"question_count"`
	HasContent    bool   `json:"has_content"`
}

// ModuleListResponse lists the modules a quiz can analyze.
type ModuleListResponse struct {
	QuizID  uuid.UUID        `json:"quiz_id"`
	Modules []ModuleListItem `json:"modules"`
}
