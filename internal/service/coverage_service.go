package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/edulens/quizcover/internal/domain"
	"github.com/edulens/quizcover/internal/port"
	"github.com/edulens/quizcover/internal/segment"
	"github.com/edulens/quizcover/internal/vector"
)

// Coverage thresholds. A sentence is classified by its best surviving
// similarity, inclusive on the lower bound of each band.
const (
	thresholdHigh   = 0.7
	thresholdMedium = 0.5
	thresholdLow    = 0.3
)

// maxSentencesPerQuestion caps how many sentences a single question may be
// credited with, so one broad question cannot inflate overall coverage.
const maxSentencesPerQuestion = 3

// maxQuestionDisplayLength truncates question text in mappings.
const maxQuestionDisplayLength = 300

// CoverageService computes sentence-level coverage of module content by a
// quiz's question set. Results are assembled per request and never cached;
// first-time embedding generation is expected to take several seconds.
type CoverageService struct {
	store    port.QuizStore
	embedder port.EmbeddingProvider
}

// NewCoverageService creates a coverage service.
func NewCoverageService(store port.QuizStore, embedder port.EmbeddingProvider) *CoverageService {
	return &CoverageService{store: store, embedder: embedder}
}

// ListModules lists a quiz's modules with question counts and content
// availability. No embeddings are involved.
func (s *CoverageService) ListModules(ctx context.Context, quizID uuid.UUID) (*domain.ModuleListResponse, error) {
	slog.Info("listing modules for coverage", "quiz_id", quizID)

	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	resp := &domain.ModuleListResponse{QuizID: quizID, Modules: []domain.ModuleListItem{}}
	if len(quiz.SelectedModules) == 0 {
		return resp, nil
	}

	counts, err := s.store.CountQuestionsByModule(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	moduleIDs := lo.Keys(quiz.SelectedModules)
	sort.Strings(moduleIDs) // map order is random; keep the listing stable

	for _, id := range moduleIDs {
		name := quiz.SelectedModules[id].Name
		if name == "" {
			name = "Module " + id
		}
		resp.Modules = append(resp.Modules, domain.ModuleListItem{
			ModuleID:      id,
			ModuleName:    name,
			QuestionCount: counts[id],
			HasContent:    len(quiz.ExtractedContent[id]) > 0,
		})
	}

	slog.Info("modules listed for coverage", "quiz_id", quizID, "module_count", len(resp.Modules))
	return resp, nil
}

// questionRef is one question retained for analysis (non-empty display text).
type questionRef struct {
	id    uuid.UUID
	text  string
	qtype domain.QuestionType
}

// pageSims holds one segmented page with its clamped similarity matrix,
// aligned row-per-sentence with spans.
type pageSims struct {
	title     string
	wordCount int
	spans     []segment.SentenceSpan
	sims      [][]float32
}

// simRef locates one above-threshold similarity during top-K filtering.
type simRef struct {
	pageIdx int
	sentIdx int
	sim     float32
}

// mappingKey identifies one (question, page, sentence) cell that survived the
// top-K filter.
type mappingKey struct {
	qIdx    int
	pageIdx int
	sentIdx int
}

// ComputeModuleCoverage computes the coverage report for one module. The
// algorithm runs in three passes: collect similarities, filter each question
// to its top matches, then render the annotated pages against the surviving
// mappings only.
func (s *CoverageService) ComputeModuleCoverage(ctx context.Context, quizID uuid.UUID, moduleID string) (*domain.ModuleCoverageResponse, error) {
	slog.Info("computing module coverage", "quiz_id", quizID, "module_id", moduleID)

	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.ExtractedContent) == 0 {
		return nil, port.ErrNoContent
	}
	pages, ok := quiz.ExtractedContent[moduleID]
	if !ok {
		return nil, fmt.Errorf("module %s: %w", moduleID, port.ErrModuleNotFound)
	}

	moduleName := quiz.SelectedModules[moduleID].Name
	if moduleName == "" {
		moduleName = "Module " + moduleID
	}

	questions, err := s.store.GetModuleQuestions(ctx, quizID, moduleID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("module %s: %w", moduleID, port.ErrNoQuestions)
	}

	kept := lo.FilterMap(questions, func(q domain.Question, _ int) (questionRef, bool) {
		text := q.Text()
		return questionRef{id: q.ID, text: text, qtype: q.Type}, text != ""
	})
	if len(kept) == 0 {
		return nil, fmt.Errorf("module %s: %w", moduleID, port.ErrNoQuestions)
	}

	questionTexts := lo.Map(kept, func(q questionRef, _ int) string { return q.text })
	slog.Debug("generating question embeddings", "count", len(questionTexts))
	questionVecs, err := s.embedder.EmbedBatch(ctx, questionTexts)
	if err != nil {
		return nil, fmt.Errorf("embed questions: %w", err)
	}

	// First pass: segment each page, embed its sentences, and collect every
	// above-threshold similarity per question. Negative similarities carry no
	// semantic signal and are clamped to zero.
	perQuestion := make([][]simRef, len(kept))
	var pageData []pageSims

	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		spans := segment.Segment(page.Content, segment.DefaultMinLength)
		if len(spans) == 0 {
			continue
		}

		title := page.Title
		if title == "" {
			title = "Untitled"
		}

		sentenceTexts := lo.Map(spans, func(sp segment.SentenceSpan, _ int) string { return sp.Text })
		slog.Debug("generating sentence embeddings", "page_title", title, "count", len(sentenceTexts))
		sentenceVecs, err := s.embedder.EmbedBatch(ctx, sentenceTexts)
		if err != nil {
			return nil, fmt.Errorf("embed sentences for page %q: %w", title, err)
		}

		sims := vector.SimilarityMatrix(sentenceVecs, questionVecs)
		pageIdx := len(pageData)
		for sentIdx, row := range sims {
			for qIdx := range row {
				if row[qIdx] < 0 {
					row[qIdx] = 0
				}
				if row[qIdx] >= thresholdLow {
					perQuestion[qIdx] = append(perQuestion[qIdx], simRef{
						pageIdx: pageIdx,
						sentIdx: sentIdx,
						sim:     row[qIdx],
					})
				}
			}
		}

		pageData = append(pageData, pageSims{
			title:     title,
			wordCount: len(strings.Fields(page.Content)),
			spans:     spans,
			sims:      sims,
		})
	}

	// Second pass: keep each question's top matches only. Stable sort keeps
	// the first-encountered sentence ahead on equal similarity.
	allowed := make(map[mappingKey]struct{})
	mappings := make([]domain.QuestionMapping, len(kept))

	for qIdx, q := range kept {
		refs := perQuestion[qIdx]
		sort.SliceStable(refs, func(i, j int) bool { return refs[i].sim > refs[j].sim })
		if len(refs) > maxSentencesPerQuestion {
			refs = refs[:maxSentencesPerQuestion]
		}

		sentenceIdxs := make([]int, 0, len(refs))
		for _, r := range refs {
			allowed[mappingKey{qIdx: qIdx, pageIdx: r.pageIdx, sentIdx: r.sentIdx}] = struct{}{}
			sentenceIdxs = append(sentenceIdxs, r.sentIdx)
		}

		best := 0.0
		if len(refs) > 0 {
			best = float64(refs[0].sim)
		}

		mappings[qIdx] = domain.QuestionMapping{
			QuestionID:            q.id,
			QuestionText:          truncate(q.text, maxQuestionDisplayLength),
			QuestionType:          q.qtype,
			BestMatchingSentences: sentenceIdxs,
			BestSimilarityScore:   best,
		}
	}

	// Third pass: render pages against the surviving mappings. Gap runs are
	// flushed and reset at page boundaries, so a run never spans two pages.
	annotated := make([]domain.AnnotatedPage, 0, len(pageData))
	totalSentences, coveredSentences := 0, 0
	largestGap, gapCount := 0, 0

	for pageIdx, pd := range pageData {
		sentences := make([]domain.SentenceCoverage, 0, len(pd.spans))
		summary := map[domain.CoverageLevel]int{
			domain.CoverageNone:   0,
			domain.CoverageLow:    0,
			domain.CoverageMedium: 0,
			domain.CoverageHigh:   0,
		}
		currentGap := 0
		inGap := false

		for sentIdx, span := range pd.spans {
			matched := []uuid.UUID{}
			var score float32
			for qIdx := range kept {
				if _, ok := allowed[mappingKey{qIdx: qIdx, pageIdx: pageIdx, sentIdx: sentIdx}]; ok {
					matched = append(matched, kept[qIdx].id)
					if pd.sims[sentIdx][qIdx] > score {
						score = pd.sims[sentIdx][qIdx]
					}
				}
			}

			level := classifyCoverage(float64(score))
			sc := domain.SentenceCoverage{
				SentenceIndex:    span.Index,
				Text:             span.Text,
				StartChar:        span.Start,
				EndChar:          span.End,
				CoverageScore:    float64(score),
				CoverageLevel:    level,
				MatchedQuestions: matched,
			}
			if score > 0 {
				top := float64(score)
				sc.TopQuestionSimilarity = &top
			}
			sentences = append(sentences, sc)

			summary[level]++
			totalSentences++
			if level != domain.CoverageNone {
				coveredSentences++
				if currentGap > largestGap {
					largestGap = currentGap
				}
				currentGap = 0
				inGap = false
			} else {
				currentGap++
				if !inGap {
					gapCount++
					inGap = true
				}
			}
		}

		if currentGap > largestGap {
			largestGap = currentGap
		}

		annotated = append(annotated, domain.AnnotatedPage{
			Title:           pd.title,
			Sentences:       sentences,
			WordCount:       pd.wordCount,
			CoverageSummary: summary,
		})
	}

	overallPct := 0.0
	if totalSentences > 0 {
		overallPct = float64(coveredSentences) / float64(totalSentences) * 100
	}

	slog.Info("coverage computed",
		"quiz_id", quizID,
		"module_id", moduleID,
		"total_sentences", totalSentences,
		"coverage_percentage", overallPct,
	)

	return &domain.ModuleCoverageResponse{
		QuizID: quizID,
		Module: domain.ModuleCoverage{
			ModuleID:                  moduleID,
			ModuleName:                moduleName,
			Pages:                     annotated,
			OverallCoveragePercentage: overallPct,
			TotalSentences:            totalSentences,
			CoveredSentences:          coveredSentences,
			GapCount:                  gapCount,
		},
		QuestionMappings: mappings,
		Statistics: domain.CoverageStatistics{
			TotalSentences:      totalSentences,
			CoveredSentences:    coveredSentences,
			CoveragePercentage:  overallPct,
			TotalQuestions:      len(questions),
			LargestGapSentences: largestGap,
		},
		ComputedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// classifyCoverage buckets a score into a coverage level.
func classifyCoverage(score float64) domain.CoverageLevel {
	switch {
	case score >= thresholdHigh:
		return domain.CoverageHigh
	case score >= thresholdMedium:
		return domain.CoverageMedium
	case score >= thresholdLow:
		return domain.CoverageLow
	default:
		return domain.CoverageNone
	}
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
