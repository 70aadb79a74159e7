// Package orchestrator drives one course from CREATING to FINISHED or
// FAILED: document ingestion, the agent pipeline, per-chapter fan-out and
// persistence, with cooperative cancellation at every external call.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nexora-ai/nexora/pkg/agent"
	"github.com/nexora-ai/nexora/pkg/models"
	"github.com/nexora-ai/nexora/pkg/retrieval"
	"github.com/nexora-ai/nexora/pkg/state"
	"github.com/nexora-ai/nexora/pkg/store"
	"github.com/nexora-ai/nexora/pkg/tasks"
)

// Orchestrator owns the synthesis pipeline for background course creation.
type Orchestrator struct {
	store        *store.Store
	state        *state.Service
	retrieval    *retrieval.Service
	pipeline     *agent.Pipeline
	registry     *tasks.Registry
	chapterLimit int
	logger       *slog.Logger
}

// New creates an orchestrator. chapterLimit bounds the chapter fan-out;
// zero or negative means a small default.
func New(st *store.Store, states *state.Service, rtr *retrieval.Service,
	pipeline *agent.Pipeline, registry *tasks.Registry, chapterLimit int, logger *slog.Logger) *Orchestrator {
	if chapterLimit <= 0 {
		chapterLimit = 4
	}
	return &Orchestrator{
		store:        st,
		state:        states,
		retrieval:    rtr,
		pipeline:     pipeline,
		registry:     registry,
		chapterLimit: chapterLimit,
		logger:       logger.With("component", "orchestrator"),
	}
}

// Run executes the full pipeline for one queued task. It never returns an
// error: every outcome is recorded on the course and the task registry.
func (o *Orchestrator) Run(ctx context.Context, taskID string, cfg tasks.Config) {
	logger := o.logger.With("task_id", taskID, "course_id", cfg.CourseID, "user_id", cfg.UserID)

	err := o.synthesize(ctx, taskID, cfg, logger)
	switch {
	case err == nil:
		o.registry.Update(taskID, tasks.StatusCompleted, 100, "finished", "", "")
		logger.Info("course synthesis finished")
	case errors.Is(err, context.Canceled):
		// Cancelled tasks leave the course in CREATING; the scheduled
		// sweep reconciles it if nobody retries.
		o.registry.Update(taskID, tasks.StatusCancelled, -1, "cancelled", "", "")
		logger.Info("course synthesis cancelled")
	default:
		logger.Error("course synthesis failed", "error", err)
		o.registry.Update(taskID, tasks.StatusFailed, -1, "failed", "", err.Error())
		if dbErr := o.store.Courses.UpdateStatus(context.WithoutCancel(ctx), cfg.CourseID,
			models.CourseStatusFailed, err.Error()); dbErr != nil {
			logger.Error("failed to mark course failed", "error", dbErr)
		}
	}
	o.state.Delete(cfg.UserID, cfg.CourseID)
}

func (o *Orchestrator) synthesize(ctx context.Context, taskID string, cfg tasks.Config, logger *slog.Logger) error {
	req := cfg.Request

	// Step 1: the ledger row funds the quota gate, so it goes in before
	// any costly work.
	if err := o.store.Usage.Log(ctx, &models.UsageEvent{
		UserID: cfg.UserID, CourseID: &cfg.CourseID, Action: models.ActionCreateCourse,
	}); err != nil {
		return err
	}

	// Step 2: session.
	sessionID := uuid.NewString()
	o.registry.Update(taskID, tasks.StatusExtracting, 5, "loading documents", "", "")

	// Steps 3-4: load and ingest reference documents.
	for _, docID := range req.DocumentIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := o.store.Files.GetDocument(ctx, docID)
		if err != nil {
			return fmt.Errorf("failed to load document %d: %w", docID, err)
		}
		if doc.ContentType != "application/pdf" {
			continue
		}
		if _, err := o.retrieval.IngestDocument(ctx, cfg.CourseID, doc); err != nil {
			// Absent RAG context degrades quality, not correctness.
			logger.Warn("document ingest failed", "document_id", docID, "error", err)
		}
	}

	// Step 5: info agent.
	o.registry.Update(taskID, tasks.StatusAnalyzing, 15, "generating course info", "", "")
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := o.pipeline.Info(ctx, req.Query, req.Language, req.Difficulty, req.TimeHours)
	if err != nil {
		return fmt.Errorf("info agent: %w", err)
	}

	// Step 6: cover image.
	if err := ctx.Err(); err != nil {
		return err
	}
	imageURL := o.pipeline.ImageURL(ctx, info.Title)

	// Step 7: persist the round-trip, initialize state, bind uploads.
	if err := o.store.Courses.SetSynthesisInfo(ctx, cfg.CourseID, sessionID, info.Title, info.Description, imageURL); err != nil {
		return err
	}
	o.state.Put(&state.CourseState{
		UserID:         cfg.UserID,
		CourseID:       cfg.CourseID,
		Query:          req.Query,
		TotalTimeHours: req.TimeHours,
		Language:       req.Language,
		Difficulty:     req.Difficulty,
		Title:          info.Title,
		Description:    info.Description,
		ImageURL:       imageURL,
		DocumentIDs:    req.DocumentIDs,
		PictureIDs:     req.PictureIDs,
	})
	if err := o.store.Files.BindDocuments(ctx, cfg.CourseID, req.DocumentIDs); err != nil {
		return err
	}
	if err := o.store.Files.BindImages(ctx, cfg.CourseID, req.PictureIDs); err != nil {
		return err
	}

	// Step 8: planner.
	o.registry.Update(taskID, tasks.StatusAnalyzing, 25, "planning chapters", "", "")
	if err := ctx.Err(); err != nil {
		return err
	}
	var planContext []string
	if has, err := o.retrieval.HasContext(ctx, cfg.CourseID); err != nil {
		logger.Warn("failed to check retrieval context", "error", err)
	} else if has {
		planContext, err = o.retrieval.QueryContext(ctx, cfg.CourseID, req.Query, 5)
		if err != nil {
			logger.Warn("failed to retrieve planner context", "error", err)
		}
	}
	plan, err := o.pipeline.Plan(ctx, req.Query, req.Language, req.Difficulty, req.TimeHours, planContext)
	if err != nil {
		return fmt.Errorf("planner agent: %w", err)
	}
	if err := o.store.Courses.UpdateChapterCount(ctx, cfg.CourseID, len(plan.Chapters)); err != nil {
		return err
	}
	o.state.Update(cfg.UserID, cfg.CourseID, func(st *state.CourseState) {
		st.Plan = plan.Chapters
	})

	// Step 9: chapter fan-out.
	o.registry.Update(taskID, tasks.StatusGenerating, 30, "generating chapters", "", "")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.chapterLimit)
	total := len(plan.Chapters)
	for i, chapterPlan := range plan.Chapters {
		index := i + 1
		g.Go(func() error {
			if err := o.generateChapter(gctx, cfg, chapterPlan, index); err != nil {
				return fmt.Errorf("chapter %d (%s): %w", index, chapterPlan.Caption, err)
			}
			o.registry.Update(taskID, tasks.StatusGenerating, 30+60*index/total,
				fmt.Sprintf("chapter %d/%d done", index, total), chapterPlan.Caption, "")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Step 10: finish.
	o.registry.Update(taskID, tasks.StatusPackaging, 95, "finalizing", "", "")
	return o.store.Courses.UpdateStatus(ctx, cfg.CourseID, models.CourseStatusFinished, "")
}

// generateChapter builds one chapter: RAG context, Explainer and Image in
// parallel, the chapter row, then its questions.
func (o *Orchestrator) generateChapter(ctx context.Context, cfg tasks.Config, plan models.ChapterPlan, index int) error {
	ragContext, err := o.retrieval.ChapterContext(ctx, cfg.CourseID, plan)
	if err != nil {
		return err
	}

	st := o.state.Get(cfg.UserID, cfg.CourseID)
	previous := ""
	language, difficulty := cfg.Request.Language, cfg.Request.Difficulty
	if st != nil {
		previous = st.ChaptersStr
	}

	var content, imageURL string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		content, err = o.pipeline.ExplainChapter(gctx, plan, language, difficulty, previous, ragContext)
		return err
	})
	g.Go(func() error {
		imageURL = o.pipeline.ImageURL(gctx, plan.Caption)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	o.state.Update(cfg.UserID, cfg.CourseID, func(st *state.CourseState) {
		st.Code = append(st.Code, content)
		if content == agent.FallbackComponent {
			st.Errors = append(st.Errors, fmt.Sprintf("chapter %d fell back to the placeholder component", index))
		}
	})

	// The chapter row always precedes its questions.
	chapter := &models.Chapter{
		CourseID:    cfg.CourseID,
		Index:       index,
		Caption:     plan.Caption,
		Summary:     chapterSummary(plan),
		Content:     content,
		TimeMinutes: plan.Time,
		ImageURL:    imageURL,
	}
	chapterID, err := o.store.Chapters.Create(ctx, chapter)
	if err != nil {
		return err
	}
	chapter.ID = chapterID
	o.state.AppendChapter(cfg.UserID, cfg.CourseID, chapter)

	if err := ctx.Err(); err != nil {
		return err
	}
	questions, err := o.pipeline.GenerateQuestions(ctx, plan.Caption, content, language)
	if err != nil {
		return fmt.Errorf("tester agent: %w", err)
	}
	for _, q := range questions {
		pq := &models.PracticeQuestion{
			ChapterID:     chapterID,
			Type:          models.QuestionTypeOT,
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if q.IsMultipleChoice() {
			pq.Type = models.QuestionTypeMC
			pq.AnswerA, pq.AnswerB, pq.AnswerC, pq.AnswerD = q.AnswerA, q.AnswerB, q.AnswerC, q.AnswerD
		}
		if _, err := o.store.Questions.Create(ctx, pq); err != nil {
			return err
		}
	}
	return nil
}

// chapterSummary is the first three content bullets joined by newlines.
func chapterSummary(plan models.ChapterPlan) string {
	bullets := plan.Content
	if len(bullets) > 3 {
		bullets = bullets[:3]
	}
	return strings.Join(bullets, "\n")
}

// Grade runs the grading subpath: the Grader agent scores the answer, the
// result is stored on the question, and the full payload is logged to the
// usage ledger.
func (o *Orchestrator) Grade(ctx context.Context, userID string, q *models.PracticeQuestion, userAnswer string) (*agent.GradeResult, error) {
	result, err := o.pipeline.Grade(ctx, q.Question, q.CorrectAnswer, userAnswer)
	if err != nil {
		return nil, fmt.Errorf("grader agent: %w", err)
	}
	if err := o.store.Questions.SaveAnswer(ctx, q.ID, userAnswer, result.Points, result.Explanation); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{
		"question_id":  q.ID,
		"question":     q.Question,
		"users_answer": userAnswer,
		"points":       result.Points,
		"explanation":  result.Explanation,
	})
	if err := o.store.Usage.Log(ctx, &models.UsageEvent{
		UserID:    userID,
		ChapterID: &q.ChapterID,
		Action:    models.ActionGradeQuestion,
		Details:   string(payload),
	}); err != nil {
		o.logger.Warn("failed to log grading event", "error", err)
	}
	return result, nil
}
