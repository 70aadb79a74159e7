package agent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nexora-ai/nexora/pkg/models"
)

// FallbackComponent replaces a chapter component that could not be repaired.
const FallbackComponent = "() => {<p>Something went wrong</p>}"

// CourseInfo is the info agent's output.
type CourseInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CoursePlan is the planner agent's output.
type CoursePlan struct {
	Chapters []models.ChapterPlan `json:"chapters"`
}

// GradeResult is the grader agent's output.
type GradeResult struct {
	Points      int    `json:"points"`
	Explanation string `json:"explanation"`
}

const infoSchema = `{
	"type": "object",
	"required": ["title", "description"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string", "minLength": 1}
	}
}`

const plannerSchema = `{
	"type": "object",
	"required": ["chapters"],
	"properties": {
		"chapters": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["caption", "content", "time"],
				"properties": {
					"caption": {"type": "string", "minLength": 1},
					"content": {"type": "array", "items": {"type": "string"}, "minItems": 1},
					"time": {"type": "integer", "minimum": 1},
					"note": {"type": "string"}
				}
			}
		}
	}
}`

// A question is either multiple-choice, with all four options and a letter
// answer, or open-text, with no options at all. Partially-optioned questions
// fail validation and go through the repair loop.
const testerSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"answer_a": {"type": "string"},
					"answer_b": {"type": "string"},
					"answer_c": {"type": "string"},
					"answer_d": {"type": "string"},
					"correct_answer": {"type": "string", "minLength": 1},
					"explanation": {"type": "string"}
				},
				"oneOf": [
					{
						"required": ["question", "answer_a", "answer_b", "answer_c", "answer_d", "correct_answer"],
						"properties": {
							"answer_a": {"type": "string", "minLength": 1},
							"answer_b": {"type": "string", "minLength": 1},
							"answer_c": {"type": "string", "minLength": 1},
							"answer_d": {"type": "string", "minLength": 1},
							"correct_answer": {"enum": ["a", "b", "c", "d"]}
						}
					},
					{
						"required": ["question", "correct_answer"],
						"not": {
							"anyOf": [
								{"required": ["answer_a"]},
								{"required": ["answer_b"]},
								{"required": ["answer_c"]},
								{"required": ["answer_d"]}
							]
						}
					}
				]
			}
		}
	}
}`

const graderSchema = `{
	"type": "object",
	"required": ["points", "explanation"],
	"properties": {
		"points": {"type": "integer", "enum": [0, 1, 2]},
		"explanation": {"type": "string"}
	}
}`

// Pipeline bundles the concrete agents of the synthesis pipeline.
type Pipeline struct {
	info      *StructuredAgent
	planner   *StructuredAgent
	explainer *StandardAgent
	image     *StandardAgent
	tester    *StructuredAgent
	grader    *StructuredAgent

	toolLLM     ToolClient
	imageModel  string
	imageSearch *ImageSearchTool

	validator        CodeValidator
	imageFallbackURL string
	questionLimit    int
	logger           *slog.Logger
}

// NewPipeline wires the concrete agents over one LLM client. questionLimit
// bounds the per-question repair fan-out; imageSearch may be disabled, in
// which case the image agent runs without tools.
func NewPipeline(c *Client, check CodeValidator, imageSearch *ImageSearchTool,
	imageFallbackURL string, questionLimit int, logger *slog.Logger) *Pipeline {
	if questionLimit <= 0 {
		questionLimit = 4
	}
	return &Pipeline{
		info:             NewStructuredAgent(c, c.Model(), infoSystemPrompt, infoSchema, logger),
		planner:          NewStructuredAgent(c, c.Model(), plannerSystemPrompt, plannerSchema, logger),
		explainer:        NewStandardAgent(c, c.Model(), explainerSystemPrompt),
		image:            NewStandardAgent(c, c.FastModel(), imageSystemPrompt),
		tester:           NewStructuredAgent(c, c.Model(), testerSystemPrompt, testerSchema, logger),
		grader:           NewStructuredAgent(c, c.FastModel(), graderSystemPrompt, graderSchema, logger),
		toolLLM:          c,
		imageModel:       c.FastModel(),
		imageSearch:      imageSearch,
		validator:        check,
		imageFallbackURL: imageFallbackURL,
		questionLimit:    questionLimit,
		logger:           logger.With("component", "pipeline"),
	}
}

// Info produces the course title and description.
func (p *Pipeline) Info(ctx context.Context, query, language, difficulty string, timeHours int) (*CourseInfo, error) {
	var info CourseInfo
	if err := p.info.Run(ctx, infoPrompt(query, language, difficulty, timeHours), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Plan produces the chapter plan.
func (p *Pipeline) Plan(ctx context.Context, query, language, difficulty string, timeHours int, docContext []string) (*CoursePlan, error) {
	var plan CoursePlan
	if err := p.planner.Run(ctx, plannerPrompt(query, language, difficulty, timeHours, docContext), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

var imageURLPattern = regexp.MustCompile(`https://[^\s'"]+`)

// ExtractImageURL applies the image agent's post-call rule: the first
// https:// URL in the output, or the fallback when none is present.
func ExtractImageURL(output, fallback string) string {
	if url := imageURLPattern.FindString(output); url != "" {
		return url
	}
	return fallback
}

// ImageURL asks the image agent for an illustration URL. With an enabled
// search tool the agent picks from real photo search results; without one it
// answers from its own knowledge. It never fails: agent errors and URL-less
// output both resolve to the fallback URL.
func (p *Pipeline) ImageURL(ctx context.Context, topic string) string {
	output, err := p.imageOutput(ctx, topic)
	if err != nil {
		p.logger.Warn("image agent failed, using fallback", "topic", topic, "error", err)
		return p.imageFallbackURL
	}
	return ExtractImageURL(output, p.imageFallbackURL)
}

func (p *Pipeline) imageOutput(ctx context.Context, topic string) (string, error) {
	if p.toolLLM != nil && p.imageSearch.Enabled() {
		return p.toolLLM.ChatTools(ctx, p.imageModel, []Message{
			{Role: RoleSystem, Content: imageSystemPrompt},
			{Role: RoleUser, Content: imagePrompt(topic)},
		}, []Tool{p.imageSearch.Tool()})
	}
	return p.image.Run(ctx, imagePrompt(topic))
}

// ExplainChapter generates the chapter component through the review loop.
// When the loop exhausts its iterations the trivial fallback component is
// returned; synthesis continues with a degraded chapter rather than failing.
func (p *Pipeline) ExplainChapter(ctx context.Context, plan models.ChapterPlan, language, difficulty, previousChapters string, ragContext []string) (string, error) {
	initial := explainerPrompt(plan, language, difficulty, previousChapters, ragContext)

	var lastSource string
	code, err := ReviewCode(ctx, p.validator, ExplainerReviewIterations, p.logger,
		func(ctx context.Context, feedback string) (string, error) {
			prompt := initial
			if feedback != "" {
				prompt = repairCodePrompt(lastSource, feedback)
			}
			source, err := p.explainer.Run(ctx, prompt)
			if err != nil {
				return "", err
			}
			lastSource = strings.TrimSpace(stripCodeFences(source))
			return lastSource, nil
		})
	if err == ErrUnrepairable {
		p.logger.Warn("chapter component unrepairable, using fallback", "caption", plan.Caption)
		return FallbackComponent, nil
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

// GenerateQuestions runs the tester's structured pass and then repairs, in
// parallel, every question whose text is component source. Unrepairable
// questions are dropped; order of the survivors is preserved.
func (p *Pipeline) GenerateQuestions(ctx context.Context, caption, content, language string) ([]models.GeneratedQuestion, error) {
	var out struct {
		Questions []models.GeneratedQuestion `json:"questions"`
	}
	if err := p.tester.Run(ctx, testerPrompt(caption, content, language), &out); err != nil {
		return nil, err
	}

	keep := make([]bool, len(out.Questions))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.questionLimit)
	for i := range out.Questions {
		g.Go(func() error {
			q := &out.Questions[i]
			if !strings.HasPrefix(strings.TrimSpace(q.Question), "() =>") {
				mu.Lock()
				keep[i] = true
				mu.Unlock()
				return nil
			}
			repaired, err := p.repairQuestion(gctx, q.Question)
			if err != nil {
				if err == ErrUnrepairable {
					p.logger.Warn("dropping unrepairable question", "caption", caption)
					return nil
				}
				return err
			}
			mu.Lock()
			q.Question = repaired
			keep[i] = true
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var survivors []models.GeneratedQuestion
	for i, q := range out.Questions {
		if keep[i] {
			survivors = append(survivors, q)
		}
	}
	return survivors, nil
}

func (p *Pipeline) repairQuestion(ctx context.Context, source string) (string, error) {
	last := source
	return ReviewCode(ctx, p.validator, TesterReviewIterations, p.logger,
		func(ctx context.Context, feedback string) (string, error) {
			if feedback == "" {
				// First iteration validates the source as generated.
				return last, nil
			}
			repaired, err := p.explainer.Run(ctx, repairCodePrompt(last, feedback))
			if err != nil {
				return "", err
			}
			last = strings.TrimSpace(stripCodeFences(repaired))
			return last, nil
		})
}

// Grade scores a learner's answer.
func (p *Pipeline) Grade(ctx context.Context, question, canonicalAnswer, userAnswer string) (*GradeResult, error) {
	var result GradeResult
	if err := p.grader.Run(ctx, graderPrompt(question, canonicalAnswer, userAnswer), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
