package agent

import (
	"fmt"
	"strings"

	"github.com/nexora-ai/nexora/pkg/models"
)

// System prompts for the pipeline agents. Components must be self-contained
// arrow functions because the frontend evaluates them directly.
const (
	infoSystemPrompt = `You are a course architect. Given a learning request you produce a concise,
engaging course title and a two-sentence description. Respond with JSON only.`

	plannerSystemPrompt = `You are a curriculum planner. Given a learning request, the total time
budget in hours, the difficulty and any reference material, you split the
course into chapters. Each chapter has a caption, a list of content bullets
(the concrete topics it covers), an estimated time in minutes, and an
optional note for the author. Chapter times must sum roughly to the budget.
Respond with JSON only.`

	explainerSystemPrompt = `You are an expert teacher writing one interactive course chapter as a
self-contained JavaScript component. Respond with ONLY the component source:
an arrow function starting with "() =>" and ending with "}". It returns JSX.
You may use the globals Recharts, katex and the standard UI toolkit. No
imports, no markdown, no explanation outside the code.`

	imageSystemPrompt = `You find one illustrative, royalty-free image for a course topic. When the
search_photos tool is available, use it and pick the best match from its
results. Respond with a single https:// image URL and nothing else.`

	testerSystemPrompt = `You write practice questions for a course chapter. Produce a mix of
multiple-choice questions (fields answer_a..answer_d, correct_answer is the
letter) and open-text questions (no option fields, correct_answer is the
expected answer). Respond with JSON only.`

	graderSystemPrompt = `You grade a learner's answer against the canonical answer. Award 2 points
for a fully correct answer, 1 for partially correct, 0 otherwise, and explain
the grade in two sentences addressed to the learner. Respond with JSON only.`
)

func infoPrompt(query, language, difficulty string, timeHours int) string {
	return fmt.Sprintf(
		"Learning request: %s\nLanguage: %s\nDifficulty: %s\nTime budget: %d hours\n\n"+
			"Produce the course title and description in %s.",
		query, language, difficulty, timeHours, language)
}

func plannerPrompt(query, language, difficulty string, timeHours int, context []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Learning request: %s\nLanguage: %s\nDifficulty: %s\nTime budget: %d hours (%d minutes)\n",
		query, language, difficulty, timeHours, timeHours*60)
	if len(context) > 0 {
		b.WriteString("\nReference material excerpts:\n")
		for _, c := range context {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString("\nPlan the chapters.")
	return b.String()
}

func explainerPrompt(plan models.ChapterPlan, language, difficulty, previousChapters string, context []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chapter: %s\nLanguage: %s\nDifficulty: %s\nTopics to cover:\n", plan.Caption, language, difficulty)
	for _, bullet := range plan.Content {
		fmt.Fprintf(&b, "- %s\n", bullet)
	}
	if plan.Note != "" {
		fmt.Fprintf(&b, "Author note: %s\n", plan.Note)
	}
	if previousChapters != "" {
		fmt.Fprintf(&b, "\nChapters already written (stay consistent, do not repeat):\n%s\n", previousChapters)
	}
	if len(context) > 0 {
		b.WriteString("\nUse this reference material where relevant:\n")
		for _, c := range context {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	b.WriteString("\nWrite the chapter component.")
	return b.String()
}

// repairCodePrompt demands a full rewrite of broken component source.
func repairCodePrompt(source, feedback string) string {
	return fmt.Sprintf(
		"The following component failed syntax validation.\n\nSource:\n%s\n\nValidator errors:\n%s\n"+
			"Rewrite the ENTIRE component from scratch, fixing the errors. "+
			"Respond with only the new source, starting with \"() =>\" and ending with \"}\".",
		source, feedback)
}

func imagePrompt(topic string) string {
	return fmt.Sprintf("Topic: %s\n\nProvide one illustrative image URL.", topic)
}

func testerPrompt(caption, content, language string) string {
	return fmt.Sprintf(
		"Chapter: %s\nLanguage: %s\n\nChapter content:\n%s\n\n"+
			"Write 3 to 5 practice questions for this chapter in %s.",
		caption, language, content, language)
}

func graderPrompt(question, canonicalAnswer, userAnswer string) string {
	return fmt.Sprintf(
		"Question: %s\nCanonical answer: %s\nLearner's answer: %s\n\nGrade the answer.",
		question, canonicalAnswer, userAnswer)
}
