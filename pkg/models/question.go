package models

// QuestionType distinguishes multiple-choice from open-text questions.
type QuestionType string

// Question types.
const (
	QuestionTypeMC QuestionType = "mc"
	QuestionTypeOT QuestionType = "ot"
)

// PracticeQuestion is a graded question attached to a chapter.
//
// For MC questions the four answer options and CorrectAnswer (a letter in
// a-d) plus Explanation are set. For OT questions CorrectAnswer holds the
// canonical answer. UsersAnswer, Points and Feedback are filled in once the
// user answers.
type PracticeQuestion struct {
	ID            int64        `json:"id"`
	ChapterID     int64        `json:"chapter_id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	AnswerA       string       `json:"answer_a,omitempty"`
	AnswerB       string       `json:"answer_b,omitempty"`
	AnswerC       string       `json:"answer_c,omitempty"`
	AnswerD       string       `json:"answer_d,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	UsersAnswer   *string      `json:"users_answer,omitempty"`
	Points        *int         `json:"points,omitempty"` // 0, 1 or 2
	Feedback      *string      `json:"feedback,omitempty"`
}

// GeneratedQuestion is one question as emitted by the tester agent, before
// it is typed at persistence time. The option fields decide the MC/OT
// variant, never whitespace heuristics on the question text.
type GeneratedQuestion struct {
	Question      string `json:"question"`
	AnswerA       string `json:"answer_a,omitempty"`
	AnswerB       string `json:"answer_b,omitempty"`
	AnswerC       string `json:"answer_c,omitempty"`
	AnswerD       string `json:"answer_d,omitempty"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
}

// IsMultipleChoice reports whether the generated question is a complete MC
// question: all four options present and the correct answer a letter in a-d.
// Anything less is treated as open-text.
func (q GeneratedQuestion) IsMultipleChoice() bool {
	if q.AnswerA == "" || q.AnswerB == "" || q.AnswerC == "" || q.AnswerD == "" {
		return false
	}
	switch q.CorrectAnswer {
	case "a", "b", "c", "d":
		return true
	}
	return false
}
