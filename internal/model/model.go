package model

import "time"

// OptionLabels are the four choice labels in display order.
var OptionLabels = [4]string{"A", "B", "C", "D"}

// OptionIndex maps a label A-D to 0-3, or -1 for anything else.
func OptionIndex(label string) int {
	for i, l := range OptionLabels {
		if l == label {
			return i
		}
	}
	return -1
}

// ValidOption reports whether label is one of A-D.
func ValidOption(label string) bool {
	return OptionIndex(label) >= 0
}

// FilterAll is the wildcard value accepted by every bank filter field.
const FilterAll = "All"

// AnswerNotAttempted is stored as the user answer when a question was never answered.
const AnswerNotAttempted = "Not Attempted"

// TimestampLayout is how result timestamps are written to and parsed from the workbook.
const TimestampLayout = "2006-01-02 15:04:05"

// Result classifies the outcome of one question.
type Result string

const (
	ResultCorrect      Result = "Correct"
	ResultWrong        Result = "Wrong"
	ResultNotAttempted Result = "Not Attempted"
)

// Question is one multiple-choice question from the bank.
// Immutable once loaded; the four options are indexed by OptionLabels.
type Question struct {
	ID      int       `json:"id"`
	Exam    string    `json:"exam"`
	Section string    `json:"section"`
	Topic   string    `json:"topic"`
	Text    string    `json:"text"`
	Options [4]string `json:"options"`
	Correct string    `json:"correct"`
}

// Option returns the option text for a label, or "" for an unknown label.
func (q Question) Option(label string) string {
	i := OptionIndex(label)
	if i < 0 {
		return ""
	}
	return q.Options[i]
}

// ResultRow is one persisted fact in the results store. A completed session
// writes exactly one row per question, in sampled order.
type ResultRow struct {
	SessionID      string    `json:"session_id"`
	UserName       string    `json:"user_name"`
	Timestamp      time.Time `json:"timestamp"`
	Exam           string    `json:"exam"`
	Section        string    `json:"section"`
	Topic          string    `json:"topic"`
	TotalQuestions int       `json:"total_questions"`
	QuestionID     int       `json:"question_id"`
	QuestionText   string    `json:"question_text"`
	UserAnswer     string    `json:"user_answer"`
	CorrectAnswer  string    `json:"correct_answer"`
	Result         Result    `json:"result"`
	Marked         bool      `json:"marked"`
}

// QuestionResult is the scored outcome of a single question within a session.
type QuestionResult struct {
	Index         int    `json:"index"`
	QuestionID    int    `json:"question_id"`
	QuestionText  string `json:"question_text"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	Result        Result `json:"result"`
	Marked        bool   `json:"marked"`
}

// ScoreSummary is the scored view of one session.
type ScoreSummary struct {
	Total      int              `json:"total"`
	Attempted  int              `json:"attempted"`
	Correct    int              `json:"correct"`
	Incorrect  int              `json:"incorrect"`
	Percentage float64          `json:"percentage"`
	Details    []QuestionResult `json:"details"`
}
