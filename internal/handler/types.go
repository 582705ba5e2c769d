package handler

import (
	"time"

	"github.com/sanketk/quizdeck/internal/model"
	"github.com/sanketk/quizdeck/internal/notes"
)

// SetupResponse feeds the quiz setup screen: cascading filter lists (each
// prefixed with the "All" wildcard), the match count for the current filters,
// and the question-count slider bounds.
type SetupResponse struct {
	Title            string   `json:"title"`
	Exams            []string `json:"exams"`
	Sections         []string `json:"sections"`
	Topics           []string `json:"topics"`
	Available        int      `json:"available"`
	AvailableMessage string   `json:"available_message"`
	MinQuestions     int      `json:"min_questions"`
	MaxQuestions     int      `json:"max_questions"`
	DefaultQuestions int      `json:"default_questions"`
}

// StartRequest starts a new quiz session. Empty filters mean "All"; a zero
// count uses the configured default.
type StartRequest struct {
	UserName string `json:"user_name"`
	Exam     string `json:"exam"`
	Section  string `json:"section"`
	Topic    string `json:"topic"`
	Count    int    `json:"count"`
}

// AnswerRequest records an option for the current question.
type AnswerRequest struct {
	Option string `json:"option"`
}

// GotoRequest jumps to a question by zero-based index.
type GotoRequest struct {
	Index int `json:"index"`
}

// ScorecardResponse is the final scorecard plus the outcome of persisting it.
// Saved is false when the append to the results store failed; the scorecard
// is still returned and Warning explains that it will not reach the
// leaderboard.
type ScorecardResponse struct {
	SessionID string             `json:"session_id"`
	UserName  string             `json:"user_name"`
	Exam      string             `json:"exam"`
	Section   string             `json:"section"`
	Topic     string             `json:"topic"`
	StartedAt time.Time          `json:"started_at"`
	EndedAt   time.Time          `json:"ended_at"`
	TimedOut  bool               `json:"timed_out"`
	Summary   model.ScoreSummary `json:"summary"`
	Saved     bool               `json:"saved"`
	Warning   string             `json:"warning,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// LeaderboardResponse wraps the aggregates with an optional message for the
// empty case.
type LeaderboardResponse struct {
	model.Leaderboard
	Message string `json:"message,omitempty"`
}

// NotesResponse lists the available study notes.
type NotesResponse struct {
	Notes []notes.File `json:"notes"`
}

// UploadResponse confirms a question bank replacement.
type UploadResponse struct {
	Message   string `json:"message"`
	Questions int    `json:"questions"`
}

type errorResponse struct {
	Error string `json:"error"`
}
