package model

import "time"

// SessionAggregate is one session's derived summary, recomputed from result
// rows on every read and never persisted.
type SessionAggregate struct {
	SessionID      string    `json:"session_id,omitempty"`
	UserName       string    `json:"user_name"`
	Timestamp      time.Time `json:"timestamp"`
	Exam           string    `json:"exam"`
	Section        string    `json:"section"`
	Topic          string    `json:"topic"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
}

// UserAggregate is one user's derived totals across all of their sessions.
type UserAggregate struct {
	UserName       string  `json:"user_name"`
	TotalQuizzes   int     `json:"total_quizzes"`
	TotalCorrect   int     `json:"total_correct"`
	TotalAttempted int     `json:"total_attempted"`
	Accuracy       float64 `json:"accuracy"`
}

// Leaderboard bundles every derived view the leaderboard screen renders.
type Leaderboard struct {
	Sessions []SessionAggregate `json:"sessions"`
	Users    []UserAggregate    `json:"users"`
	Top      []SessionAggregate `json:"top_performers"`
	Recent   []SessionAggregate `json:"recent_attempts"`
	Warnings []string           `json:"warnings,omitempty"`
}
