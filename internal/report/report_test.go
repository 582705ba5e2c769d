package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sanketk/quizdeck/internal/model"
)

func TestRender(t *testing.T) {
	started := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	sc := Scorecard{
		UserName:  "asha",
		Exam:      "GK",
		Section:   "Science",
		Topic:     "Physics",
		StartedAt: started,
		EndedAt:   started.Add(4*time.Minute + 30*time.Second),
		Summary: model.ScoreSummary{
			Total: 2, Attempted: 2, Correct: 1, Incorrect: 1, Percentage: 50.0,
			Details: []model.QuestionResult{
				{Index: 0, QuestionID: 1, QuestionText: "What is the SI unit of force, the one named after the scientist who formulated the laws of motion?",
					UserAnswer: "B", CorrectAnswer: "B", Result: model.ResultCorrect, Marked: true},
				{Index: 1, QuestionID: 2, QuestionText: "Short one?",
					UserAnswer: "A", CorrectAnswer: "C", Result: model.ResultWrong},
			},
		},
	}

	var buf bytes.Buffer
	if err := Render(&buf, sc); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF-") {
		t.Errorf("expected PDF magic, got %q", buf.String()[:8])
	}
	if buf.Len() < 1000 {
		t.Errorf("suspiciously small PDF: %d bytes", buf.Len())
	}
}
