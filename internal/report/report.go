// Package report renders a finished session's scorecard as a PDF download.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sanketk/quizdeck/internal/model"
)

// Scorecard carries everything the PDF shows.
type Scorecard struct {
	UserName  string
	Exam      string
	Section   string
	Topic     string
	StartedAt time.Time
	EndedAt   time.Time
	Summary   model.ScoreSummary
}

// Render writes the scorecard PDF to w.
func Render(w io.Writer, sc Scorecard) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 10, "Quiz Scorecard", "", "L", false)
	pdf.Ln(2)

	taken := sc.EndedAt.Sub(sc.StartedAt).Round(time.Second)
	pdf.SetFont("Helvetica", "", 12)
	info := fmt.Sprintf("Name: %s\nExam: %s / %s / %s\nDate: %s\nTime taken: %s\nScore: %d of %d (%.1f%%)\nAttempted: %d   Correct: %d   Wrong: %d",
		sc.UserName, sc.Exam, sc.Section, sc.Topic,
		sc.EndedAt.Format(model.TimestampLayout), taken,
		sc.Summary.Correct, sc.Summary.Total, sc.Summary.Percentage,
		sc.Summary.Attempted, sc.Summary.Correct, sc.Summary.Incorrect)
	pdf.MultiCell(0, 7, info, "", "L", false)
	pdf.Ln(4)

	for i, d := range sc.Summary.Details {
		header := fmt.Sprintf("Question %d", i+1)
		if d.Marked {
			header += " (marked for review)"
		}
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, header, "", "L", false)

		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 7, d.QuestionText, "", "L", false)
		pdf.MultiCell(0, 7, fmt.Sprintf("Your answer: %s    Correct answer: %s    %s",
			d.UserAnswer, d.CorrectAnswer, d.Result), "", "L", false)
		pdf.Ln(3)
	}

	return pdf.Output(w)
}
