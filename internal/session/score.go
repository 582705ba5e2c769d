package session

import (
	"github.com/sanketk/quizdeck/internal/model"
)

// Score grades the session: each question in sampled order is Correct when
// the recorded answer equals its correct option, Wrong when answered
// differently, Not Attempted when unanswered. Pure computation, safe to call
// mid-session for a live preview with identical semantics.
func (s *Session) Score() model.ScoreSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreLocked()
}

func (s *Session) scoreLocked() model.ScoreSummary {
	sum := model.ScoreSummary{
		Total:   len(s.questions),
		Details: make([]model.QuestionResult, 0, len(s.questions)),
	}
	for i, q := range s.questions {
		d := model.QuestionResult{
			Index:         i,
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			CorrectAnswer: q.Correct,
			Marked:        s.marked[i],
		}
		answer, ok := s.answers[q.ID]
		switch {
		case !ok:
			d.UserAnswer = model.AnswerNotAttempted
			d.Result = model.ResultNotAttempted
		case answer == q.Correct:
			d.UserAnswer = answer
			d.Result = model.ResultCorrect
			sum.Attempted++
			sum.Correct++
		default:
			d.UserAnswer = answer
			d.Result = model.ResultWrong
			sum.Attempted++
		}
		sum.Details = append(sum.Details, d)
	}
	sum.Incorrect = sum.Attempted - sum.Correct
	if sum.Total > 0 {
		sum.Percentage = 100 * float64(sum.Correct) / float64(sum.Total)
	}
	return sum
}

// Rows expands a finished session into exactly one result row per question,
// in sampled order, all tagged with the session's identity and end time.
// The leaderboard depends on this exact N-rows-per-session shape.
func (s *Session) Rows() ([]model.ResultRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endedAt.IsZero() {
		return nil, ErrNotFinished
	}
	sum := s.scoreLocked()
	rows := make([]model.ResultRow, 0, len(sum.Details))
	for _, d := range sum.Details {
		rows = append(rows, model.ResultRow{
			SessionID:      s.id,
			UserName:       s.userName,
			Timestamp:      s.endedAt,
			Exam:           s.exam,
			Section:        s.section,
			Topic:          s.topic,
			TotalQuestions: sum.Total,
			QuestionID:     d.QuestionID,
			QuestionText:   d.QuestionText,
			UserAnswer:     d.UserAnswer,
			CorrectAnswer:  d.CorrectAnswer,
			Result:         d.Result,
			Marked:         d.Marked,
		})
	}
	return rows, nil
}
