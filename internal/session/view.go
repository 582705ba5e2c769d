package session

import (
	"time"

	"github.com/sanketk/quizdeck/internal/model"
)

// QuestionView is the current question as shown to the user. It never
// carries the correct option.
type QuestionView struct {
	Index   int       `json:"index"`
	ID      int       `json:"id"`
	Text    string    `json:"text"`
	Options [4]string `json:"options"`
	Chosen  string    `json:"chosen,omitempty"`
	Marked  bool      `json:"marked"`
}

// PaletteEntry is one cell of the navigation palette.
type PaletteEntry struct {
	Index    int  `json:"index"`
	Answered bool `json:"answered"`
	Marked   bool `json:"marked"`
	Visited  bool `json:"visited"`
	Current  bool `json:"current"`
}

// View is a consistent snapshot of the session for rendering.
type View struct {
	ID               string         `json:"id"`
	UserName         string         `json:"user_name"`
	Exam             string         `json:"exam"`
	Section          string         `json:"section"`
	Topic            string         `json:"topic"`
	Total            int            `json:"total"`
	Current          int            `json:"current"`
	Answered         int            `json:"answered"`
	Finished         bool           `json:"finished"`
	RemainingSeconds int            `json:"remaining_seconds"`
	StartedAt        time.Time      `json:"started_at"`
	EndedAt          *time.Time     `json:"ended_at,omitempty"`
	Question         *QuestionView  `json:"question,omitempty"`
	Palette          []PaletteEntry `json:"palette"`
}

// Snapshot evaluates the timer and returns the session state as of now.
func (s *Session) Snapshot(now time.Time) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(now)

	v := View{
		ID:        s.id,
		UserName:  s.userName,
		Exam:      s.exam,
		Section:   s.section,
		Topic:     s.topic,
		Total:     len(s.questions),
		Current:   s.current,
		Answered:  len(s.answers),
		Finished:  s.finishedLocked(),
		StartedAt: s.startedAt,
		Palette:   make([]PaletteEntry, len(s.questions)),
	}
	if !s.endedAt.IsZero() {
		ended := s.endedAt
		v.EndedAt = &ended
	}
	if !v.Finished {
		v.RemainingSeconds = int((s.limit - now.Sub(s.startedAt)) / time.Second)
	}
	for i, q := range s.questions {
		v.Palette[i] = PaletteEntry{
			Index:    i,
			Answered: s.answers[q.ID] != "",
			Marked:   s.marked[i],
			Visited:  s.visited[i],
			Current:  i == s.current,
		}
	}
	if !v.Finished && s.current < len(s.questions) {
		q := s.questions[s.current]
		v.Question = &QuestionView{
			Index:   s.current,
			ID:      q.ID,
			Text:    q.Text,
			Options: q.Options,
			Chosen:  s.answers[q.ID],
			Marked:  s.marked[s.current],
		}
	}
	return v
}
