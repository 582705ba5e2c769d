// Package session implements the quiz session state machine: one value per
// attempt, owning the sampled questions, the user's answers and marks, the
// navigation pointer, and the countdown deadline.
package session

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sanketk/quizdeck/internal/bank"
	"github.com/sanketk/quizdeck/internal/model"
)

// DefaultPerQuestion is the time budget per sampled question.
const DefaultPerQuestion = time.Minute

// ErrFinished is returned by every mutating operation on a finished session.
var ErrFinished = errors.New("quiz session already finished")

// ErrNotFinished is returned when result rows are requested from a session
// that is still in progress.
var ErrNotFinished = errors.New("quiz session still in progress")

// ErrInvalidOption rejects answer labels outside A-D.
var ErrInvalidOption = errors.New("answer must be one of A-D")

// ErrIndexOutOfRange rejects navigation outside [0, N).
var ErrIndexOutOfRange = errors.New("question index out of range")

// ErrNoUserName rejects starting a quiz without a name to record results under.
var ErrNoUserName = errors.New("user name is required")

// InsufficientQuestionsError reports that the filtered bank cannot satisfy the
// requested question count. Available carries the exact number of matches.
type InsufficientQuestionsError struct {
	Available int
	Requested int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("only %d questions available for the chosen filters, %d requested", e.Available, e.Requested)
}

// Params are the start parameters collected during setup.
type Params struct {
	UserName string
	Exam     string
	Section  string
	Topic    string
	Count    int
	// PerQuestion overrides DefaultPerQuestion when positive. The session's
	// time limit is PerQuestion times Count.
	PerQuestion time.Duration
}

// Session is one user's attempt. All methods are safe for concurrent use.
// Every operation takes the current wall-clock time so the pull-based timer
// is evaluated before the operation applies; elapsed time is always computed
// from StartedAt, never accumulated.
type Session struct {
	mu        sync.Mutex
	id        string
	userName  string
	exam      string
	section   string
	topic     string
	questions []model.Question
	answers   map[int]string
	marked    map[int]bool
	visited   map[int]bool
	current   int
	startedAt time.Time
	endedAt   time.Time
	limit     time.Duration
	saved     bool
}

// Start filters the bank, samples p.Count questions without replacement using
// rng, and returns a new in-progress session. It fails with
// InsufficientQuestionsError when fewer than p.Count questions match; no
// session is created in that case. Empty filter fields are treated as the
// "All" wildcard. A nil rng falls back to an entropy-seeded source; tests
// pass a fixed-seed rand.New(rand.NewPCG(...)).
func Start(b *bank.Bank, p Params, rng *rand.Rand, now time.Time) (*Session, error) {
	p.UserName = strings.TrimSpace(p.UserName)
	if p.UserName == "" {
		return nil, ErrNoUserName
	}
	if p.Exam == "" {
		p.Exam = model.FilterAll
	}
	if p.Section == "" {
		p.Section = model.FilterAll
	}
	if p.Topic == "" {
		p.Topic = model.FilterAll
	}
	if p.Count < 1 {
		return nil, fmt.Errorf("question count must be at least 1, got %d", p.Count)
	}
	if p.PerQuestion <= 0 {
		p.PerQuestion = DefaultPerQuestion
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	pool := b.Filter(p.Exam, p.Section, p.Topic)
	if len(pool) < p.Count {
		return nil, &InsufficientQuestionsError{Available: len(pool), Requested: p.Count}
	}

	questions := make([]model.Question, 0, p.Count)
	for _, i := range rng.Perm(len(pool))[:p.Count] {
		questions = append(questions, pool[i])
	}

	return &Session{
		id:        uuid.NewString(),
		userName:  p.UserName,
		exam:      p.Exam,
		section:   p.Section,
		topic:     p.Topic,
		questions: questions,
		answers:   make(map[int]string),
		marked:    make(map[int]bool),
		visited:   map[int]bool{0: true},
		startedAt: now,
		limit:     p.PerQuestion * time.Duration(p.Count),
	}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// tickLocked applies the timeout rule: once elapsed time reaches the limit,
// the session ends exactly at startedAt+limit no matter when the check runs.
func (s *Session) tickLocked(now time.Time) {
	if !s.endedAt.IsZero() {
		return
	}
	if now.Sub(s.startedAt) >= s.limit {
		s.endedAt = s.startedAt.Add(s.limit)
	}
}

func (s *Session) finishedLocked() bool {
	return !s.endedAt.IsZero() || s.current >= len(s.questions)
}

// Tick evaluates the timer and reports whether the session is finished.
// Idempotent: repeated calls with non-decreasing now never change startedAt
// and never un-finish a finished session.
func (s *Session) Tick(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(now)
	return s.finishedLocked()
}

// Finished reports whether the session has ended as of now.
func (s *Session) Finished(now time.Time) bool {
	return s.Tick(now)
}

// Remaining returns the time left on the clock, zero once finished.
func (s *Session) Remaining(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(now)
	if s.finishedLocked() {
		return 0
	}
	return s.limit - now.Sub(s.startedAt)
}

// Elapsed returns how long the session has run, frozen at the end time once
// finished. Always recomputed from StartedAt, never accumulated.
func (s *Session) Elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked(now)
	if !s.endedAt.IsZero() {
		return s.endedAt.Sub(s.startedAt)
	}
	return now.Sub(s.startedAt)
}

// guardLocked runs the timer and rejects mutations once finished.
func (s *Session) guardLocked(now time.Time) error {
	s.tickLocked(now)
	if s.finishedLocked() {
		return ErrFinished
	}
	return nil
}

// Answer records label as the answer to the current question, overwriting
// any previous choice. No history is kept.
func (s *Session) Answer(label string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(now); err != nil {
		return err
	}
	if !model.ValidOption(label) {
		return fmt.Errorf("%w: %q", ErrInvalidOption, label)
	}
	s.answers[s.questions[s.current].ID] = label
	return nil
}

// ClearAnswer removes the current question's answer if present.
func (s *Session) ClearAnswer(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(now); err != nil {
		return err
	}
	delete(s.answers, s.questions[s.current].ID)
	return nil
}

// ToggleMark flips the review flag on the current question.
func (s *Session) ToggleMark(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(now); err != nil {
		return err
	}
	if s.marked[s.current] {
		delete(s.marked, s.current)
	} else {
		s.marked[s.current] = true
	}
	return nil
}

// Goto jumps to question index i and records it as visited. Out-of-range
// indices are rejected.
func (s *Session) Goto(i int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(now); err != nil {
		return err
	}
	if i < 0 || i >= len(s.questions) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	s.current = i
	s.visited[i] = true
	return nil
}

// Advance moves to the next question. Advancing past the last question is
// the ran-out-of-questions terminal path: the session finishes.
func (s *Session) Advance(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(now); err != nil {
		return err
	}
	s.current++
	if s.current < len(s.questions) {
		s.visited[s.current] = true
	} else {
		s.endedAt = now
	}
	return nil
}

// FinishNow ends the session early at the user's request.
func (s *Session) FinishNow(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guardLocked(now); err != nil {
		return err
	}
	s.endedAt = now
	return nil
}

// Deadline returns the instant the timer expires.
func (s *Session) Deadline() time.Time {
	return s.startedAt.Add(s.limit)
}

// TrySave claims the one-time persistence of the session's result rows. The
// first caller gets true and must perform the append; later callers get
// false. ClearSaved releases the claim after a failed append so the next
// request retries.
func (s *Session) TrySave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved {
		return false
	}
	s.saved = true
	return true
}

// ClearSaved releases the save claim taken by TrySave.
func (s *Session) ClearSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = false
}
