package session

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/sanketk/quizdeck/internal/bank"
	"github.com/sanketk/quizdeck/internal/model"
)

var t0 = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

// testBank has exactly 10 GK/Science/Physics questions with correct answers
// [A B C D A B C D A B] plus 3 GK/Science/Chemistry questions.
func testBank(t *testing.T) *bank.Bank {
	t.Helper()
	correct := []string{"A", "B", "C", "D", "A", "B", "C", "D", "A", "B"}
	qs := make([]model.Question, 0, 13)
	for i, c := range correct {
		qs = append(qs, model.Question{
			ID: i + 1, Exam: "GK", Section: "Science", Topic: "Physics",
			Text:    "physics question",
			Options: [4]string{"w", "x", "y", "z"},
			Correct: c,
		})
	}
	for i := 0; i < 3; i++ {
		qs = append(qs, model.Question{
			ID: 100 + i, Exam: "GK", Section: "Science", Topic: "Chemistry",
			Text:    "chemistry question",
			Options: [4]string{"w", "x", "y", "z"},
			Correct: "A",
		})
	}
	return bank.New(qs)
}

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func startTestSession(t *testing.T, count int) *Session {
	t.Helper()
	s, err := Start(testBank(t), Params{
		UserName: "asha",
		Exam:     "GK",
		Section:  "Science",
		Topic:    "Physics",
		Count:    count,
	}, testRNG(), t0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s
}

func TestStartInsufficientQuestions(t *testing.T) {
	_, err := Start(testBank(t), Params{
		UserName: "asha",
		Exam:     "GK",
		Section:  "Science",
		Topic:    "Chemistry",
		Count:    5,
	}, testRNG(), t0)

	var insufficient *InsufficientQuestionsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientQuestionsError, got %v", err)
	}
	if insufficient.Available != 3 {
		t.Errorf("expected available count 3, got %d", insufficient.Available)
	}
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("expected message to report the available count, got %q", err.Error())
	}
}

func TestStartValidation(t *testing.T) {
	b := testBank(t)

	if _, err := Start(b, Params{UserName: "  ", Count: 1}, testRNG(), t0); !errors.Is(err, ErrNoUserName) {
		t.Errorf("expected ErrNoUserName, got %v", err)
	}
	if _, err := Start(b, Params{UserName: "asha", Count: 0}, testRNG(), t0); err == nil {
		t.Error("expected error for zero count")
	}
}

func TestStartSamplesWithoutReplacement(t *testing.T) {
	s := startTestSession(t, 10)

	if len(s.questions) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(s.questions))
	}
	seen := make(map[int]bool)
	for _, q := range s.questions {
		if q.Topic != "Physics" {
			t.Errorf("sampled question outside filter: %+v", q)
		}
		if seen[q.ID] {
			t.Errorf("question %d sampled twice", q.ID)
		}
		seen[q.ID] = true
	}
	if s.limit != 10*time.Minute {
		t.Errorf("expected one minute per question, got %v", s.limit)
	}
	if !s.visited[0] || len(s.visited) != 1 {
		t.Errorf("expected only index 0 visited at start, got %v", s.visited)
	}
}

func TestStartWildcardFilters(t *testing.T) {
	s, err := Start(testBank(t), Params{UserName: "asha", Count: 13}, testRNG(), t0)
	if err != nil {
		t.Fatalf("Start with wildcard filters: %v", err)
	}
	if len(s.questions) != 13 {
		t.Errorf("expected all 13 questions, got %d", len(s.questions))
	}
	if s.exam != model.FilterAll || s.section != model.FilterAll || s.topic != model.FilterAll {
		t.Errorf("expected empty filters normalized to All, got %q/%q/%q", s.exam, s.section, s.topic)
	}
}

func TestAnswerAllCorrect(t *testing.T) {
	s := startTestSession(t, 10)

	now := t0
	for i := 0; i < 10; i++ {
		now = now.Add(10 * time.Second)
		if err := s.Answer(s.questions[s.current].Correct, now); err != nil {
			t.Fatalf("Answer #%d: %v", i, err)
		}
		if err := s.Advance(now); err != nil {
			t.Fatalf("Advance #%d: %v", i, err)
		}
	}

	if !s.Finished(now) {
		t.Fatal("expected session finished after advancing past the last question")
	}
	sum := s.Score()
	if sum.Correct != 10 || sum.Attempted != 10 || sum.Incorrect != 0 {
		t.Errorf("expected 10/10 correct, got %+v", sum)
	}
	if sum.Percentage != 100.0 {
		t.Errorf("expected percentage 100.0, got %v", sum.Percentage)
	}
}

func TestScoreNoAnswers(t *testing.T) {
	s := startTestSession(t, 10)
	if err := s.FinishNow(t0.Add(time.Minute)); err != nil {
		t.Fatalf("FinishNow: %v", err)
	}

	sum := s.Score()
	if sum.Attempted != 0 || sum.Correct != 0 {
		t.Errorf("expected nothing attempted, got %+v", sum)
	}
	if sum.Percentage != 0.0 {
		t.Errorf("expected percentage 0.0, got %v", sum.Percentage)
	}
	for _, d := range sum.Details {
		if d.Result != model.ResultNotAttempted || d.UserAnswer != model.AnswerNotAttempted {
			t.Errorf("expected Not Attempted detail, got %+v", d)
		}
	}
}

func TestScoreMixed(t *testing.T) {
	s := startTestSession(t, 10)
	now := t0.Add(time.Second)

	// Two right, one wrong, seven untouched.
	if err := s.Answer(s.questions[0].Correct, now); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := s.Goto(1, now); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	if err := s.Answer(s.questions[1].Correct, now); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := s.Goto(2, now); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	wrong := "A"
	if s.questions[2].Correct == "A" {
		wrong = "B"
	}
	if err := s.Answer(wrong, now); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	sum := s.Score()
	if sum.Attempted != 3 || sum.Correct != 2 || sum.Incorrect != 1 {
		t.Errorf("expected attempted=3 correct=2 incorrect=1, got %+v", sum)
	}
	notAttempted := 0
	for _, d := range sum.Details {
		if d.Result == model.ResultNotAttempted {
			notAttempted++
		}
	}
	if sum.Attempted+notAttempted != sum.Total {
		t.Errorf("attempted %d + not attempted %d != total %d", sum.Attempted, notAttempted, sum.Total)
	}
	if sum.Correct > sum.Attempted || sum.Attempted > sum.Total {
		t.Errorf("aggregate bounds violated: %+v", sum)
	}
	if sum.Percentage != 20.0 {
		t.Errorf("expected percentage 20.0, got %v", sum.Percentage)
	}
}

func TestAdvanceReachesFinished(t *testing.T) {
	s := startTestSession(t, 10)
	idsBefore := make([]int, len(s.questions))
	for i, q := range s.questions {
		idsBefore[i] = q.ID
	}

	now := t0
	for i := 0; i < 10; i++ {
		if s.Finished(now) {
			t.Fatalf("finished early at advance #%d", i)
		}
		if err := s.Advance(now); err != nil {
			t.Fatalf("Advance #%d: %v", i, err)
		}
	}
	if !s.Finished(now) {
		t.Error("expected finished after N advances")
	}
	if err := s.Advance(now); !errors.Is(err, ErrFinished) {
		t.Errorf("expected ErrFinished after the terminal advance, got %v", err)
	}
	for i, q := range s.questions {
		if q.ID != idsBefore[i] {
			t.Fatal("question order changed during navigation")
		}
	}
}

func TestGoto(t *testing.T) {
	s := startTestSession(t, 10)
	now := t0.Add(time.Second)

	if err := s.Goto(7, now); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	if s.current != 7 || !s.visited[7] {
		t.Errorf("expected current=7 visited, got current=%d visited=%v", s.current, s.visited)
	}

	for _, i := range []int{-1, 10, 99} {
		if err := s.Goto(i, now); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Goto(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
	if s.current != 7 {
		t.Errorf("rejected Goto moved the pointer to %d", s.current)
	}
}

func TestToggleMark(t *testing.T) {
	s := startTestSession(t, 10)
	now := t0.Add(time.Second)

	if err := s.ToggleMark(now); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	if !s.marked[0] {
		t.Error("expected index 0 marked")
	}
	if err := s.ToggleMark(now); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	if s.marked[0] {
		t.Error("expected mark cleared on second toggle")
	}
}

func TestClearAnswer(t *testing.T) {
	s := startTestSession(t, 10)
	now := t0.Add(time.Second)

	if err := s.ClearAnswer(now); err != nil {
		t.Fatalf("ClearAnswer on unanswered question: %v", err)
	}
	if err := s.Answer("A", now); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := s.ClearAnswer(now); err != nil {
		t.Fatalf("ClearAnswer: %v", err)
	}
	if len(s.answers) != 0 {
		t.Errorf("expected no answers after clear, got %v", s.answers)
	}
}

func TestAnswerValidation(t *testing.T) {
	s := startTestSession(t, 10)
	now := t0.Add(time.Second)

	for _, label := range []string{"E", "", "a", "AB"} {
		if err := s.Answer(label, now); !errors.Is(err, ErrInvalidOption) {
			t.Errorf("Answer(%q): expected ErrInvalidOption, got %v", label, err)
		}
	}
	if err := s.Answer("D", now); err != nil {
		t.Fatalf("Answer(D): %v", err)
	}
	if err := s.Answer("B", now); err != nil {
		t.Fatalf("re-answer: %v", err)
	}
	if got := s.answers[s.questions[0].ID]; got != "B" {
		t.Errorf("expected re-answer to overwrite, got %q", got)
	}
}

func TestTickIdempotent(t *testing.T) {
	s := startTestSession(t, 10) // limit 10 minutes

	if s.Tick(t0.Add(5 * time.Minute)) {
		t.Fatal("finished before the limit")
	}
	deadline := t0.Add(10 * time.Minute)

	// First observation long after the deadline still pins the end to it.
	if !s.Tick(deadline.Add(7 * time.Minute)) {
		t.Fatal("expected finished past the limit")
	}
	if !s.endedAt.Equal(deadline) {
		t.Errorf("expected endedAt %v, got %v", deadline, s.endedAt)
	}

	// Repeated ticks never move the transition point or the start.
	for _, later := range []time.Duration{0, time.Second, time.Hour} {
		if !s.Tick(deadline.Add(later)) {
			t.Error("tick un-finished a finished session")
		}
	}
	if !s.endedAt.Equal(deadline) {
		t.Errorf("endedAt drifted to %v", s.endedAt)
	}
	if !s.startedAt.Equal(t0) {
		t.Errorf("startedAt changed to %v", s.startedAt)
	}

	if err := s.Answer("A", deadline.Add(time.Second)); !errors.Is(err, ErrFinished) {
		t.Errorf("expected ErrFinished after timeout, got %v", err)
	}
}

func TestTimeoutDuringMutation(t *testing.T) {
	s := startTestSession(t, 10)

	// The guard inside each operation evaluates the timer even when Tick was
	// never called explicitly.
	err := s.Answer("A", t0.Add(11*time.Minute))
	if !errors.Is(err, ErrFinished) {
		t.Fatalf("expected ErrFinished, got %v", err)
	}
	if !s.endedAt.Equal(t0.Add(10 * time.Minute)) {
		t.Errorf("expected deterministic end at the deadline, got %v", s.endedAt)
	}
}

func TestFinishNow(t *testing.T) {
	s := startTestSession(t, 10)
	now := t0.Add(3 * time.Minute)

	if err := s.FinishNow(now); err != nil {
		t.Fatalf("FinishNow: %v", err)
	}
	if !s.endedAt.Equal(now) {
		t.Errorf("expected endedAt %v, got %v", now, s.endedAt)
	}
	if err := s.FinishNow(now.Add(time.Second)); !errors.Is(err, ErrFinished) {
		t.Errorf("expected ErrFinished on double finish, got %v", err)
	}
	if s.Remaining(now.Add(time.Second)) != 0 {
		t.Errorf("expected zero remaining after finish")
	}
}

func TestRemainingAndElapsed(t *testing.T) {
	s := startTestSession(t, 10)

	if got := s.Remaining(t0.Add(90 * time.Second)); got != 8*time.Minute+30*time.Second {
		t.Errorf("expected 8m30s remaining, got %v", got)
	}
	if got := s.Elapsed(t0.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("expected 90s elapsed, got %v", got)
	}

	// Past the limit both freeze at the deadline.
	if got := s.Remaining(t0.Add(time.Hour)); got != 0 {
		t.Errorf("expected zero remaining after timeout, got %v", got)
	}
	if got := s.Elapsed(t0.Add(time.Hour)); got != 10*time.Minute {
		t.Errorf("expected elapsed frozen at the limit, got %v", got)
	}
}

func TestRows(t *testing.T) {
	s := startTestSession(t, 10)
	now := t0.Add(time.Minute)

	if _, err := s.Rows(); !errors.Is(err, ErrNotFinished) {
		t.Fatalf("expected ErrNotFinished before finish, got %v", err)
	}

	if err := s.Answer(s.questions[0].Correct, now); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := s.ToggleMark(now); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	if err := s.FinishNow(now); err != nil {
		t.Fatalf("FinishNow: %v", err)
	}

	rows, err := s.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if row.SessionID != s.id {
			t.Errorf("row %d: expected session id %q, got %q", i, s.id, row.SessionID)
		}
		if !row.Timestamp.Equal(now) {
			t.Errorf("row %d: expected timestamp %v, got %v", i, now, row.Timestamp)
		}
		if row.TotalQuestions != 10 {
			t.Errorf("row %d: expected total 10, got %d", i, row.TotalQuestions)
		}
		if row.QuestionID != s.questions[i].ID {
			t.Errorf("row %d: expected sampled order preserved", i)
		}
	}
	if rows[0].Result != model.ResultCorrect || !rows[0].Marked {
		t.Errorf("expected first row correct and marked, got %+v", rows[0])
	}
	if rows[1].UserAnswer != model.AnswerNotAttempted {
		t.Errorf("expected unanswered row recorded as Not Attempted, got %q", rows[1].UserAnswer)
	}
}

func TestSnapshot(t *testing.T) {
	s := startTestSession(t, 10)
	now := t0.Add(time.Minute)

	if err := s.Answer("C", now); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := s.ToggleMark(now); err != nil {
		t.Fatalf("ToggleMark: %v", err)
	}
	if err := s.Goto(4, now); err != nil {
		t.Fatalf("Goto: %v", err)
	}

	v := s.Snapshot(now)
	if v.ID != s.id || v.UserName != "asha" {
		t.Errorf("unexpected identity in snapshot: %+v", v)
	}
	if v.Total != 10 || v.Current != 4 || v.Answered != 1 || v.Finished {
		t.Errorf("unexpected progress in snapshot: %+v", v)
	}
	if v.RemainingSeconds != 9*60 {
		t.Errorf("expected 540 seconds remaining, got %d", v.RemainingSeconds)
	}
	if v.Question == nil || v.Question.Index != 4 {
		t.Fatalf("expected current question view, got %+v", v.Question)
	}

	p := v.Palette
	if len(p) != 10 {
		t.Fatalf("expected 10 palette entries, got %d", len(p))
	}
	if !p[0].Answered || !p[0].Marked || !p[0].Visited || p[0].Current {
		t.Errorf("unexpected palette state for index 0: %+v", p[0])
	}
	if !p[4].Current || !p[4].Visited || p[4].Answered {
		t.Errorf("unexpected palette state for index 4: %+v", p[4])
	}
	if p[9].Visited || p[9].Answered || p[9].Marked {
		t.Errorf("unexpected palette state for index 9: %+v", p[9])
	}

	if err := s.FinishNow(now.Add(time.Second)); err != nil {
		t.Fatalf("FinishNow: %v", err)
	}
	v = s.Snapshot(now.Add(2 * time.Second))
	if !v.Finished || v.Question != nil || v.RemainingSeconds != 0 {
		t.Errorf("expected terminal snapshot, got %+v", v)
	}
	if v.EndedAt == nil {
		t.Error("expected EndedAt in terminal snapshot")
	}
}

func TestSeededSamplingIsDeterministic(t *testing.T) {
	a, err := Start(testBank(t), Params{UserName: "asha", Count: 10, Exam: "GK", Section: "Science", Topic: "Physics"}, testRNG(), t0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	b, err := Start(testBank(t), Params{UserName: "asha", Count: 10, Exam: "GK", Section: "Science", Topic: "Physics"}, testRNG(), t0)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := range a.questions {
		if a.questions[i].ID != b.questions[i].ID {
			t.Fatal("expected identical sampling for identical seeds")
		}
	}
	if a.id == b.id {
		t.Error("expected distinct session ids")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(time.Minute)
	s := startTestSession(t, 10) // deadline t0+10m

	r.Put(s)
	if got := r.Get(s.ID()); got != s {
		t.Fatalf("expected registered session, got %v", got)
	}
	if r.Get("unknown") != nil {
		t.Error("expected nil for unknown id")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session, got %d", r.Len())
	}

	// Not yet past deadline+grace.
	if removed := r.Sweep(t0.Add(10 * time.Minute)); removed != 0 {
		t.Errorf("expected no sweep before grace, removed %d", removed)
	}
	if removed := r.Sweep(t0.Add(11*time.Minute + time.Second)); removed != 1 {
		t.Errorf("expected 1 swept, removed %d", removed)
	}
	if r.Get(s.ID()) != nil {
		t.Error("expected session gone after sweep")
	}

	r.Put(s)
	r.Delete(s.ID())
	if r.Len() != 0 {
		t.Errorf("expected empty registry after delete, got %d", r.Len())
	}
}
