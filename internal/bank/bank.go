// Package bank loads the question bank workbook and answers filter queries
// over it. The bank is immutable after loading.
package bank

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sanketk/quizdeck/internal/model"
)

// ErrMissing reports an absent question bank file.
var ErrMissing = errors.New("question bank file not found")

// ErrMalformed reports a bank file that exists but cannot be used as is.
var ErrMalformed = errors.New("malformed question bank")

// requiredColumns must all be present in the header row. Id is optional and
// auto-assigned when absent.
var requiredColumns = []string{
	"Exam", "Section", "Topic", "Question",
	"Option A", "Option B", "Option C", "Option D",
	"Correct Answer",
}

// Bank is the loaded question table.
type Bank struct {
	questions []model.Question
}

// New wraps an already-built question slice, e.g. for previewing an uploaded
// workbook or for tests. The slice is used as is.
func New(questions []model.Question) *Bank {
	return &Bank{questions: questions}
}

// Load reads the first sheet of an .xlsx workbook into a Bank.
func Load(path string) (*Bank, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("opening question bank: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading question bank rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformed)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns %s", ErrMalformed, strings.Join(missing, ", "))
	}
	idCol, hasID := col["Id"]

	var questions []model.Question
	for i, row := range rows[1:] {
		q := model.Question{
			Exam:    cell(row, col["Exam"]),
			Section: cell(row, col["Section"]),
			Topic:   cell(row, col["Topic"]),
			Text:    cell(row, col["Question"]),
			Correct: strings.ToUpper(cell(row, col["Correct Answer"])),
		}
		for j, label := range model.OptionLabels {
			q.Options[j] = cell(row, col["Option "+label])
		}
		if q.Exam == "" && q.Section == "" && q.Topic == "" && q.Text == "" {
			continue // blank filler row
		}
		rowNum := i + 2 // 1-based, after the header
		if q.Text == "" {
			return nil, fmt.Errorf("%w: row %d has no question text", ErrMalformed, rowNum)
		}
		if !model.ValidOption(q.Correct) {
			return nil, fmt.Errorf("%w: row %d correct answer %q is not one of A-D", ErrMalformed, rowNum, q.Correct)
		}
		q.ID = len(questions) + 1
		if hasID {
			if raw := cell(row, idCol); raw != "" {
				id, err := strconv.Atoi(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: row %d id %q is not an integer", ErrMalformed, rowNum, raw)
				}
				q.ID = id
			}
		}
		questions = append(questions, q)
	}

	return &Bank{questions: questions}, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Questions returns all questions in bank order. Callers must not mutate
// the returned slice.
func (b *Bank) Questions() []model.Question {
	return b.questions
}

func matches(q model.Question, exam, section, topic string) bool {
	if exam != model.FilterAll && q.Exam != exam {
		return false
	}
	if section != model.FilterAll && q.Section != section {
		return false
	}
	if topic != model.FilterAll && q.Topic != topic {
		return false
	}
	return true
}

// Filter returns the questions matching all three filters, in bank order.
// model.FilterAll matches every value for that field.
func (b *Bank) Filter(exam, section, topic string) []model.Question {
	var out []model.Question
	for _, q := range b.questions {
		if matches(q, exam, section, topic) {
			out = append(out, q)
		}
	}
	return out
}

// Count returns how many questions match all three filters.
func (b *Bank) Count(exam, section, topic string) int {
	n := 0
	for _, q := range b.questions {
		if matches(q, exam, section, topic) {
			n++
		}
	}
	return n
}

// Exams lists the distinct exams in first-seen order.
func (b *Bank) Exams() []string {
	return b.distinct(func(q model.Question) string { return q.Exam }, model.FilterAll, model.FilterAll)
}

// Sections lists the distinct sections of an exam in first-seen order.
func (b *Bank) Sections(exam string) []string {
	return b.distinct(func(q model.Question) string { return q.Section }, exam, model.FilterAll)
}

// Topics lists the distinct topics of an exam/section pair in first-seen order.
func (b *Bank) Topics(exam, section string) []string {
	return b.distinct(func(q model.Question) string { return q.Topic }, exam, section)
}

func (b *Bank) distinct(field func(model.Question) string, exam, section string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range b.questions {
		if !matches(q, exam, section, model.FilterAll) {
			continue
		}
		v := field(q)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
