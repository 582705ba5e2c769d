package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sanketk/quizdeck/internal/model"
)

// resultColumns is the workbook header. The first column and Marked are
// additions over the historical layout; readers tolerate files without them.
var resultColumns = []string{
	"Session ID", "User Name", "Date", "Exam", "Section", "Topic",
	"Total Questions", "Question ID", "Question", "User Answer",
	"Correct Answer", "Result", "Marked",
}

// Workbook stores result rows in an .xlsx file. Every append reads the
// existing rows and rewrites the whole file, so a mutex serializes writers.
type Workbook struct {
	mu   sync.Mutex
	path string
}

// NewWorkbook returns a workbook store at path. The file is created on the
// first append; a missing file reads as empty.
func NewWorkbook(path string) *Workbook {
	return &Workbook{path: path}
}

// Close is a no-op; the workbook is opened per call.
func (w *Workbook) Close() error { return nil }

// Append rewrites the workbook with rows added after the existing ones.
func (w *Workbook) Append(rows []model.ResultRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	next := 2
	switch {
	case err == nil:
		existing, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			f.Close()
			return &PersistenceError{Err: err}
		}
		next = len(existing) + 1
	case errors.Is(err, fs.ErrNotExist):
		f = excelize.NewFile()
		header := make([]interface{}, len(resultColumns))
		for i, name := range resultColumns {
			header[i] = name
		}
		if err := f.SetSheetRow(f.GetSheetName(0), "A1", &header); err != nil {
			f.Close()
			return &PersistenceError{Err: err}
		}
	default:
		return &PersistenceError{Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	for _, r := range rows {
		marked := "No"
		if r.Marked {
			marked = "Yes"
		}
		values := []interface{}{
			r.SessionID, r.UserName, r.Timestamp.Format(model.TimestampLayout),
			r.Exam, r.Section, r.Topic, r.TotalQuestions, r.QuestionID,
			r.QuestionText, r.UserAnswer, r.CorrectAnswer, string(r.Result), marked,
		}
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return &PersistenceError{Err: err}
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return &PersistenceError{Err: err}
		}
		next++
	}
	if err := f.SaveAs(w.path); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// ReadAll parses every stored row. A missing file is an empty store. Rows
// whose timestamp or counters fail to parse are skipped with a warning; the
// raw file is never repaired.
func (w *Workbook) ReadAll() ([]model.ResultRow, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening results workbook: %w", err)
	}
	defer f.Close()

	raw, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading results workbook: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(raw[0]))
	for i, name := range raw[0] {
		col[strings.TrimSpace(name)] = i
	}
	idx := func(name string) int {
		i, ok := col[name]
		if !ok {
			return -1
		}
		return i
	}

	var rows []model.ResultRow
	for i, rec := range raw[1:] {
		get := func(name string) string {
			j := idx(name)
			if j < 0 || j >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[j])
		}
		if get("User Name") == "" && get("Date") == "" {
			continue
		}
		ts, err := time.ParseInLocation(model.TimestampLayout, get("Date"), time.Local)
		if err != nil {
			slog.Warn("skipping result row with unparseable date", "row", i+2, "date", get("Date"))
			continue
		}
		total, err := strconv.Atoi(get("Total Questions"))
		if err != nil {
			slog.Warn("skipping result row with bad total", "row", i+2, "total", get("Total Questions"))
			continue
		}
		qid, _ := strconv.Atoi(get("Question ID"))
		rows = append(rows, model.ResultRow{
			SessionID:      get("Session ID"),
			UserName:       get("User Name"),
			Timestamp:      ts,
			Exam:           get("Exam"),
			Section:        get("Section"),
			Topic:          get("Topic"),
			TotalQuestions: total,
			QuestionID:     qid,
			QuestionText:   get("Question"),
			UserAnswer:     get("User Answer"),
			CorrectAnswer:  get("Correct Answer"),
			Result:         model.Result(get("Result")),
			Marked:         get("Marked") == "Yes",
		})
	}
	return rows, nil
}
