package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sanketk/quizdeck/internal/model"
)

// SQLite stores result rows in a local SQLite database. Appends run in one
// transaction, which is the serialization point multi-user deployments need.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open results database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping results database: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate results database: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		user_name TEXT NOT NULL,
		ts DATETIME NOT NULL,
		exam TEXT NOT NULL,
		section TEXT NOT NULL,
		topic TEXT NOT NULL,
		total_questions INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		question_text TEXT NOT NULL,
		user_answer TEXT NOT NULL,
		correct_answer TEXT NOT NULL,
		result TEXT NOT NULL,
		marked INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO meta (key, value) VALUES ('schema_version', '1');
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append inserts a finished session's rows in one transaction.
func (s *SQLite) Append(rows []model.ResultRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &PersistenceError{Err: err}
	}
	defer tx.Rollback()

	for _, r := range rows {
		_, err := tx.Exec(
			`INSERT INTO results (session_id, user_name, ts, exam, section, topic,
			  total_questions, question_id, question_text, user_answer, correct_answer, result, marked)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.SessionID, r.UserName, r.Timestamp, r.Exam, r.Section, r.Topic,
			r.TotalQuestions, r.QuestionID, r.QuestionText, r.UserAnswer, r.CorrectAnswer,
			string(r.Result), r.Marked,
		)
		if err != nil {
			return &PersistenceError{Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// ReadAll returns every stored row in insertion order.
func (s *SQLite) ReadAll() ([]model.ResultRow, error) {
	rows, err := s.db.Query(
		`SELECT session_id, user_name, ts, exam, section, topic,
		   total_questions, question_id, question_text, user_answer, correct_answer, result, marked
		 FROM results ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ResultRow
	for rows.Next() {
		var r model.ResultRow
		var result string
		if err := rows.Scan(
			&r.SessionID, &r.UserName, &r.Timestamp, &r.Exam, &r.Section, &r.Topic,
			&r.TotalQuestions, &r.QuestionID, &r.QuestionText, &r.UserAnswer, &r.CorrectAnswer,
			&result, &r.Marked,
		); err != nil {
			return nil, err
		}
		r.Result = model.Result(result)
		out = append(out, r)
	}
	return out, rows.Err()
}
