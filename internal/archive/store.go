// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps a history of generated reports in SQLite so that
// past answers can be listed, searched, shown again, and exported.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperxai/pkg/types"
)

// ErrNotFound is returned when no archived report matches an id.
var ErrNotFound = errors.New("report not found")

// ErrAmbiguousID is returned when an id prefix matches more than one report.
var ErrAmbiguousID = errors.New("report id prefix is ambiguous")

const defaultLimit = 20

// timeLayout sorts lexically, which List and Search rely on.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store manages the report archive database.
type Store struct {
	db   *sql.DB
	path string

	// Now stamps saved reports. Nil uses time.Now.
	Now func() time.Time
}

// Summary describes one archived report.
type Summary struct {
	ID              string    `json:"id" yaml:"id"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	OldestPaperDate string    `json:"oldest_paper_date" yaml:"oldest_paper_date"`
	Sections        int       `json:"sections" yaml:"sections"`
	Questions       int       `json:"questions" yaml:"questions"`
}

// Record is an archived report with its full content.
type Record struct {
	Summary
	Report *types.Report `json:"report" yaml:"report"`
}

// Hit is one answered question matching a search.
type Hit struct {
	ReportID  string    `json:"report_id" yaml:"report_id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Section   string    `json:"section" yaml:"section"`
	Question  string    `json:"question" yaml:"question"`
	Response  string    `json:"response" yaml:"response"`
}

// Open opens or creates the archive database at path and creates the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			oldest_paper_date TEXT,
			report_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			section TEXT NOT NULL,
			position INTEGER NOT NULL,
			question TEXT NOT NULL,
			response TEXT NOT NULL,
			citations TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_report_id ON answers(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Save archives r and returns its generated id.
func (s *Store) Save(ctx context.Context, r *types.Report) (string, error) {
	if r.IsEmpty() {
		return "", errors.New("refusing to archive an empty report")
	}

	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	oldest := ""
	if d, ok := r.OldestPaperDate(); ok {
		oldest = d.UTC().Format(types.DateFormat)
	}

	id := uuid.NewString()
	created := s.now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, oldest_paper_date, report_json) VALUES (?, ?, ?, ?)`,
		id, created, oldest, string(body),
	)
	if err != nil {
		return "", fmt.Errorf("inserting report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO answers (report_id, section, position, question, response, citations)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, sec := range r.Sections {
		for i, q := range sec.Questions {
			var cites []string
			if i < len(sec.Papers) {
				for _, p := range sec.Papers[i] {
					cites = append(cites, p.Citation())
				}
			}
			citesJSON, _ := json.Marshal(cites)
			if _, err := stmt.ExecContext(ctx, id, sec.Title, i, q, sec.ChatResponses[i], string(citesJSON)); err != nil {
				return "", fmt.Errorf("inserting answer %q: %w", q, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing report: %w", err)
	}
	return id, nil
}

// List returns up to limit archived reports, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.created_at, r.oldest_paper_date,
			COUNT(DISTINCT a.section), COUNT(a.rowid)
		 FROM reports r LEFT JOIN answers a ON a.report_id = r.id
		 GROUP BY r.id
		 ORDER BY r.created_at DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created string
		var oldest sql.NullString
		if err := rows.Scan(&sum.ID, &created, &oldest, &sum.Sections, &sum.Questions); err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		sum.CreatedAt = parseTime(created)
		sum.OldestPaperDate = oldest.String
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Search returns answered questions whose section, question, or response
// contains term (case-insensitive for ASCII), newest reports first.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]Hit, error) {
	if strings.TrimSpace(term) == "" {
		return nil, errors.New("search term is empty")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + escapeLike(term) + "%"

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.report_id, r.created_at, a.section, a.question, a.response
		 FROM answers a JOIN reports r ON r.id = a.report_id
		 WHERE a.question LIKE ? ESCAPE '\'
			OR a.response LIKE ? ESCAPE '\'
			OR a.section LIKE ? ESCAPE '\'
		 ORDER BY r.created_at DESC, a.rowid
		 LIMIT ?`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching answers: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		var created string
		if err := rows.Scan(&h.ReportID, &created, &h.Section, &h.Question, &h.Response); err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		h.CreatedAt = parseTime(created)
		out = append(out, h)
	}
	return out, rows.Err()
}

// Show returns the archived report whose id equals or starts with id.
func (s *Store) Show(ctx context.Context, id string) (*Record, error) {
	full, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	var created, body string
	var oldest sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT created_at, oldest_paper_date, report_json FROM reports WHERE id = ?`, full,
	).Scan(&created, &oldest, &body)
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", full, err)
	}

	var r types.Report
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", full, err)
	}

	rec := &Record{
		Summary: Summary{
			ID:              full,
			CreatedAt:       parseTime(created),
			OldestPaperDate: oldest.String,
			Sections:        len(r.Sections),
		},
		Report: &r,
	}
	for _, sec := range r.Sections {
		rec.Questions += len(sec.Questions)
	}
	return rec, nil
}

func (s *Store) resolve(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM reports WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(id)+"%")
	if err != nil {
		return "", fmt.Errorf("resolving report id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var got string
		if err := rows.Scan(&got); err != nil {
			return "", err
		}
		if got == id {
			return got, nil
		}
		ids = append(ids, got)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%s: %w", id, ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%s: %w", id, ErrAmbiguousID)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
