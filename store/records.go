package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Entry is the input to Insert. Payload and Result must encode to JSON objects, the
// shape Load decodes them back into; a nil Result is stored as NULL.
type Entry struct {
	Date    string
	Time    string
	Title   string
	Payload any
	Result  any
	Locked  bool
}

// Record is one stored generation attempt with its payload and result decoded.
type Record struct {
	ID        int64          `json:"id"`
	Date      string         `json:"meeting_date"`
	Time      string         `json:"meeting_time"`
	Title     string         `json:"meeting_title"`
	Payload   map[string]any `json:"payload"`
	Result    map[string]any `json:"result"`
	Locked    bool           `json:"locked"`
	CreatedAt string         `json:"created_at"`
}

// Summary is a listing row; payload and result are left out.
type Summary struct {
	ID        int64  `json:"id"`
	Date      string `json:"meeting_date"`
	Time      string `json:"meeting_time"`
	Title     string `json:"meeting_title"`
	Locked    bool   `json:"locked"`
	CreatedAt string `json:"created_at"`
}

// Insert always appends a new row and returns its identity.
func (s *Store) Insert(ctx context.Context, e Entry) (int64, error) {
	payload, err := encodeObject(e.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode payload: %w", err)
	}
	var result sql.NullString
	if e.Result != nil {
		enc, err := encodeObject(e.Result)
		if err != nil {
			return 0, fmt.Errorf("failed to encode result: %w", err)
		}
		result = sql.NullString{String: enc, Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO meetings (meeting_date, meeting_time, meeting_title, payload_json, result_json, locked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Date, e.Time, e.Title, payload, result, boolToInt(e.Locked), s.now().Format(CreatedAtLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to insert meeting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read meeting id: %w", err)
	}
	s.logger.Info("meeting inserted", zap.Int64("id", id), zap.String("date", e.Date), zap.String("time", e.Time))
	return id, nil
}

// SetLock updates only the lock flag of one row.
func (s *Store) SetLock(ctx context.Context, id int64, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE meetings SET locked = ? WHERE id = ?`, boolToInt(locked), id)
	if err != nil {
		return fmt.Errorf("failed to update lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update lock: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("meeting %d: %w", id, ErrNotFound)
	}
	return nil
}

// Load returns the full record or ErrNotFound.
func (s *Store) Load(ctx context.Context, id int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec     Record
		payload string
		result  sql.NullString
		locked  int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, meeting_date, meeting_time, meeting_title, payload_json, result_json, locked, created_at
		FROM meetings WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Date, &rec.Time, &rec.Title, &payload, &result, &locked, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("meeting %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load meeting: %w", err)
	}

	if rec.Payload, err = decodeObject(payload); err != nil {
		return nil, fmt.Errorf("meeting %d: corrupt payload: %w", id, err)
	}
	if result.Valid {
		if rec.Result, err = decodeObject(result.String); err != nil {
			return nil, fmt.Errorf("meeting %d: corrupt result: %w", id, err)
		}
	}
	rec.Locked = locked != 0
	return &rec, nil
}

// ListByDate returns the day's rows by time, then id.
func (s *Store) ListByDate(ctx context.Context, date string) ([]Summary, error) {
	return s.list(ctx, `
		SELECT id, meeting_date, meeting_time, meeting_title, locked, created_at
		FROM meetings
		WHERE meeting_date = ?
		ORDER BY meeting_time ASC, id ASC
	`, date)
}

// ListByDateRange returns rows with from <= date <= to, ordered by date, time, id.
func (s *Store) ListByDateRange(ctx context.Context, from, to string) ([]Summary, error) {
	return s.list(ctx, `
		SELECT id, meeting_date, meeting_time, meeting_title, locked, created_at
		FROM meetings
		WHERE meeting_date BETWEEN ? AND ?
		ORDER BY meeting_date ASC, meeting_time ASC, id ASC
	`, from, to)
}

// ListByMonth returns every row of one calendar month.
func (s *Store) ListByMonth(ctx context.Context, year, month int) ([]Summary, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	return s.list(ctx, `
		SELECT id, meeting_date, meeting_time, meeting_title, locked, created_at
		FROM meetings
		WHERE meeting_date LIKE ?
		ORDER BY meeting_date ASC, meeting_time ASC, id ASC
	`, fmt.Sprintf("%04d-%02d-%%", year, month))
}

// Search matches the keyword as a substring of title, payload or result, newest first.
func (s *Store) Search(ctx context.Context, keyword string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	kw := "%" + escapeLike(keyword) + "%"
	return s.list(ctx, `
		SELECT id, meeting_date, meeting_time, meeting_title, locked, created_at
		FROM meetings
		WHERE meeting_title LIKE ? ESCAPE '\'
			OR payload_json LIKE ? ESCAPE '\'
			OR result_json LIKE ? ESCAPE '\'
		ORDER BY id DESC
		LIMIT ?
	`, kw, kw, kw, limit)
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meetings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count meetings: %w", err)
	}
	return n, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum    Summary
			locked int
		)
		if err := rows.Scan(&sum.ID, &sum.Date, &sum.Time, &sum.Title, &locked, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		sum.Locked = locked != 0
		out = append(out, sum)
	}
	return out, rows.Err()
}

// encodeObject rejects anything that does not encode to a JSON object.
func encodeObject(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	if !strings.HasPrefix(out, "{") {
		return "", ErrNotObject
	}
	return out, nil
}

// decodeObject keeps numbers as json.Number so integers beyond 2^53 survive.
func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
