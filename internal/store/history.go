package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord is one finished session as kept locally.
type SessionRecord struct {
	ID         int64
	SessionID  string
	Mode       string
	Selection  string
	Turns      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// EntryRecord is one logged exchange line within a session.
type EntryRecord struct {
	Seq     int
	Sender  string
	Content string
}

// HistoryRepo persists finished sessions and their transcripts.
type HistoryRepo interface {
	SaveSession(ctx context.Context, rec SessionRecord, entries []EntryRecord) (int64, error)
	ListSessions(ctx context.Context, limit int) ([]SessionRecord, error)
	SessionEntries(ctx context.Context, rowID int64) ([]EntryRecord, error)
}

type historyRepo struct {
	db *sql.DB
}

func (r *historyRepo) SaveSession(ctx context.Context, rec SessionRecord, entries []EntryRecord) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, mode, selection, turns, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Mode, rec.Selection, rec.Turns, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for i, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO interactions (session_rowid, seq, sender, content)
			 VALUES (?, ?, ?, ?)`,
			rowID, i, e.Sender, e.Content); err != nil {
			return 0, fmt.Errorf("insert interaction %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return rowID, nil
}

func (r *historyRepo) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, mode, selection, turns, started_at, finished_at
		 FROM sessions ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Mode, &rec.Selection,
			&rec.Turns, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *historyRepo) SessionEntries(ctx context.Context, rowID int64) ([]EntryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, sender, content FROM interactions
		 WHERE session_rowid = ? ORDER BY seq`, rowID)
	if err != nil {
		return nil, fmt.Errorf("session entries: %w", err)
	}
	defer rows.Close()

	var out []EntryRecord
	for rows.Next() {
		var e EntryRecord
		if err := rows.Scan(&e.Seq, &e.Sender, &e.Content); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
