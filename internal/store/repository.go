// Package store keeps schedules and timer history in a local sqlite
// database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym_timer/internal/schedule"
	"gym_timer/internal/timelog"
	"gym_timer/internal/timer"

	_ "modernc.org/sqlite"
)

// ErrUnknownSchedule rejects day writes for a schedule that was never saved.
var ErrUnknownSchedule = errors.New("unknown schedule")

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository opens (and creates if needed) the database at path.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	repo := &Repository{db: db, now: time.Now}
	if err := repo.init(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *Repository) init() error {
	schedulesQuery := `
	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		updated_at INTEGER NOT NULL
	)
	`
	if _, err := r.db.Exec(schedulesQuery); err != nil {
		return err
	}

	daysQuery := `
	CREATE TABLE IF NOT EXISTS schedule_days (
		schedule_id TEXT NOT NULL,
		day_key TEXT NOT NULL,
		document TEXT NOT NULL,
		PRIMARY KEY (schedule_id, day_key),
		FOREIGN KEY (schedule_id) REFERENCES schedules(id) ON DELETE CASCADE
	)
	`
	if _, err := r.db.Exec(daysQuery); err != nil {
		return err
	}

	timeLogsQuery := `
	CREATE TABLE IF NOT EXISTS time_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		label TEXT NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		requested_seconds INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		stopped_at TEXT NOT NULL,
		duration INTEGER NOT NULL
	)
	`
	_, err := r.db.Exec(timeLogsQuery)
	return err
}

// SaveSchedule replaces every day of s and makes it the current schedule.
func (r *Repository) SaveSchedule(ctx context.Context, s *schedule.Schedule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schedules (id, updated_at) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		s.ID, r.now().UnixNano(),
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schedule_days WHERE schedule_id = ?", s.ID); err != nil {
		return err
	}
	for key, day := range s.Days {
		document, err := schedule.EncodeDay(day)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schedule_days (schedule_id, day_key, document) VALUES (?, ?, ?)",
			s.ID, key, string(document),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// FetchSchedule returns the most recently saved schedule, or nil when there
// is none.
func (r *Repository) FetchSchedule(ctx context.Context) (*schedule.Schedule, error) {
	var id string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM schedules ORDER BY updated_at DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT day_key, document FROM schedule_days WHERE schedule_id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := &schedule.Schedule{ID: id, Days: make(map[string]schedule.Day)}
	for rows.Next() {
		var key, document string
		if err := rows.Scan(&key, &document); err != nil {
			return nil, err
		}
		day, err := schedule.DecodeDay([]byte(document))
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", key, err)
		}
		s.Days[key] = day
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedule.Normalize(s), nil
}

// WriteDayUpdate stores one day of an existing schedule.
func (r *Repository) WriteDayUpdate(ctx context.Context, scheduleID, dayKey string, day schedule.Day) error {
	canonical, ok := schedule.NormalizeDayKey(dayKey)
	if !ok {
		return fmt.Errorf("day key %q not recognized", dayKey)
	}
	document, err := schedule.EncodeDay(day)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO schedule_days (schedule_id, day_key, document)
		 SELECT id, ?, ? FROM schedules WHERE id = ?
		 ON CONFLICT(schedule_id, day_key) DO UPDATE SET document = excluded.document`,
		canonical, string(document), scheduleID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSchedule, scheduleID)
	}
	return nil
}

func (r *Repository) CreateLog(ctx context.Context, log *timelog.TimeLog) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO time_logs (run_id, label, outcome, reason, requested_seconds, started_at, stopped_at, duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.RunID,
		log.Label,
		string(log.Outcome),
		string(log.Reason),
		log.RequestedSeconds,
		log.StartedAt.Format(time.RFC3339),
		log.StoppedAt.Format(time.RFC3339),
		int64(log.Duration),
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = id
	return nil
}

// GetAllLogs returns the run history, newest first.
func (r *Repository) GetAllLogs(ctx context.Context) ([]timelog.TimeLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, run_id, label, outcome, reason, requested_seconds, started_at, stopped_at, duration
		 FROM time_logs
		 ORDER BY stopped_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []timelog.TimeLog
	for rows.Next() {
		var l timelog.TimeLog
		var outcome, reason, startedAt, stoppedAt string
		var duration int64
		if err := rows.Scan(&l.ID, &l.RunID, &l.Label, &outcome, &reason, &l.RequestedSeconds, &startedAt, &stoppedAt, &duration); err != nil {
			return nil, err
		}
		l.Outcome = timer.Status(outcome)
		l.Reason = timer.StopReason(reason)
		l.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		l.StoppedAt, _ = time.Parse(time.RFC3339, stoppedAt)
		l.Duration = time.Duration(duration)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *Repository) Close() error {
	return r.db.Close()
}
