// Package sinks collects pipeline Outcomes into durable or observable
// destinations: an atomically-written result file, a bulk SQLite insert, a
// structured log stream, and an OpenTelemetry metrics exporter. None of
// these are part of the core engine — they are optional collaborators a
// caller wires onto a rivulet.SelectParallelStream/ForEachParallelStream
// output channel.
package sinks

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/renameio/v2"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// Record is the minimal, sink-agnostic shape callers adapt an Outcome into
// before handing it to a sink, so this package never needs to depend on the
// generic rivulet.Outcome[R] type.
type Record struct {
	Index   int
	ID      string
	Success bool
	Kind    string
	Err     string
	Payload []byte // caller-supplied JSON encoding of the result value, if any
}

// FileSink buffers newline-delimited JSON Records and, on each Flush,
// atomically replaces the file via renameio with the Records written since
// the previous Flush (earlier Flushes' Records are not kept), so a crash
// mid-write never leaves a torn file behind — the same durability technique
// joeycumines-go-utilpkg/sql/export uses for its own export artifacts.
type FileSink struct {
	path string
	buf  bytes.Buffer
}

// NewFileSink constructs a FileSink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Write appends one Record to the in-memory buffer.
func (s *FileSink) Write(r Record) error {
	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("sinks: encode record: %w", err)
	}
	s.buf.Write(line)
	s.buf.WriteByte('\n')
	return nil
}

// Flush atomically replaces the destination file's contents with everything
// written since the last Flush.
func (s *FileSink) Flush() error {
	if err := renameio.WriteFile(s.path, s.buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("sinks: atomic write %s: %w", s.path, err)
	}
	s.buf.Reset()
	return nil
}

// SQLBulkSink batches Records and inserts them in a single transaction per
// Flush, grounded on the bulk-insert pattern in
// joeycumines-go-utilpkg/sql/export, adapted to modernc.org/sqlite (a
// cgo-free driver, convenient for the same soak-test CLI that drives
// cmd/rivulet-bench).
type SQLBulkSink struct {
	db      *sql.DB
	table   string
	pending []Record
}

// NewSQLBulkSink opens (creating if absent) a SQLite database at dsn and
// ensures table exists with the columns Flush expects.
func NewSQLBulkSink(ctx context.Context, dsn, table string) (*SQLBulkSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sinks: open sqlite %s: %w", dsn, err)
	}
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			idx INTEGER NOT NULL,
			id TEXT NOT NULL,
			success INTEGER NOT NULL,
			kind TEXT NOT NULL,
			err TEXT NOT NULL,
			payload BLOB
		)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sinks: create table %s: %w", table, err)
	}
	return &SQLBulkSink{db: db, table: table}, nil
}

// Write buffers r for the next Flush.
func (s *SQLBulkSink) Write(r Record) { s.pending = append(s.pending, r) }

// Flush inserts every buffered Record in one transaction and clears the
// buffer, succeeding or failing as a unit.
func (s *SQLBulkSink) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sinks: begin tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (idx, id, success, kind, err, payload) VALUES (?, ?, ?, ?, ?, ?)", s.table))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sinks: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range s.pending {
		success := 0
		if r.Success {
			success = 1
		}
		if _, err := stmt.ExecContext(ctx, r.Index, r.ID, success, r.Kind, r.Err, r.Payload); err != nil {
			tx.Rollback()
			return fmt.Errorf("sinks: insert record %d: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sinks: commit tx: %w", err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Close releases the underlying database handle.
func (s *SQLBulkSink) Close() error { return s.db.Close() }

// LogListener emits one structured slog record per Outcome, at Info for
// successes and Warn for failures. It carries no buffering: Write is meant
// to be called directly from a forwarding goroutine draining a rivulet
// stream channel.
type LogListener struct {
	logger *slog.Logger
}

// NewLogListener wraps logger (or slog.Default() if nil).
func NewLogListener(logger *slog.Logger) *LogListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogListener{logger: logger}
}

// Write logs r.
func (l *LogListener) Write(r Record) {
	if r.Success {
		l.logger.Info("item completed", "index", r.Index, "id", r.ID)
		return
	}
	l.logger.Warn("item failed", "index", r.Index, "id", r.ID, "kind", r.Kind, "error", r.Err)
}
