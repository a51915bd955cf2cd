package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jo-hoe/photolog/internal/entry"

	_ "modernc.org/sqlite"
)

type SQLiteFactory struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteFactory(connectionString string) (*SQLiteFactory, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	// every pooled connection to :memory: would otherwise get its own empty database
	if isInMemory(connectionString) {
		db.SetMaxOpenConns(1)
	}

	factory := &SQLiteFactory{
		db:               db,
		connectionString: connectionString,
	}
	if err := factory.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create entries schema: %w", err)
	}
	return factory, nil
}

func isInMemory(connectionString string) bool {
	return connectionString == ":memory:" || strings.Contains(connectionString, "mode=memory")
}

func (f *SQLiteFactory) createSchema() error {
	_, err := f.db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		image TEXT NOT NULL,
		caption TEXT NOT NULL,
		category1 TEXT NOT NULL,
		category2 TEXT NOT NULL,
		PRIMARY KEY (session_id, position)
	)`)
	return err
}

func (f *SQLiteFactory) Open(sessionID string) entry.Backend {
	return &sqliteBackend{db: f.db, sessionID: sessionID}
}

func (f *SQLiteFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}

type sqliteBackend struct {
	db        *sql.DB
	sessionID string
}

func (b *sqliteBackend) Append(ctx context.Context, e entry.Entry) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after a successful commit
	}()

	var position int
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position), 0) + 1 FROM entries WHERE session_id = ?", b.sessionID)
	if err := row.Scan(&position); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO entries (session_id, position, image, caption, category1, category2) VALUES (?, ?, ?, ?, ?, ?)",
		b.sessionID, position, e.Image, e.Caption, e.Category1, e.Category2)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Touch is a no-op; sqlite rows live until the session is discarded
func (b *sqliteBackend) Touch(_ context.Context) error {
	return nil
}

func (b *sqliteBackend) List(ctx context.Context) ([]entry.Entry, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT image, caption, category1, category2 FROM entries WHERE session_id = ? ORDER BY position ASC",
		b.sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var entries []entry.Entry
	for rows.Next() {
		var e entry.Entry
		if err := rows.Scan(&e.Image, &e.Caption, &e.Category1, &e.Category2); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (b *sqliteBackend) Discard(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, "DELETE FROM entries WHERE session_id = ?", b.sessionID)
	return err
}
