// Package sqldriver implements storage.Driver on top of database/sql. The
// sqlite and postgres packages open a connection and hand it to New with
// their dialect.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/codeer/pkg/codeer"
	"github.com/papercomputeco/codeer/pkg/storage"
)

// Dialect holds the SQL that differs between databases.
type Dialect struct {
	// Name identifies the dialect in errors.
	Name string

	// Schema is run by New to create missing tables.
	Schema []string

	// NumberedParams selects $1, $2 placeholders instead of ?.
	NumberedParams bool
}

// Driver implements storage.Driver over a *sql.DB.
type Driver struct {
	db      *sql.DB
	dialect Dialect
}

// New migrates db with the dialect schema and wraps it. The driver owns db
// and closes it on Close.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s schema: %w", dialect.Name, err)
		}
	}

	return &Driver{db: db, dialect: dialect}, nil
}

// CreateChat inserts a chat row and returns it with its generated id.
func (d *Driver) CreateChat(ctx context.Context, name string) (*codeer.Chat, error) {
	chat := &codeer.Chat{
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	err := d.db.QueryRowContext(ctx,
		d.rebind("INSERT INTO chats (name, created_at) VALUES (?, ?) RETURNING id"),
		chat.Name, chat.CreatedAt,
	).Scan(&chat.ID)
	if err != nil {
		return nil, fmt.Errorf("inserting chat: %w", err)
	}

	return chat, nil
}

// GetChat retrieves a chat by id.
func (d *Driver) GetChat(ctx context.Context, id int64) (*codeer.Chat, error) {
	chat := &codeer.Chat{}
	err := d.db.QueryRowContext(ctx,
		d.rebind("SELECT id, name, created_at FROM chats WHERE id = ?"),
		id,
	).Scan(&chat.ID, &chat.Name, &chat.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("querying chat: %w", err)
	}

	chat.CreatedAt = chat.CreatedAt.UTC()
	return chat, nil
}

// AddQuestion inserts a question row for an existing chat.
func (d *Driver) AddQuestion(ctx context.Context, historyID int64, question string) error {
	if _, err := d.GetChat(ctx, historyID); err != nil {
		return err
	}

	_, err := d.db.ExecContext(ctx,
		d.rebind("INSERT INTO questions (chat_id, message, created_at) VALUES (?, ?, ?)"),
		historyID, question, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting question: %w", err)
	}
	return nil
}

// Questions returns the questions of a chat in insertion order.
func (d *Driver) Questions(ctx context.Context, historyID int64) ([]string, error) {
	if _, err := d.GetChat(ctx, historyID); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		d.rebind("SELECT message FROM questions WHERE chat_id = ? ORDER BY id"),
		historyID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	var questions []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}

// rebind rewrites ? placeholders for dialects with numbered parameters.
func (d *Driver) rebind(query string) string {
	if !d.dialect.NumberedParams {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
