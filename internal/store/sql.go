package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ahsanfayaz52/notespark/internal/models"
)

// SQLBackend keeps notes in the notes table created by db.Migrate. The
// placeholders work for both MySQL and SQLite.
type SQLBackend struct {
	db *sql.DB
}

func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

const noteColumns = "id, user_id, title, content, tags, created_at, updated_at"

func (b *SQLBackend) Insert(ctx context.Context, n models.Note) error {
	tags, err := encodeTags(n.Tags)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Content, tags, n.CreatedAt, nullTime(n.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (b *SQLBackend) FindByID(ctx context.Context, id string) (models.Note, error) {
	row := b.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, ErrNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("find note %s: %w", id, err)
	}
	return n, nil
}

func (b *SQLBackend) ListByOwner(ctx context.Context, ownerID string) ([]models.Note, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (b *SQLBackend) Update(ctx context.Context, id string, u models.NoteUpdate) error {
	tags, err := encodeTags(u.Tags)
	if err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, tags = ?, updated_at = ? WHERE id = ?`,
		u.Title, u.Content, tags, u.UpdatedAt, id)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return expectOne(res)
}

func (b *SQLBackend) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return expectOne(res)
}

// Version summarises owner's rows. Inserts and deletes change the count or
// the newest creation time; updates move the newest update time.
func (b *SQLBackend) Version(ctx context.Context, ownerID string) (string, error) {
	var (
		count   int64
		created sql.NullString
		updated sql.NullString
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(created_at), MAX(updated_at) FROM notes WHERE user_id = ?`, ownerID).
		Scan(&count, &created, &updated)
	if err != nil {
		return "", fmt.Errorf("note version: %w", err)
	}
	return fmt.Sprintf("%d|%s|%s", count, created.String, updated.String), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (models.Note, error) {
	var (
		n       models.Note
		title   sql.NullString
		content sql.NullString
		tags    sql.NullString
		updated sql.NullTime
	)
	if err := s.Scan(&n.ID, &n.UserID, &title, &content, &tags, &n.CreatedAt, &updated); err != nil {
		return models.Note{}, err
	}
	n.Title = title.String
	n.Content = content.String
	n.CreatedAt = n.CreatedAt.UTC()
	if updated.Valid {
		t := updated.Time.UTC()
		n.UpdatedAt = &t
	}

	n.Tags = []string{}
	if tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &n.Tags); err != nil {
			return models.Note{}, fmt.Errorf("decode tags of %s: %w", n.ID, err)
		}
	}
	return n, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(data), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
