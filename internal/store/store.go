package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/blog/internal/domain"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

type dialect struct {
	driver   string
	schema   string
	numbered bool
	like     string
}

var (
	sqlite   = dialect{driver: "sqlite3", schema: sqliteSchema, like: "LIKE"}
	postgres = dialect{driver: "postgres", schema: postgresSchema, numbered: true, like: "ILIKE"}
)

// sortColumns maps accepted sort keys to columns
var sortColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"content":    "content",
	"emoji":      "emoji",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

// SortColumn reports whether key can be used to order entries
func SortColumn(key string) bool {
	_, ok := sortColumns[key]
	return ok
}

// Store handles database operations
type Store struct {
	db *sql.DB
	d  dialect
}

// New opens the database named by dsn: a postgres:// URL selects PostgreSQL,
// anything else is a SQLite path
func New(dsn string) (*Store, error) {
	d := sqlite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		d = postgres
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if d.driver == sqlite.driver {
		// one writer at a time, and :memory: stays a single database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, d: d}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind turns ? placeholders into $N for PostgreSQL
func (s *Store) rebind(query string) string {
	if !s.d.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Save inserts the entry when it has no ID and updates it otherwise.
// Updating a missing row returns domain.ErrIdNotFound.
func (s *Store) Save(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	if e.ID == nil {
		return s.insert(ctx, e)
	}
	return s.update(ctx, e)
}

func (s *Store) insert(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		"INSERT INTO entries (title, content, emoji, created_at) VALUES (?, ?, ?, ?) RETURNING id"),
		e.Title, e.Content, string(e.Emoji), now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	return &domain.Entry{
		ID:        &id,
		Title:     e.Title,
		Content:   e.Content,
		Emoji:     e.Emoji,
		CreatedAt: now,
	}, nil
}

func (s *Store) update(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE entries SET title = ?, content = ?, emoji = ? WHERE id = ?"),
		e.Title, e.Content, string(e.Emoji), *e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("update entry %d: %w", *e.ID, domain.ErrIdNotFound)
	}

	return s.FindOne(ctx, *e.ID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var (
		e     domain.Entry
		id    int64
		emoji string
	)
	if err := row.Scan(&id, &e.Title, &e.Content, &emoji, &e.CreatedAt); err != nil {
		return e, err
	}
	e.ID = &id
	e.Emoji = domain.Emoji(emoji)
	return e, nil
}

// FindOne retrieves an entry by ID
func (s *Store) FindOne(ctx context.Context, id int64) (*domain.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, s.rebind(
		"SELECT id, title, content, emoji, created_at FROM entries WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

// FindAll returns one page of entries
func (s *Store) FindAll(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	return s.page(ctx, req, "", nil)
}

// Search returns one page of entries whose title or content contains query
func (s *Store) Search(ctx context.Context, query string, req domain.PageRequest) (*domain.Page, error) {
	pattern := "%" + query + "%"
	where := fmt.Sprintf("WHERE title %[1]s ? OR content %[1]s ?", s.d.like)
	return s.page(ctx, req, where, []any{pattern, pattern})
}

func (s *Store) page(ctx context.Context, req domain.PageRequest, where string, args []any) (*domain.Page, error) {
	var total int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM entries "+where), args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}

	col, ok := sortColumns[req.Sort]
	if !ok {
		col = "id"
	}
	dir := "ASC"
	if req.Desc {
		dir = "DESC"
	}
	order := fmt.Sprintf("ORDER BY %s %s", col, dir)
	if col != "id" {
		order += ", id " + dir
	}

	query := "SELECT id, title, content, emoji, created_at FROM entries " + where + " " + order + " LIMIT ? OFFSET ?"
	rows, err := s.db.QueryContext(ctx, s.rebind(query), append(args, req.Size, req.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	return &domain.Page{Entries: entries, Total: total, Request: req}, nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM entries WHERE id = ?"), id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}
