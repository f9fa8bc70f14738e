// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface. Queries are built with squirrel and rows
// are mapped onto types.User by sqlx through the db:"..." struct tags.
//
// Ids are random UUID strings generated on insert, so sqlite ids have
// the same opaque shape the memory backend hands out.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"

	// registers the "sqlite3" driver with database/sql
	_ "github.com/mattn/go-sqlite3"
)

const table = "users"

var columns = []string{"id", "age", "gender", "email"}

// SQLite is the concrete implementation of storage.Storage.
// A single *sqlx.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sqlx.DB
}

// New opens the SQLite database at path (":memory:" is accepted) and
// creates the users table if it does not already exist.
func New(path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows one writer at a time, and every new connection to
	// ":memory:" would open a separate empty database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id     TEXT PRIMARY KEY,
			age    REAL,
			gender TEXT,
			email  TEXT
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func (s *SQLite) ListUsers(ctx context.Context) ([]types.User, error) {
	query, args, err := sq.Select(columns...).From(table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListUsers: build query: %w", err)
	}

	users := make([]types.User, 0)
	if err := s.Db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("ListUsers: select: %w", err)
	}

	return users, nil
}

func (s *SQLite) GetUserByID(ctx context.Context, id string) (types.User, error) {
	key, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}
	return getUser(ctx, s.Db, key)
}

func (s *SQLite) CreateUser(ctx context.Context, fields types.UserFields) (types.User, error) {
	u := types.User{ID: uuid.NewString(), UserFields: fields}
	if err := insertUser(ctx, s.Db, u); err != nil {
		return types.User{}, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

// InsertUsers inserts all users in one transaction; either every row
// is stored or none is.
func (s *SQLite) InsertUsers(ctx context.Context, fields []types.UserFields) ([]types.User, error) {
	tx, err := s.Db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("InsertUsers: begin: %w", err)
	}
	defer tx.Rollback()

	users := make([]types.User, 0, len(fields))
	for _, f := range fields {
		u := types.User{ID: uuid.NewString(), UserFields: f}
		if err := insertUser(ctx, tx, u); err != nil {
			return nil, fmt.Errorf("InsertUsers: %w", err)
		}
		users = append(users, u)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("InsertUsers: commit: %w", err)
	}
	return users, nil
}

func (s *SQLite) ReplaceUserByID(ctx context.Context, id string, fields types.UserFields) (types.User, error) {
	key, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}

	query, args, err := sq.Update(table).
		Set("age", fields.Age).
		Set("gender", fields.Gender).
		Set("email", fields.Email).
		Where(sq.Eq{"id": key}).
		ToSql()
	if err != nil {
		return types.User{}, fmt.Errorf("ReplaceUserByID: build query: %w", err)
	}

	res, err := s.Db.ExecContext(ctx, query, args...)
	if err != nil {
		return types.User{}, fmt.Errorf("ReplaceUserByID: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.User{}, fmt.Errorf("ReplaceUserByID: rows affected: %w", err)
	}
	if n == 0 {
		return types.User{}, fmt.Errorf("ReplaceUserByID %s: %w", id, storage.ErrNotFound)
	}

	return types.User{ID: key, UserFields: fields}, nil
}

// DeleteUserByID reads and removes the row inside one transaction so
// the returned state is exactly what was deleted.
func (s *SQLite) DeleteUserByID(ctx context.Context, id string) (types.User, error) {
	key, err := parseID(id)
	if err != nil {
		return types.User{}, err
	}

	tx, err := s.Db.BeginTxx(ctx, nil)
	if err != nil {
		return types.User{}, fmt.Errorf("DeleteUserByID: begin: %w", err)
	}
	defer tx.Rollback()

	u, err := getUser(ctx, tx, key)
	if err != nil {
		return types.User{}, err
	}

	query, args, err := sq.Delete(table).Where(sq.Eq{"id": key}).ToSql()
	if err != nil {
		return types.User{}, fmt.Errorf("DeleteUserByID: build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return types.User{}, fmt.Errorf("DeleteUserByID: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, fmt.Errorf("DeleteUserByID: commit: %w", err)
	}
	return u, nil
}

func (s *SQLite) DeleteAllUsers(ctx context.Context) (int64, error) {
	query, args, err := sq.Delete(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("DeleteAllUsers: build query: %w", err)
	}

	res, err := s.Db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("DeleteAllUsers: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteAllUsers: rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close(ctx context.Context) error {
	return s.Db.Close()
}

func getUser(ctx context.Context, q sqlx.QueryerContext, key string) (types.User, error) {
	query, args, err := sq.Select(columns...).From(table).Where(sq.Eq{"id": key}).Limit(1).ToSql()
	if err != nil {
		return types.User{}, fmt.Errorf("GetUserByID: build query: %w", err)
	}

	var u types.User
	if err := sqlx.GetContext(ctx, q, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, fmt.Errorf("GetUserByID %s: %w", key, storage.ErrNotFound)
		}
		return types.User{}, fmt.Errorf("GetUserByID: scan: %w", err)
	}
	return u, nil
}

func insertUser(ctx context.Context, e sqlx.ExecerContext, u types.User) error {
	query, args, err := sq.Insert(table).
		Columns(columns...).
		Values(u.ID, u.Age, u.Gender, u.Email).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := e.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// parseID accepts only the canonical UUID strings assigned on insert.
func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return "", fmt.Errorf("invalid id %q: %w", id, storage.ErrNotFound)
	}
	return id, nil
}
