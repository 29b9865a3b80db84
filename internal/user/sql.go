package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLStore persists users in MySQL or Postgres.  Queries are written with
// '?' placeholders and rebound for the connection's driver.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore wraps db.  The driver name on db ("mysql" or "postgres")
// selects placeholder style and DDL dialect.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

const (
	mysqlSchema = `CREATE TABLE IF NOT EXISTS users (
	id CHAR(36) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(320) NOT NULL,
	created_at DATETIME(6) NOT NULL,
	UNIQUE KEY users_email_uq (email)
)`
	postgresSchema = `CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`
	postgresEmailIndex = `CREATE UNIQUE INDEX IF NOT EXISTS users_email_uq ON users (lower(email))`

	insertUser = `INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)`
	selectUser = `SELECT id, name, email, created_at FROM users WHERE id = ?`
)

// Migrate creates the users table when absent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	stmts := []string{mysqlSchema}
	if s.db.DriverName() == "postgres" {
		stmts = []string{postgresSchema, postgresEmailIndex}
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate users: %w", err)
		}
	}
	return nil
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, name, email string) (User, error) {
	u := User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(insertUser), u.ID, u.Name, u.Email, u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Get implements Store.  Ids are UUIDs; anything else is ErrNotFound
// without a round trip, so Postgres never sees an invalid UUID cast.
func (s *SQLStore) Get(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, ErrNotFound
	}
	var u User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(selectUser), id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// isDuplicate recognises unique-key violations from both drivers.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062 // ER_DUP_ENTRY
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}
