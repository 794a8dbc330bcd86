package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tuan28064/Hono-demo/internal/core"
)

// Users is a core.UserRepository backed by the users table.
type Users struct {
	store *Store
}

var _ core.UserRepository = (*Users)(nil)

// Users returns the user repository of the store.
func (s *Store) Users() *Users {
	return &Users{store: s}
}

func (u *Users) db() (*sql.DB, error) {
	if u == nil || u.store == nil || u.store.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	return u.store.DB, nil
}

const userColumns = `id, name, email, created_at, updated_at`

// List returns all users ordered by id.
func (u *Users) List(ctx context.Context) ([]core.User, error) {
	db, err := u.db()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return scanUsers(rows)
}

// Get returns a user by id.
func (u *Users) Get(ctx context.Context, id int64) (*core.User, error) {
	db, err := u.db()
	if err != nil {
		return nil, err
	}
	return getUser(ctx, db, id)
}

// Create inserts a user. Email uniqueness is checked inside the transaction
// and also enforced by the schema.
func (u *Users) Create(ctx context.Context, in core.UserInput) (*core.User, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	in = in.Normalize()

	db, err := u.db()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if taken, err := emailTaken(ctx, tx, *in.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, core.ErrDuplicateEmail
	}

	now := time.Now().UTC().UnixMilli()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, *in.Name, *in.Email, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, core.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created, err := getUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create user: %w", err)
	}
	return created, nil
}

// Update applies the provided fields to an existing user.
func (u *Users) Update(ctx context.Context, id int64, in core.UserInput) (*core.User, error) {
	in = in.Normalize()

	db, err := u.db()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := getUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if in.Empty() {
		return nil, core.ErrNoFields
	}
	if in.Email != nil {
		if taken, err := emailTaken(ctx, tx, *in.Email, id); err != nil {
			return nil, err
		} else if taken {
			return nil, core.ErrDuplicateEmail
		}
	}

	name, email := existing.Name, existing.Email
	if in.Name != nil {
		name = *in.Name
	}
	if in.Email != nil {
		email = *in.Email
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?
	`, name, email, time.Now().UTC().UnixMilli(), id); err != nil {
		if isUniqueViolation(err) {
			return nil, core.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	updated, err := getUser(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update user: %w", err)
	}
	return updated, nil
}

// Delete removes exactly one user.
func (u *Users) Delete(ctx context.Context, id int64) error {
	db, err := u.db()
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Search matches a case-sensitive substring of name or email. instr() is used
// instead of LIKE, which folds ASCII case and treats % and _ as wildcards.
func (u *Users) Search(ctx context.Context, query string, limit int) (*core.SearchResult, error) {
	if limit <= 0 {
		limit = core.DefaultSearchLimit
	}

	db, err := u.db()
	if err != nil {
		return nil, err
	}

	const where = `WHERE instr(name, ?) > 0 OR instr(email, ?) > 0`

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users `+where, query, query).Scan(&total); err != nil {
		return nil, fmt.Errorf("count search results: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users `+where+` ORDER BY id LIMIT ?`, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	results, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}

	return &core.SearchResult{Query: query, Results: results, Total: total}, nil
}

// Count returns the number of stored users.
func (u *Users) Count(ctx context.Context) (int, error) {
	db, err := u.db()
	if err != nil {
		return 0, err
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CheckHealth pings the underlying database.
func (u *Users) CheckHealth(ctx context.Context) error {
	if u == nil {
		return errors.New("store is not initialized")
	}
	return u.store.CheckHealth(ctx)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getUser(ctx context.Context, q queryer, id int64) (*core.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return user, nil
}

func emailTaken(ctx context.Context, q queryer, email string, except int64) (bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ? AND id != ? LIMIT 1`, email, except).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*core.User, error) {
	var (
		u                    core.User
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	created := time.UnixMilli(createdAt).UTC()
	updated := time.UnixMilli(updatedAt).UTC()
	u.CreatedAt = &created
	u.UpdatedAt = &updated
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]core.User, error) {
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	users := []core.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE CONSTRAINT FAILED")
}
