package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    time.Time      `db:"last_login"`
}

func (r userRow) user() user.User {
	active := r.IsActive
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     &active,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

const userColumns = "id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login"

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) queryRows(ctx context.Context, ex core.DBExecutor, query string, args ...interface{}) ([]user.User, error) {
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var urows []userRow
	if err = sqlx.StructScan(rows, &urows); err != nil {
		return nil, err
	}
	users := make([]user.User, len(urows))
	for i, r := range urows {
		users[i] = r.user()
	}
	return users, nil
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	excludedIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}

	query := `
SELECT COUNT(*) FROM "user"
WHERE ((username = $1 AND $1 <> '') OR (email = $2 AND $2 <> ''))
  AND NOT (id = ANY($3))`
	var count int
	err := executor(repo.db, exec...).
		QueryRowContext(ctx, query, username, email, pq.Array(excludedIDs)).
		Scan(&count)
	if err != nil {
		return errors.Wrap(err, "counting matching users")
	}
	if count > 0 {
		return user.ErrUserExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	query := `
INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := executor(repo.db, exec...).ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive == nil || *usr.IsActive,
		pq.Array(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	return usr, err
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE true`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			query += fmt.Sprintf(" AND (name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", p)
		}
		if len(filter.Roles) > 0 {
			query += fmt.Sprintf(" AND roles && %s", arg(pq.Array(filter.Roles)))
		}
		if filter.IsActive != nil {
			query += fmt.Sprintf(" AND is_active = %s", arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			query += fmt.Sprintf(" AND created_at >= %s", arg(filter.CreatedFrom))
		}
		if !filter.CreatedTo.IsZero() {
			query += fmt.Sprintf(" AND created_at <= %s", arg(filter.CreatedTo))
		}
	}
	query += orderBy(ordering, "created_at DESC")

	users, err := repo.queryRows(ctx, executor(repo.db, exec...), query, args...)
	return users, errors.Wrap(err, "querying users")
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	query := `SELECT ` + userColumns + ` FROM "user" WHERE `
	var args []interface{}
	switch {
	case filter.ID != "":
		query += "id = $1"
		args = append(args, filter.ID)
	case filter.Username != "":
		query += "username = $1"
		args = append(args, filter.Username)
	case filter.Email != "":
		query += "email = $1"
		args = append(args, filter.Email)
	case len(filter.UsernameOrEmail) == 2:
		query += "(username = $1 OR email = $2)"
		args = append(args, filter.UsernameOrEmail[0], filter.UsernameOrEmail[1])
	default:
		return user.User{}, user.ErrNotFound
	}

	users, err := repo.queryRows(ctx, executor(repo.db, exec...), query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting user")
	}
	if len(users) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return users[0], nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	query := `UPDATE "user" SET updated_at = $1`
	args := []interface{}{usr.UpdatedAt}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if usr.Name != "" {
		query += fmt.Sprintf(", name = %s", arg(usr.Name))
	}
	if usr.Username != "" {
		query += fmt.Sprintf(", username = %s", arg(usr.Username))
	}
	if usr.Email != "" {
		query += fmt.Sprintf(", email = %s", arg(usr.Email))
	}
	if usr.IsActive != nil {
		query += fmt.Sprintf(", is_active = %s", arg(*usr.IsActive))
	}
	if usr.Roles != nil {
		query += fmt.Sprintf(", roles = %s", arg(pq.Array(usr.Roles)))
	}
	if len(usr.PasswordHash) > 0 {
		query += fmt.Sprintf(", password_hash = %s", arg(usr.PasswordHash))
	}
	if !usr.LastLogin.IsZero() {
		query += fmt.Sprintf(", last_login = %s", arg(usr.LastLogin))
	}
	query += fmt.Sprintf(" WHERE id = %s", arg(usr.ID))

	res, err := executor(repo.db, exec...).ExecContext(ctx, query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	res, err := executor(repo.db, exec...).
		ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted users")
}
