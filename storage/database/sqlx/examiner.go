package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/examiner"
)

const examinerColumns = "id, tenant_id, name, phone, is_active, created_at, updated_at"

type examinerRepository struct {
	db *sqlx.DB
}

func NewExaminerRepository(db *sqlx.DB) *examinerRepository {
	return &examinerRepository{db: db}
}

func (repo *examinerRepository) CreateExaminer(ctx context.Context, e examiner.Examiner) (examiner.Examiner, error) {
	e.ID = uuid.New().String()
	query := `
INSERT INTO examiner (id, tenant_id, name, phone, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, query,
		e.ID, e.TenantID, e.Name, e.Phone, e.IsActive == nil || *e.IsActive, e.CreatedAt, e.UpdatedAt,
	)
	return e, err
}

func (repo *examinerRepository) QueryExaminers(ctx context.Context, tenantID string, filter *examiner.QueryFilter, ordering []core.DBOrdering) ([]examiner.Examiner, error) {
	query := `SELECT ` + examinerColumns + ` FROM examiner WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			query += fmt.Sprintf(" AND name ILIKE %s", arg("%"+filter.Search+"%"))
		}
		if filter.IsActive != nil {
			query += fmt.Sprintf(" AND is_active = %s", arg(*filter.IsActive))
		}
	}
	query += orderBy(ordering, "name ASC")

	var examiners []examiner.Examiner
	err := repo.db.SelectContext(ctx, &examiners, query, args...)
	return examiners, errors.Wrap(err, "querying examiners")
}

func (repo *examinerRepository) GetExaminer(ctx context.Context, tenantID, id string) (examiner.Examiner, error) {
	var e examiner.Examiner
	query := `SELECT ` + examinerColumns + ` FROM examiner WHERE tenant_id = $1 AND id = $2`
	if err := repo.db.GetContext(ctx, &e, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return examiner.Examiner{}, examiner.ErrNotFound
		}
		return examiner.Examiner{}, errors.Wrap(err, "getting examiner")
	}
	return e, nil
}

func (repo *examinerRepository) UpdateExaminer(ctx context.Context, e examiner.Examiner) (examiner.Examiner, error) {
	query := `
UPDATE examiner
SET name = $1, phone = $2, is_active = $3, updated_at = $4
WHERE tenant_id = $5 AND id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		e.Name, e.Phone, e.IsActive == nil || *e.IsActive, e.UpdatedAt, e.TenantID, e.ID,
	)
	if err != nil {
		return examiner.Examiner{}, errors.Wrap(err, "updating examiner")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return examiner.Examiner{}, examiner.ErrNotFound
	}
	return e, nil
}

func (repo *examinerRepository) DeleteExaminer(ctx context.Context, tenantID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM examiner WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return errors.Wrap(err, "deleting examiner")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return examiner.ErrNotFound
	}
	return nil
}

func (repo *examinerRepository) CountActiveExaminers(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM examiner WHERE tenant_id = $1 AND is_active`, tenantID)
	return count, errors.Wrap(err, "counting examiners")
}
