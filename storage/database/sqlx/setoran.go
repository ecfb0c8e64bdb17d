package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/setoran"
)

const setoranColumns = "id, tenant_id, student_id, examiner_id, surah, from_ayah, to_ayah, juz, kind, grade, notes, submitted_at, created_at, updated_at"

type setoranRepository struct {
	db *sqlx.DB
}

func NewSetoranRepository(db *sqlx.DB) *setoranRepository {
	return &setoranRepository{db: db}
}

func (repo *setoranRepository) CreateSetoran(ctx context.Context, s setoran.Setoran) (setoran.Setoran, error) {
	s.ID = uuid.New().String()
	query := `
INSERT INTO setoran (id, tenant_id, student_id, examiner_id, surah, from_ayah, to_ayah, juz, kind, grade, notes, submitted_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := repo.db.ExecContext(ctx, query,
		s.ID, s.TenantID, s.StudentID, s.ExaminerID, s.Surah, s.FromAyah, s.ToAyah,
		s.Juz, s.Kind, s.Grade, s.Notes, s.SubmittedAt, s.CreatedAt, s.UpdatedAt,
	)
	return s, err
}

func (repo *setoranRepository) QuerySetoran(ctx context.Context, tenantID string, filter *setoran.QueryFilter, ordering []core.DBOrdering) ([]setoran.Setoran, error) {
	query := `SELECT ` + setoranColumns + ` FROM setoran WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.StudentID != "" {
			query += fmt.Sprintf(" AND student_id = %s", arg(filter.StudentID))
		}
		if filter.ExaminerID != "" {
			query += fmt.Sprintf(" AND examiner_id = %s", arg(filter.ExaminerID))
		}
		if filter.Surah != 0 {
			query += fmt.Sprintf(" AND surah = %s", arg(filter.Surah))
		}
		if filter.Juz != 0 {
			query += fmt.Sprintf(" AND juz = %s", arg(filter.Juz))
		}
		if filter.Kind != "" {
			query += fmt.Sprintf(" AND kind = %s", arg(filter.Kind))
		}
		if filter.From != nil {
			query += fmt.Sprintf(" AND submitted_at >= %s", arg(*filter.From))
		}
		if filter.To != nil {
			query += fmt.Sprintf(" AND submitted_at <= %s", arg(*filter.To))
		}
	}
	query += orderBy(ordering, "submitted_at DESC")

	var res []setoran.Setoran
	err := repo.db.SelectContext(ctx, &res, query, args...)
	return res, errors.Wrap(err, "querying setoran")
}

func (repo *setoranRepository) GetSetoran(ctx context.Context, tenantID, id string) (setoran.Setoran, error) {
	var s setoran.Setoran
	query := `SELECT ` + setoranColumns + ` FROM setoran WHERE tenant_id = $1 AND id = $2`
	if err := repo.db.GetContext(ctx, &s, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return setoran.Setoran{}, setoran.ErrNotFound
		}
		return setoran.Setoran{}, errors.Wrap(err, "getting setoran")
	}
	return s, nil
}

func (repo *setoranRepository) UpdateSetoran(ctx context.Context, s setoran.Setoran) (setoran.Setoran, error) {
	query := `
UPDATE setoran
SET examiner_id = $1, grade = $2, notes = $3, updated_at = $4
WHERE tenant_id = $5 AND id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		s.ExaminerID, s.Grade, s.Notes, s.UpdatedAt, s.TenantID, s.ID,
	)
	if err != nil {
		return setoran.Setoran{}, errors.Wrap(err, "updating setoran")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return setoran.Setoran{}, setoran.ErrNotFound
	}
	return s, nil
}

func (repo *setoranRepository) DeleteSetoran(ctx context.Context, tenantID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM setoran WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return errors.Wrap(err, "deleting setoran")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return setoran.ErrNotFound
	}
	return nil
}
