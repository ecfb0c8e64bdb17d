package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/student"
)

const studentColumns = "id, tenant_id, name, gender, birth_date, guardian_name, guardian_phone, class, is_active, created_at, updated_at"

type studentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	query := `
INSERT INTO student (id, tenant_id, name, gender, birth_date, guardian_name, guardian_phone, class, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, query,
		s.ID, s.TenantID, s.Name, s.Gender, s.BirthDate, s.GuardianName, s.GuardianPhone,
		s.Class, s.IsActive == nil || *s.IsActive, s.CreatedAt, s.UpdatedAt,
	)
	return s, err
}

func (repo *studentRepository) QueryStudents(ctx context.Context, tenantID string, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM student WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			query += fmt.Sprintf(" AND (name ILIKE %[1]s OR guardian_name ILIKE %[1]s)", p)
		}
		if filter.Class != "" {
			query += fmt.Sprintf(" AND class = %s", arg(filter.Class))
		}
		if filter.IsActive != nil {
			query += fmt.Sprintf(" AND is_active = %s", arg(*filter.IsActive))
		}
	}
	query += orderBy(ordering, "name ASC")

	var students []student.Student
	err := repo.db.SelectContext(ctx, &students, query, args...)
	return students, errors.Wrap(err, "querying students")
}

func (repo *studentRepository) GetStudent(ctx context.Context, tenantID, id string) (student.Student, error) {
	var s student.Student
	query := `SELECT ` + studentColumns + ` FROM student WHERE tenant_id = $1 AND id = $2`
	if err := repo.db.GetContext(ctx, &s, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return s, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	query := `
UPDATE student
SET name = $1, gender = $2, birth_date = $3, guardian_name = $4, guardian_phone = $5,
    class = $6, is_active = $7, updated_at = $8
WHERE tenant_id = $9 AND id = $10`
	res, err := repo.db.ExecContext(ctx, query,
		s.Name, s.Gender, s.BirthDate, s.GuardianName, s.GuardianPhone,
		s.Class, s.IsActive == nil || *s.IsActive, s.UpdatedAt, s.TenantID, s.ID,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, tenantID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo *studentRepository) CountActiveStudents(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM student WHERE tenant_id = $1 AND is_active`, tenantID)
	return count, errors.Wrap(err, "counting students")
}
