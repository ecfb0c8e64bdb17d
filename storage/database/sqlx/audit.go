package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/audit"
)

const auditColumns = "id, actor_id, actor_name, action, target_kind, target_id, detail, created_at"

type auditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo *auditRepository) CreateEntry(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	e.ID = uuid.New().String()
	query := `
INSERT INTO audit_entry (id, actor_id, actor_name, action, target_kind, target_id, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		e.ID, e.ActorID, e.ActorName, e.Action, e.TargetKind, e.TargetID, e.Detail, e.CreatedAt,
	)
	return e, errors.Wrap(err, "inserting audit entry")
}

func (repo *auditRepository) QueryEntries(ctx context.Context, filter *audit.QueryFilter, ordering []core.DBOrdering) ([]audit.Entry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_entry WHERE true`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.ActorID != "" {
			query += fmt.Sprintf(" AND actor_id = %s", arg(filter.ActorID))
		}
		if filter.Action != "" {
			query += fmt.Sprintf(" AND action = %s", arg(filter.Action))
		}
		if !filter.From.IsZero() {
			query += fmt.Sprintf(" AND created_at >= %s", arg(filter.From))
		}
		if !filter.To.IsZero() {
			query += fmt.Sprintf(" AND created_at <= %s", arg(filter.To))
		}
	}
	query += orderBy(ordering, "created_at DESC")

	var entries []audit.Entry
	err := repo.db.SelectContext(ctx, &entries, query, args...)
	return entries, errors.Wrap(err, "querying audit entries")
}
