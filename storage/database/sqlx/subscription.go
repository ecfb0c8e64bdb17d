package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/subscription"
)

const (
	subscriptionColumns = "id, tenant_id, tier, status, start_date, end_date, trial_end_date, created_at, updated_at"
	planColumns         = "tier, name, price_idr, trial_days, max_students, max_examiners, can_export, priority_support, analytics, updated_at"
	requestColumns      = "id, tenant_id, current_tier, requested_tier, status, amount_idr, request_date, processed_at, processed_by, created_at, updated_at"
	paymentColumns      = "id, upgrade_request_id, tenant_id, amount_idr, method, status, reference, created_at, updated_at"
)

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *subscriptionRepository {
	return &subscriptionRepository{db: db}
}

// subscriptions

func (repo *subscriptionRepository) CreateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	sub.ID = uuid.New().String()
	query := `
INSERT INTO subscription (id, tenant_id, tier, status, start_date, end_date, trial_end_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, query,
		sub.ID, sub.TenantID, sub.Tier, sub.Status, sub.StartDate, sub.EndDate,
		sub.TrialEndDate, sub.CreatedAt, sub.UpdatedAt,
	)
	return sub, err
}

func (repo *subscriptionRepository) GetSubscriptionByTenant(ctx context.Context, tenantID string) (subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscription WHERE tenant_id = $1`
	if err := repo.db.GetContext(ctx, &sub, query, tenantID); err != nil {
		if err == sql.ErrNoRows {
			return subscription.Subscription{}, subscription.ErrNoSubscription
		}
		return subscription.Subscription{}, errors.Wrap(err, "getting subscription")
	}
	return sub, nil
}

func (repo *subscriptionRepository) UpdateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	res, err := repo.db.ExecContext(ctx, updateSubscriptionQuery,
		sub.Tier, sub.Status, sub.StartDate, sub.EndDate, sub.TrialEndDate, sub.UpdatedAt, sub.ID,
	)
	if err != nil {
		return subscription.Subscription{}, errors.Wrap(err, "updating subscription")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subscription.Subscription{}, subscription.ErrNoSubscription
	}
	return sub, nil
}

const updateSubscriptionQuery = `
UPDATE subscription
SET tier = $1, status = $2, start_date = $3, end_date = $4, trial_end_date = $5, updated_at = $6
WHERE id = $7`

// plans

func (repo *subscriptionRepository) QueryPlans(ctx context.Context) ([]subscription.Plan, error) {
	var plans []subscription.Plan
	query := `SELECT ` + planColumns + ` FROM plan ORDER BY price_idr ASC`
	err := repo.db.SelectContext(ctx, &plans, query)
	return plans, errors.Wrap(err, "querying plans")
}

func (repo *subscriptionRepository) GetPlan(ctx context.Context, tier subscription.Tier) (subscription.Plan, error) {
	var plan subscription.Plan
	query := `SELECT ` + planColumns + ` FROM plan WHERE tier = $1`
	if err := repo.db.GetContext(ctx, &plan, query, tier); err != nil {
		if err == sql.ErrNoRows {
			return subscription.Plan{}, subscription.ErrPlanNotFound
		}
		return subscription.Plan{}, errors.Wrap(err, "getting plan")
	}
	return plan, nil
}

func (repo *subscriptionRepository) ReplacePlans(ctx context.Context, plans []subscription.Plan) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM plan`); err != nil {
		return errors.Wrap(err, "clearing plans")
	}
	query := `
INSERT INTO plan (tier, name, price_idr, trial_days, max_students, max_examiners, can_export, priority_support, analytics, updated_at)
VALUES (:tier, :name, :price_idr, :trial_days, :max_students, :max_examiners, :can_export, :priority_support, :analytics, now())`
	for _, plan := range plans {
		if _, err = tx.NamedExecContext(ctx, query, plan); err != nil {
			return errors.Wrapf(err, "inserting plan %q", plan.Tier)
		}
	}
	return errors.Wrap(tx.Commit(), "committing plans")
}

// upgrade requests

func (repo *subscriptionRepository) CreateUpgradeRequest(ctx context.Context, req subscription.UpgradeRequest) (subscription.UpgradeRequest, error) {
	req.ID = uuid.New().String()
	query := `
INSERT INTO upgrade_request (id, tenant_id, current_tier, requested_tier, status, amount_idr, request_date, processed_at, processed_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, query,
		req.ID, req.TenantID, req.CurrentTier, req.RequestedTier, req.Status, req.AmountIDR,
		req.RequestDate, req.ProcessedAt, req.ProcessedBy, req.CreatedAt, req.UpdatedAt,
	)
	return req, err
}

func (repo *subscriptionRepository) GetUpgradeRequest(ctx context.Context, id string) (subscription.UpgradeRequest, error) {
	var req subscription.UpgradeRequest
	query := `SELECT ` + requestColumns + ` FROM upgrade_request WHERE id = $1`
	if err := repo.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return subscription.UpgradeRequest{}, subscription.ErrRequestNotFound
		}
		return subscription.UpgradeRequest{}, errors.Wrap(err, "getting upgrade request")
	}
	return req, nil
}

func (repo *subscriptionRepository) GetOpenUpgradeRequestByTenant(ctx context.Context, tenantID string) (subscription.UpgradeRequest, error) {
	var req subscription.UpgradeRequest
	query := `
SELECT ` + requestColumns + ` FROM upgrade_request
WHERE tenant_id = $1 AND status NOT IN ($2, $3)
ORDER BY created_at DESC LIMIT 1`
	err := repo.db.GetContext(ctx, &req, query, tenantID, subscription.RequestRejected, subscription.RequestCompleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return subscription.UpgradeRequest{}, subscription.ErrRequestNotFound
		}
		return subscription.UpgradeRequest{}, errors.Wrap(err, "getting open upgrade request")
	}
	return req, nil
}

func (repo *subscriptionRepository) QueryUpgradeRequests(ctx context.Context, filter *subscription.RequestFilter, ordering []core.DBOrdering) ([]subscription.UpgradeRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM upgrade_request WHERE true`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.TenantID != "" {
			query += fmt.Sprintf(" AND tenant_id = %s", arg(filter.TenantID))
		}
		if filter.Status != "" {
			query += fmt.Sprintf(" AND status = %s", arg(filter.Status))
		}
	}
	query += orderBy(ordering, "request_date DESC")

	var reqs []subscription.UpgradeRequest
	err := repo.db.SelectContext(ctx, &reqs, query, args...)
	return reqs, errors.Wrap(err, "querying upgrade requests")
}

func (repo *subscriptionRepository) UpdateUpgradeRequest(ctx context.Context, req subscription.UpgradeRequest) (subscription.UpgradeRequest, error) {
	res, err := repo.db.ExecContext(ctx, updateRequestQuery,
		req.Status, req.ProcessedAt, req.ProcessedBy, req.UpdatedAt, req.ID,
	)
	if err != nil {
		return subscription.UpgradeRequest{}, errors.Wrap(err, "updating upgrade request")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subscription.UpgradeRequest{}, subscription.ErrRequestNotFound
	}
	return req, nil
}

const updateRequestQuery = `
UPDATE upgrade_request
SET status = $1, processed_at = $2, processed_by = $3, updated_at = $4
WHERE id = $5`

// payments

func (repo *subscriptionRepository) CreatePayment(ctx context.Context, p subscription.Payment) (subscription.Payment, error) {
	p.ID = uuid.New().String()
	query := `
INSERT INTO payment (id, upgrade_request_id, tenant_id, amount_idr, method, status, reference, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, query,
		p.ID, p.UpgradeRequestID, p.TenantID, p.AmountIDR, p.Method, p.Status,
		p.Reference, p.CreatedAt, p.UpdatedAt,
	)
	return p, err
}

// GetPaymentByRequest returns the request's latest payment attempt; failed
// attempts stay behind as history.
func (repo *subscriptionRepository) GetPaymentByRequest(ctx context.Context, requestID string) (subscription.Payment, error) {
	var p subscription.Payment
	query := `SELECT ` + paymentColumns + ` FROM payment WHERE upgrade_request_id = $1 ORDER BY created_at DESC LIMIT 1`
	if err := repo.db.GetContext(ctx, &p, query, requestID); err != nil {
		if err == sql.ErrNoRows {
			return subscription.Payment{}, subscription.ErrPaymentNotFound
		}
		return subscription.Payment{}, errors.Wrap(err, "getting payment")
	}
	return p, nil
}

func (repo *subscriptionRepository) UpdatePayment(ctx context.Context, p subscription.Payment) (subscription.Payment, error) {
	res, err := repo.db.ExecContext(ctx, updatePaymentQuery,
		p.Method, p.Status, p.Reference, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return subscription.Payment{}, errors.Wrap(err, "updating payment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subscription.Payment{}, subscription.ErrPaymentNotFound
	}
	return p, nil
}

const updatePaymentQuery = `
UPDATE payment
SET method = $1, status = $2, reference = $3, updated_at = $4
WHERE id = $5`

// CompleteUpgrade persists the payment-success batch in one transaction:
// the request, its payment and the tenant's subscription move together.
func (repo *subscriptionRepository) CompleteUpgrade(ctx context.Context, req subscription.UpgradeRequest, pay subscription.Payment, sub subscription.Subscription) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, updateRequestQuery,
		req.Status, req.ProcessedAt, req.ProcessedBy, req.UpdatedAt, req.ID); err != nil {
		return errors.Wrap(err, "updating upgrade request")
	}
	if _, err = tx.ExecContext(ctx, updatePaymentQuery,
		pay.Method, pay.Status, pay.Reference, pay.UpdatedAt, pay.ID); err != nil {
		return errors.Wrap(err, "updating payment")
	}
	if _, err = tx.ExecContext(ctx, updateSubscriptionQuery,
		sub.Tier, sub.Status, sub.StartDate, sub.EndDate, sub.TrialEndDate, sub.UpdatedAt, sub.ID); err != nil {
		return errors.Wrap(err, "updating subscription")
	}
	return errors.Wrap(tx.Commit(), "committing upgrade")
}
