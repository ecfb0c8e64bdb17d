package examiner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
)

var ErrNotFound = errors.New("examiner not found")

type (
	Repository interface {
		CreateExaminer(ctx context.Context, e Examiner) (Examiner, error)
		QueryExaminers(ctx context.Context, tenantID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Examiner, error)
		GetExaminer(ctx context.Context, tenantID, id string) (Examiner, error)
		UpdateExaminer(ctx context.Context, e Examiner) (Examiner, error)
		DeleteExaminer(ctx context.Context, tenantID, id string) error
		CountActiveExaminers(ctx context.Context, tenantID string) (int, error)
	}

	// EntitlementChecker gates creation against the tenant's plan.
	EntitlementChecker interface {
		CanAddExaminer(ctx context.Context, tenantID string) error
	}

	Service struct {
		repo         Repository
		entitlements EntitlementChecker
	}
)

func NewService(repo Repository, entitlements EntitlementChecker) *Service {
	return &Service{repo: repo, entitlements: entitlements}
}

func (svc *Service) Create(ctx context.Context, tenantID string, ne NewExaminer) (Examiner, error) {
	if err := svc.entitlements.CanAddExaminer(ctx, tenantID); err != nil {
		return Examiner{}, err
	}

	now := time.Now().UTC()
	active := true
	e := Examiner{
		TenantID:  tenantID,
		Name:      ne.Name,
		Phone:     ne.Phone,
		IsActive:  &active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e, err := svc.repo.CreateExaminer(ctx, e)
	return e, errors.Wrap(err, "creating examiner")
}

func (svc *Service) Query(ctx context.Context, tenantID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Examiner, error) {
	return svc.repo.QueryExaminers(ctx, tenantID, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, tenantID, id string) (Examiner, error) {
	return svc.repo.GetExaminer(ctx, tenantID, id)
}

func (svc *Service) Update(ctx context.Context, tenantID, id string, ue UpdateExaminer) (Examiner, error) {
	e, err := svc.repo.GetExaminer(ctx, tenantID, id)
	if err != nil {
		return Examiner{}, errors.Wrap(err, "finding examiner")
	}

	if ue.Name != "" {
		e.Name = ue.Name
	}
	if ue.Phone != "" {
		e.Phone = ue.Phone
	}
	if ue.IsActive != nil {
		e.IsActive = ue.IsActive
	}
	e.UpdatedAt = time.Now().UTC()

	e, err = svc.repo.UpdateExaminer(ctx, e)
	return e, errors.Wrap(err, "updating examiner")
}

func (svc *Service) Delete(ctx context.Context, tenantID, id string) error {
	return errors.Wrap(svc.repo.DeleteExaminer(ctx, tenantID, id), "deleting examiner")
}

// CountActive satisfies subscription.ExaminerCounter.
func (svc *Service) CountActiveExaminers(ctx context.Context, tenantID string) (int, error) {
	return svc.repo.CountActiveExaminers(ctx, tenantID)
}
