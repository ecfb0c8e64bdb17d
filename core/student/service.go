package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
)

var ErrNotFound = errors.New("student not found")

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		QueryStudents(ctx context.Context, tenantID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, tenantID, id string) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, tenantID, id string) error
		CountActiveStudents(ctx context.Context, tenantID string) (int, error)
	}

	// EntitlementChecker gates creation against the tenant's plan.
	EntitlementChecker interface {
		CanAddStudent(ctx context.Context, tenantID string) error
	}

	Service struct {
		repo         Repository
		entitlements EntitlementChecker
	}
)

func NewService(repo Repository, entitlements EntitlementChecker) *Service {
	return &Service{repo: repo, entitlements: entitlements}
}

// Create inserts a student after an entitlement check; a denied check
// surfaces the denial cause untouched so the API can map it.
func (svc *Service) Create(ctx context.Context, tenantID string, ns NewStudent) (Student, error) {
	if err := svc.entitlements.CanAddStudent(ctx, tenantID); err != nil {
		return Student{}, err
	}

	now := time.Now().UTC()
	active := true
	s := Student{
		TenantID:      tenantID,
		Name:          ns.Name,
		Gender:        ns.Gender,
		BirthDate:     ns.BirthDate,
		GuardianName:  ns.GuardianName,
		GuardianPhone: ns.GuardianPhone,
		Class:         ns.Class,
		IsActive:      &active,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s, err := svc.repo.CreateStudent(ctx, s)
	return s, errors.Wrap(err, "creating student")
}

func (svc *Service) Query(ctx context.Context, tenantID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, tenantID, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, tenantID, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, tenantID, id)
}

func (svc *Service) Update(ctx context.Context, tenantID, id string, us UpdateStudent) (Student, error) {
	s, err := svc.repo.GetStudent(ctx, tenantID, id)
	if err != nil {
		return Student{}, errors.Wrap(err, "finding student")
	}

	if us.Name != "" {
		s.Name = us.Name
	}
	if us.Gender != "" {
		s.Gender = us.Gender
	}
	if us.BirthDate != nil {
		s.BirthDate = us.BirthDate
	}
	if us.GuardianName != "" {
		s.GuardianName = us.GuardianName
	}
	if us.GuardianPhone != "" {
		s.GuardianPhone = us.GuardianPhone
	}
	if us.Class != "" {
		s.Class = us.Class
	}
	if us.IsActive != nil {
		s.IsActive = us.IsActive
	}
	s.UpdatedAt = time.Now().UTC()

	s, err = svc.repo.UpdateStudent(ctx, s)
	return s, errors.Wrap(err, "updating student")
}

func (svc *Service) Delete(ctx context.Context, tenantID, id string) error {
	return errors.Wrap(svc.repo.DeleteStudent(ctx, tenantID, id), "deleting student")
}

// CountActive satisfies subscription.StudentCounter.
func (svc *Service) CountActiveStudents(ctx context.Context, tenantID string) (int, error) {
	return svc.repo.CountActiveStudents(ctx, tenantID)
}
