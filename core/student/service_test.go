package student

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasmiapp/tasmi/core"
)

type fakeRepo struct {
	students map[string]Student
}

func (r *fakeRepo) CreateStudent(ctx context.Context, s Student) (Student, error) {
	s.ID = uuid.New().String()
	r.students[s.ID] = s
	return s, nil
}

func (r *fakeRepo) QueryStudents(ctx context.Context, tenantID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	var res []Student
	for _, s := range r.students {
		if s.TenantID == tenantID {
			res = append(res, s)
		}
	}
	return res, nil
}

func (r *fakeRepo) GetStudent(ctx context.Context, tenantID, id string) (Student, error) {
	s, ok := r.students[id]
	if !ok || s.TenantID != tenantID {
		return Student{}, ErrNotFound
	}
	return s, nil
}

func (r *fakeRepo) UpdateStudent(ctx context.Context, s Student) (Student, error) {
	r.students[s.ID] = s
	return s, nil
}

func (r *fakeRepo) DeleteStudent(ctx context.Context, tenantID, id string) error {
	delete(r.students, id)
	return nil
}

func (r *fakeRepo) CountActiveStudents(ctx context.Context, tenantID string) (int, error) {
	var n int
	for _, s := range r.students {
		if s.TenantID == tenantID && s.IsActive != nil && *s.IsActive {
			n++
		}
	}
	return n, nil
}

type fixedChecker struct{ err error }

func (c fixedChecker) CanAddStudent(ctx context.Context, tenantID string) error { return c.err }

func TestCreateGatedByEntitlement(t *testing.T) {
	ctx := context.Background()
	denied := errors.New("plan limit reached")

	t.Run("denied", func(t *testing.T) {
		repo := &fakeRepo{students: make(map[string]Student)}
		svc := NewService(repo, fixedChecker{err: denied})

		_, err := svc.Create(ctx, "tenant-1", NewStudent{Name: "Ahmad Fikri"})
		assert.Equal(t, denied, err)
		assert.Empty(t, repo.students)
	})

	t.Run("allowed", func(t *testing.T) {
		repo := &fakeRepo{students: make(map[string]Student)}
		svc := NewService(repo, fixedChecker{})

		s, err := svc.Create(ctx, "tenant-1", NewStudent{Name: "Ahmad Fikri", Class: "Halaqah A"})
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "tenant-1", s.TenantID)
		require.NotNil(t, s.IsActive)
		assert.True(t, *s.IsActive)
	})
}

func TestUpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{students: make(map[string]Student)}
	svc := NewService(repo, fixedChecker{})

	s, err := svc.Create(ctx, "tenant-1", NewStudent{Name: "Ahmad Fikri", GuardianName: "Pak Fikri"})
	require.NoError(t, err)

	inactive := false
	got, err := svc.Update(ctx, "tenant-1", s.ID, UpdateStudent{Class: "Halaqah B", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Ahmad Fikri", got.Name)
	assert.Equal(t, "Pak Fikri", got.GuardianName)
	assert.Equal(t, "Halaqah B", got.Class)
	assert.False(t, *got.IsActive)

	birth := time.Date(2010, 3, 9, 0, 0, 0, 0, time.UTC)
	got, err = svc.Update(ctx, "tenant-1", s.ID, UpdateStudent{BirthDate: &birth})
	require.NoError(t, err)
	assert.Equal(t, &birth, got.BirthDate)
}

func TestTenantScoping(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{students: make(map[string]Student)}
	svc := NewService(repo, fixedChecker{})

	s, err := svc.Create(ctx, "tenant-1", NewStudent{Name: "Ahmad Fikri"})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, "tenant-2", s.ID)
	assert.Equal(t, ErrNotFound, err)
}
