package examiner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasmiapp/tasmi/core"
)

type fakeRepo struct {
	examiners map[string]Examiner
}

func (r *fakeRepo) CreateExaminer(ctx context.Context, e Examiner) (Examiner, error) {
	e.ID = uuid.New().String()
	r.examiners[e.ID] = e
	return e, nil
}

func (r *fakeRepo) QueryExaminers(ctx context.Context, tenantID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Examiner, error) {
	var res []Examiner
	for _, e := range r.examiners {
		if e.TenantID == tenantID {
			res = append(res, e)
		}
	}
	return res, nil
}

func (r *fakeRepo) GetExaminer(ctx context.Context, tenantID, id string) (Examiner, error) {
	e, ok := r.examiners[id]
	if !ok || e.TenantID != tenantID {
		return Examiner{}, ErrNotFound
	}
	return e, nil
}

func (r *fakeRepo) UpdateExaminer(ctx context.Context, e Examiner) (Examiner, error) {
	r.examiners[e.ID] = e
	return e, nil
}

func (r *fakeRepo) DeleteExaminer(ctx context.Context, tenantID, id string) error {
	delete(r.examiners, id)
	return nil
}

func (r *fakeRepo) CountActiveExaminers(ctx context.Context, tenantID string) (int, error) {
	var n int
	for _, e := range r.examiners {
		if e.TenantID == tenantID && e.IsActive != nil && *e.IsActive {
			n++
		}
	}
	return n, nil
}

type fixedChecker struct{ err error }

func (c fixedChecker) CanAddExaminer(ctx context.Context, tenantID string) error { return c.err }

func TestCreateGatedByEntitlement(t *testing.T) {
	ctx := context.Background()
	denied := errors.New("plan limit reached")

	t.Run("denied", func(t *testing.T) {
		repo := &fakeRepo{examiners: make(map[string]Examiner)}
		svc := NewService(repo, fixedChecker{err: denied})

		_, err := svc.Create(ctx, "tenant-1", NewExaminer{Name: "Ust. Hasan"})
		assert.Equal(t, denied, err)
		assert.Empty(t, repo.examiners)
	})

	t.Run("allowed", func(t *testing.T) {
		repo := &fakeRepo{examiners: make(map[string]Examiner)}
		svc := NewService(repo, fixedChecker{})

		e, err := svc.Create(ctx, "tenant-1", NewExaminer{Name: "Ust. Hasan", Phone: "+6281234567890"})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
		require.NotNil(t, e.IsActive)
		assert.True(t, *e.IsActive)
	})
}

func TestDeactivateFreesSlot(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{examiners: make(map[string]Examiner)}
	svc := NewService(repo, fixedChecker{})

	e, err := svc.Create(ctx, "tenant-1", NewExaminer{Name: "Ust. Hasan"})
	require.NoError(t, err)
	n, err := svc.CountActiveExaminers(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	inactive := false
	_, err = svc.Update(ctx, "tenant-1", e.ID, UpdateExaminer{IsActive: &inactive})
	require.NoError(t, err)
	n, err = svc.CountActiveExaminers(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
