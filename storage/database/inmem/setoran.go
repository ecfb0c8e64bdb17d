package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/setoran"
)

type SetoranRepository struct {
	mu      sync.RWMutex
	setoran map[string]setoran.Setoran
}

func NewSetoranRepository() *SetoranRepository {
	return &SetoranRepository{setoran: make(map[string]setoran.Setoran)}
}

func (repo *SetoranRepository) CreateSetoran(ctx context.Context, s setoran.Setoran) (setoran.Setoran, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	s.ID = uuid.New().String()
	repo.setoran[s.ID] = s
	return s, nil
}

func (repo *SetoranRepository) QuerySetoran(ctx context.Context, tenantID string, filter *setoran.QueryFilter, ordering []core.DBOrdering) ([]setoran.Setoran, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var res []setoran.Setoran
	for _, s := range repo.setoran {
		if s.TenantID != tenantID {
			continue
		}
		if filter != nil && !matchSetoran(s, filter) {
			continue
		}
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].SubmittedAt.After(res[j].SubmittedAt) })
	return res, nil
}

func matchSetoran(s setoran.Setoran, filter *setoran.QueryFilter) bool {
	if filter.StudentID != "" && s.StudentID != filter.StudentID {
		return false
	}
	if filter.ExaminerID != "" && s.ExaminerID != filter.ExaminerID {
		return false
	}
	if filter.Surah != 0 && s.Surah != filter.Surah {
		return false
	}
	if filter.Juz != 0 && s.Juz != filter.Juz {
		return false
	}
	if filter.Kind != "" && s.Kind != filter.Kind {
		return false
	}
	if filter.From != nil && s.SubmittedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && s.SubmittedAt.After(*filter.To) {
		return false
	}
	return true
}

func (repo *SetoranRepository) GetSetoran(ctx context.Context, tenantID, id string) (setoran.Setoran, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	s, ok := repo.setoran[id]
	if !ok || s.TenantID != tenantID {
		return setoran.Setoran{}, setoran.ErrNotFound
	}
	return s, nil
}

func (repo *SetoranRepository) UpdateSetoran(ctx context.Context, s setoran.Setoran) (setoran.Setoran, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.setoran[s.ID]; !ok {
		return setoran.Setoran{}, setoran.ErrNotFound
	}
	repo.setoran[s.ID] = s
	return s, nil
}

func (repo *SetoranRepository) DeleteSetoran(ctx context.Context, tenantID, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	s, ok := repo.setoran[id]
	if !ok || s.TenantID != tenantID {
		return setoran.ErrNotFound
	}
	delete(repo.setoran, id)
	return nil
}
