package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/examiner"
)

type ExaminerRepository struct {
	mu        sync.RWMutex
	examiners map[string]examiner.Examiner
}

func NewExaminerRepository() *ExaminerRepository {
	return &ExaminerRepository{examiners: make(map[string]examiner.Examiner)}
}

func (repo *ExaminerRepository) CreateExaminer(ctx context.Context, e examiner.Examiner) (examiner.Examiner, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	e.ID = uuid.New().String()
	repo.examiners[e.ID] = e
	return e, nil
}

func (repo *ExaminerRepository) QueryExaminers(ctx context.Context, tenantID string, filter *examiner.QueryFilter, ordering []core.DBOrdering) ([]examiner.Examiner, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var res []examiner.Examiner
	for _, e := range repo.examiners {
		if e.TenantID != tenantID {
			continue
		}
		if filter != nil {
			if filter.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.IsActive != nil && (e.IsActive == nil || *e.IsActive != *filter.IsActive) {
				continue
			}
		}
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (repo *ExaminerRepository) GetExaminer(ctx context.Context, tenantID, id string) (examiner.Examiner, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	e, ok := repo.examiners[id]
	if !ok || e.TenantID != tenantID {
		return examiner.Examiner{}, examiner.ErrNotFound
	}
	return e, nil
}

func (repo *ExaminerRepository) UpdateExaminer(ctx context.Context, e examiner.Examiner) (examiner.Examiner, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.examiners[e.ID]; !ok {
		return examiner.Examiner{}, examiner.ErrNotFound
	}
	repo.examiners[e.ID] = e
	return e, nil
}

func (repo *ExaminerRepository) DeleteExaminer(ctx context.Context, tenantID, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	e, ok := repo.examiners[id]
	if !ok || e.TenantID != tenantID {
		return examiner.ErrNotFound
	}
	delete(repo.examiners, id)
	return nil
}

func (repo *ExaminerRepository) CountActiveExaminers(ctx context.Context, tenantID string) (int, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var n int
	for _, e := range repo.examiners {
		if e.TenantID == tenantID && e.IsActive != nil && *e.IsActive {
			n++
		}
	}
	return n, nil
}
