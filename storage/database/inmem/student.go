package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/student"
)

type StudentRepository struct {
	mu       sync.RWMutex
	students map[string]student.Student
}

func NewStudentRepository() *StudentRepository {
	return &StudentRepository{students: make(map[string]student.Student)}
}

func (repo *StudentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	s.ID = uuid.New().String()
	repo.students[s.ID] = s
	return s, nil
}

func (repo *StudentRepository) QueryStudents(ctx context.Context, tenantID string, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var res []student.Student
	for _, s := range repo.students {
		if s.TenantID != tenantID {
			continue
		}
		if filter != nil {
			if filter.Search != "" {
				q := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(s.Name), q) &&
					!strings.Contains(strings.ToLower(s.GuardianName), q) {
					continue
				}
			}
			if filter.Class != "" && s.Class != filter.Class {
				continue
			}
			if filter.IsActive != nil && (s.IsActive == nil || *s.IsActive != *filter.IsActive) {
				continue
			}
		}
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (repo *StudentRepository) GetStudent(ctx context.Context, tenantID, id string) (student.Student, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	s, ok := repo.students[id]
	if !ok || s.TenantID != tenantID {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo *StudentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.students[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.students[s.ID] = s
	return s, nil
}

func (repo *StudentRepository) DeleteStudent(ctx context.Context, tenantID, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	s, ok := repo.students[id]
	if !ok || s.TenantID != tenantID {
		return student.ErrNotFound
	}
	delete(repo.students, id)
	return nil
}

func (repo *StudentRepository) CountActiveStudents(ctx context.Context, tenantID string) (int, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var n int
	for _, s := range repo.students {
		if s.TenantID == tenantID && s.IsActive != nil && *s.IsActive {
			n++
		}
	}
	return n, nil
}
