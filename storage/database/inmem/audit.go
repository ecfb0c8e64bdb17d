package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/audit"
)

type AuditRepository struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (repo *AuditRepository) CreateEntry(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	e.ID = uuid.New().String()
	repo.entries = append(repo.entries, e)
	return e, nil
}

func (repo *AuditRepository) QueryEntries(ctx context.Context, filter *audit.QueryFilter, ordering []core.DBOrdering) ([]audit.Entry, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var res []audit.Entry
	for _, e := range repo.entries {
		if filter != nil {
			if filter.ActorID != "" && e.ActorID != filter.ActorID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if !filter.From.IsZero() && e.CreatedAt.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && e.CreatedAt.After(filter.To) {
				continue
			}
		}
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}
