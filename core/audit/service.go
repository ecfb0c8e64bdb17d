package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/tasmiapp/tasmi/core"
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		QueryEntries(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Entry, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record writes an audit entry for an admin action. Writes are best-effort:
// a failure is logged and swallowed, never surfaced to the admin.
func (svc *Service) Record(ctx context.Context, actor Actor, action, targetKind, targetID, detail string) {
	e := Entry{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		TargetKind: targetKind,
		TargetID:   targetID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := svc.repo.CreateEntry(ctx, e); err != nil {
		svc.logger.Error(fmt.Sprintf("writing audit entry %q: %v", action, err), err)
	}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, filter, ordering)
}
