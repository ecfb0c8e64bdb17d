package audit

import (
	"time"

	"github.com/tasmiapp/tasmi/core"
)

// Actor identifies the admin performing an audited action.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entry is one audit log line for an admin action.
type Entry struct {
	ID         string    `json:"id" db:"id"`
	ActorID    string    `json:"actor_id" db:"actor_id"`
	ActorName  string    `json:"actor_name" db:"actor_name"`
	Action     string    `json:"action" db:"action"`
	TargetKind string    `json:"target_kind" db:"target_kind"`
	TargetID   string    `json:"target_id" db:"target_id"`
	Detail     string    `json:"detail" db:"detail"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type QueryFilter struct {
	ActorID string    `query:"actor_id"`
	Action  string    `query:"action"`
	From    time.Time `query:"from"`
	To      time.Time `query:"to"`
}

func (qf *QueryFilter) Clean() {
	qf.Action = core.CleanString(qf.Action, true /* lower */)
}
