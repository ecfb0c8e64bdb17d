package examiner

import (
	"time"

	"github.com/tasmiapp/tasmi/core"
)

// Examiner is a ustadz/ustadzah receiving setoran for a tenant institution.
type Examiner struct {
	ID        string    `json:"id" db:"id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Phone     string    `json:"phone" db:"phone"`
	IsActive  *bool     `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type NewExaminer struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"omitempty,e164"`
}

func (e *NewExaminer) Clean() {
	e.Name = core.CleanString(e.Name)
	e.Phone = core.CleanString(e.Phone)
}

type UpdateExaminer struct {
	Name     string `json:"name" validate:"omitempty"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
	IsActive *bool  `json:"is_active"`
}

func (e *UpdateExaminer) Clean() {
	e.Name = core.CleanString(e.Name)
	e.Phone = core.CleanString(e.Phone)
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
