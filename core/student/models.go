package student

import (
	"time"

	"github.com/tasmiapp/tasmi/core"
)

// Student is a santri enrolled with a tenant institution.
type Student struct {
	ID            string     `json:"id" db:"id"`
	TenantID      string     `json:"tenant_id" db:"tenant_id"`
	Name          string     `json:"name" db:"name"`
	Gender        string     `json:"gender" db:"gender"`
	BirthDate     *time.Time `json:"birth_date" db:"birth_date"`
	GuardianName  string     `json:"guardian_name" db:"guardian_name"`
	GuardianPhone string     `json:"guardian_phone" db:"guardian_phone"`
	Class         string     `json:"class" db:"class"`
	IsActive      *bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

type NewStudent struct {
	Name          string     `json:"name" validate:"required"`
	Gender        string     `json:"gender" validate:"omitempty,oneof=male female"`
	BirthDate     *time.Time `json:"birth_date"`
	GuardianName  string     `json:"guardian_name"`
	GuardianPhone string     `json:"guardian_phone" validate:"omitempty,e164"`
	Class         string     `json:"class"`
}

func (s *NewStudent) Clean() {
	s.Name = core.CleanString(s.Name)
	s.Gender = core.CleanString(s.Gender, true /* lower */)
	s.GuardianName = core.CleanString(s.GuardianName)
	s.GuardianPhone = core.CleanString(s.GuardianPhone)
	s.Class = core.CleanString(s.Class)
}

type UpdateStudent struct {
	Name          string     `json:"name" validate:"omitempty"`
	Gender        string     `json:"gender" validate:"omitempty,oneof=male female"`
	BirthDate     *time.Time `json:"birth_date"`
	GuardianName  string     `json:"guardian_name"`
	GuardianPhone string     `json:"guardian_phone" validate:"omitempty,e164"`
	Class         string     `json:"class"`
	IsActive      *bool      `json:"is_active"`
}

func (s *UpdateStudent) Clean() {
	s.Name = core.CleanString(s.Name)
	s.Gender = core.CleanString(s.Gender, true /* lower */)
	s.GuardianName = core.CleanString(s.GuardianName)
	s.GuardianPhone = core.CleanString(s.GuardianPhone)
	s.Class = core.CleanString(s.Class)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Class    string `query:"class"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
}
