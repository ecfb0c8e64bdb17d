package setoran

import (
	"time"

	"github.com/tasmiapp/tasmi/core"
)

type Kind string

const (
	// KindZiyadah is new memorization.
	KindZiyadah Kind = "ziyadah"
	// KindMurajaah is revision of previously memorized material.
	KindMurajaah Kind = "murajaah"
)

func (k Kind) Valid() bool {
	return k == KindZiyadah || k == KindMurajaah
}

type Grade string

const (
	GradeMumtaz       Grade = "mumtaz"
	GradeJayyidJiddan Grade = "jayyid_jiddan"
	GradeJayyid       Grade = "jayyid"
	GradeMaqbul       Grade = "maqbul"
	GradeRasib        Grade = "rasib"
)

var allGrades = []Grade{GradeMumtaz, GradeJayyidJiddan, GradeJayyid, GradeMaqbul, GradeRasib}

func (g Grade) Valid() bool {
	for _, grade := range allGrades {
		if g == grade {
			return true
		}
	}
	return false
}

// Setoran is one recitation submission: a student recites an ayah range of a
// surah before an examiner and receives a grade.
type Setoran struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	StudentID   string    `json:"student_id" db:"student_id"`
	ExaminerID  string    `json:"examiner_id" db:"examiner_id"`
	Surah       int       `json:"surah" db:"surah"`
	SurahName   string    `json:"surah_name" db:"-"`
	FromAyah    int       `json:"from_ayah" db:"from_ayah"`
	ToAyah      int       `json:"to_ayah" db:"to_ayah"`
	Juz         int       `json:"juz" db:"juz"`
	Kind        Kind      `json:"kind" db:"kind"`
	Grade       Grade     `json:"grade" db:"grade"`
	Notes       string    `json:"notes" db:"notes"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type NewSetoran struct {
	StudentID   string     `json:"student_id" validate:"required"`
	ExaminerID  string     `json:"examiner_id" validate:"required"`
	Surah       int        `json:"surah" validate:"required,min=1,max=114"`
	FromAyah    int        `json:"from_ayah" validate:"required,min=1"`
	ToAyah      int        `json:"to_ayah" validate:"required,min=1"`
	Juz         int        `json:"juz" validate:"required,min=1,max=30"`
	Kind        Kind       `json:"kind" validate:"required,allkinds"`
	Grade       Grade      `json:"grade" validate:"required,allgrades"`
	Notes       string     `json:"notes"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

func (ns *NewSetoran) Clean() {
	ns.Notes = core.CleanString(ns.Notes)
}

type UpdateSetoran struct {
	ExaminerID string `json:"examiner_id"`
	Grade      Grade  `json:"grade" validate:"omitempty,allgrades"`
	Notes      string `json:"notes"`
}

func (us *UpdateSetoran) Clean() {
	us.Notes = core.CleanString(us.Notes)
}

type QueryFilter struct {
	StudentID  string     `query:"student_id"`
	ExaminerID string     `query:"examiner_id"`
	Surah      int        `query:"surah"`
	Juz        int        `query:"juz"`
	Kind       Kind       `query:"kind"`
	From       *time.Time `query:"from"`
	To         *time.Time `query:"to"`
}

// Progress aggregates a student's submissions: surahs fully covered by
// ziyadah ranges, juz touched, and grade/kind tallies.
type Progress struct {
	StudentID       string        `json:"student_id"`
	TotalSetoran    int           `json:"total_setoran"`
	SurahsCompleted []int         `json:"surahs_completed"`
	JuzTouched      []int         `json:"juz_touched"`
	ByGrade         map[Grade]int `json:"by_grade"`
	ByKind          map[Kind]int  `json:"by_kind"`
}
