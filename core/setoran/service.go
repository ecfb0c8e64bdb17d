package setoran

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/examiner"
	"github.com/tasmiapp/tasmi/core/student"
)

var ErrNotFound = errors.New("setoran not found")

type (
	Repository interface {
		CreateSetoran(ctx context.Context, s Setoran) (Setoran, error)
		QuerySetoran(ctx context.Context, tenantID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Setoran, error)
		GetSetoran(ctx context.Context, tenantID, id string) (Setoran, error)
		UpdateSetoran(ctx context.Context, s Setoran) (Setoran, error)
		DeleteSetoran(ctx context.Context, tenantID, id string) error
	}

	StudentGetter interface {
		GetByID(ctx context.Context, tenantID, id string) (student.Student, error)
	}

	ExaminerGetter interface {
		GetByID(ctx context.Context, tenantID, id string) (examiner.Examiner, error)
	}

	Service struct {
		repo      Repository
		students  StudentGetter
		examiners ExaminerGetter
	}
)

func NewService(repo Repository, students StudentGetter, examiners ExaminerGetter) *Service {
	return &Service{repo: repo, students: students, examiners: examiners}
}

// ValidateRange checks an ayah range against the mushaf index.
func ValidateRange(surah, from, to int) error {
	if !ValidSurah(surah) {
		return core.NewValidationError(nil, core.FieldError{Field: "surah", Error: "unknown surah"})
	}
	count := AyahCount(surah)
	if from < 1 || from > count {
		return core.NewValidationError(nil, core.FieldError{Field: "from_ayah", Error: "outside the surah's ayah range"})
	}
	if to < from || to > count {
		return core.NewValidationError(nil, core.FieldError{Field: "to_ayah", Error: "outside the surah's ayah range"})
	}
	return nil
}

// Create records a submission; the student and examiner must belong to the tenant.
func (svc *Service) Create(ctx context.Context, tenantID string, ns NewSetoran) (Setoran, error) {
	if err := ValidateRange(ns.Surah, ns.FromAyah, ns.ToAyah); err != nil {
		return Setoran{}, err
	}
	if _, err := svc.students.GetByID(ctx, tenantID, ns.StudentID); err != nil {
		return Setoran{}, errors.Wrap(err, "finding student")
	}
	if _, err := svc.examiners.GetByID(ctx, tenantID, ns.ExaminerID); err != nil {
		return Setoran{}, errors.Wrap(err, "finding examiner")
	}

	now := time.Now().UTC()
	submittedAt := now
	if ns.SubmittedAt != nil {
		submittedAt = ns.SubmittedAt.UTC()
	}
	s := Setoran{
		TenantID:    tenantID,
		StudentID:   ns.StudentID,
		ExaminerID:  ns.ExaminerID,
		Surah:       ns.Surah,
		FromAyah:    ns.FromAyah,
		ToAyah:      ns.ToAyah,
		Juz:         ns.Juz,
		Kind:        ns.Kind,
		Grade:       ns.Grade,
		Notes:       ns.Notes,
		SubmittedAt: submittedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s, err := svc.repo.CreateSetoran(ctx, s)
	s.SurahName = SurahName(s.Surah)
	return s, errors.Wrap(err, "creating setoran")
}

func (svc *Service) Query(ctx context.Context, tenantID string, filter *QueryFilter, ordering ...core.DBOrdering) ([]Setoran, error) {
	res, err := svc.repo.QuerySetoran(ctx, tenantID, filter, ordering)
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].SurahName = SurahName(res[i].Surah)
	}
	return res, nil
}

func (svc *Service) GetByID(ctx context.Context, tenantID, id string) (Setoran, error) {
	s, err := svc.repo.GetSetoran(ctx, tenantID, id)
	s.SurahName = SurahName(s.Surah)
	return s, err
}

func (svc *Service) Update(ctx context.Context, tenantID, id string, us UpdateSetoran) (Setoran, error) {
	s, err := svc.repo.GetSetoran(ctx, tenantID, id)
	if err != nil {
		return Setoran{}, errors.Wrap(err, "finding setoran")
	}

	if us.ExaminerID != "" {
		if _, err = svc.examiners.GetByID(ctx, tenantID, us.ExaminerID); err != nil {
			return Setoran{}, errors.Wrap(err, "finding examiner")
		}
		s.ExaminerID = us.ExaminerID
	}
	if us.Grade != "" {
		s.Grade = us.Grade
	}
	if us.Notes != "" {
		s.Notes = us.Notes
	}
	s.UpdatedAt = time.Now().UTC()

	s, err = svc.repo.UpdateSetoran(ctx, s)
	s.SurahName = SurahName(s.Surah)
	return s, errors.Wrap(err, "updating setoran")
}

func (svc *Service) Delete(ctx context.Context, tenantID, id string) error {
	return errors.Wrap(svc.repo.DeleteSetoran(ctx, tenantID, id), "deleting setoran")
}

// StudentProgress aggregates a student's submissions. A surah counts as
// completed when the student's ziyadah ranges cover every ayah of it.
func (svc *Service) StudentProgress(ctx context.Context, tenantID, studentID string) (Progress, error) {
	if _, err := svc.students.GetByID(ctx, tenantID, studentID); err != nil {
		return Progress{}, errors.Wrap(err, "finding student")
	}

	rows, err := svc.repo.QuerySetoran(ctx, tenantID, &QueryFilter{StudentID: studentID}, nil)
	if err != nil {
		return Progress{}, errors.Wrap(err, "querying setoran")
	}

	p := Progress{
		StudentID: studentID,
		ByGrade:   make(map[Grade]int),
		ByKind:    make(map[Kind]int),
	}
	ranges := make(map[int][][2]int) // surah -> ziyadah [from, to] pairs
	juzSeen := make(map[int]bool)
	for _, s := range rows {
		p.TotalSetoran++
		p.ByGrade[s.Grade]++
		p.ByKind[s.Kind]++
		juzSeen[s.Juz] = true
		if s.Kind == KindZiyadah {
			ranges[s.Surah] = append(ranges[s.Surah], [2]int{s.FromAyah, s.ToAyah})
		}
	}

	for surah, rs := range ranges {
		if coversSurah(surah, rs) {
			p.SurahsCompleted = append(p.SurahsCompleted, surah)
		}
	}
	sort.Ints(p.SurahsCompleted)
	for juz := range juzSeen {
		p.JuzTouched = append(p.JuzTouched, juz)
	}
	sort.Ints(p.JuzTouched)
	return p, nil
}

// coversSurah reports whether the merged ranges span ayah 1..AyahCount(surah).
func coversSurah(surah int, ranges [][2]int) bool {
	count := AyahCount(surah)
	if count == 0 {
		return false
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })

	next := 1 // first uncovered ayah
	for _, r := range ranges {
		if r[0] > next {
			return false
		}
		if r[1] >= next {
			next = r[1] + 1
		}
		if next > count {
			return true
		}
	}
	return next > count
}
