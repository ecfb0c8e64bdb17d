package setoran

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/examiner"
	"github.com/tasmiapp/tasmi/core/student"
)

type fakeRepo struct {
	setoran map[string]Setoran
}

func (r *fakeRepo) CreateSetoran(ctx context.Context, s Setoran) (Setoran, error) {
	s.ID = uuid.New().String()
	r.setoran[s.ID] = s
	return s, nil
}

func (r *fakeRepo) QuerySetoran(ctx context.Context, tenantID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Setoran, error) {
	var res []Setoran
	for _, s := range r.setoran {
		if s.TenantID != tenantID {
			continue
		}
		if filter != nil {
			if filter.StudentID != "" && s.StudentID != filter.StudentID {
				continue
			}
			if filter.ExaminerID != "" && s.ExaminerID != filter.ExaminerID {
				continue
			}
			if filter.Surah != 0 && s.Surah != filter.Surah {
				continue
			}
			if filter.Juz != 0 && s.Juz != filter.Juz {
				continue
			}
			if filter.Kind != "" && s.Kind != filter.Kind {
				continue
			}
		}
		res = append(res, s)
	}
	return res, nil
}

func (r *fakeRepo) GetSetoran(ctx context.Context, tenantID, id string) (Setoran, error) {
	s, ok := r.setoran[id]
	if !ok || s.TenantID != tenantID {
		return Setoran{}, ErrNotFound
	}
	return s, nil
}

func (r *fakeRepo) UpdateSetoran(ctx context.Context, s Setoran) (Setoran, error) {
	r.setoran[s.ID] = s
	return s, nil
}

func (r *fakeRepo) DeleteSetoran(ctx context.Context, tenantID, id string) error {
	delete(r.setoran, id)
	return nil
}

type fakeStudents map[string]string // ID -> tenant ID

func (f fakeStudents) GetByID(ctx context.Context, tenantID, id string) (student.Student, error) {
	if f[id] != tenantID {
		return student.Student{}, student.ErrNotFound
	}
	return student.Student{ID: id, TenantID: tenantID}, nil
}

type fakeExaminers map[string]string

func (f fakeExaminers) GetByID(ctx context.Context, tenantID, id string) (examiner.Examiner, error) {
	if f[id] != tenantID {
		return examiner.Examiner{}, examiner.ErrNotFound
	}
	return examiner.Examiner{ID: id, TenantID: tenantID}, nil
}

func newTestService() (*Service, *fakeRepo) {
	repo := &fakeRepo{setoran: make(map[string]Setoran)}
	svc := NewService(
		repo,
		fakeStudents{"student-1": "tenant-1"},
		fakeExaminers{"examiner-1": "tenant-1"},
	)
	return svc, repo
}

func validNew() NewSetoran {
	return NewSetoran{
		StudentID:  "student-1",
		ExaminerID: "examiner-1",
		Surah:      78, // An-Naba, 40 ayahs
		FromAyah:   1,
		ToAyah:     20,
		Juz:        30,
		Kind:       KindZiyadah,
		Grade:      GradeMumtaz,
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name              string
		surah, from, to   int
		wantErr           bool
	}{
		{"full Al-Fatihah", 1, 1, 7, false},
		{"single ayah", 2, 255, 255, false},
		{"last ayah of An-Nas", 114, 6, 6, false},
		{"surah zero", 0, 1, 1, true},
		{"surah 115", 115, 1, 1, true},
		{"from zero", 1, 0, 7, true},
		{"to beyond surah", 1, 1, 8, true},
		{"inverted range", 1, 5, 3, true},
		{"from beyond surah", 108, 4, 4, true}, // Al-Kausar has 3 ayahs
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange(tt.surah, tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.IsType(t, &core.ValidationError{}, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAyahCounts(t *testing.T) {
	assert.Equal(t, 7, AyahCount(1))
	assert.Equal(t, 286, AyahCount(2))
	assert.Equal(t, 6, AyahCount(114))
	assert.Equal(t, 0, AyahCount(0))
	assert.Equal(t, 0, AyahCount(115))
	assert.Equal(t, "Al-Baqarah", SurahName(2))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		svc, _ := newTestService()
		s, err := svc.Create(ctx, "tenant-1", validNew())
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "An-Naba", s.SurahName)
		assert.False(t, s.SubmittedAt.IsZero())
	})

	t.Run("bad range", func(t *testing.T) {
		svc, repo := newTestService()
		ns := validNew()
		ns.ToAyah = 41
		_, err := svc.Create(ctx, "tenant-1", ns)
		require.Error(t, err)
		assert.Empty(t, repo.setoran)
	})

	t.Run("foreign student", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Create(ctx, "tenant-2", validNew())
		require.Error(t, err)
	})
}

func TestStudentProgress(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	submit := func(surah, from, to, juz int, kind Kind, grade Grade) {
		t.Helper()
		ns := validNew()
		ns.Surah, ns.FromAyah, ns.ToAyah, ns.Juz, ns.Kind, ns.Grade = surah, from, to, juz, kind, grade
		_, err := svc.Create(ctx, "tenant-1", ns)
		require.NoError(t, err)
	}

	// An-Naba covered in two overlapping chunks, Al-Fatihah in one,
	// An-Nas only partially, plus a murajaah pass over An-Naba.
	submit(78, 1, 25, 30, KindZiyadah, GradeJayyid)
	submit(78, 20, 40, 30, KindZiyadah, GradeMumtaz)
	submit(1, 1, 7, 1, KindZiyadah, GradeMumtaz)
	submit(114, 1, 3, 30, KindZiyadah, GradeMaqbul)
	submit(78, 1, 40, 30, KindMurajaah, GradeJayyidJiddan)

	p, err := svc.StudentProgress(ctx, "tenant-1", "student-1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.TotalSetoran)
	assert.Equal(t, []int{1, 78}, p.SurahsCompleted)
	assert.Equal(t, []int{1, 30}, p.JuzTouched)
	assert.Equal(t, map[Grade]int{GradeMumtaz: 2, GradeJayyid: 1, GradeMaqbul: 1, GradeJayyidJiddan: 1}, p.ByGrade)
	assert.Equal(t, map[Kind]int{KindZiyadah: 4, KindMurajaah: 1}, p.ByKind)
}

func TestCoversSurah(t *testing.T) {
	tests := []struct {
		name   string
		surah  int
		ranges [][2]int
		want   bool
	}{
		{"exact", 1, [][2]int{{1, 7}}, true},
		{"two halves", 1, [][2]int{{1, 4}, {5, 7}}, true},
		{"overlap", 1, [][2]int{{1, 5}, {3, 7}}, true},
		{"gap", 1, [][2]int{{1, 3}, {5, 7}}, false},
		{"missing tail", 1, [][2]int{{1, 6}}, false},
		{"missing head", 1, [][2]int{{2, 7}}, false},
		{"none", 1, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coversSurah(tt.surah, tt.ranges))
		})
	}
}
