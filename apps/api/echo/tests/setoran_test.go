package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tasmiapp/tasmi/core/setoran"
	"github.com/tasmiapp/tasmi/core/user"
	testutil "github.com/tasmiapp/tasmi/tests"
)

func TestSetoranApi_create(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	other := testutil.CreateUser(t, usrRepo, "Madrasah 2", "madrasah2", "m2@madrasah.id", "pwd", user.TenantRoles, true)
	startTrial(t, tenant.ID)
	startTrial(t, other.ID)

	santri := testutil.CreateStudent(t, studentRepo, tenant.ID, "Ahmad Fulan")
	ustadz := testutil.CreateExaminer(t, examinerRepo, tenant.ID, "Ustadz Hasan")
	foreign := testutil.CreateStudent(t, studentRepo, other.ID, "Foreign Santri")

	token := getToken(t, tenant)

	newBody := func(studentID string, surah, from, to int) []byte {
		return marchallObj(t, map[string]interface{}{
			"student_id":  studentID,
			"examiner_id": ustadz.ID,
			"surah":       surah,
			"from_ayah":   from,
			"to_ayah":     to,
			"juz":         30,
			"kind":        "ziyadah",
			"grade":       "jayyid",
		})
	}

	// An-Naba has 40 ayat
	req, rec := newAuthRequest(http.MethodPost, "/v1/setoran", token, newBody(santri.ID, 78, 1, 40))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var s setoran.Setoran
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("unmarshalling setoran: %v", err)
	}
	if s.SurahName != "An-Naba" {
		t.Errorf("surah name = %q; want %q", s.SurahName, "An-Naba")
	}

	// range beyond the surah is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/setoran", token, newBody(santri.ID, 78, 1, 41))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad range: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// another tenant's student is invisible
	req, rec = newAuthRequest(http.MethodPost, "/v1/setoran", token, newBody(foreign.ID, 78, 1, 40))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign student: code = %v; want %v", rec.Code, http.StatusNotFound)
	}
}

func TestSetoranApi_studentProgress(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	startTrial(t, tenant.ID)

	santri := testutil.CreateStudent(t, studentRepo, tenant.ID, "Ahmad Fulan")
	ustadz := testutil.CreateExaminer(t, examinerRepo, tenant.ID, "Ustadz Hasan")

	token := getToken(t, tenant)

	submit := func(surah, from, to int, kind string) {
		t.Helper()
		body := marchallObj(t, map[string]interface{}{
			"student_id":  santri.ID,
			"examiner_id": ustadz.ID,
			"surah":       surah,
			"from_ayah":   from,
			"to_ayah":     to,
			"juz":         30,
			"kind":        kind,
			"grade":       "mumtaz",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/setoran", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit failed! code = %v, body = %s", rec.Code, rec.Body.String())
		}
	}

	// An-Naba (40 ayat) in two overlapping chunks; An-Nas left incomplete
	submit(78, 1, 25, "ziyadah")
	submit(78, 20, 40, "ziyadah")
	submit(114, 1, 3, "ziyadah")
	submit(78, 1, 40, "murajaah")

	req, rec := newAuthRequest(http.MethodGet, "/v1/setoran/progress/"+santri.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var p setoran.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshalling progress: %v", err)
	}
	if p.TotalSetoran != 4 {
		t.Errorf("total = %d; want 4", p.TotalSetoran)
	}
	if len(p.SurahsCompleted) != 1 || p.SurahsCompleted[0] != 78 {
		t.Errorf("surahs completed = %v; want [78]", p.SurahsCompleted)
	}
	if p.ByKind[setoran.KindMurajaah] != 1 {
		t.Errorf("murajaah count = %d; want 1", p.ByKind[setoran.KindMurajaah])
	}

	// unknown student
	req, rec = newAuthRequest(http.MethodGet, "/v1/setoran/progress/lol", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown student: code = %v; want %v", rec.Code, http.StatusNotFound)
	}
}
