package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tasmiapp/tasmi/core/student"
	"github.com/tasmiapp/tasmi/core/subscription"
	"github.com/tasmiapp/tasmi/core/user"
	testutil "github.com/tasmiapp/tasmi/tests"
)

func startTrial(t *testing.T, tenantID string) subscription.Subscription {
	t.Helper()
	sub, err := subSvc.StartTrial(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("StartTrial() failed: %v", err)
	}
	return sub
}

func TestStudentApi_create(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@tasmi.app", "pwd", user.AdminRoles, true)
	startTrial(t, tenant.ID)

	body := marchallObj(t, map[string]string{"name": "Ahmad Fulan", "gender": "male", "class": "1A"})

	// admins have no tenant scope
	req, rec := newAuthRequest(http.MethodPost, "/v1/students", getToken(t, admin), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("admin create: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/students", getToken(t, tenant), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var s student.Student
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("unmarshalling student: %v", err)
	}
	if s.TenantID != tenant.ID {
		t.Errorf("tenantID = %v; want %v", s.TenantID, tenant.ID)
	}
	if s.IsActive == nil || !*s.IsActive {
		t.Error("expected an active student")
	}

	// missing name
	req, rec = newAuthRequest(http.MethodPost, "/v1/students", getToken(t, tenant), marchallObj(t, map[string]string{"gender": "male"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}
}

func TestStudentApi_createDeniedAtPlanLimit(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	startTrial(t, tenant.ID)

	// shrink the trial plan so the second student exceeds it
	plans := subscription.DefaultPlans()
	for i := range plans {
		if plans[i].Tier == subscription.TierTrial {
			plans[i].MaxStudents = 1
		}
	}
	if err := subRepo.ReplacePlans(context.Background(), plans); err != nil {
		t.Fatalf("ReplacePlans() failed: %v", err)
	}

	token := getToken(t, tenant)
	body := marchallObj(t, map[string]string{"name": "Ahmad Fulan"})

	req, rec := newAuthRequest(http.MethodPost, "/v1/students", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}

	tt := httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "plan limit reached"}),
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/students", token, marchallObj(t, map[string]string{"name": "Fulanah"}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// deactivating a student frees the slot
	students, err := studentRepo.QueryStudents(context.Background(), tenant.ID, nil, nil)
	if err != nil || len(students) != 1 {
		t.Fatalf("QueryStudents() = %v, %v", students, err)
	}
	inactive := false
	req, rec = newAuthRequest(http.MethodPut, "/v1/students/"+students[0].ID, token, marchallObj(t, map[string]interface{}{"is_active": &inactive}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/students", token, marchallObj(t, map[string]string{"name": "Fulanah"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("create after freeing slot: code = %v; want %v", rec.Code, http.StatusCreated)
	}
}

func TestStudentApi_tenantScoping(t *testing.T) {
	app := setup(t)

	tenant1 := testutil.CreateUser(t, usrRepo, "Madrasah 1", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	tenant2 := testutil.CreateUser(t, usrRepo, "Madrasah 2", "madrasah2", "m2@madrasah.id", "pwd", user.TenantRoles, true)
	startTrial(t, tenant1.ID)
	startTrial(t, tenant2.ID)

	s := testutil.CreateStudent(t, studentRepo, tenant1.ID, "Ahmad Fulan")

	// another tenant cannot see it
	req, rec := newAuthRequest(http.MethodGet, "/v1/students/"+s.ID, getToken(t, tenant2))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-tenant get: code = %v; want %v", rec.Code, http.StatusNotFound)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/students/"+s.ID, getToken(t, tenant1))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("owner get: code = %v; want %v", rec.Code, http.StatusOK)
	}

	// listing is scoped too
	req, rec = newAuthRequest(http.MethodGet, "/v1/students", getToken(t, tenant2))
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}
	checkCodeAndData(t, tt, rec)
}
