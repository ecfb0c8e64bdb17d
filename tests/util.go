package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/tasmiapp/tasmi/core/examiner"
	"github.com/tasmiapp/tasmi/core/student"
	"github.com/tasmiapp/tasmi/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo student.Repository, tenantID, name string) student.Student {
	t.Helper()

	now := time.Now().UTC()
	active := true
	s, err := repo.CreateStudent(context.Background(), student.Student{
		TenantID:  tenantID,
		Name:      name,
		IsActive:  &active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

func CreateExaminer(t *testing.T, repo examiner.Repository, tenantID, name string) examiner.Examiner {
	t.Helper()

	now := time.Now().UTC()
	active := true
	e, err := repo.CreateExaminer(context.Background(), examiner.Examiner{
		TenantID:  tenantID,
		Name:      name,
		IsActive:  &active,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateExaminer() failed: %v", err)
	}
	return e
}
