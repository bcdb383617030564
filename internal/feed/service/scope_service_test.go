package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-feed/internal/feed/repository"
	"github.com/bitfantasy/nimo-feed/internal/feed/testutil"
)

func setupScopeTest(t *testing.T) (*ScopeService, *testutil.TestEnv) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	testutil.SeedUser(t, db, 1, "Alice")
	testutil.SeedUser(t, db, 2, "Bob")
	testutil.SeedProject(t, db, 100, "apollo", "Apollo", 1, 1)
	testutil.SeedProject(t, db, 200, "borealis", "Borealis", 1, 1, 2)

	svc := NewScopeService(repos.Project, nil, time.Minute)
	return svc, &testutil.TestEnv{DB: db, T: t}
}

func TestScopeResolveAllProjects(t *testing.T) {
	svc, _ := setupScopeTest(t)

	scope, err := svc.Resolve(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if scope.Project != nil {
		t.Error("Expected no single-project constraint")
	}
	if len(scope.ProjectIDs) != 2 {
		t.Fatalf("Expected 2 project ids, got %v", scope.ProjectIDs)
	}
	if !scope.Contains(100) || !scope.Contains(200) {
		t.Errorf("Expected scope to contain 100 and 200, got %v", scope.ProjectIDs)
	}
}

func TestScopeResolveNoMemberships(t *testing.T) {
	svc, env := setupScopeTest(t)
	testutil.SeedUser(t, env.DB, 3, "Carol")

	// 没有任何项目不是错误，范围为空
	scope, err := svc.Resolve(context.Background(), 3, "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(scope.ProjectIDs) != 0 {
		t.Errorf("Expected empty scope, got %v", scope.ProjectIDs)
	}
}

func TestScopeResolveConstraintByPermalink(t *testing.T) {
	svc, _ := setupScopeTest(t)

	scope, err := svc.Resolve(context.Background(), 2, "borealis")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if scope.Project == nil || scope.Project.ID != 200 {
		t.Fatalf("Expected project 200, got %+v", scope.Project)
	}
	if len(scope.ProjectIDs) != 1 || scope.ProjectIDs[0] != 200 {
		t.Errorf("Expected scope [200], got %v", scope.ProjectIDs)
	}
}

func TestScopeResolveConstraintByID(t *testing.T) {
	svc, _ := setupScopeTest(t)

	scope, err := svc.Resolve(context.Background(), 1, "100")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if scope.Project == nil || scope.Project.Permalink != "apollo" {
		t.Fatalf("Expected apollo, got %+v", scope.Project)
	}
}

func TestScopeResolveConstraintNotMember(t *testing.T) {
	svc, _ := setupScopeTest(t)

	// 非成员与项目不存在同样报 NotFound，不泄露存在性
	if _, err := svc.Resolve(context.Background(), 2, "apollo"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for non-member, got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), 1, "no-such-project"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown project, got %v", err)
	}
}
