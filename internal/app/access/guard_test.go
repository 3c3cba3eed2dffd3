package access

import (
	"errors"
	"testing"
	"time"

	"github.com/timecard-io/timecard/internal/domain"
	"github.com/timecard-io/timecard/internal/infra/sqlite"
)

var base = time.Unix(1700000000, 0).UTC()

func newTestGuard(t *testing.T) (*Guard, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewGuard(db), db
}

func addUser(t *testing.T, db *sqlite.DB, name string, operator bool) *domain.User {
	t.Helper()
	u := domain.User{ID: "user-" + name, Name: name, CreatedAt: base}
	if operator {
		u.OperatorID = "emp-" + name
	}
	if err := db.InsertUser(u); err != nil {
		t.Fatal(err)
	}
	return &u
}

func addProject(t *testing.T, db *sqlite.DB, id, createdBy string) {
	t.Helper()
	p := domain.Project{ID: id, Name: id, CreatedBy: createdBy, CreatedAt: base}
	if err := db.InsertProject(p); err != nil {
		t.Fatal(err)
	}
}

func addStage(t *testing.T, db *sqlite.DB, id, createdBy string, projectIDs ...string) {
	t.Helper()
	s := domain.Stage{ID: id, Name: id, CreatedBy: createdBy, CreatedAt: base}
	if err := db.InsertStage(s, projectIDs); err != nil {
		t.Fatal(err)
	}
}

func addTask(t *testing.T, db *sqlite.DB, id, projectID, stageID, createdBy string) {
	t.Helper()
	tk := domain.Task{ID: id, Name: id, ProjectID: projectID, StageID: stageID, CreatedBy: createdBy, CreatedAt: base}
	if err := db.InsertTask(tk); err != nil {
		t.Fatal(err)
	}
}

func wantDenied(t *testing.T, err error, reason domain.DenyReason) {
	t.Helper()
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("error = %v, want permission denied", err)
	}
	var denied *domain.PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error %v is not a PermissionDeniedError", err)
	}
	if denied.Reason != reason {
		t.Errorf("deny reason = %s, want %s", denied.Reason, reason)
	}
}

func TestCheckRequiresOperator(t *testing.T) {
	g, db := newTestGuard(t)
	plain := addUser(t, db, "plain", false)
	operator := addUser(t, db, "op", true)
	addProject(t, db, "p1", plain.ID)

	// Even the owner is rejected without an operator link.
	wantDenied(t, g.Check(plain, ProjectRef("p1")), domain.NotAnOperator)

	// And rejected with no targets at all.
	wantDenied(t, g.Check(plain), domain.NotAnOperator)

	if err := g.Check(operator); err != nil {
		t.Errorf("operator with no targets: %v", err)
	}
}

func TestCheckSingleTargetSkipsOwnership(t *testing.T) {
	g, db := newTestGuard(t)
	alice := addUser(t, db, "alice", true)
	bob := addUser(t, db, "bob", true)
	addProject(t, db, "p1", alice.ID)

	// A single-target check verifies only the operator link, so bob can
	// pass a check on alice's project. Callers rely on this.
	if err := g.Check(bob, ProjectRef("p1")); err != nil {
		t.Errorf("single project target: %v", err)
	}
}

func TestCheckMultiTargetEnforcesOwnership(t *testing.T) {
	g, db := newTestGuard(t)
	alice := addUser(t, db, "alice", true)
	bob := addUser(t, db, "bob", true)
	addProject(t, db, "p1", alice.ID)
	addProject(t, db, "p2", alice.ID)
	addProject(t, db, "p3", bob.ID)

	if err := g.Check(alice, ProjectRef("p1"), ProjectRef("p2")); err != nil {
		t.Errorf("owner batch check: %v", err)
	}

	wantDenied(t, g.Check(alice, ProjectRef("p1"), ProjectRef("p3")), domain.NotOwner)
}

func TestCheckMissingTargetPasses(t *testing.T) {
	g, db := newTestGuard(t)
	alice := addUser(t, db, "alice", true)
	addProject(t, db, "p1", alice.ID)

	// A vanished target does not fail the batch.
	if err := g.Check(alice, ProjectRef("p1"), ProjectRef("gone")); err != nil {
		t.Errorf("batch with missing target: %v", err)
	}
	if err := g.Check(alice, ProjectRef("gone"), ProjectRef("also-gone")); err != nil {
		t.Errorf("batch of only missing targets: %v", err)
	}
}

func TestCheckTaskDelegatesToProject(t *testing.T) {
	g, db := newTestGuard(t)
	alice := addUser(t, db, "alice", true)
	bob := addUser(t, db, "bob", true)
	addProject(t, db, "p-alice", alice.ID)
	addStage(t, db, "s1", alice.ID, "p-alice")
	// Bob created tasks in alice's project.
	addTask(t, db, "t1", "p-alice", "s1", bob.ID)
	addTask(t, db, "t2", "p-alice", "s1", bob.ID)

	// Bob owns both tasks but not the project they delegate to.
	wantDenied(t, g.Check(bob, TaskRef("t1"), TaskRef("t2")), domain.NotOwner)

	// A single task ref skips task-level ownership but still delegates to
	// its project, where the single-project check also skips ownership.
	if err := g.Check(bob, TaskRef("t1")); err != nil {
		t.Errorf("single task target: %v", err)
	}

	// Alice fails the task-level ownership test on bob's tasks.
	wantDenied(t, g.Check(alice, TaskRef("t1"), TaskRef("t2")), domain.NotOwner)
}

func TestCheckStageDelegatesToProjectUnion(t *testing.T) {
	g, db := newTestGuard(t)
	alice := addUser(t, db, "alice", true)
	bob := addUser(t, db, "bob", true)
	addProject(t, db, "p1", alice.ID)
	addProject(t, db, "p2", bob.ID)
	addStage(t, db, "s-both", alice.ID, "p1", "p2")
	addStage(t, db, "s-mine", alice.ID, "p1")

	// Two stage targets force ownership checks on the union of their
	// projects; p2 belongs to bob, so alice is denied.
	wantDenied(t, g.Check(alice, StageRef("s-both"), StageRef("s-mine")), domain.NotOwner)

	// A stage linked only to alice's projects passes.
	addStage(t, db, "s-other", alice.ID, "p1")
	if err := g.Check(alice, StageRef("s-mine"), StageRef("s-other")); err != nil {
		t.Errorf("stages over owned projects: %v", err)
	}

	// A single stage ref delegates to its projects: s-both expands to two
	// projects, so ownership is enforced there and alice is denied.
	wantDenied(t, g.Check(alice, StageRef("s-both")), domain.NotOwner)
}

func TestCheckMixedKindsShareProjectSet(t *testing.T) {
	g, db := newTestGuard(t)
	alice := addUser(t, db, "alice", true)
	addProject(t, db, "p1", alice.ID)
	addStage(t, db, "s1", alice.ID, "p1")
	addTask(t, db, "t1", "p1", "s1", alice.ID)

	// Task and stage both resolve to p1; the project set is deduplicated
	// down to one ref, which skips the ownership pass.
	bob := addUser(t, db, "bob", true)
	if err := g.Check(bob, TaskRef("t1")); err != nil {
		t.Errorf("task delegating to single project: %v", err)
	}
	if err := g.Check(alice, TaskRef("t1"), StageRef("s1")); err != nil {
		t.Errorf("mixed refs over owned graph: %v", err)
	}
}
