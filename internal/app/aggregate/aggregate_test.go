package aggregate

import (
	"testing"
	"time"

	"github.com/timecard-io/timecard/internal/domain"
	"github.com/timecard-io/timecard/internal/infra/sqlite"
)

var base = time.Unix(1700000000, 0).UTC()

func entryWithDuration(id string, start time.Time, secs int64) domain.TimeEntry {
	end := start.Add(time.Duration(secs) * time.Second)
	return domain.TimeEntry{
		ID: id, TaskID: "t1", ProjectID: "p1",
		StartTime: start, EndTime: &end, CreatedAt: start,
	}
}

func TestTotalDuration(t *testing.T) {
	entries := []domain.TimeEntry{
		entryWithDuration("e1", base, 100),
		entryWithDuration("e2", base.Add(time.Hour), 50),
	}
	if got := TotalDuration(entries); got != 150 {
		t.Errorf("TotalDuration = %d, want 150", got)
	}

	if got := TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %d, want 0", got)
	}
}

func TestTotalDurationIgnoresRunning(t *testing.T) {
	running := domain.TimeEntry{ID: "e1", TaskID: "t1", StartTime: base, CreatedAt: base}
	entries := []domain.TimeEntry{running, entryWithDuration("e2", base, 30)}
	if got := TotalDuration(entries); got != 30 {
		t.Errorf("TotalDuration = %d, want 30 (running entry contributes 0)", got)
	}
}

func TestServiceTotals(t *testing.T) {
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u := domain.User{ID: "user-alice", Name: "alice", OperatorID: "emp-alice", CreatedAt: base}
	if err := db.InsertUser(u); err != nil {
		t.Fatal(err)
	}
	p := domain.Project{ID: "p1", Name: "P1", CreatedBy: u.ID, CreatedAt: base}
	if err := db.InsertProject(p); err != nil {
		t.Fatal(err)
	}
	s := domain.Stage{ID: "s1", Name: "Todo", CreatedBy: u.ID, CreatedAt: base}
	if err := db.InsertStage(s, []string{p.ID}); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"t1", "t2"} {
		task := domain.Task{ID: id, Name: id, ProjectID: p.ID, StageID: s.ID, CreatedBy: u.ID, CreatedAt: base}
		if err := db.InsertTask(task); err != nil {
			t.Fatal(err)
		}
	}

	record := func(id, taskID string, start time.Time, secs int64) {
		t.Helper()
		e := domain.TimeEntry{
			ID: id, TaskID: taskID, ProjectID: p.ID,
			EmployeeID: u.OperatorID, CreatedBy: u.ID,
			StartTime: start, CreatedAt: start,
		}
		if err := db.StartEntry(e); err != nil {
			t.Fatal(err)
		}
		if _, err := db.StopEntry(u.ID, taskID, start.Add(time.Duration(secs)*time.Second)); err != nil {
			t.Fatal(err)
		}
	}

	record("e1", "t1", base, 3600)
	record("e2", "t1", base.Add(2*time.Hour), 61)
	record("e3", "t2", base.Add(4*time.Hour), 39)

	svc := NewService(db)

	taskTotal, err := svc.TaskTotal("t1")
	if err != nil {
		t.Fatalf("TaskTotal() error: %v", err)
	}
	if taskTotal.Seconds != 3661 {
		t.Errorf("task seconds = %d, want 3661", taskTotal.Seconds)
	}
	if taskTotal.Display != "1h 1m" {
		t.Errorf("task display = %q, want 1h 1m", taskTotal.Display)
	}

	projTotal, err := svc.ProjectTotal("p1")
	if err != nil {
		t.Fatalf("ProjectTotal() error: %v", err)
	}
	if projTotal.Seconds != 3700 {
		t.Errorf("project seconds = %d, want 3700", projTotal.Seconds)
	}

	// Empty totals render the zero display.
	empty, err := svc.TaskTotal("no-such-task")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Seconds != 0 || empty.Display != "0s" {
		t.Errorf("empty total = %+v, want 0s", empty)
	}

	// Deleting an entry changes the rollup on the next read.
	if err := db.DeleteEntry("e2"); err != nil {
		t.Fatal(err)
	}
	taskTotal, _ = svc.TaskTotal("t1")
	if taskTotal.Seconds != 3600 {
		t.Errorf("task seconds after delete = %d, want 3600", taskTotal.Seconds)
	}
}
