package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/timecard-io/timecard/internal/app/access"
	"github.com/timecard-io/timecard/internal/app/aggregate"
	"github.com/timecard-io/timecard/internal/app/ledger"
	"github.com/timecard-io/timecard/internal/app/records"
	"github.com/timecard-io/timecard/internal/infra/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	guard := access.NewGuard(db)
	facade := records.NewFacade(db, guard, ledger.New(db, guard), aggregate.NewService(db))
	srv := httptest.NewServer(NewServer(facade).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// do sends a JSON request and decodes the response body into out when
// out is non-nil. It returns the status code.
func do(t *testing.T, srv *httptest.Server, method, path, userID string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// createUser registers an account and returns its id.
func createUser(t *testing.T, srv *httptest.Server, name string, operator bool) string {
	t.Helper()
	var u struct {
		ID string `json:"id"`
	}
	status := do(t, srv, "POST", "/api/v1/users", "", map[string]any{
		"name": name, "operator": operator,
	}, &u)
	if status != http.StatusCreated {
		t.Fatalf("create user status = %d", status)
	}
	return u.ID
}

type idRecord struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	State          string `json:"state"`
	Duration       int64  `json:"duration"`
	Display        string `json:"duration_display"`
	RunningEntryID string `json:"running_entry_id"`
}

// createBoard sets up a project, stage, and task for the user and
// returns their ids.
func createBoard(t *testing.T, srv *httptest.Server, userID string) (projectID, stageID, taskID string) {
	t.Helper()
	var p, s, task idRecord
	if status := do(t, srv, "POST", "/api/v1/projects", userID, map[string]any{"name": "Website"}, &p); status != http.StatusCreated {
		t.Fatalf("create project status = %d", status)
	}
	if status := do(t, srv, "POST", "/api/v1/stages", userID, map[string]any{
		"name": "Doing", "project_ids": []string{p.ID},
	}, &s); status != http.StatusCreated {
		t.Fatalf("create stage status = %d", status)
	}
	if status := do(t, srv, "POST", "/api/v1/tasks", userID, map[string]any{
		"name": "Build", "project_id": p.ID, "stage_id": s.ID,
	}, &task); status != http.StatusCreated {
		t.Fatalf("create task status = %d", status)
	}
	return p.ID, s.ID, task.ID
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]string
	if status := do(t, srv, "GET", "/health", "", nil, &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	if status := do(t, srv, "GET", "/api/v1/projects", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no header status = %d, want 401", status)
	}
	if status := do(t, srv, "GET", "/api/v1/projects", "ghost", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want 401", status)
	}

	// User registration itself needs no actor.
	if status := do(t, srv, "POST", "/api/v1/users", "", map[string]any{"name": "alice"}, nil); status != http.StatusCreated {
		t.Errorf("register status = %d, want 201", status)
	}
}

func TestProjectEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice", true)

	var created idRecord
	if status := do(t, srv, "POST", "/api/v1/projects", alice, map[string]any{"name": "Website"}, &created); status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if created.Display != "0s" {
		t.Errorf("fresh duration display = %q, want 0s", created.Display)
	}

	if status := do(t, srv, "POST", "/api/v1/projects", alice, map[string]any{"name": ""}, nil); status != http.StatusBadRequest {
		t.Errorf("empty name status = %d, want 400", status)
	}

	var list struct {
		Items []idRecord `json:"items"`
	}
	if status := do(t, srv, "GET", "/api/v1/projects", alice, nil, &list); status != http.StatusOK {
		t.Fatalf("search status = %d", status)
	}
	if len(list.Items) != 1 || list.Items[0].ID != created.ID {
		t.Fatalf("items = %+v", list.Items)
	}

	if status := do(t, srv, "GET", "/api/v1/projects?order=duration", alice, nil, nil); status != http.StatusBadRequest {
		t.Errorf("bad order status = %d, want 400", status)
	}

	if status := do(t, srv, "PATCH", "/api/v1/projects/"+created.ID, alice, map[string]any{"name": "Site"}, nil); status != http.StatusOK {
		t.Errorf("update status = %d", status)
	}
	var got idRecord
	do(t, srv, "GET", "/api/v1/projects/"+created.ID, alice, nil, &got)
	if got.Name != "Site" {
		t.Errorf("name after update = %q", got.Name)
	}

	if status := do(t, srv, "DELETE", "/api/v1/projects/"+created.ID, alice, nil, nil); status != http.StatusOK {
		t.Errorf("delete status = %d", status)
	}
	if status := do(t, srv, "GET", "/api/v1/projects/"+created.ID, alice, nil, nil); status != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestPermissionStatuses(t *testing.T) {
	srv := newTestServer(t)
	plain := createUser(t, srv, "bob", false)

	// A non-operator account resolves but cannot create projects.
	if status := do(t, srv, "POST", "/api/v1/projects", plain, map[string]any{"name": "X"}, nil); status != http.StatusForbidden {
		t.Errorf("non-operator create status = %d, want 403", status)
	}
	if status := do(t, srv, "GET", "/api/v1/entries", plain, nil, nil); status != http.StatusForbidden {
		t.Errorf("non-operator entries status = %d, want 403", status)
	}
}

func TestStageEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice", true)
	projectID, stageID, _ := createBoard(t, srv, alice)

	// The project filter is required.
	if status := do(t, srv, "GET", "/api/v1/stages", alice, nil, nil); status != http.StatusBadRequest {
		t.Errorf("unfiltered search status = %d, want 400", status)
	}

	var list struct {
		Items []idRecord `json:"items"`
	}
	if status := do(t, srv, "GET", "/api/v1/stages?project="+projectID, alice, nil, &list); status != http.StatusOK {
		t.Fatalf("search status = %d", status)
	}
	if len(list.Items) != 1 || list.Items[0].ID != stageID {
		t.Fatalf("items = %+v", list.Items)
	}

	if status := do(t, srv, "POST", "/api/v1/stages", alice, map[string]any{
		"name": "Orphan", "project_ids": []string{"ghost"},
	}, nil); status != http.StatusBadRequest {
		t.Errorf("unknown project status = %d, want 400", status)
	}
}

func TestTimerEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice", true)
	_, _, taskID := createBoard(t, srv, alice)

	var started idRecord
	if status := do(t, srv, "POST", "/api/v1/tasks/"+taskID+"/timer/start", alice, nil, &started); status != http.StatusCreated {
		t.Fatalf("start status = %d", status)
	}
	if started.State != "RUNNING" {
		t.Errorf("state = %q, want RUNNING", started.State)
	}

	// Double start conflicts.
	if status := do(t, srv, "POST", "/api/v1/tasks/"+taskID+"/timer/start", alice, nil, nil); status != http.StatusConflict {
		t.Errorf("double start status = %d, want 409", status)
	}

	// The task projection carries the running entry id.
	var task idRecord
	do(t, srv, "GET", "/api/v1/tasks/"+taskID, alice, nil, &task)
	if task.RunningEntryID != started.ID {
		t.Errorf("running_entry_id = %q, want %q", task.RunningEntryID, started.ID)
	}

	var stopped idRecord
	if status := do(t, srv, "POST", "/api/v1/tasks/"+taskID+"/timer/stop", alice, nil, &stopped); status != http.StatusOK {
		t.Fatalf("stop status = %d", status)
	}
	if stopped.State != "STOPPED" {
		t.Errorf("state = %q, want STOPPED", stopped.State)
	}

	// Stop without a running timer conflicts.
	if status := do(t, srv, "POST", "/api/v1/tasks/"+taskID+"/timer/stop", alice, nil, nil); status != http.StatusConflict {
		t.Errorf("second stop status = %d, want 409", status)
	}

	// Starting on a missing task is a 404.
	if status := do(t, srv, "POST", "/api/v1/tasks/ghost/timer/start", alice, nil, nil); status != http.StatusNotFound {
		t.Errorf("start on missing task status = %d, want 404", status)
	}
}

func TestEntryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice", true)
	projectID, _, taskID := createBoard(t, srv, alice)

	var started idRecord
	do(t, srv, "POST", "/api/v1/tasks/"+taskID+"/timer/start", alice, nil, &started)
	do(t, srv, "POST", "/api/v1/tasks/"+taskID+"/timer/stop", alice, nil, nil)

	var list struct {
		Items []idRecord `json:"items"`
	}
	if status := do(t, srv, "GET", "/api/v1/entries?task="+taskID, alice, nil, &list); status != http.StatusOK {
		t.Fatalf("search status = %d", status)
	}
	if len(list.Items) != 1 || list.Items[0].ID != started.ID {
		t.Fatalf("items = %+v", list.Items)
	}
	if status := do(t, srv, "GET", "/api/v1/entries?project="+projectID, alice, nil, &list); status != http.StatusOK || len(list.Items) != 1 {
		t.Fatalf("project search status = %d items = %+v", status, list.Items)
	}

	if status := do(t, srv, "GET", "/api/v1/entries/"+started.ID, alice, nil, nil); status != http.StatusOK {
		t.Errorf("get status = %d", status)
	}
	if status := do(t, srv, "DELETE", "/api/v1/entries/"+started.ID, alice, nil, nil); status != http.StatusOK {
		t.Errorf("delete status = %d", status)
	}
	if status := do(t, srv, "GET", "/api/v1/entries/"+started.ID, alice, nil, nil); status != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)
	alice := createUser(t, srv, "alice", true)

	req, _ := http.NewRequest("POST", srv.URL+"/api/v1/projects", bytes.NewBufferString("{not json"))
	req.Header.Set("X-User-ID", alice)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
