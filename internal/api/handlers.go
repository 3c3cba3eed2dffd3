package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/timecard-io/timecard/internal/app/records"
)

// pageFrom reads limit/offset/order query parameters.
func pageFrom(r *http.Request) records.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return records.Page{Limit: limit, Offset: offset, Order: q.Get("order")}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// ─── Users ──────────────────────────────────────────────────────────────────

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Operator bool   `json:"operator"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.facade.CreateUser(req.Name, req.Operator)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.facade.GetUser(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ─── Projects ───────────────────────────────────────────────────────────────

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.facade.CreateProject(actorFrom(r), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleSearchProjects(w http.ResponseWriter, r *http.Request) {
	recs, err := s.facade.SearchProjects(actorFrom(r), pageFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": recs})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	rec, err := s.facade.GetProject(actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.facade.UpdateProject(actorFrom(r), chi.URLParam(r, "id"), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.DeleteProject(actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ─── Stages ─────────────────────────────────────────────────────────────────

func (s *Server) handleCreateStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string   `json:"name"`
		ProjectIDs []string `json:"project_ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.facade.CreateStage(actorFrom(r), req.Name, req.ProjectIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleSearchStages(w http.ResponseWriter, r *http.Request) {
	projectIDs := r.URL.Query()["project"]
	recs, err := s.facade.SearchStages(actorFrom(r), projectIDs, pageFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": recs})
}

func (s *Server) handleGetStage(w http.ResponseWriter, r *http.Request) {
	rec, err := s.facade.GetStage(actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.facade.UpdateStage(actorFrom(r), chi.URLParam(r, "id"), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.DeleteStage(actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		ProjectID string `json:"project_id"`
		StageID   string `json:"stage_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.facade.CreateTask(actorFrom(r), req.Name, req.ProjectID, req.StageID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleSearchTasks(w http.ResponseWriter, r *http.Request) {
	recs, err := s.facade.SearchTasks(actorFrom(r), r.URL.Query().Get("project"), pageFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": recs})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	rec, err := s.facade.GetTask(actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		StageID string `json:"stage_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.facade.UpdateTask(actorFrom(r), chi.URLParam(r, "id"), req.Name, req.StageID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.DeleteTask(actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	rec, err := s.facade.StartTimer(actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	rec, err := s.facade.StopTimer(actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ─── Time Entries ───────────────────────────────────────────────────────────

func (s *Server) handleSearchEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	recs, err := s.facade.SearchEntries(actorFrom(r), q.Get("task"), q.Get("project"), pageFrom(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": recs})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	rec, err := s.facade.GetEntry(actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.facade.DeleteEntry(actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
