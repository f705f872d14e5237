package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"

	"github.com/go-chi/chi/v5"

	"github.com/renato0307/forge/internal/domain"
	"github.com/renato0307/forge/internal/supervisor"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Server) handleWorkspaceOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decode(w, r, &req) {
		return
	}

	info, err := s.sup.OpenWorkspace(r.Context(), req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleWorkspaceList(w http.ResponseWriter, r *http.Request) {
	workspaces, err := s.store.ListWorkspaces(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) handleWorkspaceGet(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.GetWorkspace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) handleWorkspacePin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pinned bool `json:"pinned"`
	}
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.SetWorkspacePinned(r.Context(), chi.URLParam(r, "id"), req.Pinned); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListActiveSessions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleMemoryStore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID string `json:"workspaceId"`
		Key         string `json:"key"`
		Content     string `json:"content"`
		Category    string `json:"category"`
	}
	if !decode(w, r, &req) {
		return
	}

	err := s.store.StoreMemory(r.Context(), req.WorkspaceID, req.Key, req.Content,
		domain.MemoryCategory(req.Category))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMemorySearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID string `json:"workspaceId"`
		Query       string `json:"query"`
	}
	if !decode(w, r, &req) {
		return
	}

	memories, err := s.store.SearchMemory(r.Context(), req.WorkspaceID, req.Query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, memories)
}

func (s *Server) handleMemoryList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID string `json:"workspaceId"`
		Category    string `json:"category"`
	}
	if !decode(w, r, &req) {
		return
	}

	memories, err := s.store.ListMemories(r.Context(), req.WorkspaceID,
		domain.MemoryCategory(req.Category))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, memories)
}

func (s *Server) handleMemoryDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID string `json:"workspaceId"`
		Key         string `json:"key"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := s.store.DeleteMemory(r.Context(), req.WorkspaceID, req.Key); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		Preferred   string `json:"preferred"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.sup.Route(req.Description, domain.CLIType(req.Preferred)))
}

func (s *Server) handleShellSpawn(w http.ResponseWriter, r *http.Request) {
	var params supervisor.SpawnParams
	if !decode(w, r, &params) {
		return
	}

	ptyID, err := s.sup.SpawnShell(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ptyId": ptyID})
}

func (s *Server) handleShellList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sup.ListSessions())
}

// handleShellWrite is fire-and-forget: bad input is rejected, delivery is
// best-effort.
func (s *Server) handleShellWrite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PtyID string `json:"ptyId"`
		Data  string `json:"data"` // base64
	}
	if !decode(w, r, &req) {
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.sup.Write(req.PtyID, data)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleShellResize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PtyID string `json:"ptyId"`
		Cols  int    `json:"cols"`
		Rows  int    `json:"rows"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := s.sup.Resize(req.PtyID, req.Cols, req.Rows); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleShellKill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PtyID string `json:"ptyId"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.sup.Kill(req.PtyID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleOpenExternal opens an http(s) URL in the default browser; all
// other schemes are rejected.
func (s *Server) handleOpenExternal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "only http(s) urls can be opened"})
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", req.URL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", req.URL)
	default:
		cmd = exec.Command("xdg-open", req.URL)
	}
	if err := cmd.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleOpenPath reveals a local path in the platform file manager.
func (s *Server) handleOpenPath(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decode(w, r, &req) {
		return
	}

	if _, err := os.Stat(req.Path); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", req.Path)
	case "windows":
		cmd = exec.Command("explorer", req.Path)
	default:
		cmd = exec.Command("xdg-open", req.Path)
	}
	if err := cmd.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleContinuationStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PtyID string `json:"ptyId"`
		Goal  string `json:"goal"`
		supervisor.ContinuationOptions
	}
	if !decode(w, r, &req) {
		return
	}

	if err := s.sup.StartContinuation(req.PtyID, req.Goal, req.ContinuationOptions); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleContinuationStop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PtyID string `json:"ptyId"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.sup.StopContinuation(req.PtyID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleContinuationState(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PtyID string `json:"ptyId"`
	}
	if !decode(w, r, &req) {
		return
	}

	snapshot, ok := s.sup.ContinuationState(req.PtyID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"running": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"running": true, "state": snapshot})
}

func (s *Server) handleSynthesis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkspaceID   string `json:"workspaceId"`
		WorkspacePath string `json:"workspacePath"`
		Goal          string `json:"goal"`
		N             int    `json:"n"`
	}
	if !decode(w, r, &req) {
		return
	}

	result, err := s.sup.Synthesize(r.Context(), req.WorkspaceID, req.WorkspacePath, req.Goal, req.N)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWindowFocus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Focused bool `json:"focused"`
	}
	if !decode(w, r, &req) {
		return
	}
	s.sup.SetFocused(req.Focused)
	w.WriteHeader(http.StatusAccepted)
}
