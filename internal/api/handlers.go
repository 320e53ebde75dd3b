package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/optionchain/simulator/internal/models"
)

const sessionIDParam = "sessionid"

// handleCreate implements POST /api/v1/chain: create a session from a full
// SimulationParameters body.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var params models.SimulationParameters
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, models.NewInvalidParameter("body", err.Error()))
		return
	}

	session, err := s.manager.CreateSession(params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionDescriptor(session))
}

// handleGet implements GET /api/v1/chain?sessionid=<uuid>: advance the
// session one step and return the priced chain.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(sessionIDParam)
	if id == "" {
		writeError(w, models.NewInvalidParameter(sessionIDParam, "query parameter is required"))
		return
	}

	session, chain, err := s.manager.GetNextStep(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newChainDataResponse(session, chain))
}

// handleUpdate implements PATCH /api/v1/chain?sessionid=<uuid>: a partial
// parameter merge.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(sessionIDParam)
	if id == "" {
		writeError(w, models.NewInvalidParameter(sessionIDParam, "query parameter is required"))
		return
	}

	patch, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, models.NewInvalidParameter("body", err.Error()))
		return
	}

	session, err := s.manager.UpdateSession(id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionDescriptor(session))
}

// handleReplace implements PUT /api/v1/chain?sessionid=<uuid>: full
// reinitialization.
func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(sessionIDParam)
	if id == "" {
		writeError(w, models.NewInvalidParameter(sessionIDParam, "query parameter is required"))
		return
	}

	var params models.SimulationParameters
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, models.NewInvalidParameter("body", err.Error()))
		return
	}

	session, err := s.manager.ReinitializeSession(id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionDescriptor(session))
}

// handleDelete implements DELETE /api/v1/chain?sessionid=<uuid>.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get(sessionIDParam)
	if id == "" {
		writeError(w, models.NewInvalidParameter(sessionIDParam, "query parameter is required"))
		return
	}

	removed, err := s.manager.DeleteSession(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, models.NewNotFound(id))
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Message: "session deleted", SessionID: id})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
