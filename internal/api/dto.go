package api

import (
	"github.com/optionchain/simulator/internal/models"
)

// sessionDescriptor is the JSON shape returned for POST/GET/PATCH/PUT, per
// spec §6.
type sessionDescriptor struct {
	ID          string                      `json:"id"`
	CreatedAt   string                      `json:"created_at"`
	UpdatedAt   string                      `json:"updated_at"`
	Parameters  models.SimulationParameters `json:"parameters"`
	CurrentStep int                         `json:"current_step"`
	TotalSteps  int                         `json:"total_steps"`
	State       models.SessionState         `json:"state"`
}

func newSessionDescriptor(s *models.Session) sessionDescriptor {
	return sessionDescriptor{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt.UTC().Format(rfc3339),
		UpdatedAt:   s.UpdatedAt.UTC().Format(rfc3339),
		Parameters:  s.Parameters,
		CurrentStep: s.CurrentStep,
		TotalSteps:  s.TotalSteps,
		State:       s.State,
	}
}

// chainDataResponse is the JSON shape returned for GET: the priced chain
// plus the session descriptor, per spec §6.
type chainDataResponse struct {
	Underlying  string                  `json:"underlying"`
	Timestamp   string                  `json:"timestamp"`
	Price       float64                 `json:"price"`
	Contracts   []models.OptionContract `json:"contracts"`
	SessionInfo sessionDescriptor       `json:"session_info"`
}

func newChainDataResponse(session *models.Session, chain *models.OptionChain) chainDataResponse {
	return chainDataResponse{
		Underlying:  chain.Underlying,
		Timestamp:   chain.Timestamp.UTC().Format(rfc3339),
		Price:       chain.Price,
		Contracts:   chain.Contracts,
		SessionInfo: newSessionDescriptor(session),
	}
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"

// deleteResponse is the JSON shape returned for DELETE, per spec §6.
type deleteResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// errorResponse is the JSON shape returned for every non-2xx response, per
// spec §6: `{"error": {"kind": "...", "message": "..."}}`.
type errorResponse struct {
	Error errorBody `json:"error"`
}

// errorBody carries the machine-readable kind §7's dispatch rests on,
// alongside a human-readable message.
type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
