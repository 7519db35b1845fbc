package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/akoreshkov/retell-skill/internal/domain"
	"github.com/akoreshkov/retell-skill/internal/skill"
	"github.com/akoreshkov/retell-skill/internal/store"
	"github.com/go-chi/chi/v5"
)

// WebhookHandler handles the skill protocol endpoints.
type WebhookHandler struct {
	repo store.Repository
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(repo store.Repository) *WebhookHandler {
	return &WebhookHandler{repo: repo}
}

// RegisterRoutes registers the skill protocol routes.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/handler", h.Handle)
	r.Post("/reset", h.Reset)
}

type handlerRequest struct {
	UserMessage string `json:"user_message"`
	SessionID   string `json:"session_id"`
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

// webhookResponse is the envelope the conversational platform expects.
// Logical errors still produce a well-formed 200 response; only store
// failures surface as server errors.
type webhookResponse struct {
	Response responsePayload `json:"response"`
	Buttons  []skill.Button  `json:"buttons,omitempty"`
}

type responsePayload struct {
	Text       string `json:"text"`
	EndSession bool   `json:"end_session"`
}

func respond(w http.ResponseWriter, text string, endSession bool, buttons []skill.Button) {
	JSON(w, http.StatusOK, webhookResponse{
		Response: responsePayload{Text: text, EndSession: endSession},
		Buttons:  buttons,
	})
}

// Handle drives the memorization exercise: it stores the original text on
// the first message and scores retellings afterwards.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req handlerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	userMessage := strings.TrimSpace(req.UserMessage)
	if userMessage == "" {
		// Nothing to process; no session is created or touched.
		respond(w, skill.MsgEnterText, false, nil)
		return
	}

	var result skill.Result
	err := h.repo.UpdateSession(r.Context(), req.SessionID, func(sess *domain.Session) (*domain.Session, error) {
		created := false
		if sess == nil {
			sess = domain.NewSession(req.SessionID)
			created = true
		}
		result = skill.Handle(sess, userMessage)
		if result.Mutated || created {
			return sess, nil
		}
		return nil, nil
	})
	if err != nil {
		slog.Error("Failed to process message", "error", err, "session_id", req.SessionID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond(w, result.Text, result.EndSession, result.Buttons)
}

// Reset clears the session's stored text so a new exercise can start.
// Unknown sessions are reported, not created.
func (h *WebhookHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	found, err := h.repo.ResetSession(r.Context(), req.SessionID)
	if err != nil {
		slog.Error("Failed to reset session", "error", err, "session_id", req.SessionID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if found {
		respond(w, skill.MsgResetDone, false, nil)
		return
	}
	respond(w, skill.MsgResetNotFound, false, nil)
}
