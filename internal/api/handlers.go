package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/varsilias/energy-advisor/internal/buildinfo"
	"github.com/varsilias/energy-advisor/internal/chat"
	"github.com/varsilias/energy-advisor/internal/logging"
	"github.com/varsilias/energy-advisor/pkg/types"
	"github.com/varsilias/energy-advisor/pkg/utils"
)

type Handlers struct {
	log   *slog.Logger
	chat  *chat.Controller
	Admin *Admin
}

func NewHandlers(log *slog.Logger, chatCtrl *chat.Controller) *Handlers {
	return &Handlers{log: log, chat: chatCtrl}
}

// Health is a basic liveness endpoint.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	msgs, dropped := h.chat.Stats()
	res := map[string]any{
		"status":    true,
		"message":   "energy-advisor",
		"awaiting":  h.chat.Awaiting(),
		"messages":  msgs,
		"dropped":   dropped,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	utils.JSON(w, http.StatusOK, res)
}

func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{
		"version":  buildinfo.Version,
		"commit":   buildinfo.Commit,
		"built_at": buildinfo.BuiltAt,
	}

	utils.JSON(w, http.StatusOK, res)
}

type messageJSON struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func toJSON(m types.Message) messageJSON {
	return messageJSON{
		ID:        m.ID,
		Sender:    string(m.Sender),
		Text:      m.Text,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339),
	}
}

// Chat POST /api/chat { message }
//
// Submits like the browser form but holds the request until the reply is in
// the transcript. A client that gives up early does not cancel the turn.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	start := time.Now()
	turn, err := h.chat.Submit(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		utils.Error(w, http.StatusBadRequest, "message is required")
		return
	case errors.Is(err, chat.ErrAwaiting):
		utils.Error(w, http.StatusConflict, "a reply is already being generated")
		return
	case err != nil:
		logging.FromContext(r.Context(), h.log).Error("submit", "err", err)
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	select {
	case reply := <-turn.Reply:
		utils.JSON(w, http.StatusOK, map[string]any{
			"user":       toJSON(turn.User),
			"reply":      toJSON(reply),
			"latency_ms": time.Since(start).Milliseconds(),
		})
	case <-r.Context().Done():
		logging.FromContext(r.Context(), h.log).Warn("client left before reply", "msg_id", turn.User.ID)
	}
}

// Conversation GET /api/conversation
func (h *Handlers) Conversation(w http.ResponseWriter, r *http.Request) {
	msgs := h.chat.Messages()
	out := make([]messageJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toJSON(m))
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"title":    h.chat.Title(),
		"awaiting": h.chat.Awaiting(),
		"messages": out,
	})
}
