package ui

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/varsilias/energy-advisor/internal/chat"
	"github.com/varsilias/energy-advisor/internal/logging"
)

const (
	noticeEmpty    = "Describe tu vivienda o problema de consumo antes de enviar."
	noticeAwaiting = "Ya estoy generando una solución. Espera a que termine para enviar otra consulta."
	noticeFailed   = "No se pudo registrar tu mensaje. Por favor, inténtalo de nuevo."
	noticeBadKey   = "Introduce una clave API válida."
)

func RegisterRoutes(mux chi.Router, h *UI) {
	mux.Get("/", h.Home)
	mux.Post("/ui/chat", h.ChatPost)
	mux.Get("/ui/transcript", h.Transcript)
	mux.Get("/ui/ws", h.Stream)
	mux.Get("/ui/version-pill", h.VersionPill)
	if h.keys != nil {
		mux.Post("/ui/key", h.KeyPost)
	}
}

// Home renders the whole chat page.
func (u *UI) Home(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"AppTitle":       AppTitle,
		"AppDescription": AppDescription,
		"Title":          u.chat.Title(),
		"Messages":       u.views(u.chat.Messages()),
		"Awaiting":       u.chat.Awaiting(),
		"KeySelection":   u.keys != nil,
		"KeyPrompt":      u.keys != nil && u.keys.State().Prompt,
		"Version":        currentVersion(),
	}
	w.Header().Set("Cache-Control", "no-store")
	u.render(w, "chat.html", data, http.StatusOK)
}

// ChatPost submits the form text. Page scripts get the user bubble back with
// 202; the reply follows over /ui/ws. Plain form posts are redirected home.
func (u *UI) ChatPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		u.reject(w, r, http.StatusBadRequest, noticeEmpty)
		return
	}

	turn, err := u.chat.Submit(r.Context(), r.Form.Get("message"))
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		u.reject(w, r, http.StatusBadRequest, noticeEmpty)
		return
	case errors.Is(err, chat.ErrAwaiting):
		u.reject(w, r, http.StatusConflict, noticeAwaiting)
		return
	case err != nil:
		logging.FromContext(r.Context(), u.log).Error("submit", "err", err)
		u.reject(w, r, http.StatusInternalServerError, noticeFailed)
		return
	}

	if !fromScript(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("X-Message-ID", turn.User.ID)
	u.render(w, "message.html", u.view(turn.User), http.StatusAccepted)
}

// Transcript re-renders every message; pages use it to resync after a
// dropped websocket.
func (u *UI) Transcript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	u.render(w, "transcript.html", u.views(u.chat.Messages()), http.StatusOK)
}

// KeyPost stores the key chosen in the selection dialog.
func (u *UI) KeyPost(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	if err := u.keys.Select(r.Form.Get("api_key")); err != nil {
		u.reject(w, r, http.StatusBadRequest, noticeBadKey)
		return
	}
	logging.FromContext(r.Context(), u.log).Info("api key selected from browser")

	if !fromScript(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (u *UI) VersionPill(w http.ResponseWriter, r *http.Request) {
	// Fragment response; avoid caching so rollouts show quickly
	w.Header().Set("Cache-Control", "no-store")
	u.render(w, "version-pill.html", currentVersion(), http.StatusOK)
}

func (u *UI) reject(w http.ResponseWriter, r *http.Request, status int, text string) {
	if !fromScript(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	level := "warn"
	if status >= http.StatusInternalServerError {
		level = "error"
	}
	u.render(w, "notice.html", noticeVM{Level: level, Text: text}, status)
}

func fromScript(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "fetch"
}
