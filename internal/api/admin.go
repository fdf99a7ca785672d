package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/varsilias/energy-advisor/internal/keys"
	"github.com/varsilias/energy-advisor/pkg/utils"
)

// Admin exposes the key host to operators, for setups where nobody is at a
// browser to answer the key prompt.
type Admin struct{ keys *keys.Host }

func NewAdmin(host *keys.Host) *Admin { return &Admin{keys: host} }

// KeyState GET /admin/key
func (a *Admin) KeyState(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, a.keys.State())
}

// SelectKey POST /admin/key { key }
func (a *Admin) SelectKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := a.keys.Select(req.Key); err != nil {
		if errors.Is(err, keys.ErrEmptyKey) {
			utils.Error(w, http.StatusBadRequest, "key required")
			return
		}
		utils.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"ok": true, "state": a.keys.State()})
}
