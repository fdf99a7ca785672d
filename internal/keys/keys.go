// Package keys models the host's API-key selection capability.
//
// A Selector is optional: callers hold it as an interface value and treat nil
// as "the host offers no key selection". Host is the implementation served to
// the browser: opening the selector raises a prompt that connected pages turn
// into a key form, and a key chosen there is kept in memory for later calls.
package keys

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrEmptyKey = errors.New("keys: empty api key")

// Selector is the key-selection hook a host environment may provide.
type Selector interface {
	HasSelectedKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
}

// CredentialSource yields the API key to use for one outbound call.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// EnvSource reads the key through lookup each time it is asked.
type EnvSource func() string

func (f EnvSource) APIKey(context.Context) (string, error) { return f(), nil }

// State is what Host publishes to subscribers whenever it changes.
type State struct {
	Selected bool `json:"selected"`
	Prompt   bool `json:"prompt"`
	Prompts  int  `json:"prompts"`
}

type Host struct {
	env EnvSource

	mu       sync.Mutex
	selected string
	prompt   bool
	prompts  int
	subs     map[int]chan State
	nextSub  int
}

func NewHost(env EnvSource) *Host {
	if env == nil {
		env = func() string { return "" }
	}
	return &Host{env: env, subs: make(map[int]chan State)}
}

// HasSelectedKey reports true once a key was chosen in the browser or the
// environment provides one.
func (h *Host) HasSelectedKey(context.Context) (bool, error) {
	h.mu.Lock()
	selected := h.selected
	h.mu.Unlock()
	return selected != "" || h.env() != "", nil
}

// OpenSelectKey asks connected pages to show the key form. It does not wait
// for the user to answer.
func (h *Host) OpenSelectKey(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompt = true
	h.prompts++
	h.publishLocked()
	return nil
}

// Select stores key as the current credential and clears any open prompt.
func (h *Host) Select(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selected = key
	h.prompt = false
	h.publishLocked()
	return nil
}

// APIKey prefers the browser-selected key over the environment.
func (h *Host) APIKey(context.Context) (string, error) {
	h.mu.Lock()
	selected := h.selected
	h.mu.Unlock()
	if selected != "" {
		return selected, nil
	}
	return h.env(), nil
}

func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stateLocked()
}

// Subscribe returns a channel receiving every state change until cancel is
// called. Slow subscribers miss intermediate states, never the latest.
func (h *Host) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
}

func (h *Host) stateLocked() State {
	return State{
		Selected: h.selected != "" || h.env() != "",
		Prompt:   h.prompt,
		Prompts:  h.prompts,
	}
}

func (h *Host) publishLocked() {
	st := h.stateLocked()
	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}
