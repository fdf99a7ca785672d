package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/varsilias/energy-advisor/pkg/types"
)

var ErrMissingID = errors.New("session: message without id")

// MemoryStore keeps the transcript for the life of the process and fans every
// appended message out to subscribers.
type MemoryStore struct {
	mu      sync.RWMutex
	msgs    []types.Message
	subs    map[int]chan types.Message
	nextSub int
	dropped int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[int]chan types.Message)}
}

func (s *MemoryStore) Append(m types.Message) error {
	if m.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	for _, ch := range s.subs {
		select {
		case ch <- m:
		default:
			s.dropped++
		}
	}
	return nil
}

// Messages returns a copy of the transcript in insertion order.
func (s *MemoryStore) Messages() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}

// Dropped counts notifications discarded because a subscriber was full.
func (s *MemoryStore) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Subscribe delivers messages appended after the call. A subscriber that
// falls buf messages behind misses notifications; the transcript itself is
// unaffected and can be re-read with Messages.
func (s *MemoryStore) Subscribe(buf int) (<-chan types.Message, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan types.Message, buf)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// Title is a short label for the conversation: the opening words of the
// first user message.
func (s *MemoryStore) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.msgs {
		if m.FromUser() {
			return Preview(m.Text, 8)
		}
	}
	return ""
}

// Preview returns at most n words of s, with an ellipsis when cut.
func Preview(s string, n int) string {
	parts := strings.Fields(s)
	if len(parts) <= n {
		return strings.Join(parts, " ")
	}
	return strings.Join(parts[:n], " ") + "…"
}
