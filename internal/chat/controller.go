package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/varsilias/energy-advisor/internal/advisor"
	"github.com/varsilias/energy-advisor/internal/logging"
	"github.com/varsilias/energy-advisor/internal/session"
	"github.com/varsilias/energy-advisor/pkg/types"
)

var (
	ErrEmptyMessage = errors.New("chat: empty message")
	ErrAwaiting     = errors.New("chat: awaiting response")
)

// fallbackReply is appended when the advisor itself blows up.
const fallbackReply = "Lo siento, hubo un error al procesar tu solicitud. Por favor, inténtalo de nuevo más tarde."

// Controller owns the conversation: the transcript plus the flag saying a
// reply is outstanding. At most one advisory call runs at a time.
type Controller struct {
	log        *slog.Logger
	adv        Advisor
	transcript *session.MemoryStore

	newID func() string
	now   func() time.Time

	mu       sync.Mutex
	awaiting bool
	inflight sync.WaitGroup
}

type Option func(*Controller)

func WithIDs(f func() string) Option { return func(c *Controller) { c.newID = f } }
func WithClock(f func() time.Time) Option { return func(c *Controller) { c.now = f } }

func NewController(log *slog.Logger, adv Advisor, store *session.MemoryStore, opts ...Option) *Controller {
	c := &Controller{
		log:        log,
		adv:        adv,
		transcript: store,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Turn is an accepted submission. Reply yields the assistant message once the
// advisory call settles and is then closed.
type Turn struct {
	User  types.Message
	Reply <-chan types.Message
}

// Submit appends text as a user message and starts the advisory call in the
// background. It refuses blank text and refuses while a reply is pending; in
// both cases the transcript is left untouched.
//
// ctx only contributes values (request id): the call is not cancelled with it.
func (c *Controller) Submit(ctx context.Context, text string) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.awaiting {
		c.mu.Unlock()
		return Turn{}, ErrAwaiting
	}
	user := c.message(types.SenderUser, text)
	if err := c.transcript.Append(user); err != nil {
		c.mu.Unlock()
		return Turn{}, err
	}
	c.awaiting = true
	c.inflight.Add(1)
	c.mu.Unlock()

	logging.FromContext(ctx, c.log).Info("chat turn", "msg_id", user.ID, "preview", session.Preview(text, 6))

	done := make(chan types.Message, 1)
	go c.settle(context.WithoutCancel(ctx), text, done)
	return Turn{User: user, Reply: done}, nil
}

// settle runs the advisory call and appends its outcome. The flag is released
// in a deferred block so it clears on every path.
func (c *Controller) settle(ctx context.Context, text string, done chan<- types.Message) {
	reply := fallbackReply
	start := c.now()
	defer func() {
		if rec := recover(); rec != nil {
			logging.FromContext(ctx, c.log).Error("advisor panic", "err", rec)
			reply = fallbackReply
		}
		assistant := c.finish(reply)
		logging.FromContext(ctx, c.log).Info("chat settled", "msg_id", assistant.ID, "duration_ms", c.now().Sub(start).Milliseconds())
		done <- assistant
		close(done)
		c.inflight.Done()
	}()

	out, err := c.adv.Advise(ctx, text)
	if err != nil {
		reply = advisor.Describe(err)
		return
	}
	reply = out
}

func (c *Controller) finish(reply string) types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	assistant := c.message(types.SenderAssistant, reply)
	if err := c.transcript.Append(assistant); err != nil {
		c.log.Error("append assistant message", "err", err)
	}
	c.awaiting = false
	return assistant
}

func (c *Controller) message(sender types.Sender, text string) types.Message {
	return types.Message{ID: c.newID(), Sender: sender, Text: text, Timestamp: c.now()}
}

// Awaiting reports whether a reply is outstanding.
func (c *Controller) Awaiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// Messages returns a snapshot of the transcript.
func (c *Controller) Messages() []types.Message { return c.transcript.Messages() }

// Subscribe forwards to the transcript's change feed.
func (c *Controller) Subscribe(buf int) (<-chan types.Message, func()) {
	return c.transcript.Subscribe(buf)
}

// Stats reports the transcript length and how many change notifications were
// dropped for slow subscribers.
func (c *Controller) Stats() (messages, dropped int) {
	return c.transcript.Len(), c.transcript.Dropped()
}

// Title labels the conversation by its first user message.
func (c *Controller) Title() string { return c.transcript.Title() }

// Wait blocks until no advisory call is running or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
