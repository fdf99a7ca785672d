package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varsilias/energy-advisor/internal/advisor"
	"github.com/varsilias/energy-advisor/internal/logging"
	"github.com/varsilias/energy-advisor/internal/session"
	"github.com/varsilias/energy-advisor/pkg/types"
)

func newController(adv Advisor, opts ...Option) *Controller {
	return NewController(logging.Discard(), adv, session.NewMemoryStore(), opts...)
}

func reply(text string, err error) AdvisorFunc {
	return func(context.Context, string) (string, error) { return text, err }
}

func settle(t *testing.T, turn Turn) types.Message {
	t.Helper()
	select {
	case m, ok := <-turn.Reply:
		require.True(t, ok, "settlement channel closed without a message")
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("advisory call did not settle")
	}
	return types.Message{}
}

func TestSubmitSuccessScenario(t *testing.T) {
	const user = "Mi casa es de 1975 con ventanas viejas"
	const answer = "**1. Diagnóstico:** ..."
	c := newController(reply(answer, nil))

	turn, err := c.Submit(context.Background(), user)
	require.NoError(t, err)
	got := settle(t, turn)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, types.SenderUser, msgs[0].Sender)
	assert.Equal(t, user, msgs[0].Text)
	assert.Equal(t, types.SenderAssistant, msgs[1].Sender)
	assert.Equal(t, answer, msgs[1].Text)
	assert.Equal(t, msgs[1], got)
	assert.Equal(t, msgs[0], turn.User)
	assert.False(t, c.Awaiting())

	_, open := <-turn.Reply
	assert.False(t, open)
}

func TestSubmitRejectsBlankText(t *testing.T) {
	c := newController(reply("never", nil))
	for _, text := range []string{"", "   ", "\n\t "} {
		turn, err := c.Submit(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Nil(t, turn.Reply)
	}
	assert.Empty(t, c.Messages())
	assert.False(t, c.Awaiting())
}

func TestSubmitRejectsWhileAwaiting(t *testing.T) {
	release := make(chan struct{})
	c := newController(AdvisorFunc(func(context.Context, string) (string, error) {
		<-release
		return "ok", nil
	}))

	turn, err := c.Submit(context.Background(), "first")
	require.NoError(t, err)
	assert.True(t, c.Awaiting())
	before := c.Messages()

	_, err = c.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAwaiting)
	assert.Equal(t, before, c.Messages())

	close(release)
	settle(t, turn)
	assert.False(t, c.Awaiting())
	assert.Len(t, c.Messages(), 2)

	turn, err = c.Submit(context.Background(), "third")
	require.NoError(t, err)
	settle(t, turn)
	assert.Len(t, c.Messages(), 4)
}

func TestSubmitGrowsByTwoPerTurn(t *testing.T) {
	c := newController(reply("ok", nil))
	for i := 1; i <= 5; i++ {
		turn, err := c.Submit(context.Background(), fmt.Sprintf("turn %d", i))
		require.NoError(t, err)
		settle(t, turn)
		assert.Len(t, c.Messages(), 2*i)
		assert.False(t, c.Awaiting())
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	calls := 0
	c := newController(AdvisorFunc(func(context.Context, string) (string, error) {
		calls++
		if calls%2 == 0 {
			return "", errors.New("boom")
		}
		return "ok", nil
	}))

	for i := 0; i < 6; i++ {
		turn, err := c.Submit(context.Background(), "x")
		require.NoError(t, err)
		settle(t, turn)
	}

	seen := map[string]bool{}
	for _, m := range c.Messages() {
		require.NotEmpty(t, m.ID)
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
	assert.Len(t, seen, 12)
}

func TestSubmitErrorBecomesAssistantMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"advisor error", &advisor.Error{Kind: advisor.KindCredential}, advisor.CredentialText},
		{"empty response", &advisor.Error{Kind: advisor.KindEmptyResponse, Err: advisor.ErrNoContent}, advisor.CallText(advisor.ErrNoContent.Error())},
		{"plain error", errors.New("socket closed"), advisor.CallText("socket closed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newController(reply("", tt.err))
			turn, err := c.Submit(context.Background(), "test")
			require.NoError(t, err)
			got := settle(t, turn)

			assert.Equal(t, types.SenderAssistant, got.Sender)
			assert.Equal(t, tt.want, got.Text)
			assert.Len(t, c.Messages(), 2)
			assert.False(t, c.Awaiting())
		})
	}
}

func TestSubmitRecoversAdvisorPanic(t *testing.T) {
	c := newController(AdvisorFunc(func(context.Context, string) (string, error) {
		panic("nil map")
	}))

	turn, err := c.Submit(context.Background(), "x")
	require.NoError(t, err)
	got := settle(t, turn)

	assert.Equal(t, fallbackReply, got.Text)
	assert.False(t, c.Awaiting())
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var seen error
	c := newController(AdvisorFunc(func(ctx context.Context, _ string) (string, error) {
		seen = ctx.Err()
		return "ok", nil
	}))

	cancel()
	turn, err := c.Submit(ctx, "x")
	require.NoError(t, err)
	got := settle(t, turn)

	assert.NoError(t, seen)
	assert.Equal(t, "ok", got.Text)
}

func TestInjectedIDsAndClock(t *testing.T) {
	n := 0
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newController(reply("ok", nil),
		WithIDs(func() string { n++; return fmt.Sprintf("m%d", n) }),
		WithClock(func() time.Time { return at }),
	)

	turn, err := c.Submit(context.Background(), "x")
	require.NoError(t, err)
	settle(t, turn)

	msgs := c.Messages()
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.Equal(t, at, msgs[1].Timestamp)
}

func TestSubscribeSeesBothMessages(t *testing.T) {
	c := newController(reply("ok", nil))
	feed, cancel := c.Subscribe(4)
	defer cancel()

	turn, err := c.Submit(context.Background(), "hola")
	require.NoError(t, err)
	settle(t, turn)

	first, second := <-feed, <-feed
	assert.True(t, first.FromUser())
	assert.False(t, second.FromUser())
}

func TestReadingTwiceIsIdentical(t *testing.T) {
	c := newController(reply("ok", nil))
	turn, err := c.Submit(context.Background(), "x")
	require.NoError(t, err)
	settle(t, turn)

	assert.Equal(t, c.Messages(), c.Messages())
	assert.Equal(t, "x", c.Title())
}

func TestWait(t *testing.T) {
	release := make(chan struct{})
	c := newController(AdvisorFunc(func(context.Context, string) (string, error) {
		<-release
		return "ok", nil
	}))
	_, err := c.Submit(context.Background(), "x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, c.Wait(context.Background()))
	assert.False(t, c.Awaiting())
}

func TestStatsCountsMessagesAndDrops(t *testing.T) {
	c := newController(reply("ok", nil))
	feed, cancel := c.Subscribe(1)
	defer cancel()

	settle(t, mustSubmit(t, c, "hola"))

	msgs, dropped := c.Stats()
	assert.Equal(t, 2, msgs)
	assert.Equal(t, 1, dropped)
	assert.Len(t, feed, 1)
}

func mustSubmit(t *testing.T, c *Controller, text string) Turn {
	t.Helper()
	turn, err := c.Submit(context.Background(), text)
	require.NoError(t, err)
	return turn
}
