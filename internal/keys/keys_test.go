package keys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostPrefersSelectedKey(t *testing.T) {
	ctx := context.Background()
	env := "from-env"
	h := NewHost(func() string { return env })

	key, err := h.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)

	require.NoError(t, h.Select("  picked  "))
	key, err = h.APIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "picked", key)
}

func TestHostReadsEnvOnEveryCall(t *testing.T) {
	ctx := context.Background()
	env := ""
	h := NewHost(func() string { return env })

	ok, err := h.HasSelectedKey(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	env = "late"
	ok, err = h.HasSelectedKey(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	key, _ := h.APIKey(ctx)
	assert.Equal(t, "late", key)
}

func TestHostSelectRejectsBlank(t *testing.T) {
	h := NewHost(nil)
	assert.ErrorIs(t, h.Select("   "), ErrEmptyKey)
	assert.False(t, h.State().Selected)
}

func TestHostPromptLifecycle(t *testing.T) {
	h := NewHost(nil)
	states, cancel := h.Subscribe()
	defer cancel()

	require.NoError(t, h.OpenSelectKey(context.Background()))
	st := <-states
	assert.True(t, st.Prompt)
	assert.False(t, st.Selected)
	assert.Equal(t, 1, st.Prompts)

	require.NoError(t, h.Select("k"))
	st = <-states
	assert.False(t, st.Prompt)
	assert.True(t, st.Selected)
	assert.Equal(t, 1, st.Prompts)
}

func TestHostSubscriberKeepsLatestState(t *testing.T) {
	h := NewHost(nil)
	states, cancel := h.Subscribe()
	defer cancel()

	ctx := context.Background()
	require.NoError(t, h.OpenSelectKey(ctx))
	require.NoError(t, h.OpenSelectKey(ctx))
	require.NoError(t, h.OpenSelectKey(ctx))

	st := <-states
	assert.Equal(t, 3, st.Prompts)
}

func TestHostCancelClosesChannel(t *testing.T) {
	h := NewHost(nil)
	states, cancel := h.Subscribe()
	cancel()
	cancel()

	_, ok := <-states
	assert.False(t, ok)
	require.NoError(t, h.OpenSelectKey(context.Background()))
}

func TestEnvSource(t *testing.T) {
	src := EnvSource(func() string { return "abc" })
	key, err := src.APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", key)
}
