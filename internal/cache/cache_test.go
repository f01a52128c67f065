package cache

import (
	"testing"
	"time"

	"petspa-text-bot/internal/flow"

	"github.com/allegro/bigcache/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) *bigcache.BigCache {
	t.Helper()
	mem, err := bigcache.NewBigCache(bigcache.DefaultConfig(time.Minute))
	require.NoError(t, err)
	return mem
}

func TestStateRoundTrip(t *testing.T) {
	mem := newCache(t)
	sessionID := uuid.New()

	st := flow.NewState()
	st.Node = flow.NodeContact
	st.Ctx.PetName = "Rex"
	st.PushBot("hello", []flow.Option{{Label: "Hi", Next: flow.NodeStart}})

	require.NoError(t, SaveState(mem, sessionID, st))

	loaded, ok := GetState(mem, sessionID)
	require.True(t, ok)
	assert.Equal(t, flow.NodeContact, loaded.Node)
	assert.Equal(t, "Rex", loaded.Ctx.PetName)
	require.Len(t, loaded.Transcript, 1)
	assert.Equal(t, "Hi", loaded.Transcript[0].Options[0].Label)
}

func TestGetStateMissing(t *testing.T) {
	mem := newCache(t)

	st, ok := GetState(mem, uuid.New())
	assert.False(t, ok)
	require.NotNil(t, st)
	assert.Equal(t, flow.NodeStart, st.Node)
	assert.Empty(t, st.Transcript)
}

func TestDeleteStateToleratesMissing(t *testing.T) {
	mem := newCache(t)
	sessionID := uuid.New()

	require.NoError(t, DeleteState(mem, sessionID))

	require.NoError(t, SaveState(mem, sessionID, flow.NewState()))
	require.NoError(t, DeleteState(mem, sessionID))

	_, ok := GetState(mem, sessionID)
	assert.False(t, ok)
}
