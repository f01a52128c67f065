package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchOption(t *testing.T) {
	st := NewState()
	st.PushBot("pick one", []Option{
		{Label: "📅 Book a grooming", Next: NodeSchedulePet},
		{Label: "Sign in", Next: NodeAuthChoice},
	})

	// exact label, case and surrounding space ignored
	opt := st.MatchOption("  sign IN ")
	require.NotNil(t, opt)
	assert.Equal(t, NodeAuthChoice, opt.Next)

	// 1-based position
	opt = st.MatchOption("1")
	require.NotNil(t, opt)
	assert.Equal(t, NodeSchedulePet, opt.Next)

	assert.Nil(t, st.MatchOption("3"))
	assert.Nil(t, st.MatchOption("0"))
	assert.Nil(t, st.MatchOption("something else"))
	assert.Nil(t, st.MatchOption(""))
}

func TestLastOptionsSkipsUserMessages(t *testing.T) {
	st := NewState()
	st.PushBot("pick one", []Option{{Label: "A", Next: NodeStart}})
	st.PushUser("A")

	opts := st.LastOptions()
	require.Len(t, opts, 1)
	assert.Equal(t, "A", opts[0].Label)
}
