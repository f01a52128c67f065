package flow

import (
	"testing"

	"petspa-text-bot/internal/database"
	"petspa-text-bot/internal/script"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckGraphAcceptsBuiltinGraph(t *testing.T) {
	require.NoError(t, CheckGraph(script.Default()))
}

func TestBuildNodeUnknown(t *testing.T) {
	_, err := BuildNode(NodeID("nowhere"), View{Script: script.Default(), Ctx: &Context{}})
	require.ErrorIs(t, err, ErrUnknownNode)
}

func TestStartAdaptsToSession(t *testing.T) {
	v := View{Script: script.Default(), Ctx: &Context{}}

	anon, err := BuildNode(NodeStart, v)
	require.NoError(t, err)

	v.Session = &database.UserSession{FullName: "Ana Lima"}
	signed, err := BuildNode(NodeStart, v)
	require.NoError(t, err)

	assert.Contains(t, signed.Text, "Ana")
	assert.NotEqual(t, anon.Text, signed.Text)

	hasSignOut := func(p Prompt) bool {
		for _, o := range p.Options {
			if o.SignOut {
				return true
			}
		}
		return false
	}
	assert.False(t, hasSignOut(anon))
	assert.True(t, hasSignOut(signed))
}

func TestSchedulePetBranches(t *testing.T) {
	v := View{Script: script.Default(), Ctx: &Context{}}

	// not signed in: no pet buttons, only the way to auth
	p, err := BuildNode(NodeSchedulePet, v)
	require.NoError(t, err)
	require.NotEmpty(t, p.Options)
	assert.Equal(t, NodeAuthChoice, p.Options[0].Next)

	// signed in without pets: pointed at the profile screen
	v.Session = &database.UserSession{FullName: "Ana"}
	p, err = BuildNode(NodeSchedulePet, v)
	require.NoError(t, err)
	assert.Equal(t, database.RouteProfile, p.Options[0].Navigate)

	// signed in with pets: one button per pet plus cancel
	v.Pets = []database.Pet{{ID: 1, Name: "Rex"}, {ID: 2, Name: "Mia"}}
	p, err = BuildNode(NodeSchedulePet, v)
	require.NoError(t, err)
	require.Len(t, p.Options, 3)
	assert.Equal(t, "Rex", p.Options[0].Label)
	require.NotNil(t, p.Options[0].SelectPet)
	assert.Equal(t, int64(1), p.Options[0].SelectPet.ID)
}

func TestCheckOptionRejectsStackedModifiers(t *testing.T) {
	err := checkOption(NodeStart, Option{
		Label:    "broken",
		Freeform: true,
		SignOut:  true,
	})
	require.Error(t, err)
}
