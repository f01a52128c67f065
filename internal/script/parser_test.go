package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFillsEveryText(t *testing.T) {
	s := Default()

	assert.NotEmpty(t, s.GreetingMessage)
	assert.NotEmpty(t, s.PasswordMask)
	assert.NotEmpty(t, s.ContactCard)
	assert.NotEmpty(t, s.AI.Intro)
	assert.NotEmpty(t, s.AI.Unavailable)
	assert.NotEmpty(t, s.AI.SystemInstruction)
	assert.NotEmpty(t, s.AI.MascotFallback)
	assert.NotEmpty(t, s.ErrorMessages.CommandUnknown)
	assert.NotEmpty(t, s.ErrorMessages.DataUnavailable)
	assert.NotEmpty(t, s.ErrorMessages.AuthFailed)
	assert.NotEmpty(t, s.ErrorMessages.AuthError)
	assert.NotEmpty(t, s.ErrorMessages.SignupFailed)
	assert.NotEmpty(t, s.ErrorMessages.BookingFailed)
	assert.NotEmpty(t, s.ErrorMessages.InvalidValue)
	assert.NotEmpty(t, s.ErrorMessages.DateInPast)
	assert.NotEmpty(t, s.ErrorMessages.SignedOut)
}

func TestLoadScriptOverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "script.yml")
	content := []byte("greeting_message: \"Olá!\"\nerror_messages:\n  auth_failed: \"Nope.\"\n")
	require.NoError(t, os.WriteFile(file, content, 0644))

	s, err := loadScript(file)
	require.NoError(t, err)

	// explicit values win
	assert.Equal(t, "Olá!", s.GreetingMessage)
	assert.Equal(t, "Nope.", s.ErrorMessages.AuthFailed)

	// everything else falls back to the built-in copy
	assert.Equal(t, Default().PasswordMask, s.PasswordMask)
	assert.Equal(t, Default().ErrorMessages.CommandUnknown, s.ErrorMessages.CommandUnknown)
}

func TestLoadScriptMissingFile(t *testing.T) {
	_, err := loadScript(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}
