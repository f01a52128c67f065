package flow

import (
	"strconv"
	"strings"
	"time"

	"petspa-text-bot/internal/database"
)

// State is everything one chat session owns: where the dialogue stands,
// what has been collected and the full transcript. It is what the session
// cache serializes.
type State struct {
	Node     NodeID       `json:"node"`
	Freeform bool         `json:"freeform,omitempty"`
	Capture  *CaptureSpec `json:"capture,omitempty"`

	Ctx        Context   `json:"ctx"`
	Transcript []Message `json:"transcript"`

	Auth *database.UserSession `json:"auth,omitempty"`
}

func NewState() *State {
	return &State{Node: NodeStart}
}

func (s *State) PushBot(text string, options []Option) {
	s.Transcript = append(s.Transcript, Message{
		Author:  AuthorBot,
		Text:    text,
		Options: options,
		At:      time.Now(),
	})
}

func (s *State) PushUser(text string) {
	s.Transcript = append(s.Transcript, Message{
		Author: AuthorUser,
		Text:   text,
		At:     time.Now(),
	})
}

// options offered by the most recent bot message
func (s *State) LastOptions() []Option {
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Author == AuthorBot {
			return s.Transcript[i].Options
		}
	}
	return nil
}

// MatchOption resolves a typed user message against the currently offered
// options: either the exact label (case and surrounding space ignored) or
// the 1-based position of the button.
func (s *State) MatchOption(text string) *Option {
	opts := s.LastOptions()
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || len(opts) == 0 {
		return nil
	}

	for i := range opts {
		if strings.ToLower(strings.TrimSpace(opts[i].Label)) == text {
			return &opts[i]
		}
	}

	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(opts) {
		return &opts[n-1]
	}
	return nil
}
