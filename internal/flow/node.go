package flow

import (
	"errors"
	"time"

	"petspa-text-bot/internal/database"
)

// NodeID names one point of the dialogue graph. The set is closed: every
// identifier the engine will ever enter is listed below.
type NodeID string

const (
	NodeStart            NodeID = "start"
	NodeAuthChoice       NodeID = "auth_choice"
	NodeLoginEmail       NodeID = "login_email"
	NodeLoginPassword    NodeID = "login_password"
	NodeRegisterName     NodeID = "register_name"
	NodeRegisterEmail    NodeID = "register_email"
	NodeRegisterPhone    NodeID = "register_phone"
	NodeRegisterPassword NodeID = "register_password"
	NodeAuthSuccess      NodeID = "auth_success"
	NodeRegisterSuccess  NodeID = "register_success"
	NodeSchedulePet      NodeID = "schedule_pet"
	NodeScheduleService  NodeID = "schedule_service"
	NodeScheduleDate     NodeID = "schedule_date"
	NodeScheduleConfirm  NodeID = "schedule_confirm"
	NodeScheduleDone     NodeID = "schedule_done"
	NodeContact          NodeID = "contact"
	NodeMyPets           NodeID = "my_pets"
)

var allNodes = []NodeID{
	NodeStart,
	NodeAuthChoice,
	NodeLoginEmail,
	NodeLoginPassword,
	NodeRegisterName,
	NodeRegisterEmail,
	NodeRegisterPhone,
	NodeRegisterPassword,
	NodeAuthSuccess,
	NodeRegisterSuccess,
	NodeSchedulePet,
	NodeScheduleService,
	NodeScheduleDate,
	NodeScheduleConfirm,
	NodeScheduleDone,
	NodeContact,
	NodeMyPets,
}

func Known(id NodeID) bool {
	for _, n := range allNodes {
		if n == id {
			return true
		}
	}
	return false
}

var (
	ErrUnknownNode   = errors.New("flow: unknown node")
	ErrNoCapture     = errors.New("flow: no captured input pending")
	ErrCaptureActive = errors.New("flow: captured input pending")
)

type Author string

const (
	AuthorBot  Author = "bot"
	AuthorUser Author = "user"
)

// one transcript entry; options are only present on bot messages
type Message struct {
	Author  Author    `json:"author"`
	Text    string    `json:"text"`
	Options []Option  `json:"options,omitempty"`
	At      time.Time `json:"at"`
}

type (
	// Option is one selectable button under a bot message. At most one of
	// the modifier fields may be set; the graph check enforces that.
	Option struct {
		Label string `json:"label"`

		// merge the chosen pet into the context
		SelectPet *PetChoice `json:"select_pet,omitempty"`
		// merge the chosen service (and its duration) into the context
		SelectService *ServiceChoice `json:"select_service,omitempty"`
		// issue the create-appointment call from the collected context
		Finalize bool `json:"finalize,omitempty"`
		// leave the node graph, answers come from the language model
		Freeform bool `json:"freeform,omitempty"`
		// terminate the auth session
		SignOut bool `json:"sign_out,omitempty"`
		// ask the hosting shell to switch screens
		Navigate database.Route `json:"navigate,omitempty"`

		// node entered after the side effect, empty means stay put
		Next NodeID `json:"next,omitempty"`
	}

	PetChoice struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	ServiceChoice struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Duration int     `json:"duration"`
	}
)

type CaptureKind string

const (
	CaptureText     CaptureKind = "text"
	CaptureNumber   CaptureKind = "number"
	CapturePassword CaptureKind = "password"
	CaptureDateTime CaptureKind = "datetime"
)

// context field a captured value is stored under
type Field string

const (
	FieldNone          Field = ""
	FieldLoginEmail    Field = "login_email"
	FieldRegisterName  Field = "register_name"
	FieldRegisterEmail Field = "register_email"
	FieldRegisterPhone Field = "register_phone"
	FieldStartAt       Field = "start_at"
)

// continuation invoked after a captured value is accepted
type SubmitKind string

const (
	SubmitNone   SubmitKind = ""
	SubmitSignIn SubmitKind = "sign_in"
	SubmitSignUp SubmitKind = "sign_up"
)

// CaptureSpec describes the single free-form value a node is waiting for.
// A node has at most one pending capture at any time.
type CaptureSpec struct {
	Kind   CaptureKind `json:"kind"`
	Field  Field       `json:"field,omitempty"`
	Next   NodeID      `json:"next,omitempty"`
	Submit SubmitKind  `json:"submit,omitempty"`
}
