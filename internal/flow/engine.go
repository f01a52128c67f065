package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petspa-text-bot/internal/database"
	"petspa-text-bot/internal/logger"
	"petspa-text-bot/internal/script"

	"github.com/google/uuid"
)

type (
	// Auth is the external session accessor (sign-in, sign-up, sign-out).
	Auth interface {
		SignIn(c context.Context, email, password string) (*database.UserSession, error)
		SignUp(c context.Context, email, password, name, phone string) (*database.UserSession, error)
		SignOut(c context.Context, accessToken string) error
	}

	// Booking is the external pet/service/appointment data accessor.
	Booking interface {
		MyPets(c context.Context, accessToken string, userID uuid.UUID) ([]database.Pet, error)
		Services(c context.Context) ([]database.Service, error)
		CreateAppointment(c context.Context, accessToken string, appt database.NewAppointment) error
	}

	// Assistant answers free-text questions that fall outside the graph.
	Assistant interface {
		Answer(c context.Context, history []database.Turn, message string) (string, error)
	}
)

// Engine drives one strictly turn-based dialogue session: render the
// current node, take exactly one user action, apply its side effects and
// move on. External failures never kill the session; every call site has a
// degraded message and a way back to start.
type Engine struct {
	script    *script.Script
	auth      Auth
	booking   Booking
	assistant Assistant
	st        *State

	// how many transcript turns accompany a free-text question
	historyDepth int

	// invoked when an option asks the hosting shell to switch screens
	OnNavigate func(route database.Route)
}

func New(sc *script.Script, auth Auth, booking Booking, assistant Assistant, st *State, historyDepth int) *Engine {
	if historyDepth <= 0 {
		historyDepth = 6
	}
	return &Engine{
		script:       sc,
		auth:         auth,
		booking:      booking,
		assistant:    assistant,
		st:           st,
		historyDepth: historyDepth,
	}
}

func (e *Engine) State() *State { return e.st }

// Enter renders the node and appends its message to the transcript. An
// unknown identifier is a programming error in the graph: it is reported
// and the session is redirected to the start node.
func (e *Engine) Enter(c context.Context, id NodeID) error {
	if !Known(id) {
		logger.Warning("unknown flow node:", string(id))
		err := fmt.Errorf("%w: %s", ErrUnknownNode, id)
		if enterErr := e.Enter(c, NodeStart); enterErr != nil {
			return enterErr
		}
		return err
	}

	e.st.Freeform = false
	e.st.Capture = nil
	if id == NodeStart {
		// the context survives only one excursion from the start node
		e.st.Ctx = Context{}
	}

	v := View{Script: e.script, Ctx: &e.st.Ctx, Session: e.st.Auth}
	switch DataSource(id) {
	case SourcePets:
		if e.st.Auth != nil {
			pets, err := e.booking.MyPets(c, e.st.Auth.AccessToken, e.st.Auth.UserID)
			if err != nil {
				return e.degrade(id, err)
			}
			v.Pets = pets
		}
	case SourceServices:
		services, err := e.booking.Services(c)
		if err != nil {
			return e.degrade(id, err)
		}
		v.Services = services
	}

	p, err := BuildNode(id, v)
	if err != nil {
		return err
	}

	e.st.Node = id
	e.st.Capture = p.Capture
	e.st.PushBot(p.Text, p.Options)
	return nil
}

// a fetch failed while rendering: keep the session alive with a degraded
// message and a way back to the start node
func (e *Engine) degrade(id NodeID, err error) error {
	logger.Warning("data fetch failed on node", string(id), err)
	e.st.Node = id
	e.st.Capture = nil
	e.st.PushBot(e.script.ErrorMessages.DataUnavailable, []Option{backToStart()})
	return nil
}

// SelectOption echoes the chosen label, applies the option's side effect
// and transitions to its next node when one is configured.
func (e *Engine) SelectOption(c context.Context, opt Option) error {
	e.st.PushUser(opt.Label)

	switch {
	case opt.SelectPet != nil:
		e.st.Ctx.PetID = opt.SelectPet.ID
		e.st.Ctx.PetName = opt.SelectPet.Name

	case opt.SelectService != nil:
		e.st.Ctx.ServiceID = opt.SelectService.ID
		e.st.Ctx.ServiceName = opt.SelectService.Name
		e.st.Ctx.ServicePrice = opt.SelectService.Price
		e.st.Ctx.ServiceDuration = opt.SelectService.Duration

	case opt.Freeform:
		e.st.Freeform = true
		e.st.Capture = nil
		e.st.PushBot(e.script.AI.Intro, []Option{{Label: "Leave AI mode", Next: NodeStart}})
		return nil

	case opt.SignOut:
		if e.st.Auth != nil {
			if err := e.auth.SignOut(c, e.st.Auth.AccessToken); err != nil {
				logger.Warning("sign out failed:", err)
			}
		}
		e.st.Auth = nil
		e.st.PushBot(e.script.ErrorMessages.SignedOut, nil)

	case opt.Finalize:
		e.finalizeBooking(c)

	case opt.Navigate != "":
		if e.OnNavigate != nil {
			e.OnNavigate(opt.Navigate)
		}
	}

	if opt.Next != "" {
		return e.Enter(c, opt.Next)
	}
	return nil
}

// finalizeBooking issues the create-appointment call from the collected
// context. The confirmation is optimistic: a failed call only lands in the
// transcript, the option's configured transition still happens.
func (e *Engine) finalizeBooking(c context.Context) {
	ctx := e.st.Ctx
	if e.st.Auth == nil || ctx.PetID == 0 || ctx.ServiceID == 0 || ctx.StartAt.IsZero() {
		logger.Warning("finalize booking with incomplete context")
		e.st.PushBot(e.script.ErrorMessages.BookingFailed, nil)
		return
	}

	duration := ctx.ServiceDuration
	if duration <= 0 {
		duration = 60
	}

	appt := database.NewAppointment{
		UserID:    e.st.Auth.UserID,
		PetID:     ctx.PetID,
		ServiceID: ctx.ServiceID,
		StartTime: ctx.StartAt,
		EndTime:   ctx.StartAt.Add(time.Duration(duration) * time.Minute),
		Status:    database.AppointmentPending,
	}
	if err := e.booking.CreateAppointment(c, e.st.Auth.AccessToken, appt); err != nil {
		logger.Warning("create appointment failed:", err)
		e.st.PushBot(e.script.ErrorMessages.BookingFailed, nil)
	}
}

var errDateInPast = errors.New("flow: date-time lies in the past")

// SubmitInput validates the typed value against the pending capture. A
// failed validation re-prompts locally: the capture stays active and the
// context is untouched.
func (e *Engine) SubmitInput(c context.Context, raw string) error {
	capture := e.st.Capture
	if capture == nil {
		return ErrNoCapture
	}

	val, at, err := validateInput(capture.Kind, raw)
	if err != nil {
		hint := e.script.ErrorMessages.InvalidValue
		if errors.Is(err, errDateInPast) {
			hint = e.script.ErrorMessages.DateInPast
		}
		e.st.PushBot(hint, nil)
		return nil
	}

	e.st.PushUser(e.echo(capture.Kind, val, at))

	switch capture.Field {
	case FieldLoginEmail:
		e.st.Ctx.LoginEmail = val
	case FieldRegisterName:
		e.st.Ctx.RegisterName = val
	case FieldRegisterEmail:
		e.st.Ctx.RegisterEmail = val
	case FieldRegisterPhone:
		e.st.Ctx.RegisterPhone = val
	case FieldStartAt:
		e.st.Ctx.StartAt = at
	}

	e.st.Capture = nil

	next := capture.Next
	switch capture.Submit {
	case SubmitSignIn:
		next = e.attemptSignIn(c, raw)
	case SubmitSignUp:
		next = e.attemptSignUp(c, raw)
	}
	return e.Enter(c, next)
}

// layout of the datetime-local input the shell renders
const datetimeLayout = "2006-01-02T15:04"

func validateInput(kind CaptureKind, raw string) (string, time.Time, error) {
	val := strings.TrimSpace(raw)

	switch kind {
	case CaptureText, CapturePassword:
		if val == "" {
			return "", time.Time{}, errors.New("flow: empty value")
		}
		if kind == CapturePassword {
			// keep the password exactly as typed
			val = raw
		}

	case CaptureNumber:
		cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "").Replace(val)
		if cleaned == "" {
			return "", time.Time{}, errors.New("flow: empty value")
		}
		for _, r := range cleaned {
			if r < '0' || r > '9' {
				return "", time.Time{}, errors.New("flow: not a number")
			}
		}
		val = cleaned

	case CaptureDateTime:
		at, err := time.ParseInLocation(datetimeLayout, val, time.Local)
		if err != nil {
			return "", time.Time{}, err
		}
		if !at.After(time.Now()) {
			return "", time.Time{}, errDateInPast
		}
		return val, at, nil
	}

	return val, time.Time{}, nil
}

// echo is what lands in the transcript as the user message; passwords are
// only ever shown masked
func (e *Engine) echo(kind CaptureKind, val string, at time.Time) string {
	switch kind {
	case CapturePassword:
		return e.script.PasswordMask
	case CaptureDateTime:
		return at.Format("02/01/2006 15:04")
	}
	return val
}

func (e *Engine) attemptSignIn(c context.Context, password string) NodeID {
	sess, err := e.auth.SignIn(c, e.st.Ctx.LoginEmail, password)
	switch {
	case errors.Is(err, database.ErrInvalidCredentials):
		e.st.PushBot(e.script.ErrorMessages.AuthFailed, nil)
		return NodeAuthChoice
	case err != nil:
		logger.Warning("sign in failed:", err)
		e.st.PushBot(e.script.ErrorMessages.AuthError, nil)
		return NodeStart
	}
	e.st.Auth = sess
	return NodeAuthSuccess
}

func (e *Engine) attemptSignUp(c context.Context, password string) NodeID {
	ctx := e.st.Ctx
	sess, err := e.auth.SignUp(c, ctx.RegisterEmail, password, ctx.RegisterName, ctx.RegisterPhone)
	if err != nil {
		logger.Warning("sign up failed:", err)
		e.st.PushBot(e.script.ErrorMessages.SignupFailed, nil)
		return NodeAuthChoice
	}
	e.st.Auth = sess
	return NodeRegisterSuccess
}

// SubmitFreeText forwards the message, with the recent transcript, to the
// language model. Only valid when no structured capture is pending; a
// model failure degrades to a static apology.
func (e *Engine) SubmitFreeText(c context.Context, text string) error {
	if e.st.Capture != nil {
		return ErrCaptureActive
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	e.st.PushUser(text)

	reply, err := e.assistant.Answer(c, e.history(), text)
	if err != nil {
		logger.Warning("assistant call failed:", err)
		reply = e.script.AI.Unavailable
	}
	e.st.PushBot(reply, []Option{mainMenu()})
	return nil
}

// the recent transcript in the role vocabulary of the language model,
// excluding the user message just appended
func (e *Engine) history() []database.Turn {
	msgs := e.st.Transcript
	if len(msgs) > 0 {
		msgs = msgs[:len(msgs)-1]
	}
	start := len(msgs) - e.historyDepth
	if start < 0 {
		start = 0
	}

	history := make([]database.Turn, 0, e.historyDepth)
	for _, m := range msgs[start:] {
		role := "model"
		if m.Author == AuthorUser {
			role = "user"
		}
		history = append(history, database.Turn{Role: role, Text: m.Text})
	}
	return history
}

// RejectUnknown handles a message that matched no offered option: repeat
// the choices without moving anywhere.
func (e *Engine) RejectUnknown() {
	opts := e.st.LastOptions()
	e.st.PushBot(e.script.ErrorMessages.CommandUnknown, opts)
}
