package flow

import (
	"fmt"
	"strings"
	"time"

	"petspa-text-bot/internal/database"
	"petspa-text-bot/internal/script"

	"github.com/google/uuid"
)

type (
	// View carries everything a node may need while rendering: the copy,
	// the accumulated context and whatever external data was fetched for it.
	View struct {
		Script   *script.Script
		Ctx      *Context
		Session  *database.UserSession
		Pets     []database.Pet
		Services []database.Service
	}

	// Prompt is the rendered node: one bot message, the offered options
	// and, when the node waits for typed input, the capture request.
	Prompt struct {
		Text    string
		Options []Option
		Capture *CaptureSpec
	}
)

// external data a node needs before it can render
type Source int

const (
	SourceNone Source = iota
	SourcePets
	SourceServices
)

func DataSource(id NodeID) Source {
	switch id {
	case NodeSchedulePet, NodeMyPets:
		return SourcePets
	case NodeScheduleService:
		return SourceServices
	}
	return SourceNone
}

func mainMenu() Option {
	return Option{Label: "🏠 Main menu", Next: NodeStart}
}

func backToStart() Option {
	return Option{Label: "🏠 Back to start", Next: NodeStart}
}

func cancelBooking() Option {
	return Option{Label: "❌ Cancel", Next: NodeStart}
}

func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

// BuildNode renders one node of the closed dialogue graph against the given
// view. Identifiers outside the graph yield ErrUnknownNode.
func BuildNode(id NodeID, v View) (Prompt, error) {
	switch id {
	case NodeStart:
		if v.Session != nil {
			name := v.Session.FirstName()
			if name == "" {
				name = "friend"
			}
			return Prompt{
				Text: fmt.Sprintf("Hi, %s! 🐶 How can I help?", name),
				Options: []Option{
					{Label: "📅 Book a grooming", Next: NodeSchedulePet},
					{Label: "🧠 AI pet tips", Freeform: true},
					{Label: "🐾 My pets", Next: NodeMyPets},
					{Label: "🚪 Sign out", SignOut: true, Next: NodeStart},
				},
			}, nil
		}
		return Prompt{
			Text: "Hello! I'm the PetSpa virtual assistant 🐶. How can I help you today?",
			Options: []Option{
				{Label: "📅 Book a grooming", Next: NodeSchedulePet},
				{Label: "🔐 Log in / Sign up", Next: NodeAuthChoice},
				{Label: "🧠 AI pet tips", Freeform: true},
				{Label: "📍 Address & hours", Next: NodeContact},
			},
		}, nil

	case NodeAuthChoice:
		return Prompt{
			Text: "To access your data and book appointments, you need to sign in first.",
			Options: []Option{
				{Label: "Sign in", Next: NodeLoginEmail},
				{Label: "Create account", Next: NodeRegisterName},
				{Label: "⬅️ Back", Next: NodeStart},
			},
		}, nil

	case NodeLoginEmail:
		return Prompt{
			Text:    "Please type your e-mail:",
			Capture: &CaptureSpec{Kind: CaptureText, Field: FieldLoginEmail, Next: NodeLoginPassword},
		}, nil

	case NodeLoginPassword:
		return Prompt{
			Text:    "Now type your password:",
			Capture: &CaptureSpec{Kind: CapturePassword, Submit: SubmitSignIn},
		}, nil

	case NodeRegisterName:
		return Prompt{
			Text:    "Let's create your account! First, what's your full name?",
			Capture: &CaptureSpec{Kind: CaptureText, Field: FieldRegisterName, Next: NodeRegisterEmail},
		}, nil

	case NodeRegisterEmail:
		return Prompt{
			Text:    fmt.Sprintf("Nice to meet you, %s! What's your e-mail?", v.Ctx.RegisterName),
			Capture: &CaptureSpec{Kind: CaptureText, Field: FieldRegisterEmail, Next: NodeRegisterPhone},
		}, nil

	case NodeRegisterPhone:
		return Prompt{
			Text:    "What's your phone number (so we can reach you about your pets)?",
			Capture: &CaptureSpec{Kind: CaptureNumber, Field: FieldRegisterPhone, Next: NodeRegisterPassword},
		}, nil

	case NodeRegisterPassword:
		return Prompt{
			Text:    "Last step: choose a secure password:",
			Capture: &CaptureSpec{Kind: CapturePassword, Submit: SubmitSignUp},
		}, nil

	case NodeAuthSuccess:
		return Prompt{
			Text: "You're signed in! 🎉",
			Options: []Option{
				{Label: "Go to my profile", Navigate: database.RouteProfile},
				{Label: "Continue here", Next: NodeStart},
			},
		}, nil

	case NodeRegisterSuccess:
		return Prompt{
			Text: "Account created! Welcome to the PetSpa family. 🐾",
			Options: []Option{
				{Label: "Add a pet", Navigate: database.RouteProfile},
				mainMenu(),
			},
		}, nil

	case NodeSchedulePet:
		if v.Session == nil {
			return Prompt{
				Text: "To book an appointment, you need to sign in first.",
				Options: []Option{
					{Label: "🔐 Sign in", Next: NodeAuthChoice},
					{Label: "⬅️ Back", Next: NodeStart},
				},
			}, nil
		}
		if len(v.Pets) == 0 {
			return Prompt{
				Text: "You don't have any pets registered yet.",
				Options: []Option{
					{Label: "Register one now", Navigate: database.RouteProfile},
					{Label: "⬅️ Back", Next: NodeStart},
				},
			}, nil
		}
		opts := make([]Option, 0, len(v.Pets)+1)
		for _, p := range v.Pets {
			opts = append(opts, Option{
				Label:     p.Name,
				SelectPet: &PetChoice{ID: p.ID, Name: p.Name},
				Next:      NodeScheduleService,
			})
		}
		opts = append(opts, cancelBooking())
		return Prompt{Text: "Which pet is the appointment for?", Options: opts}, nil

	case NodeScheduleService:
		opts := make([]Option, 0, len(v.Services)+1)
		for _, s := range v.Services {
			opts = append(opts, Option{
				Label: fmt.Sprintf("%s (%s)", s.Name, formatPrice(s.Price)),
				SelectService: &ServiceChoice{
					ID:       s.ID,
					Name:     s.Name,
					Price:    s.Price,
					Duration: s.DurationMinutes,
				},
				Next: NodeScheduleDate,
			})
		}
		opts = append(opts, cancelBooking())
		return Prompt{Text: "Which service would you like?", Options: opts}, nil

	case NodeScheduleDate:
		return Prompt{
			Text: fmt.Sprintf(
				"Great choice! 🛁\n\nService: %s\nPet: %s\nDuration: ~%d min\nPrice: %s\n\nWhat date and time work best for you?",
				v.Ctx.ServiceName, v.Ctx.PetName, v.Ctx.ServiceDuration, formatPrice(v.Ctx.ServicePrice)),
			Options: []Option{
				{Label: "⬅️ Pick another service", Next: NodeScheduleService},
				cancelBooking(),
			},
			Capture: &CaptureSpec{Kind: CaptureDateTime, Field: FieldStartAt, Next: NodeScheduleConfirm},
		}, nil

	case NodeScheduleConfirm:
		return Prompt{
			Text: fmt.Sprintf("Book %s for %s on %s?",
				v.Ctx.ServiceName, v.Ctx.PetName, v.Ctx.StartAt.Format("02/01/2006 15:04")),
			Options: []Option{
				{Label: "✅ Yes, confirm", Finalize: true, Next: NodeScheduleDone},
				cancelBooking(),
			},
		}, nil

	case NodeScheduleDone:
		return Prompt{
			Text: "Perfect! Your appointment is booked. 🐾",
			Options: []Option{
				{Label: "👀 Track appointment", Navigate: database.RouteDashboard},
				backToStart(),
			},
		}, nil

	case NodeContact:
		return Prompt{
			Text:    v.Script.ContactCard,
			Options: []Option{{Label: "Thanks", Next: NodeStart}},
		}, nil

	case NodeMyPets:
		if v.Session == nil {
			return Prompt{
				Text: "You need to be signed in to see your pets.",
				Options: []Option{
					{Label: "🔐 Sign in", Next: NodeAuthChoice},
					{Label: "⬅️ Back", Next: NodeStart},
				},
			}, nil
		}
		list := "No pets found."
		if len(v.Pets) > 0 {
			names := make([]string, 0, len(v.Pets))
			for _, p := range v.Pets {
				names = append(names, p.Name)
			}
			list = strings.Join(names, ", ")
		}
		return Prompt{
			Text: fmt.Sprintf("Your registered pets: %s", list),
			Options: []Option{
				{Label: "👤 Go to my profile", Navigate: database.RouteProfile},
				{Label: "⬅️ Back", Next: NodeStart},
			},
		}, nil
	}

	return Prompt{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
}

// possible landing nodes of the registered submit continuations
func submitTargets(kind SubmitKind) []NodeID {
	switch kind {
	case SubmitSignIn:
		return []NodeID{NodeAuthSuccess, NodeAuthChoice, NodeStart}
	case SubmitSignUp:
		return []NodeID{NodeRegisterSuccess, NodeAuthChoice}
	}
	return nil
}

// one option may carry at most one modifier, and its target must exist
func checkOption(id NodeID, o Option) error {
	if o.Label == "" {
		return fmt.Errorf("flow: empty option label on node %s", id)
	}

	modifiers := 0
	if o.SelectPet != nil {
		modifiers++
	}
	if o.SelectService != nil {
		modifiers++
	}
	if o.Finalize {
		modifiers++
	}
	if o.Freeform {
		modifiers++
	}
	if o.SignOut {
		modifiers++
	}
	if o.Navigate != "" {
		modifiers++
	}
	if modifiers > 1 {
		return fmt.Errorf("flow: option %q on node %s has more than one modifier", o.Label, id)
	}

	if o.Next != "" && !Known(o.Next) {
		return fmt.Errorf("flow: option %q on node %s leads to unknown node %s", o.Label, id, o.Next)
	}
	if o.Freeform && o.Next != "" {
		return fmt.Errorf("flow: freeform option %q on node %s cannot carry a next node", o.Label, id)
	}
	if o.SignOut && o.Next != NodeStart {
		return fmt.Errorf("flow: sign-out option %q on node %s must return to start", o.Label, id)
	}
	if o.Finalize && o.Next == "" {
		return fmt.Errorf("flow: finalize option %q on node %s needs a next node", o.Label, id)
	}
	return nil
}

// representative views so every branch of every node gets rendered once
func sampleViews(s *script.Script) []View {
	ctx := &Context{
		PetID: 1, PetName: "Rex",
		ServiceID: 1, ServiceName: "Bath", ServicePrice: 50, ServiceDuration: 60,
		StartAt:      time.Now().Add(24 * time.Hour),
		RegisterName: "Sam",
	}
	session := &database.UserSession{UserID: uuid.New(), FullName: "Sample User", AccessToken: "sample"}
	pets := []database.Pet{{ID: 1, Name: "Rex"}}
	services := []database.Service{{ID: 1, Name: "Bath", Price: 50, DurationMinutes: 60}}

	return []View{
		{Script: s, Ctx: ctx},
		{Script: s, Ctx: ctx, Session: session},
		{Script: s, Ctx: ctx, Session: session, Pets: pets, Services: services},
	}
}

// CheckGraph renders every node against representative views and verifies
// the invariants of the graph: every option is well formed, every target
// exists, every node is reachable from start and every reachable node can
// either get back to start or hands the user off to free-text mode.
func CheckGraph(s *script.Script) error {
	edges := make(map[NodeID]map[NodeID]bool)
	escapes := make(map[NodeID]bool)

	addEdge := func(from, to NodeID) {
		if edges[from] == nil {
			edges[from] = make(map[NodeID]bool)
		}
		edges[from][to] = true
	}

	for _, id := range allNodes {
		for _, v := range sampleViews(s) {
			p, err := BuildNode(id, v)
			if err != nil {
				return err
			}
			if p.Text == "" {
				return fmt.Errorf("flow: node %s renders an empty message", id)
			}

			for _, o := range p.Options {
				if err := checkOption(id, o); err != nil {
					return err
				}
				if o.Next != "" {
					addEdge(id, o.Next)
				}
				if o.Freeform {
					// free-text mode is a sink with a single edge to start
					escapes[id] = true
				}
			}

			if p.Capture != nil {
				if p.Capture.Next != "" {
					if !Known(p.Capture.Next) {
						return fmt.Errorf("flow: capture on node %s leads to unknown node %s", id, p.Capture.Next)
					}
					addEdge(id, p.Capture.Next)
				}
				for _, t := range submitTargets(p.Capture.Submit) {
					addEdge(id, t)
				}
				if p.Capture.Next == "" && p.Capture.Submit == SubmitNone {
					return fmt.Errorf("flow: capture on node %s has no continuation", id)
				}
			}
		}
	}

	reachable := walk(NodeStart, edges)
	for _, id := range allNodes {
		if !reachable[id] {
			return fmt.Errorf("flow: node %s is unreachable from start", id)
		}
	}

	for id := range reachable {
		if id == NodeStart || escapes[id] {
			continue
		}
		if !walk(id, edges)[NodeStart] {
			return fmt.Errorf("flow: node %s cannot reach start", id)
		}
	}
	return nil
}

func walk(from NodeID, edges map[NodeID]map[NodeID]bool) map[NodeID]bool {
	seen := map[NodeID]bool{from: true}
	queue := []NodeID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range edges[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}
