package script

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"sync"

	"petspa-text-bot/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-yaml"
)

var lock = &sync.RWMutex{}
var script *Script

// Default returns a script with every text set to the built-in copy.
func Default() *Script {
	s := &Script{}
	setDefaultMessages(s)
	return s
}

func InitScript(path string) *Script {
	if script == nil {
		lock.Lock()
		defer lock.Unlock()
		if script == nil {
			var err error
			script, err = loadScript(path)
			if err != nil {
				logger.Crit(err)
			}
		} else {
			logger.Warning("Script already created")
		}
	} else {
		logger.Warning("Script already created")
	}
	return script
}

func (_ *Script) UpdateScript(path string) error {
	newScript, err := loadScript(path)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()
	*script = *newScript
	return nil
}

func loadScript(pathCnf string) (*Script, error) {
	input, err := os.ReadFile(pathCnf)
	if err != nil {
		return nil, fmt.Errorf("unable to read script file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewBuffer(input), yaml.ReferenceDirs(path.Dir(pathCnf)), yaml.RecursiveDir(true))
	sc := &Script{}
	if err := dec.Decode(sc); err != nil {
		return nil, err
	}

	setDefaultMessages(sc)
	return sc, nil
}

// fill in every text that the YAML left empty
func setDefaultMessages(s *Script) {
	if s.GreetingMessage == "" {
		s.GreetingMessage = "Welcome to PetSpa! 🐾"
	}
	if s.PasswordMask == "" {
		s.PasswordMask = "••••••"
	}
	if s.ContactCard == "" {
		s.ContactCard = "We are at Pet Ave, 123.\n📞 (11) 99999-9999\n⏰ Mon-Fri 9am to 6pm"
	}

	if s.AI.Intro == "" {
		s.AI.Intro = "AI mode on! 🧠\nAsk me about breeds, health tips or pet care."
	}
	if s.AI.Unavailable == "" {
		s.AI.Unavailable = "Sorry, my AI brain is a little scrambled right now 🤯. Try again later."
	}
	if s.AI.SystemInstruction == "" {
		s.AI.SystemInstruction = "You are the smart virtual assistant of PetSpa, a premium pet shop.\n" +
			"Be helpful, friendly and use emojis in moderation 🐶.\n\n" +
			"Store context:\n" +
			"- Services: Bath ($50), Grooming ($80), Hydration ($60), Nail Trim ($20).\n" +
			"- Hours: Mon-Fri 9am to 6pm, Sat 9am to 2pm.\n" +
			"- Location: city center.\n\n" +
			"Answer rules:\n" +
			"1. Answer questions about dog and cat care.\n" +
			"2. If asked about prices, use the table above.\n" +
			"3. If the user wants to BOOK a service, kindly explain they must use the menu buttons; you cannot book directly.\n" +
			"4. Keep answers short and direct (two paragraphs at most)."
	}
	if s.AI.MascotFallback == "" {
		s.AI.MascotFallback = "Shall we make your pet happy today? 🐾"
	}

	if s.ErrorMessages.CommandUnknown == "" {
		s.ErrorMessages.CommandUnknown = "I didn't catch that. Please pick one of the options."
	}
	if s.ErrorMessages.DataUnavailable == "" {
		s.ErrorMessages.DataUnavailable = "I couldn't reach our booking service right now. Let's try again in a moment."
	}
	if s.ErrorMessages.AuthFailed == "" {
		s.ErrorMessages.AuthFailed = "❌ Wrong e-mail or password."
	}
	if s.ErrorMessages.AuthError == "" {
		s.ErrorMessages.AuthError = "Something went wrong while signing you in."
	}
	if s.ErrorMessages.SignupFailed == "" {
		s.ErrorMessages.SignupFailed = "❌ I couldn't create your account."
	}
	if s.ErrorMessages.BookingFailed == "" {
		s.ErrorMessages.BookingFailed = "There was a technical problem saving your appointment."
	}
	if s.ErrorMessages.InvalidValue == "" {
		s.ErrorMessages.InvalidValue = "That value doesn't look right. Please try again."
	}
	if s.ErrorMessages.DateInPast == "" {
		s.ErrorMessages.DateInPast = "That date is in the past. Please pick a future date and time."
	}
	if s.ErrorMessages.SignedOut == "" {
		s.ErrorMessages.SignedOut = "You are signed out."
	}
}

// InjectScript - Adds the script to the Gin context
func InjectScript(key string, script *Script) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, script)
	}
}
