package script

type (
	// Script holds every piece of copy the bot speaks: the greeting, the
	// texts around the AI fallback and the degraded-mode error messages.
	// Wording lives in YAML so it can be tuned without a rebuild; the
	// dialogue graph itself is fixed in code.
	Script struct {
		GreetingMessage string `yaml:"greeting_message"`

		// echoed in place of password input, never the raw value
		PasswordMask string `yaml:"password_mask"`

		// the address/hours card shown by the contact node
		ContactCard string `yaml:"contact_card"`

		AI AI `yaml:"ai"`

		ErrorMessages ErrorMessages `yaml:"error_messages"`
	}

	AI struct {
		// shown when the user switches to free-text mode
		Intro string `yaml:"intro"`
		// static apology when the language model is unreachable
		Unavailable string `yaml:"unavailable"`
		// system prompt forwarded with every free-text request
		SystemInstruction string `yaml:"system_instruction"`
		// short fallback when the mascot phrase generator fails
		MascotFallback string `yaml:"mascot_fallback"`
	}

	ErrorMessages struct {
		// the message did not match any offered option
		CommandUnknown string `yaml:"command_unknown"`
		// a pet/service fetch failed while rendering a node
		DataUnavailable string `yaml:"data_unavailable"`
		// the auth provider rejected the credentials
		AuthFailed string `yaml:"auth_failed"`
		// sign-in failed for a reason other than bad credentials
		AuthError string `yaml:"auth_error"`
		// account creation was rejected
		SignupFailed string `yaml:"signup_failed"`
		// create-appointment failed after the user confirmed
		BookingFailed string `yaml:"booking_failed"`
		// captured input failed validation
		InvalidValue string `yaml:"invalid_value"`
		// captured date-time lies in the past
		DateInPast string `yaml:"date_in_past"`
		// confirmation after the sign-out action
		SignedOut string `yaml:"signed_out"`
	}
)
