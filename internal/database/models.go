package database

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// screen identifiers owned by the hosting shell; the bot only signals them
type Route string

const (
	RouteHome      Route = "home"
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
	RouteProfile   Route = "user-profile"
)

// appointment lifecycle as the admin kanban moves it
const (
	AppointmentPending    = "pending"
	AppointmentConfirmed  = "confirmed"
	AppointmentInProgress = "in_progress"
	AppointmentCompleted  = "completed"
)

// the auth provider rejected the email/password pair
var ErrInvalidCredentials = errors.New("invalid email or password")

type (
	Pet struct {
		ID           int64     `json:"id"`
		OwnerID      uuid.UUID `json:"owner_id"`
		Name         string    `json:"name"`
		Breed        string    `json:"breed,omitempty"`
		SizeCategory string    `json:"size_category,omitempty"`
		PhotoURL     string    `json:"photo_url,omitempty"`
	}

	NewPet struct {
		OwnerID      uuid.UUID `json:"owner_id"`
		Name         string    `json:"name"`
		Breed        string    `json:"breed,omitempty"`
		SizeCategory string    `json:"size_category,omitempty"`
		PhotoURL     string    `json:"photo_url,omitempty"`
	}

	Service struct {
		ID              int64   `json:"id"`
		Name            string  `json:"name"`
		Price           float64 `json:"price"`
		DurationMinutes int     `json:"duration_minutes"`
	}

	Product struct {
		ID       int64   `json:"id"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Category string  `json:"category,omitempty"`
		ImageURL string  `json:"image_url,omitempty"`
	}

	Appointment struct {
		ID        int64     `json:"id"`
		UserID    uuid.UUID `json:"user_id"`
		PetID     int64     `json:"pet_id"`
		ServiceID int64     `json:"service_id"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Status    string    `json:"status"`

		// embedded names when listed for the admin board
		Pet     *NameRef    `json:"pets,omitempty"`
		Service *NameRef    `json:"services,omitempty"`
		Profile *ProfileRef `json:"profiles,omitempty"`
	}

	NewAppointment struct {
		UserID    uuid.UUID `json:"user_id"`
		PetID     int64     `json:"pet_id"`
		ServiceID int64     `json:"service_id"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Status    string    `json:"status"`
	}

	NameRef struct {
		Name string `json:"name"`
	}

	ProfileRef struct {
		FullName string `json:"full_name"`
	}

	// authenticated user attached to one chat session
	UserSession struct {
		UserID      uuid.UUID `json:"user_id"`
		Email       string    `json:"email"`
		FullName    string    `json:"full_name"`
		Phone       string    `json:"phone,omitempty"`
		AccessToken string    `json:"access_token"`
	}

	// one transcript turn forwarded to the AI accessor
	Turn struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}
)

func (u *UserSession) FirstName() string {
	name := strings.TrimSpace(u.FullName)
	if name == "" {
		return ""
	}
	return strings.Fields(name)[0]
}
