package flow

import "time"

// Context accumulates everything collected while walking the graph: the
// chosen pet and service, the requested slot and the auth scratch fields.
// It is reset wholesale whenever the flow returns to the start node, never
// field by field.
type Context struct {
	PetID   int64  `json:"pet_id,omitempty"`
	PetName string `json:"pet_name,omitempty"`

	ServiceID       int64   `json:"service_id,omitempty"`
	ServiceName     string  `json:"service_name,omitempty"`
	ServicePrice    float64 `json:"service_price,omitempty"`
	ServiceDuration int     `json:"service_duration,omitempty"`

	StartAt time.Time `json:"start_at,omitempty"`

	LoginEmail    string `json:"login_email,omitempty"`
	RegisterName  string `json:"register_name,omitempty"`
	RegisterEmail string `json:"register_email,omitempty"`
	RegisterPhone string `json:"register_phone,omitempty"`
}
