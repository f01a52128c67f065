package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"petspa-text-bot/internal/database"

	"github.com/google/uuid"
)

// MyPets lists the pets owned by the signed-in user.
func (c *Client) MyPets(ctx context.Context, accessToken string, userID uuid.UUID) ([]database.Pet, error) {
	content, err := c.invoke(ctx, http.MethodGet, "/rest/v1/pets", url.Values{
		"select":   {"*"},
		"owner_id": {"eq." + userID.String()},
		"order":    {"name"},
	}, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var pets []database.Pet
	if err := json.Unmarshal(content, &pets); err != nil {
		return nil, err
	}
	return pets, nil
}

// CreatePet adds a pet for the signed-in user.
func (c *Client) CreatePet(ctx context.Context, accessToken string, pet database.NewPet) error {
	jsonData, err := json.Marshal(pet)
	if err != nil {
		return err
	}

	_, err = c.invoke(ctx, http.MethodPost, "/rest/v1/pets", nil, accessToken, jsonData)
	return err
}

// Services lists the grooming catalogue, cheapest first.
func (c *Client) Services(ctx context.Context) ([]database.Service, error) {
	content, err := c.invoke(ctx, http.MethodGet, "/rest/v1/services", url.Values{
		"select": {"*"},
		"order":  {"price"},
	}, "", nil)
	if err != nil {
		return nil, err
	}

	var services []database.Service
	if err := json.Unmarshal(content, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// Products lists the marketplace catalogue.
func (c *Client) Products(ctx context.Context) ([]database.Product, error) {
	content, err := c.invoke(ctx, http.MethodGet, "/rest/v1/products", url.Values{
		"select": {"*"},
		"order":  {"name"},
	}, "", nil)
	if err != nil {
		return nil, err
	}

	var products []database.Product
	if err := json.Unmarshal(content, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateAppointment books one slot.
func (c *Client) CreateAppointment(ctx context.Context, accessToken string, appt database.NewAppointment) error {
	jsonData, err := json.Marshal(appt)
	if err != nil {
		return err
	}

	_, err = c.invoke(ctx, http.MethodPost, "/rest/v1/appointments", nil, accessToken, jsonData)
	return err
}

// Appointments lists every booking with the pet, service and owner names
// embedded, in start order. Meant for the staff board, so row access is
// whatever the caller's token allows.
func (c *Client) Appointments(ctx context.Context, accessToken string) ([]database.Appointment, error) {
	content, err := c.invoke(ctx, http.MethodGet, "/rest/v1/appointments", url.Values{
		"select": {"*,pets(name),services(name),profiles(full_name)"},
		"order":  {"start_time"},
	}, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var appts []database.Appointment
	if err := json.Unmarshal(content, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// UpdateAppointmentStatus moves one booking along the lifecycle.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, accessToken string, id int64, status string) error {
	jsonData, err := json.Marshal(map[string]string{"status": status})
	if err != nil {
		return err
	}

	_, err = c.invoke(ctx, http.MethodPatch, "/rest/v1/appointments", url.Values{
		"id": {"eq." + strconv.FormatInt(id, 10)},
	}, accessToken, jsonData)
	return err
}
