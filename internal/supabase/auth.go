package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"petspa-text-bot/internal/database"

	"github.com/google/uuid"
)

type (
	credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	signUpRequest struct {
		Email    string         `json:"email"`
		Password string         `json:"password"`
		Data     signUpMetadata `json:"data"`
	}

	signUpMetadata struct {
		FullName string `json:"full_name"`
		Phone    string `json:"phone,omitempty"`
	}

	authResponse struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID           uuid.UUID `json:"id"`
			Email        string    `json:"email"`
			UserMetadata struct {
				FullName string `json:"full_name"`
				Phone    string `json:"phone"`
			} `json:"user_metadata"`
		} `json:"user"`
	}
)

// SignIn exchanges an email/password pair for a session token. A rejected
// pair is reported as database.ErrInvalidCredentials so the dialogue can
// re-prompt instead of degrading.
func (c *Client) SignIn(ctx context.Context, email, password string) (*database.UserSession, error) {
	jsonData, err := json.Marshal(credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	content, err := c.invoke(ctx, http.MethodPost, "/auth/v1/token", url.Values{
		"grant_type": {"password"},
	}, "", jsonData)
	if err != nil {
		var httpErr *HttpError
		if errors.As(err, &httpErr) && (httpErr.Code == http.StatusBadRequest || httpErr.Code == http.StatusUnauthorized) {
			return nil, database.ErrInvalidCredentials
		}
		return nil, err
	}

	return parseSession(content)
}

// SignUp registers an account with the profile fields stashed in the user
// metadata. The project is expected to auto-confirm, so a usable session
// comes back immediately.
func (c *Client) SignUp(ctx context.Context, email, password, name, phone string) (*database.UserSession, error) {
	jsonData, err := json.Marshal(signUpRequest{
		Email:    email,
		Password: password,
		Data:     signUpMetadata{FullName: name, Phone: phone},
	})
	if err != nil {
		return nil, err
	}

	content, err := c.invoke(ctx, http.MethodPost, "/auth/v1/signup", nil, "", jsonData)
	if err != nil {
		return nil, err
	}

	return parseSession(content)
}

// SignOut revokes the token server-side.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.invoke(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, []byte("{}"))
	return err
}

func parseSession(content []byte) (*database.UserSession, error) {
	var resp authResponse
	if err := json.Unmarshal(content, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("auth response carries no access token")
	}

	return &database.UserSession{
		UserID:      resp.User.ID,
		Email:       resp.User.Email,
		FullName:    resp.User.UserMetadata.FullName,
		Phone:       resp.User.UserMetadata.Phone,
		AccessToken: resp.AccessToken,
	}, nil
}
