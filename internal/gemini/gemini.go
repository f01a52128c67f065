package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"petspa-text-bot/internal/database"

	"github.com/gin-gonic/gin"
	"google.golang.org/genai"
)

// Client wraps one Gemini model with the salon persona baked in as the
// system instruction.
type Client struct {
	cli   *genai.Client
	model string

	systemInstruction string
}

func New(ctx context.Context, apiKey, model, systemInstruction string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is not set")
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		cli:               cli,
		model:             model,
		systemInstruction: systemInstruction,
	}, nil
}

// Answer replies to one free-text message with the recent transcript as
// conversational grounding.
func (c *Client) Answer(ctx context.Context, history []database.Turn, message string) (string, error) {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, genai.NewContentFromText(turn.Text, genai.Role(turn.Role)))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	resp, err := c.cli.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.7)),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

// MascotPhrase produces one short upbeat greeting from the salon mascot,
// personalized when a user or pet name is known.
func (c *Client) MascotPhrase(ctx context.Context, userName string, petNames []string) (string, error) {
	var b strings.Builder
	b.WriteString("You are Bubbles, the cheerful dog mascot of the PetSpa grooming salon. ")
	b.WriteString("Write exactly one short, warm, playful greeting sentence. No quotes, no emoji spam (one emoji at most).")
	if userName != "" {
		fmt.Fprintf(&b, " The visitor's name is %s.", userName)
	}
	if len(petNames) > 0 {
		fmt.Fprintf(&b, " Their pets are called: %s.", strings.Join(petNames, ", "))
	}

	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(b.String(), genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(1.0)),
		})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

// Inject - Adds the client to the Gin context
func Inject(key string, cl *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cl)
	}
}
