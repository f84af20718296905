package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openAISystemPrompt = `You geocode Malaysian job locations.
Reply with one JSON object and nothing else: {"latitude": <number|null>, "longitude": <number|null>}.
Use null for both when the place cannot be identified.`

// OpenAIGeocoder asks a chat model for coordinates.
type OpenAIGeocoder struct {
	client openai.Client
	model  string
}

func NewOpenAIGeocoder(apiKey, baseURL, model string, timeout time.Duration) *OpenAIGeocoder {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// quota errors must surface on the first attempt
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	return &OpenAIGeocoder{client: openai.NewClient(opts...), model: model}
}

func (g *OpenAIGeocoder) Geocode(ctx context.Context, req Request) (Result, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISystemPrompt),
			openai.UserMessage(describe(req)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Result{}, &StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return Result{}, fmt.Errorf("openai geocode: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, errors.New("openai geocode: empty response")
	}
	return parseModelReply(resp.Choices[0].Message.Content)
}

func describe(req Request) string {
	var parts []string
	for _, p := range []string{req.Address, req.City, req.Postcode, req.State, req.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return "Location: " + strings.Join(parts, ", ")
}

// parseModelReply tolerates a fenced code block around the JSON object.
func parseModelReply(content string) (Result, error) {
	s := strings.TrimSpace(content)
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			s = s[i : j+1]
		}
	}
	var out Result
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return Result{}, fmt.Errorf("openai geocode: unparseable reply %q: %w", content, err)
	}
	return out, nil
}
