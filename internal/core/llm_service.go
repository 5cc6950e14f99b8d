package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"
	"smooze.app/wingman/internal/config"
)

var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrEmptyCompletion   = errors.New("model returned no text")
)

// Completer sends one prompt to a text-generation service and returns its
// output. Implementations make a single attempt: no retries, no streaming.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Stage string

const (
	StageSummary  Stage = "summary"
	StageResponse Stage = "response"
)

// InferenceError is the only failure kind a turn recognises.
type InferenceError struct {
	Stage    Stage // empty until the pipeline knows which call failed
	Provider string
	Err      error
}

func (e *InferenceError) Error() string {
	msg := "inference failed"
	if e.Provider != "" {
		msg = e.Provider + " " + msg
	}
	if e.Stage != "" {
		msg += " during " + string(e.Stage)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// NewCompleter builds the completer selected by cfg.LLMProvider. The returned
// completer implements io.Closer when it holds a client connection.
func NewCompleter(ctx context.Context, cfg config.Config) (Completer, error) {
	var c Completer
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		gc, err := NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		c = gc
	case config.ProviderOpenAI:
		oc, err := NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		c = oc
	case config.ProviderMock:
		c = NewMockCompleter()
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}

	if cfg.InferenceTimeout > 0 {
		c = WithTimeout(c, cfg.InferenceTimeout)
	}
	return c, nil
}

// CloseCompleter releases c's resources if it has any.
func CloseCompleter(c Completer) {
	closer, ok := c.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Printf("Error closing completer: %v", err)
	}
}

// GeminiCompleter talks to the Gemini API through the GenAI SDK.
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
}

func NewGeminiCompleter(ctx context.Context, apiKey, modelName string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, &InferenceError{Provider: "gemini", Err: ErrMissingCredential}
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiCompleter{client: client, modelName: modelName}, nil
}

func (s *GeminiCompleter) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return err
	}
	log.Println("GenAI client closed.")
	return nil
}

func (s *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &InferenceError{Provider: "gemini", Err: fmt.Errorf("GenerateContent failed: %w", err)}
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &InferenceError{Provider: "gemini", Err: ErrEmptyCompletion}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if text.Len() == 0 {
		return "", &InferenceError{Provider: "gemini", Err: ErrEmptyCompletion}
	}
	return text.String(), nil
}

// OpenAICompleter targets any OpenAI-compatible chat completion endpoint.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(apiKey, baseURL, model string) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, &InferenceError{Provider: "openai", Err: ErrMissingCredential}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &InferenceError{Provider: "openai", Err: fmt.Errorf("failed to create chat completion: %w", err)}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &InferenceError{Provider: "openai", Err: ErrEmptyCompletion}
	}
	return resp.Choices[0].Message.Content, nil
}

// MockCompleter answers locally without any network access. Summary prompts
// get a canned summary; everything else gets a tagged wingman reply.
type MockCompleter struct{}

func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

func (MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &InferenceError{Provider: "mock", Err: err}
	}
	if strings.HasPrefix(prompt, "Please provide a brief summary") {
		return "The user is chatting with Smooze about their dating life. The tone is playful.", nil
	}
	return "<conversation_analysis>\nThe user wants a light, flirty reply.\n</conversation_analysis>\n\n" +
		"<response>\nOkay that's adorable 😄 Tell me more, what's the vibe so far?\n</response>", nil
}

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

// WithTimeout bounds every Complete call on next by d.
func WithTimeout(next Completer, d time.Duration) Completer {
	return &timeoutCompleter{next: next, timeout: d}
}

func (t *timeoutCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, prompt)
}

func (t *timeoutCompleter) Close() error {
	if closer, ok := t.next.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
