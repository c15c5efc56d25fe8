// Package groq adapts Groq's OpenAI-compatible chat completions API to the
// ADK model.LLM interface.
package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.3-70b-versatile"
)

var (
	// ErrUnauthorized is returned when the provider rejects the API key.
	ErrUnauthorized = errors.New("groq: invalid or expired api key")
	// ErrMalformedToolCall is returned when the first tool call carries
	// arguments that are not a JSON object.
	ErrMalformedToolCall = errors.New("groq: malformed tool call arguments")
	// ErrEmptyResponse is returned when the provider answers without choices.
	ErrEmptyResponse = errors.New("groq: empty choices")
)

// Config for the Groq model.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Model adapts Groq to the ADK model.LLM interface.
type Model struct {
	name   string
	client openai.Client
}

var _ model.LLM = (*Model)(nil)

// NewModel builds a Model. Requests are never retried by the client.
func NewModel(cfg Config) *Model {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Model{
		name:   cfg.Model,
		client: openai.NewClient(opts...),
	}
}

func (m *Model) Name() string {
	return m.name
}

// GenerateContent sends one non-streaming completion request and yields a
// single response. The stream flag is ignored.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, errors.New("groq: nil request")
	}

	params := m.buildParams(req)

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	msg := completion.Choices[0].Message
	parts := make([]*genai.Part, 0, 1+len(msg.ToolCalls))
	if strings.TrimSpace(msg.Content) != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}
	for i, tc := range msg.ToolCalls {
		// Only the first call can become an action. Later calls are passed
		// through without arguments when these do not decode.
		args, err := decodeArguments(tc.Function.Arguments)
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("%w: tool %q: %v", ErrMalformedToolCall, tc.Function.Name, err)
			}
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: args,
			},
		})
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  genai.RoleModel,
			Parts: parts,
		},
	}, nil
}

func (m *Model) buildParams(req *model.LLMRequest) openai.ChatCompletionNewParams {
	modelName := m.name
	if req.Model != "" {
		modelName = req.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelName),
		Messages: convertMessages(req),
	}

	if cfg := req.Config; cfg != nil {
		if cfg.Temperature != nil {
			params.Temperature = openai.Float(float64(*cfg.Temperature))
		}
		if cfg.MaxOutputTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(cfg.MaxOutputTokens))
		}
		if tools := convertTools(cfg.Tools); len(tools) > 0 {
			params.Tools = tools
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
		}
	}

	return params
}

func convertMessages(req *model.LLMRequest) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Contents)+1)

	if req.Config != nil && req.Config.SystemInstruction != nil {
		if text := contentText(req.Config.SystemInstruction); text != "" {
			messages = append(messages, openai.SystemMessage(text))
		}
	}

	for _, content := range req.Contents {
		if content == nil {
			continue
		}
		text := contentText(content)
		if text == "" {
			continue
		}
		switch content.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		case genai.RoleModel, "assistant":
			messages = append(messages, openai.AssistantMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}

	return messages
}

func contentText(content *genai.Content) string {
	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || strings.TrimSpace(part.Text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func convertTools(tools []*genai.Tool) []openai.ChatCompletionToolUnionParam {
	var out []openai.ChatCompletionToolUnionParam
	for _, tool := range tools {
		if tool == nil {
			continue
		}
		for _, decl := range tool.FunctionDeclarations {
			if decl == nil || decl.Name == "" {
				continue
			}
			params := openai.FunctionParameters{"type": "object", "properties": map[string]any{}}
			if decl.Parameters != nil {
				params = openai.FunctionParameters(schemaToMap(decl.Parameters))
			}
			out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
				Name:        decl.Name,
				Description: openai.String(decl.Description),
				Parameters:  params,
			}))
		}
	}
	return out
}

// schemaToMap renders a genai schema as JSON Schema. genai spells types in
// upper case, JSON Schema in lower case.
func schemaToMap(s *genai.Schema) map[string]any {
	out := map[string]any{}
	if s.Type != "" {
		out["type"] = strings.ToLower(string(s.Type))
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if s.Items != nil {
		out["items"] = schemaToMap(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			if prop != nil {
				props[name] = schemaToMap(prop)
			}
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func decodeArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		return nil, errors.New("arguments are not an object")
	}
	return args, nil
}

func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "api key") {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return fmt.Errorf("groq chat completion: %w", err)
}
