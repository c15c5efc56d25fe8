package groq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

type recordedRequest struct {
	Model               string           `json:"model"`
	Temperature         float64          `json:"temperature"`
	MaxCompletionTokens int              `json:"max_completion_tokens"`
	ToolChoice          string           `json:"tool_choice"`
	Messages            []map[string]any `json:"messages"`
	Tools               []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string         `json:"name"`
			Parameters map[string]any `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

func newTestServer(t *testing.T, status int, body string, seen *recordedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(raw, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completionBody(message string) string {
	return `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":` + message + `}]}`
}

func generateOnce(t *testing.T, m *Model, req *model.LLMRequest) (*model.LLMResponse, error) {
	t.Helper()
	var (
		resp *model.LLMResponse
		err  error
	)
	for r, e := range m.GenerateContent(context.Background(), req, false) {
		resp, err = r, e
	}
	return resp, err
}

func sampleRequest() *model.LLMRequest {
	temp := float32(0.7)
	return &model.LLMRequest{
		Contents: []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText("bonjour")}},
			{Role: genai.RoleModel, Parts: []*genai.Part{genai.NewPartFromText("salut")}},
			{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText("crée un projet")}},
		},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText("tu es un assistant")}},
			Temperature:       &temp,
			MaxOutputTokens:   1024,
			Tools: []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        "create_project",
				Description: "Créer un projet",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":   {Type: genai.TypeString},
						"status": {Type: genai.TypeString, Enum: []string{"devis", "en_cours"}},
					},
					Required: []string{"name"},
				},
			}}}},
		},
	}
}

func TestGenerateContentSendsMessagesAndTools(t *testing.T) {
	var seen recordedRequest
	srv := newTestServer(t, http.StatusOK, completionBody(`{"role":"assistant","content":"Voici"}`), &seen)
	m := NewModel(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "llama-test"})

	resp, err := generateOnce(t, m, sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Content.Parts) != 1 || resp.Content.Parts[0].Text != "Voici" {
		t.Fatalf("unexpected parts %+v", resp.Content.Parts)
	}

	if seen.Model != "llama-test" || seen.MaxCompletionTokens != 1024 || seen.ToolChoice != "auto" {
		t.Fatalf("unexpected request params %+v", seen)
	}
	if seen.Temperature < 0.69 || seen.Temperature > 0.71 {
		t.Fatalf("unexpected temperature %v", seen.Temperature)
	}
	roles := make([]string, 0, len(seen.Messages))
	for _, msg := range seen.Messages {
		roles = append(roles, msg["role"].(string))
	}
	want := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("expected roles %v, got %v", want, roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("expected roles %v, got %v", want, roles)
		}
	}
	if len(seen.Tools) != 1 || seen.Tools[0].Function.Name != "create_project" {
		t.Fatalf("unexpected tools %+v", seen.Tools)
	}
	params := seen.Tools[0].Function.Parameters
	if params["type"] != "object" {
		t.Fatalf("expected lower-case object type, got %v", params["type"])
	}
	status := params["properties"].(map[string]any)["status"].(map[string]any)
	if status["type"] != "string" || len(status["enum"].([]any)) != 2 {
		t.Fatalf("unexpected status schema %v", status)
	}
}

func TestGenerateContentReturnsToolCallsInOrder(t *testing.T) {
	body := completionBody(`{"role":"assistant","content":null,"tool_calls":[
		{"id":"a","type":"function","function":{"name":"create_project","arguments":"{\"name\":\"Site X\",\"client_name\":\"Acme\"}"}},
		{"id":"b","type":"function","function":{"name":"create_task","arguments":"{}"}}]}`)
	srv := newTestServer(t, http.StatusOK, body, nil)
	m := NewModel(Config{APIKey: "test-key", BaseURL: srv.URL})

	resp, err := generateOnce(t, m, sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Content.Parts) != 2 {
		t.Fatalf("expected two parts, got %d", len(resp.Content.Parts))
	}
	first := resp.Content.Parts[0].FunctionCall
	if first == nil || first.Name != "create_project" || first.Args["client_name"] != "Acme" {
		t.Fatalf("unexpected first call %+v", first)
	}
	if resp.Content.Parts[1].FunctionCall.Name != "create_task" {
		t.Fatal("expected provider order to be preserved")
	}
}

func TestGenerateContentKeepsFirstCallWhenLaterArgumentsAreMalformed(t *testing.T) {
	body := completionBody(`{"role":"assistant","content":null,"tool_calls":[
		{"id":"a","type":"function","function":{"name":"create_project","arguments":"{\"name\":\"Site X\",\"client_name\":\"Acme\"}"}},
		{"id":"b","type":"function","function":{"name":"create_prospect","arguments":"{not json"}}]}`)
	srv := newTestServer(t, http.StatusOK, body, nil)
	m := NewModel(Config{APIKey: "test-key", BaseURL: srv.URL})

	resp, err := generateOnce(t, m, sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Content.Parts) != 2 {
		t.Fatalf("expected two parts, got %d", len(resp.Content.Parts))
	}
	first := resp.Content.Parts[0].FunctionCall
	if first == nil || first.Name != "create_project" || first.Args["name"] != "Site X" {
		t.Fatalf("unexpected first call %+v", first)
	}
	second := resp.Content.Parts[1].FunctionCall
	if second == nil || second.Name != "create_prospect" || second.Args != nil {
		t.Fatalf("expected later call without arguments, got %+v", second)
	}
}

func TestGenerateContentRejectsMalformedArguments(t *testing.T) {
	body := completionBody(`{"role":"assistant","content":null,"tool_calls":[
		{"id":"a","type":"function","function":{"name":"create_project","arguments":"{\"name\": "}}]}`)
	srv := newTestServer(t, http.StatusOK, body, nil)
	m := NewModel(Config{APIKey: "test-key", BaseURL: srv.URL})

	_, err := generateOnce(t, m, sampleRequest())
	if !errors.Is(err, ErrMalformedToolCall) {
		t.Fatalf("expected ErrMalformedToolCall, got %v", err)
	}
}

func TestGenerateContentMapsUnauthorized(t *testing.T) {
	srv := newTestServer(t, http.StatusUnauthorized, `{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`, nil)
	m := NewModel(Config{APIKey: "test-key", BaseURL: srv.URL})

	_, err := generateOnce(t, m, sampleRequest())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGenerateContentDoesNotRetryServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom"}}`)
	}))
	defer srv.Close()
	m := NewModel(Config{APIKey: "test-key", BaseURL: srv.URL})

	_, err := generateOnce(t, m, sampleRequest())
	if err == nil || errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected generic provider error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one attempt, got %d", calls)
	}
}
