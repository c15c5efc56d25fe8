// Package agent implements the chat assistant: it grounds the model in the
// caller's data, turns tool calls into pending actions and executes them once
// the user confirms.
package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"supaco_backend/internal/assistant/repository"
	"supaco_backend/internal/assistant/session"
	"supaco_backend/platform/ai/groq"
	"supaco_backend/platform/apperr"
	"supaco_backend/platform/logger"

	"github.com/google/uuid"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Turn outcomes reported in logs.
const (
	outcomeText      = "text"
	outcomeProposed  = "proposed"
	outcomeExecuted  = "executed"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
)

// Settings tune the model call and the confirmation policy.
type Settings struct {
	Temperature        float64
	MaxTokens          int
	HistoryWindow      int
	RequireActionToken bool
}

// ActionRequest identifies an action to execute: a pending-action token, or
// a raw function and arguments when tokens are not required.
type ActionRequest struct {
	Function string
	Args     map[string]any
	Token    string
}

// ChatInput is one chat request.
type ChatInput struct {
	Message     string
	History     []session.Turn
	Confirm     *ActionRequest
	CancelToken string
	SessionID   string
}

// PendingAction is a proposed action waiting for the user's confirmation.
type PendingAction struct {
	Function    string
	Args        map[string]any
	Description string
	Token       string
	ExpiresAt   time.Time
}

// ChatOutput is the reply to one chat request.
type ChatOutput struct {
	Response       string
	ActionExecuted *ActionResult
	PendingAction  *PendingAction
	History        []session.Turn
	SessionID      string
}

// Suggestions are quick prompts shown next to the chat.
type Suggestions struct {
	Insights  []string
	Questions []string
}

// Service runs conversation turns.
type Service struct {
	llm      model.LLM
	snap     *Snapshotter
	exec     *Executor
	catalog  *Catalog
	loc      *Locale
	pending  session.PendingStore
	history  session.HistoryStore
	settings Settings
	log      *logger.Logger
	now      func() time.Time
}

// Deps are the collaborators of a Service. LLM may be nil, which disables
// the model path while keeping suggestions and execution available.
type Deps struct {
	LLM      model.LLM
	Reader   repository.Reader
	Executor *Executor
	Catalog  *Catalog
	Locale   *Locale
	Pending  session.PendingStore
	History  session.HistoryStore
	Settings Settings
	Log      *logger.Logger
}

// NewService creates a Service.
func NewService(d Deps) *Service {
	if d.Settings.HistoryWindow <= 0 {
		d.Settings.HistoryWindow = 10
	}
	return &Service{
		llm:      d.LLM,
		snap:     NewSnapshotter(d.Reader, d.Locale, d.Log),
		exec:     d.Executor,
		catalog:  d.Catalog,
		loc:      d.Locale,
		pending:  d.Pending,
		history:  d.History,
		settings: d.Settings,
		log:      d.Log,
		now:      time.Now,
	}
}

// Enabled reports whether a model is configured.
func (s *Service) Enabled() bool {
	return s.llm != nil
}

// Chat handles one turn. A confirmation executes the pending action without
// calling the model; a message is answered by the model, which may propose
// an action instead of replying.
func (s *Service) Chat(ctx context.Context, userID uuid.UUID, in ChatInput) (ChatOutput, error) {
	start := s.now()
	message := strings.TrimSpace(in.Message)

	if message == "" && in.Confirm == nil && in.CancelToken == "" {
		return ChatOutput{}, apperr.BadRequest(s.loc.Text(msgMissingMessage))
	}
	if !s.Enabled() {
		return ChatOutput{}, apperr.Unavailable(s.loc.Text(msgNotConfigured))
	}

	history := in.History
	if in.SessionID != "" {
		stored, err := s.history.Load(ctx, userID, in.SessionID)
		if err != nil {
			return ChatOutput{}, err
		}
		history = stored
	}

	var (
		out     ChatOutput
		outcome string
		err     error
	)
	switch {
	case in.Confirm != nil:
		out, err = s.confirm(ctx, userID, *in.Confirm, history)
		outcome = outcomeExecuted
	case in.CancelToken != "":
		out, err = s.cancel(ctx, userID, in.CancelToken, history)
		outcome = outcomeCancelled
	default:
		out, outcome, err = s.ask(ctx, userID, message, history)
	}
	if err != nil {
		s.log.WithContext(ctx).AssistantTurn(userID.String(), outcomeFailed, len(history), s.now().Sub(start))
		return ChatOutput{}, err
	}

	if in.SessionID != "" {
		if err := s.history.Save(ctx, userID, in.SessionID, out.History); err != nil {
			return ChatOutput{}, err
		}
		out.SessionID = in.SessionID
	}

	s.log.WithContext(ctx).AssistantTurn(userID.String(), outcome, len(history), s.now().Sub(start))
	return out, nil
}

func (s *Service) confirm(ctx context.Context, userID uuid.UUID, req ActionRequest, history []session.Turn) (ChatOutput, error) {
	result, err := s.ExecuteAction(ctx, userID, req)
	if err != nil {
		return ChatOutput{}, err
	}

	reply := "❌ " + result.Message
	if result.Success {
		reply = "✅ " + result.Message
	}
	return ChatOutput{
		Response:       reply,
		ActionExecuted: &result,
		History:        appendTurns(history, session.Turn{Role: session.RoleAssistant, Content: reply}),
	}, nil
}

func (s *Service) cancel(ctx context.Context, userID uuid.UUID, token string, history []session.Turn) (ChatOutput, error) {
	if err := s.pending.Discard(ctx, userID, token); err != nil && !apperr.Is(err, apperr.KindGone) {
		return ChatOutput{}, err
	}
	reply := s.loc.Text(msgCancelled)
	return ChatOutput{
		Response: reply,
		History:  appendTurns(history, session.Turn{Role: session.RoleAssistant, Content: reply}),
	}, nil
}

func (s *Service) ask(ctx context.Context, userID uuid.UUID, message string, history []session.Turn) (ChatOutput, string, error) {
	snap := s.snap.Snapshot(ctx, userID)

	req := &model.LLMRequest{
		Contents: s.contents(history, message),
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt(s.loc, snap, s.now()), genai.RoleUser),
			Temperature:       genai.Ptr(float32(s.settings.Temperature)),
			MaxOutputTokens:   int32(s.settings.MaxTokens),
			Tools:             s.catalog.Tools(),
		},
	}

	resp, err := s.generate(ctx, req)
	if err != nil {
		return ChatOutput{}, "", s.mapModelError(ctx, err)
	}

	userTurn := session.Turn{Role: session.RoleUser, Content: message}

	if call := s.firstFunctionCall(ctx, resp); call != nil {
		pending, err := s.propose(ctx, userID, call)
		if err != nil {
			return ChatOutput{}, "", err
		}
		reply := s.loc.Message(msgConfirmQuestion, struct{ Description string }{pending.Description})
		return ChatOutput{
			Response:      reply,
			PendingAction: pending,
			History:       appendTurns(history, userTurn, session.Turn{Role: session.RoleAssistant, Content: reply}),
		}, outcomeProposed, nil
	}

	reply := strings.TrimSpace(responseText(resp))
	if reply == "" {
		reply = s.loc.Text(msgNoResponse)
	}
	return ChatOutput{
		Response: reply,
		History:  appendTurns(history, userTurn, session.Turn{Role: session.RoleAssistant, Content: reply}),
	}, outcomeText, nil
}

// contents forwards the last HistoryWindow turns followed by the new message.
func (s *Service) contents(history []session.Turn, message string) []*genai.Content {
	window := history
	if len(window) > s.settings.HistoryWindow {
		window = window[len(window)-s.settings.HistoryWindow:]
	}

	contents := make([]*genai.Content, 0, len(window)+1)
	for _, turn := range window {
		role := genai.Role(genai.RoleUser)
		if turn.Role == session.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	return append(contents, genai.NewContentFromText(message, genai.RoleUser))
}

func (s *Service) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	for resp, err := range s.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return nil, err
		}
		if resp != nil {
			return resp, nil
		}
	}
	return nil, groq.ErrEmptyResponse
}

// firstFunctionCall returns the first tool call of the reply. Only one action
// is proposed per turn; extra calls are dropped with a warning.
func (s *Service) firstFunctionCall(ctx context.Context, resp *model.LLMResponse) *genai.FunctionCall {
	if resp.Content == nil {
		return nil
	}
	var (
		first   *genai.FunctionCall
		dropped []string
	)
	for _, part := range resp.Content.Parts {
		if part == nil || part.FunctionCall == nil {
			continue
		}
		if first == nil {
			first = part.FunctionCall
			continue
		}
		dropped = append(dropped, part.FunctionCall.Name)
	}
	if len(dropped) > 0 {
		s.log.WithContext(ctx).Warn("assistant dropped extra tool calls",
			"kept", first.Name,
			"dropped", dropped,
		)
	}
	return first
}

func (s *Service) propose(ctx context.Context, userID uuid.UUID, call *genai.FunctionCall) (*PendingAction, error) {
	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	description := s.loc.Describe(call.Name, args)

	token, expiresAt, err := s.pending.Issue(ctx, session.PendingAction{
		UserID:      userID,
		Function:    call.Name,
		Args:        args,
		Description: description,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}

	return &PendingAction{
		Function:    call.Name,
		Args:        args,
		Description: description,
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *Service) mapModelError(ctx context.Context, err error) error {
	s.log.WithContext(ctx).Error("assistant model call failed", "error", err)
	switch {
	case errors.Is(err, groq.ErrUnauthorized):
		return apperr.Upstream(s.loc.Text(msgInvalidAPIKey), err)
	case errors.Is(err, groq.ErrMalformedToolCall):
		return apperr.Wrap(apperr.KindInternal, s.loc.Text(msgProviderError), err)
	default:
		return apperr.Upstream(s.loc.Text(msgProviderError), err)
	}
}

// ExecuteAction runs a confirmed action. With a token the stored proposal is
// executed and any function or arguments sent alongside are ignored.
func (s *Service) ExecuteAction(ctx context.Context, userID uuid.UUID, req ActionRequest) (ActionResult, error) {
	function, args, err := s.resolveAction(ctx, userID, req)
	if err != nil {
		return ActionResult{}, err
	}
	return s.exec.Execute(ctx, userID, function, args), nil
}

// InvalidAction is the error for an execution request that carries no action.
func (s *Service) InvalidAction() error {
	return apperr.BadRequest(s.loc.Text(msgInvalidAction))
}

func (s *Service) resolveAction(ctx context.Context, userID uuid.UUID, req ActionRequest) (string, map[string]any, error) {
	if token := strings.TrimSpace(req.Token); token != "" {
		action, err := s.pending.Redeem(ctx, userID, token)
		if err != nil {
			return "", nil, err
		}
		return action.Function, action.Args, nil
	}
	if s.settings.RequireActionToken {
		return "", nil, apperr.BadRequest(s.loc.Text(msgTokenRequired))
	}
	if req.Function == "" || req.Args == nil {
		return "", nil, s.InvalidAction()
	}
	return req.Function, req.Args, nil
}

// Suggestions returns canned questions and up to three hints drawn from the
// caller's data.
func (s *Service) Suggestions(ctx context.Context, userID uuid.UUID) Suggestions {
	out := Suggestions{
		Insights:  []string{},
		Questions: append([]string(nil), s.loc.Questions...),
	}

	snap := s.snap.Snapshot(ctx, userID)
	if snap == nil {
		return out
	}
	if n := snap.Statistics.Prospects.ByStatus[repository.ProspectStatusNew]; n > 0 {
		out.Insights = append(out.Insights, s.loc.insight(insightNewProspects, n))
	}
	if n := len(snap.Deadlines); n > 0 {
		out.Insights = append(out.Insights, s.loc.insight(insightUpcomingDeadlines, n))
	}
	if n := snap.Statistics.Projects.ByStatus[repository.ProjectStatusInProgress]; n > 0 {
		out.Insights = append(out.Insights, s.loc.insight(insightProjectsInProgress, n))
	}
	return out
}

// Tools returns the catalog offered to the model.
func (s *Service) Tools() []*genai.FunctionDeclaration {
	return s.catalog.Declarations()
}

func responseText(resp *model.LLMResponse) string {
	if resp.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

// appendTurns copies history so the caller's slice is never written through.
func appendTurns(history []session.Turn, turns ...session.Turn) []session.Turn {
	out := make([]session.Turn, 0, len(history)+len(turns))
	out = append(out, history...)
	return append(out, turns...)
}
