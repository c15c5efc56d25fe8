package handler

import (
	"net/http"

	"supaco_backend/internal/assistant/agent"
	"supaco_backend/internal/assistant/session"
	"supaco_backend/internal/assistant/transport"
	"supaco_backend/platform/httpkit"
	"supaco_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles assistant HTTP requests.
type Handler struct {
	svc *agent.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new assistant handler.
func New(svc *agent.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the assistant endpoints. chatLimit runs before the
// chat handler only, since that is the route that reaches the model.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, chatLimit ...gin.HandlerFunc) {
	rg.POST("/chat", append(chatLimit, h.Chat)...)
	rg.POST("/execute-action", h.ExecuteAction)
	rg.GET("/suggestions", h.Suggestions)
	rg.GET("/tools", h.Tools)
}

// Chat runs one conversation turn.
// POST /api/v1/assistant/chat
func (h *Handler) Chat(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Details(err))
		return
	}

	out, err := h.svc.Chat(c.Request.Context(), identity.UserID(), toChatInput(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toChatResponse(out))
}

// ExecuteAction runs a confirmed action.
// POST /api/v1/assistant/execute-action
func (h *Handler) ExecuteAction(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ExecuteActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if req.Action == nil {
		httpkit.HandleError(c, h.svc.InvalidAction())
		return
	}
	if err := h.val.Struct(req.Action); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Details(err))
		return
	}

	result, err := h.svc.ExecuteAction(c.Request.Context(), identity.UserID(), toActionRequest(*req.Action))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toActionResultResponse(result))
}

// Suggestions returns quick prompts for the chat panel.
// GET /api/v1/assistant/suggestions
func (h *Handler) Suggestions(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	s := h.svc.Suggestions(c.Request.Context(), identity.UserID())
	httpkit.OK(c, transport.SuggestionsResponse{Insights: s.Insights, Questions: s.Questions})
}

// Tools lists the functions the model may propose.
// GET /api/v1/assistant/tools
func (h *Handler) Tools(c *gin.Context) {
	decls := h.svc.Tools()
	resp := transport.ToolsResponse{
		Version: agent.CatalogVersion,
		Tools:   make([]transport.ToolResponse, 0, len(decls)),
	}
	for _, d := range decls {
		resp.Tools = append(resp.Tools, transport.ToolResponse{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	httpkit.OK(c, resp)
}

func toChatInput(req transport.ChatRequest) agent.ChatInput {
	in := agent.ChatInput{
		Message:   req.Message,
		History:   make([]session.Turn, 0, len(req.ConversationHistory)),
		SessionID: req.SessionID,
	}
	for _, t := range req.ConversationHistory {
		in.History = append(in.History, session.Turn{Role: t.Role, Content: t.Content})
	}
	if req.ConfirmAction != nil {
		action := toActionRequest(*req.ConfirmAction)
		in.Confirm = &action
	}
	if req.CancelAction != nil {
		in.CancelToken = req.CancelAction.Token
	}
	return in
}

func toActionRequest(dto transport.ActionDTO) agent.ActionRequest {
	return agent.ActionRequest{Function: dto.Function, Args: dto.Args, Token: dto.Token}
}

func toChatResponse(out agent.ChatOutput) transport.ChatResponse {
	resp := transport.ChatResponse{
		Response:            out.Response,
		ConversationHistory: make([]transport.TurnDTO, 0, len(out.History)),
		SessionID:           out.SessionID,
	}
	for _, t := range out.History {
		resp.ConversationHistory = append(resp.ConversationHistory, transport.TurnDTO{Role: t.Role, Content: t.Content})
	}
	if out.ActionExecuted != nil {
		r := toActionResultResponse(*out.ActionExecuted)
		resp.ActionExecuted = &r
	}
	if p := out.PendingAction; p != nil {
		resp.PendingAction = &transport.PendingActionResponse{
			Function:    p.Function,
			Args:        p.Args,
			Description: p.Description,
			Token:       p.Token,
			ExpiresAt:   p.ExpiresAt,
		}
	}
	return resp
}

func toActionResultResponse(r agent.ActionResult) transport.ActionResultResponse {
	return transport.ActionResultResponse{Success: r.Success, Message: r.Message, Data: r.Data}
}
