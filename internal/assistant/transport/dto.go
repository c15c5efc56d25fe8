package transport

import "time"

// RoleTag is the validation tag for conversation turn roles.
const RoleTag = "assistant_role"

type TurnDTO struct {
	Role    string `json:"role" validate:"required,assistant_role"`
	Content string `json:"content" validate:"max=8000"`
}

type ActionDTO struct {
	Function string         `json:"function" validate:"max=100"`
	Args     map[string]any `json:"args"`
	Token    string         `json:"token,omitempty" validate:"max=128"`
}

type CancelDTO struct {
	Token string `json:"token" validate:"required,max=128"`
}

type ChatRequest struct {
	Message             string     `json:"message" validate:"max=4000"`
	ConversationHistory []TurnDTO  `json:"conversationHistory" validate:"max=200,dive"`
	ConfirmAction       *ActionDTO `json:"confirmAction,omitempty"`
	CancelAction        *CancelDTO `json:"cancelAction,omitempty"`
	SessionID           string     `json:"sessionId,omitempty" validate:"omitempty,max=64,printascii"`
}

type ActionResultResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

type PendingActionResponse struct {
	Function    string         `json:"function"`
	Args        map[string]any `json:"args"`
	Description string         `json:"description"`
	Token       string         `json:"token"`
	ExpiresAt   time.Time      `json:"expiresAt"`
}

type ChatResponse struct {
	Response            string                 `json:"response"`
	ActionExecuted      *ActionResultResponse  `json:"actionExecuted,omitempty"`
	PendingAction       *PendingActionResponse `json:"pendingAction,omitempty"`
	ConversationHistory []TurnDTO              `json:"conversationHistory"`
	SessionID           string                 `json:"sessionId,omitempty"`
}

type ExecuteActionRequest struct {
	Action *ActionDTO `json:"action"`
}

type SuggestionsResponse struct {
	Insights  []string `json:"insights"`
	Questions []string `json:"questions"`
}

type ToolResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

type ToolsResponse struct {
	Version string         `json:"version"`
	Tools   []ToolResponse `json:"tools"`
}
