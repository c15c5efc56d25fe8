// Package assistant provides the chat assistant bounded context module.
package assistant

import (
	"fmt"

	"supaco_backend/internal/assistant/agent"
	"supaco_backend/internal/assistant/handler"
	"supaco_backend/internal/assistant/repository"
	"supaco_backend/internal/assistant/session"
	"supaco_backend/internal/assistant/transport"
	"supaco_backend/internal/events"
	apphttp "supaco_backend/internal/http"
	"supaco_backend/platform/config"
	"supaco_backend/platform/logger"
	"supaco_backend/platform/phone"
	"supaco_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/adk/model"
)

// Config combines the settings the assistant reads.
type Config interface {
	config.AssistantConfig
	config.PhoneConfig
}

// Stores are the pending-action and conversation stores, Redis-backed or in memory.
type Stores struct {
	Pending session.PendingStore
	History session.HistoryStore
}

// Module is the assistant bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *agent.Service
}

// NewModule creates and initializes the assistant module. llm may be nil when
// no provider key is configured; chat then answers 503.
func NewModule(pool *pgxpool.Pool, cfg Config, llm model.LLM, stores Stores, eventBus events.Bus, val *validator.Validator, log *logger.Logger) (*Module, error) {
	if err := val.RegisterEnum(transport.RoleTag, session.RoleUser, session.RoleAssistant); err != nil {
		return nil, fmt.Errorf("register role validation: %w", err)
	}

	loc, err := agent.LoadLocale(cfg.GetAssistantLanguage())
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	catalog := agent.NewCatalog(loc)
	executor := agent.NewExecutor(repo, catalog, loc, phone.NewNormalizer(cfg.GetPhoneDefaultRegion()), val, eventBus, log)

	svc := agent.NewService(agent.Deps{
		LLM:      llm,
		Reader:   repo,
		Executor: executor,
		Catalog:  catalog,
		Locale:   loc,
		Pending:  stores.Pending,
		History:  stores.History,
		Settings: agent.Settings{
			Temperature:        cfg.GetAssistantTemperature(),
			MaxTokens:          cfg.GetAssistantMaxTokens(),
			HistoryWindow:      cfg.GetAssistantHistoryWindow(),
			RequireActionToken: cfg.GetAssistantRequireActionToken(),
		},
		Log: log,
	})

	return &Module{handler: handler.New(svc, val), service: svc}, nil
}

// Enabled reports whether chat is backed by a model.
func (m *Module) Enabled() bool {
	return m.service.Enabled()
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assistant"
}

// RegisterRoutes mounts assistant routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	var chatLimit []gin.HandlerFunc
	if ctx.ChatRateLimiter != nil {
		chatLimit = append(chatLimit, ctx.ChatRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(ctx.Protected.Group("/assistant"), chatLimit...)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
