package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/service"
)

type modelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot        *bot.Bot
	cfg        *config.Config
	sessions   *service.SessionService
	assistants *service.AssistantRegistry
	settings   *service.ContextSettings
	history    *service.PromptHistory
	store      *service.ConversationStore
	forms      *service.FormRunner
	models     modelLister
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot        *bot.Bot
	Cfg        *config.Config
	Sessions   *service.SessionService
	Assistants *service.AssistantRegistry
	Settings   *service.ContextSettings
	History    *service.PromptHistory
	Store      *service.ConversationStore
	Forms      *service.FormRunner
	Models     modelLister
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:        deps.Bot,
		cfg:        deps.Cfg,
		sessions:   deps.Sessions,
		assistants: deps.Assistants,
		settings:   deps.Settings,
		history:    deps.History,
		store:      deps.Store,
		forms:      deps.Forms,
		models:     deps.Models,
	}
}
