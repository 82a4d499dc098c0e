package discord

import (
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// EventHandler attaches gateway event handlers to the session
type EventHandler struct {
	client *ExtendedClient
	events []interface{}
	mu     sync.RWMutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{
		client: client,
		events: make([]interface{}, 0),
	}
}

// RegisterEvent adds an event handler to the Discord session
func (eh *EventHandler) RegisterEvent(handler interface{}) {
	eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.events = append(eh.events, handler)
	eh.mu.Unlock()
}

// Count returns how many handlers were attached
func (eh *EventHandler) Count() int {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return len(eh.events)
}

// ReadyHandler is called when the bot is ready
type ReadyHandler func(s *discordgo.Session, r *discordgo.Ready)

// GuildCreateHandler is called when the bot joins a guild
type GuildCreateHandler func(s *discordgo.Session, g *discordgo.GuildCreate)

// GuildDeleteHandler is called when the bot leaves a guild
type GuildDeleteHandler func(s *discordgo.Session, g *discordgo.GuildDelete)

// GuildBanRemoveHandler is called when someone is unbanned
type GuildBanRemoveHandler func(s *discordgo.Session, b *discordgo.GuildBanRemove)

// GuildMemberUpdateHandler is called when a member is updated
type GuildMemberUpdateHandler func(s *discordgo.Session, m *discordgo.GuildMemberUpdate)

// OnReady registers a ready event handler
func (eh *EventHandler) OnReady(handler ReadyHandler) {
	eh.RegisterEvent(handler)
	logger.Debug("Evento 'Ready' registrado", "EventHandler")
}

// OnGuildCreate registers a guild create event handler
func (eh *EventHandler) OnGuildCreate(handler GuildCreateHandler) {
	eh.RegisterEvent(handler)
	logger.Debug("Evento 'GuildCreate' registrado", "EventHandler")
}

// OnGuildDelete registers a guild delete event handler
func (eh *EventHandler) OnGuildDelete(handler GuildDeleteHandler) {
	eh.RegisterEvent(handler)
	logger.Debug("Evento 'GuildDelete' registrado", "EventHandler")
}

// OnGuildBanRemove registers a guild ban remove event handler
func (eh *EventHandler) OnGuildBanRemove(handler GuildBanRemoveHandler) {
	eh.RegisterEvent(handler)
	logger.Debug("Evento 'GuildBanRemove' registrado", "EventHandler")
}

// OnGuildMemberUpdate registers a guild member update event handler
func (eh *EventHandler) OnGuildMemberUpdate(handler GuildMemberUpdateHandler) {
	eh.RegisterEvent(handler)
	logger.Debug("Evento 'GuildMemberUpdate' registrado", "EventHandler")
}
