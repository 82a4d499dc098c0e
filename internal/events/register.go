// Package events wires the gateway events the bot reacts to.
// Besides logging, guild and member events keep pending deferred actions in
// sync with changes made outside the bot.
package events

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	// Ready event (bot startup)
	RegisterReadyEvent(client)

	// Guild events (server join/leave)
	RegisterGuildEvents(client)

	// Unbans and timeouts lifted by hand
	RegisterMemberEvents(client)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
