// Package mod provides moderation commands organized as subcommands under /mod.
// Temporary sanctions schedule their own reversal through the scheduler.
package mod

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// scheduleTimeout bounds the storage round-trip of a scheduling command
const scheduleTimeout = 5 * time.Second

// RegisterModCommands registers all moderation commands as /mod subcommands
func RegisterModCommands(client *discord.ExtendedClient) {
	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Comandos de moderación",
		createBanCommand(),
		createUnbanCommand(),
		createMuteCommand(),
		createUnmuteCommand(),
		createWarnCommand(),
		createResetCooldownCommand(),
	)

	client.CommandHandler.AddGlobalCommand(modGroup)
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), scheduleTimeout)
}
