// Package utils provides the /utils subcommands.
package utils

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterUtilsCommands registers all utility commands as /utils subcommands
func RegisterUtilsCommands(client *discord.ExtendedClient) {
	group := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Comandos de utilidad",
		createPingCommand(),
		createStatusCommand(),
		createHelpCommand(),
		createStatsCommand(),
		createRemindCommand(),
		createScheduleCommand(),
	)

	client.CommandHandler.AddGlobalCommand(group)
}
