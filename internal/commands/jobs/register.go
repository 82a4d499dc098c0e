// Package jobs provides /jobs, the view over the guild's pending deferred actions.
package jobs

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterJobsCommands registers /jobs list and /jobs cancel
func RegisterJobsCommands(client *discord.ExtendedClient) {
	group := client.CommandHandler.BuildCommandGroup(
		"jobs",
		"Acciones programadas del servidor",
		createListCommand(),
		createCancelCommand(),
	)

	client.CommandHandler.AddGlobalCommand(group)
}
