// Package commands wires every command category into the client.
// Each category lives in its own subdirectory (utils, mod, jobs).
package commands

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/jobs"
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient) {
	// /utils ping, status, help, stats, remind, schedule
	utils.RegisterUtilsCommands(client)

	// /mod ban, unban, mute, unmute, warn
	mod.RegisterModCommands(client)

	// /jobs list, cancel
	jobs.RegisterJobsCommands(client)
}
