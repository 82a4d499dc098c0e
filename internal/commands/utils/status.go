package utils

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand() *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"utils",
		statusHandler,
	)
}

// statusHandler pings the store off the gateway goroutine
func statusHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()
		storeStatus, _ := ctx.Client.StoreStatus()

		pending := 0
		if ctx.Client.Scheduler != nil {
			pending = ctx.Client.Scheduler.Len()
		}

		_ = ctx.Reply(fmt.Sprintf(
			"📊 **Estado del Bot**\n"+
				"• Bot: 🟢 Online\n"+
				"• Almacén de trabajos (%s): %s\n"+
				"• Acciones pendientes: %d\n"+
				"• Servidores: %d",
			ctx.Client.Config.StoreDriver,
			storeStatus,
			pending,
			ctx.Client.GuildCount(),
		))
	}()
	return nil
}
