package utils

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Muestra información de ayuda",
		"utils",
		helpHandler,
	)
}

func helpHandler(ctx *discord.CommandContext) error {
	return ctx.ReplyEphemeral(
		"📖 **Ayuda de PancyMod Go**\n\n" +
			"**Moderación:**\n" +
			"• `/mod ban <usuario> [razón] [duración]` - Banea, opcionalmente de forma temporal\n" +
			"• `/mod unban <id>` - Retira un baneo\n" +
			"• `/mod mute <usuario> <duración> [razón]` - Silencia a un usuario\n" +
			"• `/mod unmute <usuario>` - Retira el silencio\n" +
			"• `/mod warn <usuario> <razón>` - Advierte a un usuario\n" +
			"• `/mod resetcooldown <usuario> <comando>` - Reinicia un cooldown\n\n" +
			"**Acciones programadas:**\n" +
			"• `/jobs list` - Lista las acciones pendientes\n" +
			"• `/jobs cancel <id>` - Cancela una acción\n\n" +
			"**Utilidades:**\n" +
			"• `/utils remind <en> <texto>` - Te recuerda algo más tarde\n" +
			"• `/utils schedule <canal> <en> <mensaje>` - Programa un mensaje\n" +
			"• `/utils ping` · `/utils status` · `/utils stats`\n\n" +
			"Duraciones: `30m`, `2h`, `1d12h`, `2w`.",
	)
}
