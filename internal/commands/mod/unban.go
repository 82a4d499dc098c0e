package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/internal/jobs"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

func createUnbanCommand() *discord.Command {
	return discord.NewCommand(
		"unban",
		"Retira el baneo de un usuario",
		"mod",
		unbanHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "id",
			Description: "ID del usuario baneado",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		InGuildOnly()
}

// unbanHandler lifts the ban and drops the pending automatic unban, if any
func unbanHandler(ctx *discord.CommandContext) error {
	userID := ctx.GetStringOption("id")
	if userID == "" {
		return ctx.ReplyEphemeral("❌ Debes especificar el ID del usuario.")
	}
	guildID := ctx.Interaction.GuildID

	if err := ctx.Session.GuildBanDelete(guildID, userID); err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al desbanear: %v", err))
	}

	opCtx, cancel := opContext()
	defer cancel()

	canceled, err := cmdutil.CancelPendingFor(opCtx, ctx.Client.Scheduler, guildID, jobs.UnbanJob, userID)
	if err != nil {
		return ctx.Reply(fmt.Sprintf("✅ <@%s> ha sido desbaneado, pero no se pudo cancelar el desbaneo programado.", userID))
	}

	msg := fmt.Sprintf("✅ <@%s> ha sido desbaneado.", userID)
	if canceled > 0 {
		msg += "\nSe canceló el desbaneo automático pendiente."
	}
	return ctx.Reply(msg)
}
