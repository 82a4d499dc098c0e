package mod

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/internal/jobs"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

func createUnmuteCommand() *discord.Command {
	return discord.NewCommand(
		"unmute",
		"Retira el silencio de un usuario",
		"mod",
		unmuteHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a desilenciar",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionModerateMembers).
		InGuildOnly()
}

// unmuteHandler clears the timeout now and cancels the pending unmute job
func unmuteHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}
	guildID := ctx.Interaction.GuildID

	if err := ctx.Session.GuildMemberTimeout(guildID, user.ID, nil); err != nil {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ Error al desilenciar: %v", err))
	}

	opCtx, cancel := opContext()
	defer cancel()

	if _, err := cmdutil.CancelPendingFor(opCtx, ctx.Client.Scheduler, guildID, jobs.UnmuteJob, user.ID); err != nil {
		return ctx.Reply(fmt.Sprintf("🔊 **%s** ya puede hablar, pero no se pudo cancelar el trabajo pendiente.", user.Username))
	}

	return ctx.Reply(fmt.Sprintf("🔊 **%s** ya puede hablar.", user.Username))
}
