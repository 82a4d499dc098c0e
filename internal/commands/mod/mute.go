package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/internal/jobs"
	"github.com/PancyStudios/PancyModGo/pkg/cooldown"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// maxTimeout is the longest timeout Discord accepts
const maxTimeout = 28 * 24 * time.Hour

// createMuteCommand creates the /mod mute subcommand
func createMuteCommand() *discord.Command {
	return discord.NewCommand(
		"mute",
		"Silencia a un usuario temporalmente",
		"mod",
		muteHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a silenciar",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Duración, p. ej. 10m, 2h o 3d (máximo 28d)",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón del silencio",
			Required:    false,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionModerateMembers).
		InGuildOnly()
}

// muteHandler applies a Discord timeout and schedules the unmute job that
// lifts it, so the mute shows up in /jobs and can be canceled early
func muteHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	rawDuration := ctx.GetStringOption("duracion")
	duration, err := cmdutil.ParseDuration(rawDuration)
	if err != nil {
		return ctx.ReplyEphemeral("❌ " + err.Error())
	}
	if duration > maxTimeout {
		return ctx.ReplyEphemeral("❌ La duración máxima es de 28 días.")
	}

	reason := ctx.GetStringOption("razon")
	if reason == "" {
		reason = "Sin razón especificada"
	}
	guildID := ctx.Interaction.GuildID

	if err := ctx.Defer(); err != nil {
		return err
	}

	timeoutUntil := time.Now().Add(duration)
	if err := ctx.Session.GuildMemberTimeout(guildID, user.ID, &timeoutUntil); err != nil {
		return ctx.EditReply(fmt.Sprintf("❌ Error al silenciar: %v", err))
	}

	opCtx, cancel := opContext()
	defer cancel()

	if _, err := cmdutil.CancelPendingFor(opCtx, ctx.Client.Scheduler, guildID, jobs.UnmuteJob, user.ID); err != nil {
		logger.With(logger.Fields{"guild": guildID, "user": user.ID}).Warn("No se pudo cancelar el desilencio anterior: "+err.Error(), "Mod")
	}

	display := fmt.Sprintf("/mod mute %s %s", user.Username, rawDuration)
	h, err := ctx.Client.Scheduler.Schedule(opCtx, jobs.UnmuteJob, duration, guildID, display, jobs.UnmuteArgs(user.ID)...)
	if err != nil {
		// The timeout still expires on its own
		return ctx.EditReply(fmt.Sprintf("🔇 **%s** ha sido silenciado por %s.\n%s",
			user.Username, cooldown.FormatDuration(duration), cmdutil.ScheduleErrorMessage(err)))
	}

	return ctx.EditReply(fmt.Sprintf("🔇 **%s** ha sido silenciado por %s.\n**Razón:** %s\n**Trabajo:** `#%d`",
		user.Username,
		cooldown.FormatDuration(duration),
		reason,
		h.ID(),
	))
}
