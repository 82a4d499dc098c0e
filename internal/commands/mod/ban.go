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

// createBanCommand creates the /mod ban subcommand
func createBanCommand() *discord.Command {
	return discord.NewCommand(
		"ban",
		"Banea a un usuario del servidor",
		"mod",
		banHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a banear",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón del ban",
			Required:    false,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duracion",
			Description: "Ban temporal, p. ej. 12h, 7d o 2w (vacío = permanente)",
			Required:    false,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "dias",
			Description: "Días de mensajes a eliminar (0-7)",
			Required:    false,
			MinValue:    func() *float64 { v := 0.0; return &v }(),
			MaxValue:    7,
		},
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers).
		InGuildOnly()
}

// banHandler bans the user and, for temporary bans, schedules the unban
func banHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	reason := ctx.GetStringOption("razon")
	if reason == "" {
		reason = "Sin razón especificada"
	}

	rawDuration := ctx.GetStringOption("duracion")
	temporary := rawDuration != ""
	var duration time.Duration
	if temporary {
		d, err := cmdutil.ParseDuration(rawDuration)
		if err != nil {
			return ctx.ReplyEphemeral("❌ " + err.Error())
		}
		duration = d
	}

	days := int(ctx.GetIntOption("dias"))
	guildID := ctx.Interaction.GuildID

	if err := ctx.Defer(); err != nil {
		return err
	}

	if err := ctx.Session.GuildBanCreateWithReason(guildID, user.ID, reason, days); err != nil {
		return ctx.EditReply(fmt.Sprintf("❌ Error al banear: %v", err))
	}

	opCtx, cancel := opContext()
	defer cancel()

	// A new ban replaces whatever unban was pending for this user
	if _, err := cmdutil.CancelPendingFor(opCtx, ctx.Client.Scheduler, guildID, jobs.UnbanJob, user.ID); err != nil {
		logger.With(logger.Fields{"guild": guildID, "user": user.ID}).Warn("No se pudo cancelar el desbaneo anterior: "+err.Error(), "Mod")
	}

	if !temporary {
		return ctx.EditReply(fmt.Sprintf("🔨 **%s** ha sido baneado.\n**Razón:** %s", user.Username, reason))
	}

	display := fmt.Sprintf("/mod ban %s %s", user.Username, rawDuration)
	h, err := ctx.Client.Scheduler.Schedule(opCtx, jobs.UnbanJob, duration, guildID, display, jobs.UnbanArgs(user.ID)...)
	if err != nil {
		return ctx.EditReply(fmt.Sprintf("🔨 **%s** ha sido baneado, pero el desbaneo automático falló.\n%s",
			user.Username, cmdutil.ScheduleErrorMessage(err)))
	}

	return ctx.EditReply(fmt.Sprintf("🔨 **%s** ha sido baneado por %s.\n**Razón:** %s\n**Desbaneo:** <t:%d:F> (trabajo `#%d`)",
		user.Username,
		cooldown.FormatDuration(duration),
		reason,
		h.Action.RunAt.Unix(),
		h.ID(),
	))
}
