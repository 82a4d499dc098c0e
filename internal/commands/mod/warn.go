package mod

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// createWarnCommand creates the /mod warn subcommand
func createWarnCommand() *discord.Command {
	return discord.NewCommand(
		"warn",
		"Advierte a un usuario",
		"mod",
		warnHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario a advertir",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "razon",
			Description: "Razón de la advertencia",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithCooldown(4 * time.Second).
		InGuildOnly()
}

// warnHandler tells the user by DM and announces the warning
func warnHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	reason := ctx.GetStringOption("razon")
	if reason == "" {
		return ctx.ReplyEphemeral("❌ Debes especificar una razón.")
	}

	guildName := ctx.Interaction.GuildID
	if g := ctx.Guild(); g != nil {
		guildName = g.Name
	}

	notified := "✅"
	if dm, err := ctx.Session.UserChannelCreate(user.ID); err == nil {
		_, err = ctx.Session.ChannelMessageSend(dm.ID, fmt.Sprintf("⚠️ Has recibido una advertencia en **%s**.\n**Razón:** %s", guildName, reason))
		if err != nil {
			notified = "❌"
		}
	} else {
		notified = "❌"
	}
	if notified == "❌" {
		logger.With(logger.Fields{"user": user.ID}).Debug("No se pudo avisar por MD", "Mod")
	}

	return ctx.Reply(fmt.Sprintf("⚠️ **%s** ha sido advertido.\n**Razón:** %s\n**Moderador:** %s\n**Aviso por MD:** %s",
		user.Username,
		reason,
		ctx.User().Username,
		notified,
	))
}
