package mod

import (
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

func createResetCooldownCommand() *discord.Command {
	return discord.NewCommand(
		"resetcooldown",
		"Reinicia el cooldown de un comando para un usuario",
		"mod",
		resetCooldownHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "usuario",
			Description: "Usuario afectado",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "comando",
			Description: "Comando, p. ej. /utils remind",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithoutCooldown().
		InGuildOnly()
}

func resetCooldownHandler(ctx *discord.CommandContext) error {
	user := ctx.GetUserOption("usuario")
	if user == nil {
		return ctx.ReplyEphemeral("❌ Debes especificar un usuario.")
	}

	raw := ctx.GetStringOption("comando")
	key := discord.CommandKeyFromPath(raw)
	if _, ok := ctx.Client.Commands.Get(key); !ok {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ El comando `%s` no existe.", raw))
	}
	if ctx.Client.Cooldowns == nil {
		return ctx.ReplyEphemeral("❌ Los cooldowns no están activos.")
	}

	ctx.Client.Cooldowns.Reset(ctx.Interaction.GuildID, key, user.ID)
	return ctx.ReplyEphemeral(fmt.Sprintf("♻️ Cooldown de `/%s` reiniciado para **%s**.", strings.ReplaceAll(key, ".", " "), user.Username))
}
