package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/bwmarrin/discordgo"
)

// maxListed keeps the embed under Discord's description limit
const maxListed = 15

func createListCommand() *discord.Command {
	return discord.NewCommand(
		"list",
		"Lista las acciones programadas de este servidor",
		"jobs",
		listHandler,
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		InGuildOnly()
}

func listHandler(ctx *discord.CommandContext) error {
	handles := ctx.Client.Scheduler.ListByGuild(ctx.Interaction.GuildID)
	return ctx.ReplyEphemeralEmbed(buildListEmbed(handles, time.Now()))
}

func buildListEmbed(handles []*scheduler.Handle, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "🗓️ Acciones programadas",
		Color:     0x5865F2,
		Timestamp: now.Format(time.RFC3339),
	}

	if len(handles) == 0 {
		embed.Description = "No hay acciones pendientes en este servidor."
		return embed
	}

	lines := make([]string, 0, maxListed)
	for i, h := range handles {
		if i == maxListed {
			break
		}
		lines = append(lines, cmdutil.JobLine(h.Action, now))
	}
	embed.Description = strings.Join(lines, "\n")

	footer := fmt.Sprintf("%d pendientes", len(handles))
	if len(handles) > maxListed {
		footer = fmt.Sprintf("Mostrando %d de %d pendientes", maxListed, len(handles))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	return embed
}
