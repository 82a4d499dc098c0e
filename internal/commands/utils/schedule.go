package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/internal/jobs"
	"github.com/PancyStudios/PancyModGo/pkg/cooldown"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

func createScheduleCommand() *discord.Command {
	return discord.NewCommand(
		"schedule",
		"Programa un mensaje en un canal",
		"utils",
		scheduleHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "canal",
			Description:  "Canal donde se enviará",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "en",
			Description: "Cuándo, p. ej. 30m, 6h o 2d",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "mensaje",
			Description: "Contenido del mensaje",
			Required:    true,
			MaxLength:   2000,
		},
	).WithUserPermissions(discordgo.PermissionManageMessages).
		InGuildOnly()
}

func scheduleHandler(ctx *discord.CommandContext) error {
	channel := ctx.GetChannelOption("canal")
	if channel == nil {
		return ctx.ReplyEphemeral("❌ Debes elegir un canal.")
	}

	raw := ctx.GetStringOption("en")
	delay, err := parseDelay(raw)
	if err != nil {
		return ctx.ReplyEphemeral("❌ " + err.Error())
	}
	content := ctx.GetStringOption("mensaje")

	opCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	display := fmt.Sprintf("/utils schedule #%s %s", channel.Name, raw)
	h, err := ctx.Client.Scheduler.Schedule(opCtx, jobs.SendMessage, delay, ctx.Interaction.GuildID, display,
		jobs.SendMessageArgs(channel.ID, content)...)
	if err != nil {
		return ctx.ReplyEphemeral(cmdutil.ScheduleErrorMessage(err))
	}

	return ctx.ReplyEphemeral(fmt.Sprintf("📨 Mensaje programado para <#%s> en %s. Trabajo `#%d`.",
		channel.ID, cooldown.FormatDuration(delay), h.ID()))
}
