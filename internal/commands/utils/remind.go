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

const (
	maxDelay     = 365 * 24 * time.Hour
	maxTextRunes = 1000
)

func createRemindCommand() *discord.Command {
	return discord.NewCommand(
		"remind",
		"Te envía un recordatorio más tarde",
		"utils",
		remindHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "en",
			Description: "Cuándo, p. ej. 10m, 2h o 3d",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "texto",
			Description: "Qué te recuerdo",
			Required:    true,
			MaxLength:   maxTextRunes,
		},
	).WithCooldown(10 * time.Second).
		InGuildOnly()
}

// parseDelay validates a user supplied delay
func parseDelay(raw string) (time.Duration, error) {
	d, err := cmdutil.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d > maxDelay {
		return 0, fmt.Errorf("el máximo es un año")
	}
	return d, nil
}

func remindHandler(ctx *discord.CommandContext) error {
	raw := ctx.GetStringOption("en")
	delay, err := parseDelay(raw)
	if err != nil {
		return ctx.ReplyEphemeral("❌ " + err.Error())
	}
	text := ctx.GetStringOption("texto")
	if text == "" {
		return ctx.ReplyEphemeral("❌ Debes escribir el recordatorio.")
	}

	user := ctx.User()
	opCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	display := fmt.Sprintf("/utils remind %s", raw)
	h, err := ctx.Client.Scheduler.Schedule(opCtx, jobs.Reminder, delay, ctx.Interaction.GuildID, display,
		jobs.ReminderArgs(user.ID, ctx.Interaction.ChannelID, text)...)
	if err != nil {
		return ctx.ReplyEphemeral(cmdutil.ScheduleErrorMessage(err))
	}

	return ctx.ReplyEphemeral(fmt.Sprintf("⏰ Te lo recordaré en %s (<t:%d:F>). Trabajo `#%d`.",
		cooldown.FormatDuration(delay), h.Action.RunAt.Unix(), h.ID()))
}
