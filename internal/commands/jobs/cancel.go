package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/cooldown"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/bwmarrin/discordgo"
)

// maxChoices is Discord's autocomplete limit
const maxChoices = 25

func createCancelCommand() *discord.Command {
	return discord.NewCommand(
		"cancel",
		"Cancela una acción programada",
		"jobs",
		cancelHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionInteger,
			Name:         "id",
			Description:  "ID del trabajo (ver /jobs list)",
			Required:     true,
			Autocomplete: true,
		},
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithAutoComplete(cancelAutocomplete).
		InGuildOnly()
}

func cancelHandler(ctx *discord.CommandContext) error {
	id := ctx.GetIntOption("id")
	sch := ctx.Client.Scheduler

	// Only jobs of the calling guild can be canceled from here
	h, ok := sch.Get(id)
	if !ok || h.Action.GuildID != ctx.Interaction.GuildID {
		return ctx.ReplyEphemeral(fmt.Sprintf("❌ No hay ninguna acción pendiente con ID `#%d` en este servidor.", id))
	}

	opCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	canceled, err := sch.CancelByID(opCtx, id)
	if err != nil {
		return ctx.ReplyEphemeral("❌ La acción se detuvo, pero no se pudo borrar del almacenamiento. Se volverá a cargar al reiniciar.")
	}
	if !canceled {
		return ctx.ReplyEphemeral(fmt.Sprintf("⌛ La acción `#%d` ya se ejecutó.", id))
	}

	return ctx.Reply(fmt.Sprintf("🗑️ Acción `#%d` (**%s**) cancelada.", id, h.Action.HandlerName))
}

func cancelAutocomplete(ctx *discord.CommandContext) {
	handles := ctx.Client.Scheduler.ListByGuild(ctx.Interaction.GuildID)
	_ = ctx.Autocomplete(buildChoices(handles, time.Now()))
}

func buildChoices(handles []*scheduler.Handle, now time.Time) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, maxChoices)
	for _, h := range handles {
		if len(choices) == maxChoices {
			break
		}
		a := h.Action
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("#%d %s (en %s)", a.ID, a.HandlerName, cooldown.FormatDuration(a.Remaining(now))),
			Value: a.ID,
		})
	}
	return choices
}
