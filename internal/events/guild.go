package events

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/bwmarrin/discordgo"
)

// storeTimeout bounds the storage work done from an event handler
const storeTimeout = 10 * time.Second

// RegisterGuildEvents registers all guild-related event handlers
func RegisterGuildEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildCreate(onGuildCreate)
	client.EventHandler.OnGuildDelete(guildDeleteHandler(client.Scheduler))
}

// onGuildCreate is called when the bot joins a server
func onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	// GuildCreate also arrives for every guild on connect
	if g.JoinedAt.Before(time.Now().Add(-10 * time.Second)) {
		return
	}

	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")

	if g.SystemChannelID == "" {
		return
	}

	welcomeEmbed := &discordgo.MessageEmbed{
		Title:       "¡Gracias por agregarme! 🛡️",
		Description: "Hola, soy **PancyMod**. Usa `/utils help` para ver todos mis comandos.",
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "🔧 Moderación",
				Value:  "Baneos y silencios temporales con `/mod`",
				Inline: true,
			},
			{
				Name:   "🗓 Acciones",
				Value:  "Revisa lo pendiente con `/jobs list`",
				Inline: true,
			},
			{
				Name:   "⏰ Recordatorios",
				Value:  "`/utils remind` y `/utils schedule`",
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "💫 - Developed by PancyStudios",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if _, err := s.ChannelMessageSendEmbed(g.SystemChannelID, welcomeEmbed); err != nil {
		logger.Error(fmt.Sprintf("Error enviando mensaje de bienvenida: %v", err), "Guild")
	}
}

// guildDeleteHandler cancels every pending job of a guild the bot was removed
// from. Outages (Unavailable) keep the jobs.
func guildDeleteHandler(sch *scheduler.Scheduler) discord.GuildDeleteHandler {
	return func(s *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Guild == nil || g.Unavailable {
			return
		}
		logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")

		if sch == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		canceled := 0
		for _, h := range sch.ListByGuild(g.ID) {
			ok, err := sch.CancelByID(ctx, h.ID())
			if err != nil {
				logger.With(logger.Fields{"guild": g.ID, "job": h.ID()}).Error(fmt.Sprintf("No se pudo cancelar el trabajo: %v", err), "Guild")
				continue
			}
			if ok {
				canceled++
			}
		}
		if canceled > 0 {
			logger.With(logger.Fields{"guild": g.ID}).Info(fmt.Sprintf("%d trabajos cancelados al salir del servidor", canceled), "Guild")
		}
	}
}
