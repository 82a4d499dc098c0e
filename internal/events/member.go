package events

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/internal/jobs"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/bwmarrin/discordgo"
)

// RegisterMemberEvents registers the handlers that drop jobs made obsolete
// by a moderator acting directly in Discord
func RegisterMemberEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildBanRemove(banRemoveHandler(client.Scheduler))
	client.EventHandler.OnGuildMemberUpdate(memberUpdateHandler(client.Scheduler, time.Now))
}

// banRemoveHandler cancels the pending unban of a user unbanned by hand
func banRemoveHandler(sch *scheduler.Scheduler) discord.GuildBanRemoveHandler {
	return func(s *discordgo.Session, b *discordgo.GuildBanRemove) {
		if sch == nil || b.User == nil {
			return
		}
		dropPending(sch, b.GuildID, jobs.UnbanJob, b.User.ID)
	}
}

// memberUpdateHandler cancels the pending unmute once a member's timeout is gone
func memberUpdateHandler(sch *scheduler.Scheduler, now func() time.Time) discord.GuildMemberUpdateHandler {
	return func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if sch == nil || m.Member == nil || m.User == nil {
			return
		}
		if timedOut(m.Member, now()) {
			return
		}
		dropPending(sch, m.GuildID, jobs.UnmuteJob, m.User.ID)
	}
}

// timedOut reports whether the member is still under a communication timeout
func timedOut(m *discordgo.Member, now time.Time) bool {
	return m.CommunicationDisabledUntil != nil && m.CommunicationDisabledUntil.After(now)
}

func dropPending(sch *scheduler.Scheduler, guildID, handlerName, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	n, err := cmdutil.CancelPendingFor(ctx, sch, guildID, handlerName, userID)
	log := logger.With(logger.Fields{"guild": guildID, "user": userID, "handler": handlerName})
	if err != nil {
		log.Error(fmt.Sprintf("No se pudo cancelar el trabajo pendiente: %v", err), "Member")
		return
	}
	if n > 0 {
		log.Info(fmt.Sprintf("%d trabajos cancelados por una acción manual", n), "Member")
	}
}
