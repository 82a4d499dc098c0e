// Package jobs holds the deferred action handlers the scheduler can run.
// Each handler reads its args positionally; the helpers in this file build
// those args so callers and handlers agree on the layout.
package jobs

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/bwmarrin/discordgo"
)

// Handler names
const (
	UnmuteJob   = "unmute-job"
	UnbanJob    = "unban-job"
	SendMessage = "send-message"
	Reminder    = "reminder"
)

// Discord is the part of *discordgo.Session the handlers need
type Discord interface {
	GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
	GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Register adds every handler to reg
func Register(reg *scheduler.Registry, dg Discord) error {
	handlers := map[string]scheduler.HandlerFunc{
		UnmuteJob:   unmute(dg),
		UnbanJob:    unban(dg),
		SendMessage: sendMessage(dg),
		Reminder:    reminder(dg),
	}
	for name, fn := range handlers {
		if err := reg.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// UnmuteArgs lays out the args of an unmute-job
func UnmuteArgs(userID string) []string { return []string{userID} }

// UnbanArgs lays out the args of an unban-job
func UnbanArgs(userID string) []string { return []string{userID} }

// SendMessageArgs lays out the args of a send-message job
func SendMessageArgs(channelID, content string) []string { return []string{channelID, content} }

// ReminderArgs lays out the args of a reminder job
func ReminderArgs(userID, channelID, text string) []string {
	return []string{userID, channelID, text}
}

// TargetUser returns the user a moderation job acts on, if any
func TargetUser(handlerName string, args []string) (string, bool) {
	switch handlerName {
	case UnmuteJob, UnbanJob, Reminder:
		if len(args) > 0 {
			return args[0], true
		}
	}
	return "", false
}

func needArgs(name string, args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s needs %d args, got %d", name, n, len(args))
	}
	return nil
}

// gone reports Discord errors meaning the target no longer exists, so there
// is nothing left to undo
func gone(err error) bool {
	var restErr *discordgo.RESTError
	if !stderrors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownBan, discordgo.ErrCodeUnknownUser:
		return true
	}
	return false
}

func unmute(dg Discord) scheduler.HandlerFunc {
	return func(ctx scheduler.ExecContext, args []string) error {
		if err := needArgs(UnmuteJob, args, 1); err != nil {
			return err
		}
		err := dg.GuildMemberTimeout(ctx.GuildID, args[0], nil, discordgo.WithContext(ctx))
		if gone(err) {
			logger.With(logger.Fields{"job": ctx.ActionID, "user": args[0]}).Info("El usuario ya no está en el servidor", "Jobs")
			return nil
		}
		return err
	}
}

func unban(dg Discord) scheduler.HandlerFunc {
	return func(ctx scheduler.ExecContext, args []string) error {
		if err := needArgs(UnbanJob, args, 1); err != nil {
			return err
		}
		err := dg.GuildBanDelete(ctx.GuildID, args[0], discordgo.WithContext(ctx))
		if gone(err) {
			logger.With(logger.Fields{"job": ctx.ActionID, "user": args[0]}).Info("El baneo ya había sido retirado", "Jobs")
			return nil
		}
		return err
	}
}

func sendMessage(dg Discord) scheduler.HandlerFunc {
	return func(ctx scheduler.ExecContext, args []string) error {
		if err := needArgs(SendMessage, args, 2); err != nil {
			return err
		}
		_, err := dg.ChannelMessageSend(args[0], args[1], discordgo.WithContext(ctx))
		return err
	}
}

// reminder DMs the user and falls back to a mention in the original channel
// when DMs are closed
func reminder(dg Discord) scheduler.HandlerFunc {
	return func(ctx scheduler.ExecContext, args []string) error {
		if err := needArgs(Reminder, args, 3); err != nil {
			return err
		}
		userID, channelID, text := args[0], args[1], args[2]
		content := "⏰ **Recordatorio:** " + text

		dm, err := dg.UserChannelCreate(userID, discordgo.WithContext(ctx))
		if err == nil {
			if _, err = dg.ChannelMessageSend(dm.ID, content, discordgo.WithContext(ctx)); err == nil {
				return nil
			}
		}

		if channelID == "" {
			return err
		}
		_, err = dg.ChannelMessageSend(channelID, fmt.Sprintf("<@%s> %s", userID, content), discordgo.WithContext(ctx))
		return err
	}
}
