package jobs

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	channel string
	content string
}

type fakeDiscord struct {
	timeouts  []string
	unbans    []string
	messages  []sent
	dmErr     error
	sendErrTo map[string]error
	unbanErr  error
}

func (f *fakeDiscord) GuildMemberTimeout(guildID, userID string, until *time.Time, _ ...discordgo.RequestOption) error {
	if until != nil {
		return stderrors.New("expected timeout to be cleared")
	}
	f.timeouts = append(f.timeouts, guildID+"/"+userID)
	return nil
}

func (f *fakeDiscord) GuildBanDelete(guildID, userID string, _ ...discordgo.RequestOption) error {
	if f.unbanErr != nil {
		return f.unbanErr
	}
	f.unbans = append(f.unbans, guildID+"/"+userID)
	return nil
}

func (f *fakeDiscord) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if err := f.sendErrTo[channelID]; err != nil {
		return nil, err
	}
	f.messages = append(f.messages, sent{channel: channelID, content: content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeDiscord) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.dmErr != nil {
		return nil, f.dmErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func registry(t *testing.T, dg Discord) *scheduler.Registry {
	t.Helper()
	reg := scheduler.NewRegistry()
	require.NoError(t, Register(reg, dg))
	return reg
}

func run(t *testing.T, reg *scheduler.Registry, name, guild string, args []string) error {
	t.Helper()
	fn, ok := reg.Lookup(name)
	require.True(t, ok, "handler %s not registered", name)
	return fn(scheduler.ExecContext{Context: context.Background(), GuildID: guild, ActionID: 1, HandlerName: name}, args)
}

func TestRegisterAll(t *testing.T) {
	reg := registry(t, &fakeDiscord{})
	assert.Equal(t, []string{Reminder, SendMessage, UnbanJob, UnmuteJob}, reg.Names())

	assert.Error(t, Register(reg, &fakeDiscord{}), "double registration must fail")
}

func TestUnmuteClearsTimeout(t *testing.T) {
	dg := &fakeDiscord{}
	reg := registry(t, dg)

	require.NoError(t, run(t, reg, UnmuteJob, "g1", UnmuteArgs("u42")))
	assert.Equal(t, []string{"g1/u42"}, dg.timeouts)
}

func TestUnbanIgnoresMissingBan(t *testing.T) {
	dg := &fakeDiscord{unbanErr: &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownBan}}}
	reg := registry(t, dg)

	assert.NoError(t, run(t, reg, UnbanJob, "g1", UnbanArgs("u1")))

	dg.unbanErr = stderrors.New("missing access")
	assert.Error(t, run(t, reg, UnbanJob, "g1", UnbanArgs("u1")))
}

func TestSendMessage(t *testing.T) {
	dg := &fakeDiscord{}
	reg := registry(t, dg)

	require.NoError(t, run(t, reg, SendMessage, "g1", SendMessageArgs("c1", "hola")))
	assert.Equal(t, []sent{{channel: "c1", content: "hola"}}, dg.messages)
}

func TestReminderFallsBackToChannel(t *testing.T) {
	dg := &fakeDiscord{}
	reg := registry(t, dg)

	require.NoError(t, run(t, reg, Reminder, "g1", ReminderArgs("u1", "c1", "votar")))
	require.Len(t, dg.messages, 1)
	assert.Equal(t, "dm-u1", dg.messages[0].channel)

	dg.messages = nil
	dg.dmErr = stderrors.New("cannot send messages to this user")
	require.NoError(t, run(t, reg, Reminder, "g1", ReminderArgs("u1", "c1", "votar")))
	require.Len(t, dg.messages, 1)
	assert.Equal(t, "c1", dg.messages[0].channel)
	assert.Contains(t, dg.messages[0].content, "<@u1>")
	assert.Contains(t, dg.messages[0].content, "votar")
}

func TestHandlersRejectShortArgs(t *testing.T) {
	reg := registry(t, &fakeDiscord{})

	for _, name := range []string{UnmuteJob, UnbanJob, SendMessage, Reminder} {
		assert.Error(t, run(t, reg, name, "g1", nil), name)
	}
}

func TestTargetUser(t *testing.T) {
	user, ok := TargetUser(UnbanJob, UnbanArgs("u9"))
	assert.True(t, ok)
	assert.Equal(t, "u9", user)

	_, ok = TargetUser(SendMessage, SendMessageArgs("c1", "x"))
	assert.False(t, ok)

	_, ok = TargetUser(UnmuteJob, nil)
	assert.False(t, ok)
}
