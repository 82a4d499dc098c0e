package discord

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler builds the slash command tree and pushes it to Discord
type CommandHandler struct {
	client        *ExtendedClient
	slashCommands []*discordgo.ApplicationCommand
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:        client,
		slashCommands: make([]*discordgo.ApplicationCommand, 0),
	}
}

// BuildCommandGroup creates a command group with subcommands and routes
// "name.sub" to each of them
func (ch *CommandHandler) BuildCommandGroup(name, description string, subcommands ...*Command) *discordgo.ApplicationCommand {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))
	guildOnly := len(subcommands) > 0

	for _, cmd := range subcommands {
		guildOnly = guildOnly && cmd.GuildOnly
		fullName := name + "." + cmd.Name
		ch.client.Commands.Set(fullName, cmd)

		opt := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		}
		options = append(options, opt)
	}

	group := &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     options,
	}
	// Hide the whole group in DMs when no subcommand works there
	if guildOnly {
		dm := false
		group.DMPermission = &dm
	}
	return group
}

// AddGlobalCommand adds a command to the list pushed to Discord
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.slashCommands = append(ch.slashCommands, cmd)
	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// SlashCommands returns the commands that will be pushed to Discord
func (ch *CommandHandler) SlashCommands() []*discordgo.ApplicationCommand {
	return ch.slashCommands
}

// targetGuild is the dev guild outside production, "" (global) otherwise
func (ch *CommandHandler) targetGuild() string {
	cfg := ch.client.Config
	if cfg == nil || cfg.IsProd() {
		return ""
	}
	return cfg.DevGuildID
}

// RegisterCommands overwrites the remote command set with the local one.
// Outside production with a dev guild configured, commands go to that guild
// so changes show up instantly.
func (ch *CommandHandler) RegisterCommands() {
	guildID := ch.targetGuild()
	if guildID == "" {
		logger.Info("🔄 Registrando comandos globales...", "CommandHandler")
	} else {
		logger.Info("🔄 Registrando comandos de desarrollo en el servidor "+guildID+"...", "CommandHandler")
	}

	if err := ch.sync(guildID); err != nil {
		logger.Error("Error registrando comandos: "+err.Error(), "CommandHandler")
		return
	}

	logger.Success(fmt.Sprintf("✅ %d comandos registrados.", len(ch.slashCommands)), "CommandHandler")
}

func (ch *CommandHandler) sync(guildID string) error {
	_, err := ch.client.Session.ApplicationCommandBulkOverwrite(
		ch.client.Session.State.User.ID,
		guildID,
		ch.slashCommands,
	)
	return err
}

// SyncCommands replaces the global commands, dropping stale ones
func (ch *CommandHandler) SyncCommands() error {
	return ch.sync("")
}

// SyncGuildCommands replaces the commands of one guild
func (ch *CommandHandler) SyncGuildCommands(guildID string) error {
	return ch.sync(guildID)
}

// ListGlobalCommands returns the global commands Discord knows about
func (ch *CommandHandler) ListGlobalCommands() ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.client.Session.State.User.ID, "")
}

// ListGuildCommands returns the commands registered in one guild
func (ch *CommandHandler) ListGuildCommands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.client.Session.State.User.ID, guildID)
}

// UnregisterCommands removes all registered global commands
func (ch *CommandHandler) UnregisterCommands() error {
	return ch.unregister("")
}

// UnregisterGuildCommands removes all commands of one guild
func (ch *CommandHandler) UnregisterGuildCommands(guildID string) error {
	return ch.unregister(guildID)
}

func (ch *CommandHandler) unregister(guildID string) error {
	appID := ch.client.Session.State.User.ID
	commands, err := ch.client.Session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}

	for _, cmd := range commands {
		if err := ch.client.Session.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.Error("Error eliminando comando "+cmd.Name+": "+err.Error(), "CommandHandler")
		}
	}
	return nil
}
