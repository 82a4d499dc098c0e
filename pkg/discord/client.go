// Package discord provides the Discord bot client and related structures.
// It wraps discordgo with command dispatch, permission checks and cooldowns.
package discord

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/cooldown"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/bwmarrin/discordgo"
)

func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		logger.Info(fmt.Sprintf(format, a...), "DiscordGo")
	}
}

// StatusFunc reports the job store state as a display string and a health flag
type StatusFunc func() (string, bool)

// Services are the long-lived collaborators commands reach through the client
type Services struct {
	Config      *config.Config
	Scheduler   *scheduler.Scheduler
	Cooldowns   *cooldown.Tracker
	StoreStatus StatusFunc
}

// ExtendedClient wraps discordgo.Session with additional functionality
type ExtendedClient struct {
	Session        *discordgo.Session
	Commands       *CommandCollection
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	Config         *config.Config
	Scheduler      *scheduler.Scheduler
	Cooldowns      *cooldown.Tracker
	StoreStatus    StatusFunc
	StartTime      time.Time
	mu             sync.RWMutex
	isReady        bool
}

// CommandCollection holds registered commands
type CommandCollection struct {
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[string]*Command),
	}
}

// Set adds or updates a command
func (cc *CommandCollection) Set(name string, cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[name] = cmd
}

// Get retrieves a command by name
func (cc *CommandCollection) Get(name string) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cmd, ok := cc.commands[name]
	return cmd, ok
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

// All returns all commands
func (cc *CommandCollection) All() map[string]*Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	result := make(map[string]*Command)
	for k, v := range cc.commands {
		result[k] = v
	}
	return result
}

var (
	client *ExtendedClient
	once   sync.Once
)

// Init initializes the global Discord client
func Init(token string, svc Services) (*ExtendedClient, error) {
	var err error
	once.Do(func() {
		client, err = NewClient(token, svc)
	})
	return client, err
}

// Get returns the global Discord client
func Get() *ExtendedClient {
	return client
}

// NewClient creates a new ExtendedClient
func NewClient(token string, svc Services) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	// Members intent is needed to see timeouts being lifted by hand
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans // GUILD_MODERATION (1<<2)

	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.LogLevel = discordgo.LogWarning

	if svc.Config == nil {
		svc.Config = config.Get()
	}
	if svc.StoreStatus == nil {
		svc.StoreStatus = func() (string, bool) { return "🟡 | Memoria", true }
	}

	c := &ExtendedClient{
		Session:     session,
		Commands:    NewCommandCollection(),
		Config:      svc.Config,
		Scheduler:   svc.Scheduler,
		Cooldowns:   svc.Cooldowns,
		StoreStatus: svc.StoreStatus,
	}

	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)

	return c, nil
}

// Start opens the gateway connection. Commands are pushed to Discord on Ready.
func (c *ExtendedClient) Start() error {
	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot conectado como: "+r.User.Username, "Client")

		c.CommandHandler.RegisterCommands()
	})

	c.Session.AddHandler(c.handleInteraction)

	c.StartTime = time.Now()

	return c.Session.Open()
}

// commandKey builds the collection key: "mod", "mod.ban" or "group.sub.cmd"
func commandKey(data discordgo.ApplicationCommandInteractionData) string {
	name := data.Name
	if len(data.Options) == 0 {
		return name
	}

	opt := data.Options[0]
	switch opt.Type {
	case discordgo.ApplicationCommandOptionSubCommandGroup:
		if len(opt.Options) > 0 {
			return name + "." + opt.Name + "." + opt.Options[0].Name
		}
	case discordgo.ApplicationCommandOptionSubCommand:
		return name + "." + opt.Name
	}
	return name
}

// CommandKeyFromPath turns "/mod ban" or "mod ban" into the key "mod.ban"
func CommandKeyFromPath(path string) string {
	return strings.Join(strings.Fields(strings.TrimPrefix(strings.TrimSpace(path), "/")), ".")
}

// handleInteraction handles incoming Discord interactions
func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer errors.RecoverMiddleware()()

	if i.Type != discordgo.InteractionApplicationCommand &&
		i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	commandName := commandKey(i.ApplicationCommandData())
	cmd, ok := c.Commands.Get(commandName)
	if !ok {
		if i.Type == discordgo.InteractionApplicationCommand {
			logger.Warn("Command not found: "+commandName, "Client")
		}
		return
	}

	ctx := &CommandContext{
		Session:     s,
		Interaction: i,
		Client:      c,
	}

	if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
		if cmd.AutoComplete != nil {
			cmd.AutoComplete(ctx)
		}
		return
	}

	if outsideGuild(cmd, i.GuildID) {
		_ = ctx.ReplyEphemeral("❌ Este comando solo funciona dentro de un servidor.")
		return
	}

	if missingPermissions(ctx.Member(), cmd.UserPermissions) {
		_ = ctx.ReplyEphemeral("❌ No tienes permisos suficientes para usar este comando.")
		return
	}

	if !c.checkCooldown(ctx, cmd, commandName) {
		return
	}

	if err := cmd.Run(ctx); err != nil {
		logger.With(logger.Fields{"command": commandName, "guild": i.GuildID}).Error("Error executing command: "+err.Error(), "Client")
	}
}

func outsideGuild(cmd *Command, guildID string) bool {
	return cmd.GuildOnly && guildID == ""
}

// missingPermissions reports whether member lacks any bit of perms.
// Administrators pass every check.
func missingPermissions(member *discordgo.Member, perms int64) bool {
	if perms == 0 {
		return false
	}
	if member == nil {
		return true
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return false
	}
	return member.Permissions&perms != perms
}

// cooldownWindow returns the command's own window, the default when unset,
// or zero when the command opted out.
func cooldownWindow(cmd *Command, def time.Duration) time.Duration {
	switch {
	case cmd.Cooldown < 0:
		return 0
	case cmd.Cooldown > 0:
		return cmd.Cooldown
	default:
		return def
	}
}

// isExempt reports whether member holds every bit of the exemption mask
func isExempt(member *discordgo.Member, perm int64) bool {
	if perm == 0 || member == nil {
		return false
	}
	return member.Permissions&perm == perm
}

// checkCooldown replies and returns false while the user is rate-limited
func (c *ExtendedClient) checkCooldown(ctx *CommandContext, cmd *Command, commandName string) bool {
	if c.Cooldowns == nil {
		return true
	}

	var def time.Duration
	var exemptPerm int64
	if c.Config != nil {
		def = c.Config.DefaultCooldown
		exemptPerm = c.Config.CooldownExemptPermission
	}

	window := cooldownWindow(cmd, def)
	if window == 0 || isExempt(ctx.Member(), exemptPerm) {
		return true
	}

	user := ctx.User()
	if user == nil {
		return true
	}
	guildID := ctx.Interaction.GuildID
	if guildID == "" {
		guildID = "dm"
	}

	res := c.Cooldowns.TryAcquire(guildID, commandName, user.ID, window)
	if res.Allowed {
		return true
	}

	_ = ctx.ReplyEphemeral(fmt.Sprintf("⏳ Espera **%s** antes de volver a usar este comando.", res.RemainingText()))
	return false
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}
