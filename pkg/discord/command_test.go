package discord

import (
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/bwmarrin/discordgo"
)

// TestReplyEphemeralEmbedExists verifies that the ReplyEphemeralEmbed method exists
// and has the correct signature (compile-time check)
func TestReplyEphemeralEmbedExists(t *testing.T) {
	type replyEphemeralEmbedFunc func(*CommandContext, *discordgo.MessageEmbed) error
	var _ replyEphemeralEmbedFunc = (*CommandContext).ReplyEphemeralEmbed

	t.Log("✅ ReplyEphemeralEmbed method exists with correct signature: func(*CommandContext, *discordgo.MessageEmbed) error")
}

// TestCommandCreation verifies that commands can be created with the builder pattern
func TestCommandCreation(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("test", "Test command", "test", handler)

	if cmd == nil {
		t.Fatal("NewCommand returned nil")
	}

	if cmd.Name != "test" {
		t.Errorf("Name = %v, want %v", cmd.Name, "test")
	}

	if cmd.Description != "Test command" {
		t.Errorf("Description = %v, want %v", cmd.Description, "Test command")
	}

	if cmd.Category != "test" {
		t.Errorf("Category = %v, want %v", cmd.Category, "test")
	}

	if cmd.Run == nil {
		t.Error("Run function is nil")
	}
}

// TestCommandWithOptions verifies the WithOptions builder method
func TestCommandWithOptions(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "test-option",
		Description: "Test option",
		Required:    true,
	}

	cmd := NewCommand("test", "Test command", "test", handler).
		WithOptions(option)

	if cmd.Options == nil {
		t.Fatal("Options is nil")
	}

	if len(cmd.Options) != 1 {
		t.Fatalf("Options length = %v, want %v", len(cmd.Options), 1)
	}

	if cmd.Options[0].Name != "test-option" {
		t.Errorf("Option name = %v, want %v", cmd.Options[0].Name, "test-option")
	}
}

// TestCommandWithPermissions verifies the permission builder methods
func TestCommandWithPermissions(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	cmd := NewCommand("test", "Test command", "test", handler).
		WithUserPermissions(discordgo.PermissionAdministrator).
		WithBotPermissions(discordgo.PermissionSendMessages)

	if cmd.UserPermissions != discordgo.PermissionAdministrator {
		t.Errorf("UserPermissions = %v, want %v", cmd.UserPermissions, discordgo.PermissionAdministrator)
	}

	if cmd.BotPermissions != discordgo.PermissionSendMessages {
		t.Errorf("BotPermissions = %v, want %v", cmd.BotPermissions, discordgo.PermissionSendMessages)
	}
}

// TestToApplicationCommand verifies conversion to Discord application command
func TestToApplicationCommand(t *testing.T) {
	handler := func(ctx *CommandContext) error {
		return nil
	}

	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "test-option",
		Description: "Test option",
		Required:    true,
	}

	cmd := NewCommand("test", "Test command", "test", handler).
		WithOptions(option)

	appCmd := cmd.ToApplicationCommand()

	if appCmd == nil {
		t.Fatal("ToApplicationCommand returned nil")
	}

	if appCmd.Name != "test" {
		t.Errorf("ApplicationCommand Name = %v, want %v", appCmd.Name, "test")
	}

	if appCmd.Description != "Test command" {
		t.Errorf("ApplicationCommand Description = %v, want %v", appCmd.Description, "Test command")
	}

	if len(appCmd.Options) != 1 {
		t.Fatalf("ApplicationCommand Options length = %v, want %v", len(appCmd.Options), 1)
	}
}

// TestCommandCooldownBuilders verifies WithCooldown and WithoutCooldown
func TestCommandCooldownBuilders(t *testing.T) {
	handler := func(ctx *CommandContext) error { return nil }

	cmd := NewCommand("warn", "Advierte", "mod", handler).WithCooldown(5 * time.Second)
	if cmd.Cooldown != 5*time.Second {
		t.Errorf("Cooldown = %v, want %v", cmd.Cooldown, 5*time.Second)
	}

	cmd.WithoutCooldown()
	if cmd.Cooldown >= 0 {
		t.Errorf("Cooldown = %v, want negative", cmd.Cooldown)
	}
}

func TestCooldownWindow(t *testing.T) {
	def := 3 * time.Second

	tests := []struct {
		name     string
		cooldown time.Duration
		want     time.Duration
	}{
		{"default", 0, def},
		{"override", 10 * time.Second, 10 * time.Second},
		{"disabled", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &Command{Cooldown: tt.cooldown}
			if got := cooldownWindow(cmd, def); got != tt.want {
				t.Errorf("cooldownWindow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsExempt(t *testing.T) {
	admin := &discordgo.Member{Permissions: discordgo.PermissionAdministrator | discordgo.PermissionSendMessages}
	plain := &discordgo.Member{Permissions: discordgo.PermissionSendMessages}

	if !isExempt(admin, discordgo.PermissionAdministrator) {
		t.Error("admin should be exempt")
	}
	if isExempt(plain, discordgo.PermissionAdministrator) {
		t.Error("plain member should not be exempt")
	}
	if isExempt(admin, 0) {
		t.Error("a zero mask exempts nobody")
	}
	if isExempt(nil, discordgo.PermissionAdministrator) {
		t.Error("DM users have no member and are never exempt")
	}
}

func TestMissingPermissions(t *testing.T) {
	mod := &discordgo.Member{Permissions: discordgo.PermissionModerateMembers | discordgo.PermissionBanMembers}
	admin := &discordgo.Member{Permissions: discordgo.PermissionAdministrator}
	plain := &discordgo.Member{Permissions: discordgo.PermissionSendMessages}

	tests := []struct {
		name   string
		member *discordgo.Member
		perms  int64
		want   bool
	}{
		{"no requirement", plain, 0, false},
		{"has bit", mod, discordgo.PermissionBanMembers, false},
		{"has all bits", mod, discordgo.PermissionBanMembers | discordgo.PermissionModerateMembers, false},
		{"lacks one bit", mod, discordgo.PermissionBanMembers | discordgo.PermissionKickMembers, true},
		{"admin bypass", admin, discordgo.PermissionBanMembers, false},
		{"plain member", plain, discordgo.PermissionModerateMembers, true},
		{"no member", nil, discordgo.PermissionModerateMembers, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := missingPermissions(tt.member, tt.perms); got != tt.want {
				t.Errorf("missingPermissions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCommandKey(t *testing.T) {
	tests := []struct {
		name string
		data discordgo.ApplicationCommandInteractionData
		want string
	}{
		{"plain", discordgo.ApplicationCommandInteractionData{Name: "ping"}, "ping"},
		{
			"subcommand",
			discordgo.ApplicationCommandInteractionData{Name: "mod", Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "ban", Type: discordgo.ApplicationCommandOptionSubCommand},
			}},
			"mod.ban",
		},
		{
			"group",
			discordgo.ApplicationCommandInteractionData{Name: "jobs", Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "admin", Type: discordgo.ApplicationCommandOptionSubCommandGroup, Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "purge", Type: discordgo.ApplicationCommandOptionSubCommand},
				}},
			}},
			"jobs.admin.purge",
		},
		{
			"plain with options",
			discordgo.ApplicationCommandInteractionData{Name: "say", Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "text", Type: discordgo.ApplicationCommandOptionString},
			}},
			"say",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := commandKey(tt.data); got != tt.want {
				t.Errorf("commandKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildCommandGroupRoutesSubcommands(t *testing.T) {
	c := &ExtendedClient{Commands: NewCommandCollection()}
	ch := NewCommandHandler(c)
	handler := func(ctx *CommandContext) error { return nil }

	group := ch.BuildCommandGroup("jobs", "Trabajos programados",
		NewCommand("list", "Lista", "jobs", handler),
		NewCommand("cancel", "Cancela", "jobs", handler),
	)
	ch.AddGlobalCommand(group)

	if len(group.Options) != 2 {
		t.Fatalf("Options length = %v, want %v", len(group.Options), 2)
	}
	if _, ok := c.Commands.Get("jobs.cancel"); !ok {
		t.Error("jobs.cancel not routed")
	}
	if c.Commands.Size() != 2 {
		t.Errorf("Size() = %v, want %v", c.Commands.Size(), 2)
	}
	if len(ch.SlashCommands()) != 1 {
		t.Errorf("SlashCommands() length = %v, want %v", len(ch.SlashCommands()), 1)
	}
}

func TestOutsideGuild(t *testing.T) {
	handler := func(ctx *CommandContext) error { return nil }
	guildOnly := NewCommand("remind", "Recordatorio", "utils", handler).InGuildOnly()
	anywhere := NewCommand("ping", "Latencia", "utils", handler)

	tests := []struct {
		name    string
		cmd     *Command
		guildID string
		want    bool
	}{
		{"guild only in dm", guildOnly, "", true},
		{"guild only in guild", guildOnly, "123", false},
		{"anywhere in dm", anywhere, "", false},
		{"anywhere in guild", anywhere, "123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outsideGuild(tt.cmd, tt.guildID); got != tt.want {
				t.Errorf("outsideGuild() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildCommandGroupHidesGuildOnlyInDMs(t *testing.T) {
	ch := NewCommandHandler(&ExtendedClient{Commands: NewCommandCollection()})
	handler := func(ctx *CommandContext) error { return nil }

	mod := ch.BuildCommandGroup("mod", "Moderación",
		NewCommand("ban", "Banea", "mod", handler).InGuildOnly(),
		NewCommand("warn", "Advierte", "mod", handler).InGuildOnly(),
	)
	if mod.DMPermission == nil || *mod.DMPermission {
		t.Errorf("DMPermission = %v, want false", mod.DMPermission)
	}

	mixed := ch.BuildCommandGroup("utils", "Utilidades",
		NewCommand("ping", "Latencia", "utils", handler),
		NewCommand("remind", "Recordatorio", "utils", handler).InGuildOnly(),
	)
	if mixed.DMPermission != nil {
		t.Errorf("DMPermission = %v, want nil", *mixed.DMPermission)
	}
}

func TestTargetGuild(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{"no config", nil, ""},
		{"prod", &config.Config{Environment: "prod", DevGuildID: "123"}, ""},
		{"dev with guild", &config.Config{Environment: "dev", DevGuildID: "123"}, "123"},
		{"dev without guild", &config.Config{Environment: "dev"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := NewCommandHandler(&ExtendedClient{Config: tt.cfg})
			if got := ch.targetGuild(); got != tt.want {
				t.Errorf("targetGuild() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandKeyFromPath(t *testing.T) {
	tests := map[string]string{
		"/mod ban":          "mod.ban",
		"utils remind":      "utils.remind",
		"  /jobs   cancel ": "jobs.cancel",
		"ping":              "ping",
		"":                  "",
	}

	for in, want := range tests {
		if got := CommandKeyFromPath(in); got != want {
			t.Errorf("CommandKeyFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
