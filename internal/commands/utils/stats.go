package utils

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/bwmarrin/discordgo"
)

// createStatsCommand creates the /utils stats subcommand
func createStatsCommand() *discord.Command {
	return discord.NewCommand(
		"stats",
		"Muestra estadísticas del bot",
		"utils",
		statsHandler,
	)
}

func statsHandler(ctx *discord.CommandContext) error {
	go func() {
		defer errors.RecoverMiddleware()()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		memberCount := 0
		for _, guild := range ctx.Session.State.Guilds {
			memberCount += guild.MemberCount
		}

		pending, cooling := 0, 0
		if ctx.Client.Scheduler != nil {
			pending = ctx.Client.Scheduler.Len()
		}
		if ctx.Client.Cooldowns != nil {
			cooling = ctx.Client.Cooldowns.Len()
		}

		embed := &discordgo.MessageEmbed{
			Title: "📊 Estadísticas del Bot",
			Color: 0x5865F2,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "🤖 Versión del Bot", Value: config.Version, Inline: true},
				{Name: "🐹 Versión de Go", Value: strings.TrimPrefix(runtime.Version(), "go"), Inline: true},
				{Name: "📚 Versión de DiscordGo", Value: discordgo.VERSION, Inline: true},
				{Name: "🖥 Uso de RAM", Value: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024), Inline: true},
				{Name: "⚙️ Goroutines", Value: fmt.Sprintf("%d / %d CPUs", runtime.NumGoroutine(), runtime.NumCPU()), Inline: true},
				{Name: "⏱ Uptime", Value: formatDuration(time.Since(ctx.Client.StartTime)), Inline: true},
				{Name: "🏠 Guilds", Value: fmt.Sprintf("%d", ctx.Client.GuildCount()), Inline: true},
				{Name: "👥 Miembros", Value: fmt.Sprintf("%d", memberCount), Inline: true},
				{Name: "🗓 Acciones pendientes", Value: fmt.Sprintf("%d", pending), Inline: true},
				{Name: "⏳ Cooldowns activos", Value: fmt.Sprintf("%d", cooling), Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{
				Text:    "💫 - Developed by PancyStudios",
				IconURL: ctx.Client.Session.State.User.AvatarURL(""),
			},
			Timestamp: time.Now().Format(time.RFC3339),
		}

		_ = ctx.ReplyEmbed(embed)
	}()
	return nil
}

// formatDuration renders an uptime like "1 días, 2 horas, 5 segundos"
func formatDuration(dur time.Duration) string {
	days := int(dur.Hours() / 24)
	hours := int(dur.Hours()) % 24
	minutes := int(dur.Minutes()) % 60
	seconds := int(dur.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d días", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d horas", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutos", minutes))
	}
	if seconds > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d segundos", seconds))
	}

	return strings.Join(parts, ", ")
}
