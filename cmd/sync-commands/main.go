// Command sync-commands pushes the bot's slash command definitions to Discord
// without starting the scheduler or touching the job store.
//
//	sync-commands [-guild id] [sync|list|clean]
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

const prefix = "SyncCommands"

// target is either a single guild or, when empty, the global scope.
type target string

func (t target) String() string {
	if t == "" {
		return "global"
	}
	return "servidor " + string(t)
}

type action func(ch *discord.CommandHandler, t target) error

var actions = map[string]action{
	"sync":  runSync,
	"list":  runList,
	"clean": runClean,
}

func main() {
	guild := flag.String("guild", "", "ID del servidor; vacío para comandos globales")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "uso: %s [-guild id] [%s]\n", os.Args[0], strings.Join(actionNames(), "|"))
		flag.PrintDefaults()
	}
	flag.Parse()

	name, run, err := pickAction(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	client, err := discord.NewClient(cfg.BotToken, discord.Services{Config: cfg})
	if err != nil {
		logger.Critical(fmt.Sprintf("Cliente de Discord: %v", err), prefix)
		os.Exit(1)
	}
	if err := client.Session.Open(); err != nil {
		logger.Critical(fmt.Sprintf("Conexión a Discord: %v", err), prefix)
		os.Exit(1)
	}
	defer client.Session.Close()

	commands.RegisterAll(client)

	t := target(*guild)
	logger.With(logger.Fields{"action": name, "target": t.String()}).Info("Ejecutando", prefix)
	if err := run(client.CommandHandler, t); err != nil {
		logger.Error(fmt.Sprintf("%s (%s): %v", name, t, err), prefix)
		os.Exit(1)
	}
}

// pickAction resolves the positional argument, defaulting to sync.
func pickAction(args []string) (string, action, error) {
	if len(args) == 0 {
		return "sync", actions["sync"], nil
	}
	if len(args) > 1 {
		return "", nil, fmt.Errorf("se esperaba una sola acción, hay %d", len(args))
	}
	run, ok := actions[args[0]]
	if !ok {
		return "", nil, fmt.Errorf("acción desconocida %q", args[0])
	}
	return args[0], run, nil
}

func actionNames() []string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runSync(ch *discord.CommandHandler, t target) error {
	var err error
	if t == "" {
		err = ch.SyncCommands()
	} else {
		err = ch.SyncGuildCommands(string(t))
	}
	if err != nil {
		return err
	}
	logger.Success(fmt.Sprintf("%d comandos sincronizados (%s)", len(ch.SlashCommands()), t), prefix)
	return nil
}

func runList(ch *discord.CommandHandler, t target) error {
	var (
		remote []*discordgo.ApplicationCommand
		err    error
	)
	if t == "" {
		remote, err = ch.ListGlobalCommands()
	} else {
		remote, err = ch.ListGuildCommands(string(t))
	}
	if err != nil {
		return err
	}

	lines := commandPaths(remote)
	if len(lines) == 0 {
		logger.Info(fmt.Sprintf("Sin comandos registrados (%s)", t), prefix)
		return nil
	}
	for _, line := range lines {
		logger.Info(line, prefix)
	}
	return nil
}

func runClean(ch *discord.CommandHandler, t target) error {
	var err error
	if t == "" {
		err = ch.UnregisterCommands()
	} else {
		err = ch.UnregisterGuildCommands(string(t))
	}
	if err == nil {
		logger.Warn(fmt.Sprintf("Comandos eliminados (%s)", t), prefix)
	}
	return err
}

// commandPaths flattens groups into the "/group sub" form users type.
func commandPaths(cmds []*discordgo.ApplicationCommand) []string {
	var out []string
	for _, cmd := range cmds {
		subs := 0
		for _, opt := range cmd.Options {
			if opt.Type == discordgo.ApplicationCommandOptionSubCommand {
				out = append(out, fmt.Sprintf("/%s %s", cmd.Name, opt.Name))
				subs++
			}
		}
		if subs == 0 {
			out = append(out, "/"+cmd.Name)
		}
	}
	sort.Strings(out)
	return out
}
