// Package main is the entry point for the PancyMod Go application.
// It wires the job store, scheduler and cooldowns into the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/events"
	"github.com/PancyStudios/PancyModGo/internal/jobs"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/cooldown"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/PancyStudios/PancyModGo/pkg/sqlstore"
	"github.com/PancyStudios/PancyModGo/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando PancyMod Go...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	var (
		discordClient *discord.ExtendedClient
		sch           *scheduler.Scheduler
	)
	errors.Init(cfg.ErrorWebhook, func() {
		if sch != nil {
			sch.Stop()
		}
		if discordClient != nil {
			_ = discordClient.Stop()
		}
	})

	store, storeStatus, closeStore := openStore(cfg)
	defer closeStore()

	// The session has to exist before the job handlers can be registered
	discordClient, err = discord.Init(cfg.BotToken, discord.Services{
		Config:      cfg,
		StoreStatus: storeStatus,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	registry := scheduler.NewRegistry()
	if err := jobs.Register(registry, discordClient.Session); err != nil {
		logger.Critical(fmt.Sprintf("Error registrando trabajos: %v", err), "Main")
		os.Exit(1)
	}

	mqttClientID := "pancymod"
	if !cfg.IsProd() {
		mqttClientID = "pancymod_canary"
	}
	mqttClient := mqtt.Init(cfg.MQTTHost, cfg.MQTTPort, cfg.MQTTUser, cfg.MQTTPassword, mqttClientID)
	defer mqttClient.Destroy()

	jobEvents := mqtt.NewJobEvents(mqttClient, 0)
	defer jobEvents.Close()

	sch = scheduler.New(store, registry, scheduler.Options{Observer: jobEvents})
	defer sch.Stop()

	// Restore before any command can schedule new work
	if !restore(sch) {
		stopRetry := make(chan struct{})
		defer close(stopRetry)
		go retryRestore(sch, 15*time.Second, stopRetry)
	}

	cooldowns := cooldown.New(nil)
	defer cooldowns.Stop()

	discordClient.Scheduler = sch
	discordClient.Cooldowns = cooldowns

	mqttClient.On("jobs.list", mqtt.ListJobsHandler(sch))

	webServer, err := web.Init(cfg.LogsWebServerHook, cfg.AllowedHosts)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating web server: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, web.Deps{
		Scheduler:   sch,
		StoreStatus: storeStatus,
		BotReady:    discordClient.IsReady,
	})
	webServer.StartAsync(cfg.Port)

	commands.RegisterAll(discordClient)
	events.RegisterAll(discordClient)

	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
		}
	}()

	logger.Success("PancyMod Go iniciado correctamente!", "Main")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyMod Go...", "Main")
}

// openStore builds the job store selected by storeDriver. An unknown driver
// falls back to memory so the bot still starts.
func openStore(cfg *config.Config) (scheduler.Store, discord.StatusFunc, func()) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
		if err != nil {
			// Keeps reconnecting in the background
			logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
		}
		store := database.NewDeferredStore(db)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureIndexes(ctx); err != nil {
			logger.Warn(fmt.Sprintf("No se pudieron crear los índices: %v", err), "Main")
		}
		cancel()

		return store, db.GetStatus, func() { _ = db.Disconnect() }

	case config.StoreSQLite:
		store, err := sqlstore.Open(cfg.SQLitePath)
		if err != nil {
			logger.Critical(fmt.Sprintf("Error abriendo %s: %v", cfg.SQLitePath, err), "Main")
			os.Exit(1)
		}
		status := func() (string, bool) { return "🟢 | SQLite", true }
		return store, status, func() { _ = store.Close() }

	case config.StoreMemory:
	default:
		logger.Warn(fmt.Sprintf("storeDriver %q desconocido, usando memoria", cfg.StoreDriver), "Main")
	}

	logger.Warn("Los trabajos programados no sobrevivirán a un reinicio (almacén en memoria)", "Main")
	status := func() (string, bool) { return "🟡 | Memoria", true }
	return scheduler.NewMemoryStore(), status, func() {}
}

func restore(sch *scheduler.Scheduler) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := sch.RestoreAll(ctx); err != nil {
		logger.Error(fmt.Sprintf("Los trabajos guardados no se pudieron restaurar: %v", err), "Main")
		return false
	}
	return true
}

// retryRestore keeps calling RestoreAll until the store answers. Jobs
// created meanwhile are already Pending and are not armed twice.
func retryRestore(sch *scheduler.Scheduler, every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if restore(sch) {
				return
			}
		}
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
