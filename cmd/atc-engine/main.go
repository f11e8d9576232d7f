// atc-engine serves a simulated IFR clearance-delivery controller for
// flight simulator pilots over HTTP and websocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"

	"github.com/virtualatc/atc-engine/internal/airlines"
	"github.com/virtualatc/atc-engine/internal/airports"
	"github.com/virtualatc/atc-engine/internal/api"
	"github.com/virtualatc/atc-engine/internal/config"
	"github.com/virtualatc/atc-engine/internal/frequencies"
	"github.com/virtualatc/atc-engine/internal/llm"
	"github.com/virtualatc/atc-engine/internal/prompt"
	"github.com/virtualatc/atc-engine/internal/session"
	"github.com/virtualatc/atc-engine/internal/storage/sqlite"
	"github.com/virtualatc/atc-engine/internal/telemetry"
	"github.com/virtualatc/atc-engine/internal/weather"
	"github.com/virtualatc/atc-engine/internal/websocket"
	"github.com/virtualatc/atc-engine/pkg/logger"
)

// version is set by ldflags at build time.
var version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "atc-engine",
		Short: "simulated ATC clearance delivery for flight simulators",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the engine HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file (defaults apply when empty)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print the engine version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("atc-engine %s\n", version)
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "atc-engine: %s\n", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reference data: built-in tables unless a file override is configured.
	airlineDir := airlines.NewDirectory(log)
	if cfg.Data.AirlinesFile != "" {
		if err := airlineDir.LoadFile(cfg.Data.AirlinesFile); err != nil {
			return fmt.Errorf("failed to load airlines file: %w", err)
		}
	}
	airportGaz := airports.NewGazetteer(log)
	if cfg.Data.AirportsFile != "" {
		if err := airportGaz.LoadFile(cfg.Data.AirportsFile); err != nil {
			return fmt.Errorf("failed to load airports file: %w", err)
		}
	}
	freqDir := frequencies.NewDirectory(log)
	if cfg.Data.FrequenciesFile != "" {
		if err := freqDir.LoadFile(cfg.Data.FrequenciesFile); err != nil {
			return fmt.Errorf("failed to load frequencies file: %w", err)
		}
	}

	prompts, err := prompt.NewBuilder(prompt.Config{Dir: cfg.Prompts.Dir}, log)
	if err != nil {
		return fmt.Errorf("failed to create prompt builder: %w", err)
	}
	if cfg.Prompts.HotReload {
		go func() {
			if err := prompts.Watch(ctx); err != nil {
				log.Warn("Prompt template watcher exited", logger.Error(err))
			}
		}()
	}

	model := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		TimeoutSeconds: cfg.LLM.RequestTimeoutSeconds,
	}, log)

	weatherConfig := weather.DefaultConfig()
	if cfg.Weather.APIBaseURL != "" {
		weatherConfig.APIBaseURL = cfg.Weather.APIBaseURL
	}
	if cfg.Weather.RequestTimeoutSeconds > 0 {
		weatherConfig.RequestTimeoutSeconds = cfg.Weather.RequestTimeoutSeconds
	}
	if cfg.Weather.CacheExpiryMinutes > 0 {
		weatherConfig.CacheExpiryMinutes = cfg.Weather.CacheExpiryMinutes
	}
	weatherConfig.FetchMETAR = cfg.Weather.FetchMETAR
	weatherConfig.FetchTAF = cfg.Weather.FetchTAF
	weatherService := weather.NewService(weatherConfig, log)

	var journal *sqlite.JournalStorage
	if cfg.Storage.Enabled {
		db, err := sqlite.Open(cfg.Storage.DBPath, log)
		if err != nil {
			return fmt.Errorf("failed to open journal database: %w", err)
		}
		defer db.Close()
		journal, err = sqlite.NewJournalStorage(db, log)
		if err != nil {
			return fmt.Errorf("failed to initialize journal storage: %w", err)
		}
	}

	wsServer := websocket.NewServer(cfg.Server.CORSAllowedOrigins, log)

	manager := session.NewManager(session.Deps{
		Airlines:    airlineDir,
		Airports:    airportGaz,
		Frequencies: freqDir,
		Prompts:     prompts,
		Generator:   model.Generate,
		Weather:     weatherService,
		Journal:     journal,
		Events:      wsServer,
	}, session.Config{
		PendingRecheckSeconds: cfg.Session.PendingRecheckSeconds,
		MaxSessions:           cfg.Session.MaxSessions,
	}, log)

	poller := telemetry.NewPoller(ctx, telemetry.Config{
		Enabled:             cfg.Telemetry.Enabled,
		SourceURL:           cfg.Telemetry.EndpointURL,
		PollIntervalSeconds: cfg.Telemetry.PollIntervalSeconds,
	}, manager.ApplyTelemetry, log)
	if err := poller.Start(); err != nil {
		return fmt.Errorf("failed to start telemetry poller: %w", err)
	}

	router := api.NewRouter(manager, weatherService, journal, wsServer, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if cfg.Server.MaxConns > 0 {
		listener = netutil.LimitListener(listener, cfg.Server.MaxConns)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ATC engine listening",
			logger.String("addr", addr),
			logger.String("version", version),
			logger.String("model", cfg.LLM.Model))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown was not clean", logger.Error(err))
	}

	poller.Stop()
	manager.CloseAll()
	wsServer.Close()
	log.Info("Shutdown complete")
	return nil
}
