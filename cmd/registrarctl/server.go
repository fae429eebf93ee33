package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/registrar/pkg/config"
	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/server"
	"github.com/doodlesbykumbi/registrar/pkg/server/endpoints"
	"github.com/doodlesbykumbi/registrar/pkg/token"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the registrar application server",
	Long: `Run the registrar application server.

To run the server requires the environment variables REGISTRAR_APP_KEY and
DATABASE_URL.

By default, database migrations are run on startup. Use --no-migrate to skip.

With --reload-trigger, any write to the named file rebuilds the identity
cache, for deployments that change identities directly in the database.

With --catalogue, the named catalogue file is loaded on start and again
each time it changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		trigger, _ := cmd.Flags().GetString("reload-trigger")
		watchConfig, _ := cmd.Flags().GetBool("watch-config")
		catalogueFile, _ := cmd.Flags().GetString("catalogue")

		opts := serverOptions{
			migrate:       !noMigrate,
			reloadTrigger: trigger,
			watchConfig:   watchConfig,
			catalogue:     catalogueFile,
		}
		if err := runServer(host, port, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().String("reload-trigger", "", "file whose modification reloads the identity cache")
	serverCmd.Flags().Bool("watch-config", false, "re-read the log level when the config file changes")
	serverCmd.Flags().String("catalogue", "", "catalogue file to load on start and whenever it changes")
}

type serverOptions struct {
	migrate       bool
	reloadTrigger string
	watchConfig   bool
	catalogue     string
}

func runServer(host, port string, opts serverOptions) error {
	// Validate required settings first (fail fast)
	key, err := token.LoadKey()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	database, err := openDatabase(cfg, opts.migrate)
	if err != nil {
		return err
	}

	cache := identity.NewCache()
	tokens, err := token.NewService(key, cfg.TokenTTL(), cache)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.NewServer(cfg, database, cache, tokens, log, host, port)
	if err := s.ReloadCache(ctx, server.TriggerStartup, ""); err != nil {
		return err
	}
	endpoints.RegisterAll(s)

	if opts.reloadTrigger != "" {
		if err := touch(opts.reloadTrigger); err != nil {
			return err
		}
		if err := s.WatchReloadTrigger(ctx, opts.reloadTrigger); err != nil {
			return err
		}
	}
	if opts.catalogue != "" {
		if err := s.WatchCatalogue(ctx, opts.catalogue); err != nil {
			return fmt.Errorf("failed to load catalogue: %w", err)
		}
	}
	if opts.watchConfig {
		if err := watchConfigFile(ctx, log, cfg); err != nil {
			log.Warn().Err(err).Msg("config file is not watched")
		}
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("address", fmt.Sprintf("http://%s:%s", host, port)).Msg("running server")
		errs <- s.Start()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// touch creates path if it does not exist.
func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f.Close()
}

// watchConfigFile applies a changed log level from the config file. Other
// attributes take effect on restart.
func watchConfigFile(ctx context.Context, log zerolog.Logger, cfg *config.RegistrarConfig) error {
	path := cfg.ConfigFilePath()
	if _, err := os.Stat(path); err != nil {
		return err
	}
	return server.WatchFile(ctx, log, path, func() {
		if err := config.Reload(); err != nil {
			log.Error().Err(err).Str("file", path).Msg("failed to reload configuration")
			return
		}
		level := config.Get().Level()
		zerolog.SetGlobalLevel(level)
		log.Info().Str("log_level", level.String()).Msg("configuration reloaded")
	})
}
