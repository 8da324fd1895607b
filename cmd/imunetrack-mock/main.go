package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/app"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/server"
)

// configPaths collects repeated -config/-c flags; later files override earlier ones
type configPaths []string

func (c *configPaths) String() string { return strings.Join(*c, ",") }

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	port        int
	host        string
	version     bool
)

func init() {
	flag.Var(&configFiles, "config", "TOML config file, repeatable")
	flag.Var(&configFiles, "c", "shorthand for -config")
	flag.IntVar(&port, "port", 0, "listen port, overrides server.port")
	flag.IntVar(&port, "p", 0, "shorthand for -port")
	flag.StringVar(&host, "host", "", "listen host, overrides server.host")
	flag.BoolVar(&version, "version", false, "print version and exit")
	flag.BoolVar(&version, "v", false, "shorthand for -version")
}

func main() {
	flag.Parse()

	if version {
		fmt.Printf("ImuneTrack mock version %s\n", common.CurrentBuild())
		return
	}

	if len(configFiles) == 0 {
		configFiles = discoverConfig()
	}

	// defaults -> files -> .env -> env, then CLI flags
	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, port, host)

	logger := common.InitLogger(config)
	common.PrintBanner(config, logger)

	if err := run(config, logger); err != nil {
		logger.Error().Err(err).Msg("Mock backend failed")
		os.Exit(1)
	}
}

// discoverConfig looks for a config file in the working directory, then in deployments/local
func discoverConfig() configPaths {
	for _, candidate := range []string{"imunetrack.toml", "deployments/local/imunetrack.toml"} {
		if _, err := os.Stat(candidate); err == nil {
			return configPaths{candidate}
		}
	}
	return nil
}

// run serves until SIGINT/SIGTERM or a server error, then shuts down gracefully
func run(config *common.Config, logger arbor.ILogger) error {
	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	if err := application.ResetScheduler.Start(config.Mock.ResetSchedule); err != nil {
		return fmt.Errorf("failed to start fixture reset scheduler (%q): %w", config.Mock.ResetSchedule, err)
	}

	srv := server.New(application)
	listener, err := srv.Listen()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	logger.Info().
		Str("url", "http://"+listener.Addr().String()).
		Msg("Mock backend ready, press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		logger.Info().Msg("Interrupt signal received")
	case err := <-serveErr:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
