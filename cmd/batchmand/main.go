// Command batchmand runs the batch job orchestrator daemon: the HTTP API
// and the scheduler/runner/tracker background loops, supervised jointly
// under internal/worker.Manager (spec §9 "Background coordination").
//
// CLI shape grounded on petabytecl-gaz/examples/cobra-cli: a cobra root
// command with persistent flags bound through spf13/viper, a "serve"
// subcommand, and a "migrate" subcommand for schema-only bootstrap.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/myyrakle/batchman/internal/cdc"
	"github.com/myyrakle/batchman/internal/config"
	"github.com/myyrakle/batchman/internal/containerrt"
	"github.com/myyrakle/batchman/internal/dbsetup"
	"github.com/myyrakle/batchman/internal/httpapi"
	"github.com/myyrakle/batchman/internal/logging"
	"github.com/myyrakle/batchman/internal/repo"
	"github.com/myyrakle/batchman/internal/runner"
	"github.com/myyrakle/batchman/internal/scheduler"
	"github.com/myyrakle/batchman/internal/service"
	"github.com/myyrakle/batchman/internal/tracker"
	"github.com/myyrakle/batchman/internal/worker"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Defaults()
	var configPath string

	root := &cobra.Command{
		Use:   "batchmand",
		Short: "Batch job orchestrator daemon",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	config.Flags(&cfg, root.PersistentFlags())

	root.AddCommand(newServeCommand(&cfg, &configPath))
	root.AddCommand(newMigrateCommand(&cfg, &configPath))
	return root
}

func loadConfig(cmd *cobra.Command, cfg *config.Config, configPath *string) (config.Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config.Config{}, fmt.Errorf("batchmand: bind flags: %w", err)
	}
	return config.Load(v, *configPath)
}

func newServeCommand(cfg *config.Config, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background loops",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd, cfg, configPath)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), loaded)
		},
	}
}

func newMigrateCommand(cfg *config.Config, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := loadConfig(cmd, cfg, configPath)
			if err != nil {
				return err
			}
			db, err := dbsetup.Open(loaded.DBURL)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Println("migration applied")
			return nil
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := logging.New(logging.Config{
		Level:  parseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: "stdout",
	})
	slog.SetDefault(logger)

	db, err := dbsetup.Open(cfg.DBURL)
	if err != nil {
		return err
	}
	defer db.Close()

	taskDefRepo := repo.NewSQLiteTaskDefinitionRepository(db)
	jobRepo := repo.NewSQLiteJobRepository(db)
	scheduleRepo := repo.NewSQLiteScheduleRepository(db)

	containerRuntime := containerrt.NewDocker(cfg.ContainerRuntimeBin)
	bus := cdc.New(logger)

	jobSvc := service.NewJobService(jobRepo, taskDefRepo, containerRuntime, logger)
	scheduleSvc := service.NewScheduleService(scheduleRepo, taskDefRepo, bus, logger)

	router := httpapi.NewRouter(httpapi.Deps{
		DB:              db,
		TaskDefinitions: taskDefRepo,
		Jobs:            jobSvc,
		Schedules:       scheduleSvc,
		CORS:            httpapi.DefaultCORSConfig(),
		Logger:          logger,
	})

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Port = cfg.HTTPPort
	httpServer := httpapi.NewServer(serverCfg, router, logger)

	runnerLoop := runner.New(jobSvc, cfg.RunnerBatchSize, cfg.RunnerIdleInterval, logger)
	trackerLoop := tracker.New(jobSvc, cfg.TrackerActiveInterval, cfg.TrackerIdleInterval, logger)
	schedulerLoop := scheduler.New(scheduleSvc, jobSvc, scheduleRepo, bus, cfg.SchedulerTickInterval, cfg.SchedulerEmptyInterval, logger)

	manager := worker.NewManager(logger)
	if err := manager.Register(httpServer, true); err != nil {
		return err
	}
	if err := manager.Register(runnerLoop, true); err != nil {
		return err
	}
	if err := manager.Register(trackerLoop, true); err != nil {
		return err
	}
	if err := manager.Register(schedulerLoop, true); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Start(sigCtx); err != nil {
		return err
	}

	select {
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-manager.Failed():
		logger.Error("a critical worker failed, shutting down", slog.Any("error", err))
	}

	return manager.Stop(context.Background())
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
