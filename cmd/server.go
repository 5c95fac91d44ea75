package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/swisspipe/swisspipe/core/backup"
	"github.com/swisspipe/swisspipe/core/config"
	"github.com/swisspipe/swisspipe/core/migrator"
	"github.com/swisspipe/swisspipe/core/variables"
	"github.com/swisspipe/swisspipe/migrations"
	"github.com/swisspipe/swisspipe/server"
	"github.com/swisspipe/swisspipe/storage"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the SwissPipe HTTP API",
	Long:  `Start the variables service: HTTP API, background job worker, retention sweep and periodic backup.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServer(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "server exited with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runServer(configPath string) error {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	defer func() { _ = cfg.Logger.Sync() }()

	db, err := storage.NewWithPath(cfg.DbPath)
	if err != nil {
		return fmt.Errorf("failed to open database at %s: %w", cfg.DbPath, err)
	}
	defer db.Close()

	encryption, err := variables.NewEncryptionService(cfg.EncryptionKeys, cfg.ActiveKeyID)
	if err != nil {
		return err
	}

	backupService := backup.NewService(cfg.Logger, db, cfg.BackupDir)
	m := migrator.NewMigrator(db, backupService, migrations.All(encryption), cfg.Logger)
	if err := m.Run(); err != nil {
		return err
	}

	srv, err := server.New(cfg, db)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		cfg.Logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
