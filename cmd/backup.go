package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/swisspipe/swisspipe/core/backup"
	"github.com/swisspipe/swisspipe/core/config"
	"github.com/swisspipe/swisspipe/storage"
)

var (
	backupDir       string
	backupInterval  int
	backupDbPath    string
	restoreFromFile string

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup the variable store",
		Long: `Write a full backup of the store to a timestamped directory.

With --interval the command keeps running and backs up periodically,
without it a single backup is written and the command exits.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := runBackup(); err != nil {
				fmt.Fprintf(os.Stderr, "backup failed: %v\n", err)
				os.Exit(1)
			}
		},
	}

	restoreCmd = &cobra.Command{
		Use:   "restore",
		Short: "Restore the variable store from a backup file",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runRestore(); err != nil {
				fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
				os.Exit(1)
			}
		},
	}
)

func runBackup() error {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return err
	}

	dbPath := backupDbPath
	if dbPath == "" {
		dbPath = cfg.DbPath
	}
	dir := backupDir
	if dir == "" {
		dir = cfg.BackupDir
	}

	db, err := storage.NewWithPath(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := backup.NewService(cfg.Logger, db, dir)

	if backupInterval <= 0 {
		file, err := svc.PerformBackup()
		if err != nil {
			return err
		}
		fmt.Printf("backup written to %s\n", file)
		return nil
	}

	if err := svc.StartPeriodicBackup(time.Duration(backupInterval) * time.Minute); err != nil {
		return err
	}
	defer svc.StopPeriodicBackup()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}

func runRestore() error {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return err
	}

	dbPath := backupDbPath
	if dbPath == "" {
		dbPath = cfg.DbPath
	}

	db, err := storage.NewWithPath(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := backup.NewService(cfg.Logger, db, "")
	if err := svc.Restore(restoreFromFile); err != nil {
		return err
	}

	fmt.Printf("restored %s into %s\n", restoreFromFile, dbPath)
	return nil
}

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", "", "Backup directory (defaults to backup.dir from config)")
	backupCmd.Flags().IntVar(&backupInterval, "interval", 0, "Backup interval in minutes, 0 for a one-time backup")
	backupCmd.Flags().StringVar(&backupDbPath, "db-path", "", "Database path (defaults to db_path from config)")

	restoreCmd.Flags().StringVar(&restoreFromFile, "file", "", "Backup file to restore from")
	restoreCmd.Flags().StringVar(&backupDbPath, "db-path", "", "Database path (defaults to db_path from config)")
	_ = restoreCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
