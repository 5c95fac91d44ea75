package cmd

import (
	"fmt"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/swisspipe/swisspipe/core/config"
	"github.com/swisspipe/swisspipe/core/variables"
	"github.com/swisspipe/swisspipe/core/versions"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/storage"
)

type statusReport struct {
	Environment     string
	HttpBindAddress string
	DbPath          string

	EncryptionKeyIDs    []string
	ActiveKeyID         string
	UsingDevelopmentKey bool

	GlobalVariables   int64
	WorkflowVariables int64
	WorkflowVersions  int64
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store and configuration status",
	Long:  `Summarize the configuration and the contents of the variable store. Requires the server to be stopped, badger is single-process.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runStatus(); err != nil {
			fmt.Fprintf(os.Stderr, "status failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func runStatus() error {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return err
	}

	db, err := storage.NewWithPath(cfg.DbPath)
	if err != nil {
		return fmt.Errorf("cannot open database, is the server running? %w", err)
	}
	defer db.Close()

	report := statusReport{
		Environment:         string(cfg.Environment),
		HttpBindAddress:     cfg.HttpBindAddress,
		DbPath:              cfg.DbPath,
		ActiveKeyID:         cfg.ActiveKeyID,
		UsingDevelopmentKey: cfg.UsingDevelopmentKey,
	}

	for id := range cfg.EncryptionKeys {
		report.EncryptionKeyIDs = append(report.EncryptionKeyIDs, id)
	}

	globalVars, err := db.CountKeysByPrefix(variables.VariableStoragePrefix(model.GlobalScope))
	if err != nil {
		return err
	}
	allVars, err := db.CountKeysByPrefix([]byte("var:"))
	if err != nil {
		return err
	}
	versionCount, err := db.CountKeysByPrefix(versions.AllVersionsPrefix())
	if err != nil {
		return err
	}

	report.GlobalVariables = globalVars
	report.WorkflowVariables = allVars - globalVars
	report.WorkflowVersions = versionCount

	pp.Println(report)
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
