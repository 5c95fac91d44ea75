package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/swisspipe/swisspipe/core/auth"
	"github.com/swisspipe/swisspipe/core/config"
)

var (
	apiKeySubject string
	apiKeyRoles   []string
	apiKeyTTLDays int

	createApiKeyCmd = &cobra.Command{
		Use:   "create-api-key",
		Short: "Mint a JWT API key",
		Long: `Mint a signed API key for the HTTP API.

The key is signed with the jwt_secret from the config file. Roles:
admin (read/write) and readonly.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.NewConfig(configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", configPath, err)
				os.Exit(1)
			}

			roles := make([]auth.ApiRole, len(apiKeyRoles))
			for i, r := range apiKeyRoles {
				roles[i] = auth.ApiRole(r)
			}

			token, err := auth.CreateAPIKey(cfg.JwtSecret, apiKeySubject, roles, time.Duration(apiKeyTTLDays)*24*time.Hour)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to create api key: %v\n", err)
				os.Exit(1)
			}

			fmt.Println(token)
		},
	}
)

func init() {
	createApiKeyCmd.Flags().StringVar(&apiKeySubject, "subject", "", "Subject of the key, e.g. an email address")
	createApiKeyCmd.Flags().StringSliceVar(&apiKeyRoles, "roles", []string{"admin"}, "Roles for the key")
	createApiKeyCmd.Flags().IntVar(&apiKeyTTLDays, "ttl-days", 365, "Key lifetime in days")
	_ = createApiKeyCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(createApiKeyCmd)
}
