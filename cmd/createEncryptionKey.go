package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swisspipe/swisspipe/core/variables"
)

var createEncryptionKeyCmd = &cobra.Command{
	Use:   "create-encryption-key",
	Short: "Generate a new AES-256 encryption key",
	Long: `Generate a random 32-byte encryption key, hex encoded.

Put it in SP_ENCRYPTION_KEY or under encryption.keys in the config file.
Existing sealed values keep decrypting with the key id they were sealed
under, new seals use the active key.`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := variables.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(key)
	},
}

func init() {
	rootCmd.AddCommand(createEncryptionKeyCmd)
}
