// Package migrations holds the ordered list of storage migrations applied at
// server startup. Names are timestamped so new migrations sort after old ones.
package migrations

import (
	"github.com/swisspipe/swisspipe/core/migrator"
	"github.com/swisspipe/swisspipe/core/variables"
)

func All(encryption *variables.EncryptionService) []migrator.Migration {
	return []migrator.Migration{
		{
			Name:     "20250801-120000-seal-plaintext-secrets",
			Function: SealPlaintextSecrets(encryption),
		},
	}
}
