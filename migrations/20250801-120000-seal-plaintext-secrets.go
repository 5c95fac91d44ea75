package migrations

import (
	"encoding/json"

	"github.com/swisspipe/swisspipe/core/migrator"
	"github.com/swisspipe/swisspipe/core/variables"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/storage"
)

// SealPlaintextSecrets seals secret-type variable records that still carry a
// plaintext value. Early imports wrote secrets unencrypted; after this runs
// every stored secret is an enc:v1 payload.
func SealPlaintextSecrets(encryption *variables.EncryptionService) migrator.MigrationFunc {
	return func(db storage.Storage) (int, error) {
		items, err := db.GetByPrefix([]byte("var:"))
		if err != nil {
			return 0, err
		}

		updated := 0
		for _, item := range items {
			var v model.Variable
			if err := json.Unmarshal(item.Value, &v); err != nil {
				// not a variable record, leave it alone
				continue
			}

			if !v.IsSecret() || variables.IsSealed(v.Value) {
				continue
			}

			sealed, err := encryption.Seal(v.Value, v.WorkflowID)
			if err != nil {
				return updated, err
			}
			v.Value = sealed

			data, err := json.Marshal(&v)
			if err != nil {
				return updated, err
			}
			if err := db.Set(item.Key, data); err != nil {
				return updated, err
			}
			updated++
		}

		return updated, nil
	}
}
