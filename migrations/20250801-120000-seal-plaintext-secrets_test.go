package migrations

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swisspipe/swisspipe/core/config"
	"github.com/swisspipe/swisspipe/core/testutil"
	"github.com/swisspipe/swisspipe/core/variables"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/storage"
)

func TestSealPlaintextSecrets(t *testing.T) {
	db := testutil.TestMustDB()
	t.Cleanup(func() {
		_ = storage.Destroy(db.(*storage.BadgerStorage))
	})

	encryption, err := variables.NewEncryptionService(testutil.TestEncryptionKeys(), config.DefaultKeyID)
	assert.NoError(t, err)

	put := func(key string, v model.Variable) {
		data, err := json.Marshal(&v)
		assert.NoError(t, err)
		assert.NoError(t, db.Set([]byte(key), data))
	}

	// legacy plaintext secret
	put("var:wf1:DB_PASSWORD", model.Variable{
		Name: "DB_PASSWORD", Type: model.VariableTypeSecret, Value: "hunter2", WorkflowID: "wf1",
	})
	// already sealed secret stays untouched
	sealed, err := encryption.Seal("token", "wf1")
	assert.NoError(t, err)
	put("var:wf1:API_TOKEN", model.Variable{
		Name: "API_TOKEN", Type: model.VariableTypeSecret, Value: sealed, WorkflowID: "wf1",
	})
	// text variable stays plaintext
	put("var:wf1:DB_HOST", model.Variable{
		Name: "DB_HOST", Type: model.VariableTypeText, Value: "db.internal", WorkflowID: "wf1",
	})

	updated, err := SealPlaintextSecrets(encryption)(db)
	assert.NoError(t, err)
	assert.Equal(t, 1, updated)

	var got model.Variable

	data, err := db.GetKey([]byte("var:wf1:DB_PASSWORD"))
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, variables.IsSealed(got.Value))

	plaintext, err := encryption.Unseal(got.Value, "wf1")
	assert.NoError(t, err)
	assert.Equal(t, "hunter2", plaintext)

	data, err = db.GetKey([]byte("var:wf1:API_TOKEN"))
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, sealed, got.Value)

	data, err = db.GetKey([]byte("var:wf1:DB_HOST"))
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "db.internal", got.Value)

	// second run touches nothing
	updated, err = SealPlaintextSecrets(encryption)(db)
	assert.NoError(t, err)
	assert.Equal(t, 0, updated)
}
