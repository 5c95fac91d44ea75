package variables

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/swisspipe/swisspipe/core/testutil"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/storage"
)

func newTestService(t *testing.T, macroVars map[string]string) (*Service, storage.Storage) {
	db := testutil.TestMustDB()
	t.Cleanup(func() {
		_ = storage.Destroy(db.(*storage.BadgerStorage))
	})

	return NewService(db, newTestEncryption(t), macroVars, testutil.GetLogger()), db
}

func TestCreateVariable(t *testing.T) {
	svc, _ := newTestService(t, nil)

	t.Run("Create text variable", func(t *testing.T) {
		v, err := svc.Create("wf1", CreateVariableRequest{
			Name:  "API_HOST",
			Type:  model.VariableTypeText,
			Value: "https://api.example.com",
		})
		assert.NoError(t, err)
		assert.Equal(t, "API_HOST", v.Name)
		assert.Equal(t, "https://api.example.com", v.Value)
		assert.NotEmpty(t, v.ID)
		assert.Equal(t, v.CreatedAt, v.UpdatedAt)
	})

	t.Run("Type defaults to text", func(t *testing.T) {
		v, err := svc.Create("wf1", CreateVariableRequest{Name: "PLAIN", Value: "x"})
		assert.NoError(t, err)
		assert.Equal(t, model.VariableTypeText, v.Type)
	})

	t.Run("Duplicate name in same scope fails", func(t *testing.T) {
		_, err := svc.Create("wf1", CreateVariableRequest{Name: "API_HOST", Value: "other"})
		assert.True(t, errors.Is(err, ErrDuplicateName))
	})

	t.Run("Same name in another scope is fine", func(t *testing.T) {
		_, err := svc.Create("wf2", CreateVariableRequest{Name: "API_HOST", Value: "other"})
		assert.NoError(t, err)
	})

	t.Run("Invalid names rejected", func(t *testing.T) {
		for _, name := range []string{"", "lower_case", "WITH-DASH", "WITH SPACE", "ünïcode"} {
			_, err := svc.Create("wf1", CreateVariableRequest{Name: name, Value: "x"})
			assert.Error(t, err, "name %q should be rejected", name)
		}
	})
}

func TestSecretVariableNeverPersistedInPlaintext(t *testing.T) {
	svc, db := newTestService(t, nil)

	_, err := svc.Create("wf1", CreateVariableRequest{
		Name:  "API_KEY",
		Type:  model.VariableTypeSecret,
		Value: "secret",
	})
	assert.NoError(t, err)

	raw, err := db.GetKey(VariableStorageKey("wf1", "API_KEY"))
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), "enc:v1:")

	// Callers still observe plaintext
	v, err := svc.Get("wf1", "API_KEY")
	assert.NoError(t, err)
	assert.Equal(t, "secret", v.Value)
	assert.True(t, v.IsSecret())
}

func TestGetVariable(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Create("wf1", CreateVariableRequest{Name: "TOKEN", Value: "abc"})
	assert.NoError(t, err)

	t.Run("Found", func(t *testing.T) {
		v, err := svc.Get("wf1", "TOKEN")
		assert.NoError(t, err)
		assert.Equal(t, "abc", v.Value)
	})

	t.Run("Missing name", func(t *testing.T) {
		_, err := svc.Get("wf1", "NOPE")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Wrong scope", func(t *testing.T) {
		_, err := svc.Get("wf2", "TOKEN")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestUpdateVariable(t *testing.T) {
	svc, db := newTestService(t, nil)

	_, err := svc.Create("wf1", CreateVariableRequest{
		Name:  "DB_PASS",
		Type:  model.VariableTypeSecret,
		Value: "old-pass",
	})
	assert.NoError(t, err)

	t.Run("Update secret value", func(t *testing.T) {
		v, err := svc.Update("wf1", "DB_PASS", UpdateVariableRequest{Value: "new-pass"})
		assert.NoError(t, err)
		assert.Equal(t, "new-pass", v.Value)
		assert.GreaterOrEqual(t, v.UpdatedAt, v.CreatedAt)

		raw, err := db.GetKey(VariableStorageKey("wf1", "DB_PASS"))
		assert.NoError(t, err)
		assert.NotContains(t, string(raw), "new-pass")

		got, err := svc.Get("wf1", "DB_PASS")
		assert.NoError(t, err)
		assert.Equal(t, "new-pass", got.Value)
	})

	t.Run("Update description", func(t *testing.T) {
		desc := "database password"
		v, err := svc.Update("wf1", "DB_PASS", UpdateVariableRequest{Value: "new-pass", Description: &desc})
		assert.NoError(t, err)
		assert.Equal(t, desc, v.Description)
	})

	t.Run("Update missing variable", func(t *testing.T) {
		_, err := svc.Update("wf1", "NOPE", UpdateVariableRequest{Value: "x"})
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestDeleteVariable(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Create("wf1", CreateVariableRequest{Name: "TEMP", Value: "x"})
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete("wf1", "TEMP"))

	_, err = svc.Get("wf1", "TEMP")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = svc.Delete("wf1", "TEMP")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListVariables(t *testing.T) {
	svc, _ := newTestService(t, nil)

	for _, name := range []string{"ZULU", "ALPHA", "MIKE"} {
		_, err := svc.Create("wf1", CreateVariableRequest{Name: name, Value: "v-" + name})
		assert.NoError(t, err)
	}
	_, err := svc.Create("wf2", CreateVariableRequest{Name: "OTHER", Value: "x"})
	assert.NoError(t, err)

	vars, err := svc.List("wf1")
	assert.NoError(t, err)
	assert.Len(t, vars, 3)

	// Key order means name order
	assert.Equal(t, "ALPHA", vars[0].Name)
	assert.Equal(t, "MIKE", vars[1].Name)
	assert.Equal(t, "ZULU", vars[2].Name)

	names, err := svc.Names("wf1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"ALPHA", "MIKE", "ZULU"}, names)
}

func TestDeleteScope(t *testing.T) {
	svc, _ := newTestService(t, nil)

	for _, name := range []string{"A1", "B2", "C3"} {
		_, err := svc.Create("wf1", CreateVariableRequest{Name: name, Value: "x"})
		assert.NoError(t, err)
	}
	_, err := svc.Create("wf2", CreateVariableRequest{Name: "KEEP", Value: "x"})
	assert.NoError(t, err)

	deleted, err := svc.DeleteScope("wf1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	vars, err := svc.List("wf1")
	assert.NoError(t, err)
	assert.Empty(t, vars)

	_, err = svc.Get("wf2", "KEEP")
	assert.NoError(t, err)
}

func TestLoadVariablesPrecedence(t *testing.T) {
	svc, _ := newTestService(t, map[string]string{
		"FROM_CONFIG": "macro",
		"SHADOWED":    "macro",
	})

	_, err := svc.Create(model.GlobalScope, CreateVariableRequest{Name: "SHADOWED", Value: "global"})
	assert.NoError(t, err)
	_, err = svc.Create(model.GlobalScope, CreateVariableRequest{Name: "GLOBAL_ONLY", Value: "global"})
	assert.NoError(t, err)
	_, err = svc.Create("wf1", CreateVariableRequest{Name: "SHADOWED", Value: "workflow"})
	assert.NoError(t, err)
	_, err = svc.Create("wf1", CreateVariableRequest{
		Name:  "SECRET_ONE",
		Type:  model.VariableTypeSecret,
		Value: "plain-secret",
	})
	assert.NoError(t, err)

	env, err := svc.LoadVariables("wf1")
	assert.NoError(t, err)

	assert.Equal(t, "macro", env["FROM_CONFIG"])
	assert.Equal(t, "global", env["GLOBAL_ONLY"])
	assert.Equal(t, "workflow", env["SHADOWED"], "workflow scope shadows global and macro")
	assert.Equal(t, "plain-secret", env["SECRET_ONE"], "secrets resolve to plaintext")
}
